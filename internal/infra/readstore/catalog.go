package readstore

import (
	"context"

	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	getCustomerByIDSQL = `SELECT id, name, email, phone FROM customers WHERE id = $1`

	getServiceByIDSQL = `
SELECT id, resource_id, name, duration_min, price_cents, category
FROM services
WHERE id = $1`
)

// CatalogReadStore reads the customer and service catalog that bookings snapshot.
type CatalogReadStore struct {
	db db.DBTX
}

func NewCatalogReadStore(db db.DBTX) *CatalogReadStore {
	return &CatalogReadStore{db: db}
}

func (r *CatalogReadStore) CustomerByID(ctx context.Context, id uuid.UUID) (*shared.CustomerSnapshot, error) {
	var (
		c     shared.CustomerSnapshot
		phone pgtype.Text
	)
	err := r.db.QueryRow(ctx, getCustomerByIDSQL, id).Scan(&c.ID, &c.Name, &c.Email, &phone)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "customer not found", err)
		}
		return nil, infra.WrapRepoErr("failed to find customer by ID", err)
	}
	c.Phone = pgconv.StringFromPgtype(phone)
	return &c, nil
}

func (r *CatalogReadStore) ServiceByID(ctx context.Context, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	var (
		s        shared.ServiceSnapshot
		duration int32
	)
	err := r.db.QueryRow(ctx, getServiceByIDSQL, id).Scan(
		&s.ID, &s.ResourceID, &s.Name, &duration, &s.PriceCents, &s.Category,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "service not found", err)
		}
		return nil, infra.WrapRepoErr("failed to find service by ID", err)
	}
	s.DurationMinutes = int(duration)
	return &s, nil
}
