package readstore

import (
	"context"
	"time"

	"booking-engine/internal/domain/resource"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

const getResourceByIDSQL = `
SELECT id, name, time_zone, opens_at_min, closes_at_min, lead_time_min, created_at, updated_at
FROM resources
WHERE id = $1`

type ResourceReadStore struct {
	db db.DBTX
}

func NewResourceReadStore(db db.DBTX) *ResourceReadStore {
	return &ResourceReadStore{db: db}
}

type resourceRow struct {
	ID          uuid.UUID
	Name        string
	TimeZone    string
	OpensAt     int32
	ClosesAt    int32
	LeadTimeMin int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *ResourceReadStore) findRow(ctx context.Context, id uuid.UUID) (*resourceRow, error) {
	var row resourceRow
	err := r.db.QueryRow(ctx, getResourceByIDSQL, id).Scan(
		&row.ID, &row.Name, &row.TimeZone, &row.OpensAt, &row.ClosesAt, &row.LeadTimeMin,
		&row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "resource not found", err)
		}
		return nil, infra.WrapRepoErr("failed to find resource by ID", err)
	}
	return &row, nil
}

// FindByID returns the domain resource used by schedule queries.
func (r *ResourceReadStore) FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	row, err := r.findRow(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := resource.ReconstructResource(
		row.ID,
		row.Name,
		row.TimeZone,
		resource.OperatingWindow{OpensAt: int(row.OpensAt), ClosesAt: int(row.ClosesAt)},
		int(row.LeadTimeMin),
		row.CreatedAt,
		row.UpdatedAt,
	)
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "stored resource is invalid", err)
	}
	return res, nil
}

func (r *ResourceReadStore) Snapshot(ctx context.Context, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	row, err := r.findRow(ctx, id)
	if err != nil {
		return nil, err
	}
	return &shared.ResourceSnapshot{
		ID:          row.ID,
		Name:        row.Name,
		TimeZone:    row.TimeZone,
		OpensAt:     int(row.OpensAt),
		ClosesAt:    int(row.ClosesAt),
		LeadTimeMin: int(row.LeadTimeMin),
	}, nil
}
