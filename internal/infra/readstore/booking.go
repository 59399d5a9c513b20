package readstore

import (
	"context"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/repository/converter"
	"booking-engine/internal/pkg/pgconv"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	getBookingByIDSQL = `SELECT ` + converter.BookingColumns + `
FROM bookings b
WHERE b.id = $1`

	findBookingsInRangeSQL = `SELECT ` + converter.BookingColumns + `
FROM bookings b
WHERE ($1::uuid IS NULL OR b.resource_id = $1)
  AND ($2::timestamptz IS NULL OR ` + converter.ScheduledEndExpr + ` > $2)
  AND ($3::timestamptz IS NULL OR b.scheduled_start < $3)
ORDER BY b.scheduled_start, b.id`
)

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(db db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: db}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := converter.ScanBooking(r.db.QueryRow(ctx, getBookingByIDSQL, id))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found", err)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}
	return b, nil
}

func (r *BookingReadStore) FindInRange(ctx context.Context, q queries.RangeQuery) ([]*booking.Booking, error) {
	resourceID := pgtype.UUID{Valid: false}
	if q.ResourceID != nil {
		resourceID = pgtype.UUID{Bytes: *q.ResourceID, Valid: true}
	}

	rows, err := r.db.Query(ctx, findBookingsInRangeSQL,
		resourceID,
		pgconv.TimePtrToPgtype(q.From),
		pgconv.TimePtrToPgtype(q.To),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	out := []*booking.Booking{}
	for rows.Next() {
		b, err := converter.ScanBooking(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read bookings", err)
	}
	return out, nil
}
