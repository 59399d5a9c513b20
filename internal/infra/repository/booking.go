package repository

import (
	"context"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/repository/converter"
	"booking-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	insertBookingSQL = `
INSERT INTO bookings (
	id, resource_id,
	customer_id, customer_name, customer_email, customer_phone,
	service_id, service_name, service_duration_min, service_price_cents, service_category,
	scheduled_start, status, total_amount_cents, payment_status,
	notes, cancellation_reason, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (id) DO NOTHING`

	getBookingForUpdateSQL = `SELECT ` + converter.BookingColumns + `
FROM bookings b
WHERE b.id = $1
FOR UPDATE`

	updateBookingSQL = `
UPDATE bookings
SET status = $2, payment_status = $3, cancellation_reason = $4, updated_at = $5
WHERE id = $1`

	activeOverlappingSQL = `SELECT ` + converter.BookingColumns + `
FROM bookings b
WHERE b.resource_id = $1
  AND b.status = ANY($2::text[])
  AND b.scheduled_start < $3
  AND ` + converter.ScheduledEndExpr + ` > $4
ORDER BY b.scheduled_start, b.id`
)

// BookingRepository writes bookings inside the caller's transaction.
type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(tx db.DBTX) *BookingRepository {
	return &BookingRepository{db: tx}
}

// Create reports DUPLICATE_KEY without aborting the transaction when the id is already stored.
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	tag, err := r.db.Exec(ctx, insertBookingSQL, converter.BookingInsertArgs(b)...)
	if err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindDuplicateKey, "booking already exists", nil)
	}
	return nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := converter.ScanBooking(r.db.QueryRow(ctx, getBookingForUpdateSQL, id))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock booking", err)
	}
	return b, nil
}

func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	tag, err := r.db.Exec(ctx, updateBookingSQL,
		b.ID(),
		b.Status().String(),
		b.PaymentStatus().String(),
		pgconv.TextFromString(b.CancellationReason()),
		b.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "booking not found", nil)
	}
	return nil
}

func (r *BookingRepository) ActiveOverlapping(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*booking.Booking, error) {
	rows, err := r.db.Query(ctx, activeOverlappingSQL, resourceID, converter.ActiveStatusValues(), to, from)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list overlapping bookings", err)
	}
	out, err := collectBookings(rows)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan overlapping bookings", err)
	}
	return out, nil
}

func collectBookings(rows pgx.Rows) ([]*booking.Booking, error) {
	defer rows.Close()
	var out []*booking.Booking
	for rows.Next() {
		b, err := converter.ScanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
