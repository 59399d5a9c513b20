package converter

import (
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// BookingColumns is the select list ScanBooking expects, in order.
const BookingColumns = `b.id, b.resource_id,
	b.customer_id, b.customer_name, b.customer_email, b.customer_phone,
	b.service_id, b.service_name, b.service_duration_min, b.service_price_cents, b.service_category,
	b.scheduled_start, b.status, b.total_amount_cents, b.payment_status,
	b.notes, b.cancellation_reason, b.created_at, b.updated_at`

// ScheduledEndExpr derives the end of a booking row aliased as b.
const ScheduledEndExpr = `(b.scheduled_start + make_interval(mins => b.service_duration_min))`

func ScanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, resourceID, customerID, serviceID uuid.UUID
		customerName, customerEmail           string
		customerPhone                         pgtype.Text
		serviceName, serviceCategory          string
		durationMin                           int32
		priceCents, totalCents                int64
		start, createdAt, updatedAt           time.Time
		status, paymentStatus                 string
		notes, reason                         pgtype.Text
	)
	err := row.Scan(
		&id, &resourceID,
		&customerID, &customerName, &customerEmail, &customerPhone,
		&serviceID, &serviceName, &durationMin, &priceCents, &serviceCategory,
		&start, &status, &totalCents, &paymentStatus,
		&notes, &reason, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	return booking.Reconstruct(booking.ReconstructParams{
		ID:         id,
		ResourceID: resourceID,
		Customer: booking.CustomerRef{
			ID:    customerID,
			Name:  customerName,
			Email: customerEmail,
			Phone: pgconv.StringFromPgtype(customerPhone),
		},
		Service: booking.ServiceRef{
			ID:              serviceID,
			Name:            serviceName,
			DurationMinutes: int(durationMin),
			PriceCents:      priceCents,
			Category:        serviceCategory,
		},
		Start:              start.UTC(),
		Status:             booking.Status(status),
		TotalAmountCents:   totalCents,
		PaymentStatus:      booking.PaymentStatus(paymentStatus),
		Notes:              pgconv.StringFromPgtype(notes),
		CancellationReason: pgconv.StringFromPgtype(reason),
		CreatedAt:          createdAt.UTC(),
		UpdatedAt:          updatedAt.UTC(),
	}), nil
}

// BookingInsertArgs matches the column order of the bookings insert.
func BookingInsertArgs(b *booking.Booking) []any {
	c, s := b.Customer(), b.Service()
	return []any{
		b.ID(), b.ResourceID(),
		c.ID, c.Name, c.Email, pgconv.TextFromString(c.Phone),
		s.ID, s.Name, int32(s.DurationMinutes), s.PriceCents, s.Category,
		b.ScheduledStart(), b.Status().String(), b.TotalAmount().Cents(), b.PaymentStatus().String(),
		pgconv.TextFromString(b.Notes().String()), pgconv.TextFromString(b.CancellationReason()),
		b.CreatedAt(), b.UpdatedAt(),
	}
}

// ActiveStatusValues lists the statuses that occupy a slot.
func ActiveStatusValues() []string {
	var out []string
	for _, s := range booking.AllStatuses() {
		if s.IsActive() {
			out = append(out, s.String())
		}
	}
	return out
}
