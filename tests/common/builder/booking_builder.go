//go:build unit || e2e

package builder

import (
	"time"

	"booking-engine/internal/domain/booking"
	reqdto "booking-engine/internal/handler/dto/request"

	"github.com/google/uuid"
)

// BaseTime is the fixed "now" used by builders; bookings default to two days later.
var BaseTime = time.Date(2030, time.June, 1, 8, 0, 0, 0, time.UTC)

type BookingBuilder struct {
	ID                 uuid.UUID
	ResourceID         uuid.UUID
	Customer           booking.CustomerRef
	Service            booking.ServiceRef
	Start              time.Time
	Status             booking.Status
	PaymentStatus      booking.PaymentStatus
	Notes              string
	CancellationReason string
	Now                time.Time
}

func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		ID:         uuid.New(),
		ResourceID: uuid.New(),
		Customer: booking.CustomerRef{
			ID:    uuid.New(),
			Name:  "Hana Sato",
			Email: "hana.sato@example.com",
			Phone: "+81-90-1234-5678",
		},
		Service: booking.ServiceRef{
			ID:              uuid.New(),
			Name:            "Haircut",
			DurationMinutes: 60,
			PriceCents:      4500,
			Category:        "hair",
		},
		Start:         BaseTime.Add(48*time.Hour + 2*time.Hour),
		Status:        booking.StatusPending,
		PaymentStatus: booking.PaymentPending,
		Notes:         "first visit",
		Now:           BaseTime,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) WithStatus(s booking.Status) *BookingBuilder {
	b.Status = s
	return b
}

func (b *BookingBuilder) WithResource(id uuid.UUID) *BookingBuilder {
	b.ResourceID = id
	return b
}

func (b *BookingBuilder) WithStart(t time.Time) *BookingBuilder {
	b.Start = t
	return b
}

func (b *BookingBuilder) WithDuration(minutes int) *BookingBuilder {
	b.Service.DurationMinutes = minutes
	return b
}

func (b *BookingBuilder) WithPrice(cents int64) *BookingBuilder {
	b.Service.PriceCents = cents
	return b
}

func (b *BookingBuilder) WithCustomerName(name string) *BookingBuilder {
	b.Customer.Name = name
	return b
}

func (b *BookingBuilder) WithServiceName(name string) *BookingBuilder {
	b.Service.Name = name
	return b
}

// Build methods

// BuildDomain goes through creation rules, so Status must be pending or confirmed.
func (b *BookingBuilder) BuildDomain() (*booking.Booking, error) {
	return booking.NewBooking(booking.NewParams{
		ID:            b.ID,
		ResourceID:    b.ResourceID,
		Customer:      b.Customer,
		Service:       b.Service,
		Start:         b.Start,
		Notes:         b.Notes,
		InitialStatus: b.Status,
	}, b.Now)
}

// BuildStored reconstructs a booking in any status, as if loaded from storage.
func (b *BookingBuilder) BuildStored() *booking.Booking {
	return booking.Reconstruct(booking.ReconstructParams{
		ID:                 b.ID,
		ResourceID:         b.ResourceID,
		Customer:           b.Customer,
		Service:            b.Service,
		Start:              b.Start,
		Status:             b.Status,
		TotalAmountCents:   b.Service.PriceCents,
		PaymentStatus:      b.PaymentStatus,
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.Now,
		UpdatedAt:          b.Now,
	})
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		CustomerID:     b.Customer.ID,
		ServiceID:      b.Service.ID,
		ScheduledStart: b.Start,
		Notes:          b.Notes,
		Confirm:        b.Status == booking.StatusConfirmed,
	}
}
