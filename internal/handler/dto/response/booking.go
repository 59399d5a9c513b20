package response

import (
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/listing"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type CustomerResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
}

type ServiceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"durationMinutes"`
	PriceCents      int64     `json:"priceCents"`
	Category        string    `json:"category,omitempty"`
}

type BookingResponse struct {
	ID                 uuid.UUID        `json:"id"`
	ResourceID         uuid.UUID        `json:"resourceId"`
	Customer           CustomerResponse `json:"customer"`
	Service            ServiceResponse  `json:"service"`
	ScheduledStart     time.Time        `json:"scheduledStart"`
	ScheduledEnd       time.Time        `json:"scheduledEnd"`
	Status             string           `json:"status"`
	TotalAmountCents   int64            `json:"totalAmountCents"`
	PaymentStatus      string           `json:"paymentStatus"`
	Notes              string           `json:"notes,omitempty"`
	CancellationReason string           `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

func FromBooking(b *booking.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:                 b.ID(),
		ResourceID:         b.ResourceID(),
		ScheduledStart:     b.ScheduledStart(),
		ScheduledEnd:       b.ScheduledEnd(),
		Status:             b.Status().String(),
		TotalAmountCents:   b.TotalAmount().Cents(),
		PaymentStatus:      b.PaymentStatus().String(),
		Notes:              b.Notes().String(),
		CancellationReason: b.CancellationReason(),
		CreatedAt:          b.CreatedAt(),
		UpdatedAt:          b.UpdatedAt(),
	}
	// Snapshot refs map field-for-field.
	_ = copier.Copy(&resp.Customer, b.Customer())
	_ = copier.Copy(&resp.Service, b.Service())
	return resp
}

type StatsResponse struct {
	Total                   int            `json:"total"`
	CountByStatus           map[string]int `json:"countByStatus"`
	RevenueOfCompletedCents int64          `json:"revenueOfCompletedCents"`
}

func FromStats(s listing.Stats) StatsResponse {
	counts := make(map[string]int, len(s.CountByStatus))
	for st, n := range s.CountByStatus {
		counts[st.String()] = n
	}
	return StatsResponse{
		Total:                   s.Total,
		CountByStatus:           counts,
		RevenueOfCompletedCents: s.RevenueOfCompleted.Cents(),
	}
}

type BookingListResponse struct {
	Bookings   []*BookingResponse `json:"bookings"`
	Stats      StatsResponse      `json:"stats"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

func FromBookingList(l *queries.BookingList) *BookingListResponse {
	items := make([]*BookingResponse, len(l.Bookings))
	for i, b := range l.Bookings {
		items[i] = FromBooking(b)
	}
	return &BookingListResponse{
		Bookings:   items,
		Stats:      FromStats(l.Stats),
		NextCursor: l.NextCursor,
	}
}
