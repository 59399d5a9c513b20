package shared

import (
	"time"

	"github.com/google/uuid"
)

type ResourceSnapshot struct {
	ID          uuid.UUID
	Name        string
	TimeZone    string
	OpensAt     int
	ClosesAt    int
	LeadTimeMin int
}

type CustomerSnapshot struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}

type ServiceSnapshot struct {
	ID              uuid.UUID
	ResourceID      uuid.UUID
	Name            string
	DurationMinutes int
	PriceCents      int64
	Category        string
}

// Outbox job states
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobSent       = "sent"
	JobFailed     = "failed"
)

// Notification kinds and topics
const (
	NotificationKindBooking = "booking"
	TopicBookingPending     = "booking.pending"
)

// PendingBookingNotice is the payload enqueued on pending creation.
type PendingBookingNotice struct {
	BookingID      uuid.UUID `json:"bookingId"`
	CustomerName   string    `json:"customerName"`
	ServiceName    string    `json:"serviceName"`
	ScheduledStart time.Time `json:"scheduledStart"`
}
