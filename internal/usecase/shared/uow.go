package shared

import (
	"context"
	"time"

	"booking-engine/internal/domain/booking"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// WithinResource: write transaction holding the resource's exclusive write lock.
	// Conflict check and persist must both run inside fn.
	WithinResource(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context, tx Tx) error) error
	// CommandReads: snapshot reads for validation outside the lock
	CommandReads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Notifications() NotificationRepository
}

type CommandReads interface {
	BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	ResourceByID(ctx context.Context, id uuid.UUID) (*ResourceSnapshot, error)
	CustomerByID(ctx context.Context, id uuid.UUID) (*CustomerSnapshot, error)
	ServiceByID(ctx context.Context, id uuid.UUID) (*ServiceSnapshot, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	// GetForUpdate returns a copy the caller may mutate and pass to Update.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	Update(ctx context.Context, b *booking.Booking) error
	// ActiveOverlapping lists active bookings on the resource intersecting [from, to).
	ActiveOverlapping(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]*booking.Booking, error)
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}

// ResourceLocker serializes writers on one key across processes or goroutines.
type ResourceLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
