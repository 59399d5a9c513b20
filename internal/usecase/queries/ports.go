package queries

import (
	"context"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/resource"

	"github.com/google/uuid"
)

// RangeQuery selects bookings whose slot intersects [From, To). Nil fields are unbounded.
type RangeQuery struct {
	ResourceID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// FindInRange returns bookings ordered by scheduled start, then id.
	FindInRange(ctx context.Context, q RangeQuery) ([]*booking.Booking, error)
}

type ResourceReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error)
}
