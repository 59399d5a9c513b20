package listing

import (
	"strings"
	"time"

	"booking-engine/internal/domain/booking"
)

// Criteria narrows a booking list. Zero values disable a step.
type Criteria struct {
	Search string
	Status booking.Status
	// From and To bound the scheduled start, From <= start < To.
	From *time.Time
	To   *time.Time
}

// Filter applies date range, then status, then a case-insensitive search over
// customer name, customer email and service name. Input order is preserved.
func Filter(bookings []*booking.Booking, c Criteria) []*booking.Booking {
	needle := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]*booking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if !inRange(b.ScheduledStart(), c.From, c.To) {
			continue
		}
		if c.Status != "" && b.Status() != c.Status {
			continue
		}
		if needle != "" && !matches(b, needle) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func inRange(start time.Time, from, to *time.Time) bool {
	if from != nil && start.Before(*from) {
		return false
	}
	if to != nil && !start.Before(*to) {
		return false
	}
	return true
}

func matches(b *booking.Booking, needle string) bool {
	c := b.Customer()
	return strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.Email), needle) ||
		strings.Contains(strings.ToLower(b.Service().Name), needle)
}
