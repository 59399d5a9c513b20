package schedule

import (
	"booking-engine/internal/domain/booking"

	"github.com/google/uuid"
)

// FindConflict returns the first active booking on resourceID whose slot
// overlaps slot, skipping exclude. It returns nil when the slot is free.
func FindConflict(existing []*booking.Booking, resourceID uuid.UUID, slot booking.TimeSlot, exclude uuid.UUID) *booking.Booking {
	for _, b := range existing {
		if b.ID() == exclude || b.ResourceID() != resourceID || !b.IsActive() {
			continue
		}
		if b.Slot().Overlaps(slot) {
			return b
		}
	}
	return nil
}

func HasConflict(existing []*booking.Booking, resourceID uuid.UUID, slot booking.TimeSlot, exclude uuid.UUID) bool {
	return FindConflict(existing, resourceID, slot, exclude) != nil
}

// CheckSlot wraps a conflict as a *booking.ConflictError.
func CheckSlot(existing []*booking.Booking, resourceID uuid.UUID, slot booking.TimeSlot, exclude uuid.UUID) error {
	if c := FindConflict(existing, resourceID, slot, exclude); c != nil {
		return &booking.ConflictError{ConflictingID: c.ID()}
	}
	return nil
}
