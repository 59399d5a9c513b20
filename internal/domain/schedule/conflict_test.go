//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/schedule"
	"booking-engine/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2030, 6, 3, h, m, 0, 0, time.UTC)
}

func slot(t *testing.T, start time.Time, minutes int) booking.TimeSlot {
	t.Helper()
	s, err := booking.NewTimeSlot(start, start.Add(time.Duration(minutes)*time.Minute))
	require.NoError(t, err)
	return s
}

func TestFindConflict(t *testing.T) {
	resourceID := uuid.New()
	stored := func(status booking.Status, start time.Time, minutes int) *booking.Booking {
		return builder.NewBookingBuilder().
			WithResource(resourceID).
			WithStatus(status).
			WithStart(start).
			WithDuration(minutes).
			BuildStored()
	}

	confirmed := stored(booking.StatusConfirmed, at(10, 0), 60)
	cancelled := stored(booking.StatusCancelled, at(12, 0), 60)
	completed := stored(booking.StatusCompleted, at(13, 0), 60)
	inProgress := stored(booking.StatusInProgress, at(14, 0), 60)
	otherResource := builder.NewBookingBuilder().WithStatus(booking.StatusConfirmed).WithStart(at(15, 0)).BuildStored()
	existing := []*booking.Booking{confirmed, cancelled, completed, inProgress, otherResource}

	cases := []struct {
		name    string
		slot    booking.TimeSlot
		exclude uuid.UUID
		want    *booking.Booking
	}{
		{name: "overlaps confirmed", slot: slot(t, at(10, 30), 60), want: confirmed},
		{name: "touching end is free", slot: slot(t, at(11, 0), 60)},
		{name: "touching start is free", slot: slot(t, at(9, 0), 60)},
		{name: "cancelled slot is free", slot: slot(t, at(12, 0), 60)},
		{name: "completed slot is free", slot: slot(t, at(13, 15), 30)},
		{name: "in progress blocks", slot: slot(t, at(14, 30), 15), want: inProgress},
		{name: "other resource ignored", slot: slot(t, at(15, 0), 60)},
		{name: "self excluded", slot: slot(t, at(10, 0), 60), exclude: confirmed.ID()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := schedule.FindConflict(existing, resourceID, c.slot, c.exclude)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.want != nil, schedule.HasConflict(existing, resourceID, c.slot, c.exclude))
		})
	}

	t.Run("CheckSlot carries the conflicting id", func(t *testing.T) {
		err := schedule.CheckSlot(existing, resourceID, slot(t, at(10, 59), 1), uuid.Nil)
		require.ErrorIs(t, err, booking.ErrSlotConflict)
		var ce *booking.ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, confirmed.ID(), ce.ConflictingID)

		require.NoError(t, schedule.CheckSlot(existing, resourceID, slot(t, at(11, 0), 1), uuid.Nil))
	})
}
