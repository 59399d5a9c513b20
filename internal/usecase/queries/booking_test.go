//go:build unit

package queries_test

import (
	"context"
	"math"
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra/memstore"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/queries"
	"booking-engine/internal/usecase/shared"
	"booking-engine/tests/common/builder"
	"booking-engine/tests/common/memtest"
	"booking-engine/tests/common/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOpts = shared.Options{RequestTimeout: 2 * time.Second, RetryDelay: time.Millisecond}

func at(hour, minute int) time.Time {
	return time.Date(2030, time.June, 3, hour, minute, 0, 0, time.UTC)
}

type fixture struct {
	store *memstore.Store
	cat   memtest.Catalog
	q     queries.BookingQueries
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, _, cat := memtest.NewSeededStore(t)
	return &fixture{
		store: store,
		cat:   cat,
		q:     queries.NewBookingQueries(store.Bookings(), store.Resources(), testOpts),
	}
}

func (f *fixture) put(mutate func(b *builder.BookingBuilder)) *booking.Booking {
	b := builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
		b.ResourceID = f.cat.Resource.ID()
	}).With(mutate).BuildStored()
	f.store.PutBooking(b)
	return b
}

func ids(bs []*booking.Booking) []uuid.UUID {
	out := make([]uuid.UUID, len(bs))
	for i, b := range bs {
		out[i] = b.ID()
	}
	return out
}

func TestGetBooking(t *testing.T) {
	f := newFixture(t)
	b := f.put(func(b *builder.BookingBuilder) {})

	got, err := f.q.GetBooking(context.Background(), b.ID())
	require.NoError(t, err)
	assert.Equal(t, b.ID(), got.ID())

	_, err = f.q.GetBooking(context.Background(), uuid.New())
	testutil.RequireMarked(t, err, errs.ErrBookingNotFound)
}

func TestGetSchedule(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2030, time.June, 3, 0, 0, 0, 0, time.UTC)

	t.Run("grid covers the operating window", func(t *testing.T) {
		f := newFixture(t)
		a := f.put(func(b *builder.BookingBuilder) { b.Start = at(9, 0); b.Status = booking.StatusConfirmed })
		f.put(func(b *builder.BookingBuilder) { b.Start = at(13, 0); b.Status = booking.StatusCancelled })
		c := f.put(func(b *builder.BookingBuilder) { b.Start = at(13, 30) })

		grid, err := f.q.GetSchedule(ctx, f.cat.Resource.ID(), day, 30)
		require.NoError(t, err)
		require.Len(t, grid.Buckets, 18)
		assert.Equal(t, []uuid.UUID{a.ID()}, ids(grid.Buckets[0].Bookings))
		assert.Equal(t, []uuid.UUID{a.ID()}, ids(grid.Buckets[1].Bookings))
		assert.Empty(t, grid.Buckets[8].Bookings)
		assert.Equal(t, []uuid.UUID{c.ID()}, ids(grid.Buckets[9].Bookings))
		assert.Equal(t, []uuid.UUID{c.ID()}, ids(grid.Buckets[10].Bookings))
	})

	t.Run("every divisor of the window yields the exact bucket count", func(t *testing.T) {
		f := newFixture(t)
		for _, g := range []int{1, 5, 15, 20, 30, 45, 60, 90, 180, 540} {
			grid, err := f.q.GetSchedule(ctx, f.cat.Resource.ID(), day, g)
			require.NoError(t, err, "granularity %d", g)
			assert.Len(t, grid.Buckets, 540/g)
		}
	})

	t.Run("bad granularity is a validation error", func(t *testing.T) {
		f := newFixture(t)
		for _, g := range []int{0, -15, 7, 50, 1 << 53, math.MaxInt} {
			_, err := f.q.GetSchedule(ctx, f.cat.Resource.ID(), day, g)
			testutil.RequireMarked(t, err, errs.ErrValidation, "granularity %d", g)
		}
	})

	t.Run("unknown resource", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.q.GetSchedule(ctx, uuid.New(), day, 60)
		testutil.RequireMarked(t, err, errs.ErrResourceNotFound)
	})
}

func TestListBookings(t *testing.T) {
	ctx := context.Background()

	seed := func(f *fixture) (pending, confirmed, completed, cancelled *booking.Booking) {
		pending = f.put(func(b *builder.BookingBuilder) { b.Start = at(9, 0) })
		confirmed = f.put(func(b *builder.BookingBuilder) {
			b.Start = at(10, 0)
			b.Status = booking.StatusConfirmed
			b.Customer.Name = "Ken Ito"
			b.Customer.Email = "ken@example.com"
		})
		completed = f.put(func(b *builder.BookingBuilder) {
			b.Start = at(11, 0)
			b.Status = booking.StatusCompleted
			b.Service.Name = "Colour"
			b.Service.PriceCents = 12000
		})
		cancelled = f.put(func(b *builder.BookingBuilder) {
			b.Start = at(11, 0).Add(24 * time.Hour)
			b.Status = booking.StatusCancelled
			b.CancellationReason = "moved away"
		})
		return
	}

	t.Run("stats count every status and completed revenue", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		got, err := f.q.ListBookings(ctx, queries.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, got.Bookings, 4)
		assert.Equal(t, 4, got.Stats.Total)
		assert.Equal(t, map[booking.Status]int{
			booking.StatusPending:    1,
			booking.StatusConfirmed:  1,
			booking.StatusInProgress: 0,
			booking.StatusCompleted:  1,
			booking.StatusCancelled:  1,
			booking.StatusNoShow:     0,
		}, got.Stats.CountByStatus)
		assert.Equal(t, int64(12000), got.Stats.RevenueOfCompleted.Cents())
		assert.Empty(t, got.NextCursor)
	})

	t.Run("filters combine", func(t *testing.T) {
		f := newFixture(t)
		pending, confirmed, completed, _ := seed(f)
		from, to := at(0, 0), at(0, 0).Add(24*time.Hour)

		got, err := f.q.ListBookings(ctx, queries.ListFilter{From: &from, To: &to})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{pending.ID(), confirmed.ID(), completed.ID()}, ids(got.Bookings))

		got, err = f.q.ListBookings(ctx, queries.ListFilter{Search: "KEN@"})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{confirmed.ID()}, ids(got.Bookings))

		got, err = f.q.ListBookings(ctx, queries.ListFilter{Search: "colour", Status: booking.StatusCompleted})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{completed.ID()}, ids(got.Bookings))

		got, err = f.q.ListBookings(ctx, queries.ListFilter{Search: "colour", Status: booking.StatusPending})
		require.NoError(t, err)
		assert.Empty(t, got.Bookings)
		assert.Equal(t, 0, got.Stats.Total)
	})

	t.Run("pages by cursor while stats cover the whole set", func(t *testing.T) {
		f := newFixture(t)
		pending, confirmed, completed, cancelled := seed(f)

		page1, err := f.q.ListBookings(ctx, queries.ListFilter{Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{pending.ID(), confirmed.ID(), completed.ID()}, ids(page1.Bookings))
		assert.Equal(t, 4, page1.Stats.Total)
		require.NotEmpty(t, page1.NextCursor)

		page2, err := f.q.ListBookings(ctx, queries.ListFilter{Limit: 3, After: page1.NextCursor})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{cancelled.ID()}, ids(page2.Bookings))
		assert.Equal(t, 4, page2.Stats.Total)
		assert.Empty(t, page2.NextCursor)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		f := newFixture(t)
		from, to := at(12, 0), at(9, 0)

		_, err := f.q.ListBookings(ctx, queries.ListFilter{From: &from, To: &to})
		testutil.RequireMarked(t, err, errs.ErrValidation)

		_, err = f.q.ListBookings(ctx, queries.ListFilter{After: "not-a-cursor"})
		testutil.RequireMarked(t, err, errs.ErrValidation)
		testutil.RequireMarked(t, err, queries.ErrInvalidCursor)
	})
}
