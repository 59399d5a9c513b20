package queries

import (
	"bytes"
	"context"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/listing"
	"booking-engine/internal/domain/schedule"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrInvalidCursor = errs.New("invalid list cursor")

type ListFilter struct {
	ResourceID *uuid.UUID
	Search     string
	Status     booking.Status
	From       *time.Time
	To         *time.Time
	After      string
	Limit      int
}

// BookingList carries one page of the filtered set; Stats always covers the whole set.
type BookingList struct {
	Bookings   []*booking.Booking
	Stats      listing.Stats
	NextCursor string
}

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/queries/booking_mock.go -package=queriesmock

type BookingQueries interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	GetSchedule(ctx context.Context, resourceID uuid.UUID, date time.Time, granularityMinutes int) (*schedule.Grid, error)
	ListBookings(ctx context.Context, f ListFilter) (*BookingList, error)
}

type bookingQueriesImpl struct {
	bookings  BookingReadStore
	resources ResourceReadStore
	opts      shared.Options
}

func NewBookingQueries(bookings BookingReadStore, resources ResourceReadStore, opts shared.Options) BookingQueries {
	return &bookingQueriesImpl{
		bookings:  bookings,
		resources: resources,
		opts:      opts,
	}
}

func (q *bookingQueriesImpl) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	ctx, cancel := q.opts.WithTimeout(ctx)
	defer cancel()

	var out *booking.Booking
	err := shared.RetryOnce(ctx, q.opts, "get booking", func(ctx context.Context) error {
		b, err := q.bookings.FindByID(ctx, id)
		if err != nil {
			return shared.Classify(err, errs.ErrBookingNotFound)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetSchedule rebuilds the grid from a fresh read on every call.
func (q *bookingQueriesImpl) GetSchedule(ctx context.Context, resourceID uuid.UUID, date time.Time, granularityMinutes int) (*schedule.Grid, error) {
	if granularityMinutes <= 0 || granularityMinutes > schedule.MaxGranularityMinutes {
		return nil, errs.Mark(schedule.ErrInvalidGranularity, errs.ErrValidation)
	}

	ctx, cancel := q.opts.WithTimeout(ctx)
	defer cancel()

	var grid *schedule.Grid
	err := shared.RetryOnce(ctx, q.opts, "get schedule", func(ctx context.Context) error {
		res, err := q.resources.FindByID(ctx, resourceID)
		if err != nil {
			return shared.Classify(err, errs.ErrResourceNotFound)
		}

		from, to := res.WindowOn(date)
		bookings, err := q.bookings.FindInRange(ctx, RangeQuery{ResourceID: &resourceID, From: &from, To: &to})
		if err != nil {
			return shared.Classify(err, errs.ErrResourceNotFound)
		}

		g, err := schedule.BuildGrid(res, date, granularityMinutes, bookings)
		if err != nil {
			return errs.Mark(err, errs.ErrValidation)
		}
		grid = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grid, nil
}

func (q *bookingQueriesImpl) ListBookings(ctx context.Context, f ListFilter) (*BookingList, error) {
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return nil, errs.Mark(errs.New("from must be before to"), errs.ErrValidation)
	}
	var (
		afterStart time.Time
		afterID    uuid.UUID
	)
	if f.After != "" {
		t, id, err := DecodeAfterCursor(f.After)
		if err != nil {
			return nil, errs.Mark(errs.Wrap(ErrInvalidCursor, err.Error()), errs.ErrValidation)
		}
		afterStart, afterID = t, id
	}
	limit := ValidateLimit(f.Limit)

	ctx, cancel := q.opts.WithTimeout(ctx)
	defer cancel()

	var all []*booking.Booking
	err := shared.RetryOnce(ctx, q.opts, "list bookings", func(ctx context.Context) error {
		bs, err := q.bookings.FindInRange(ctx, RangeQuery{ResourceID: f.ResourceID, From: f.From, To: f.To})
		if err != nil {
			return shared.Classify(err, errs.ErrBookingNotFound)
		}
		all = bs
		return nil
	})
	if err != nil {
		return nil, err
	}

	filtered := listing.Filter(all, listing.Criteria{
		Search: f.Search,
		Status: f.Status,
		From:   f.From,
		To:     f.To,
	})

	out := &BookingList{
		Stats:    listing.ComputeStats(filtered),
		Bookings: []*booking.Booking{},
	}
	for _, b := range filtered {
		if f.After != "" && !isAfter(b, afterStart, afterID) {
			continue
		}
		if len(out.Bookings) == limit {
			last := out.Bookings[len(out.Bookings)-1]
			out.NextCursor = EncodeAfterCursor(last.ScheduledStart(), last.ID())
			break
		}
		out.Bookings = append(out.Bookings, b)
	}
	return out, nil
}

func isAfter(b *booking.Booking, start time.Time, id uuid.UUID) bool {
	bs := b.ScheduledStart().Truncate(time.Microsecond)
	if !bs.Equal(start) {
		return bs.After(start)
	}
	bid := b.ID()
	return bytes.Compare(bid[:], id[:]) > 0
}
