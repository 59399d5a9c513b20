package schedule

import (
	"bytes"
	"errors"
	"sort"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/resource"

	"github.com/google/uuid"
)

var ErrInvalidGranularity = errors.New("granularity must be positive and divide the operating window evenly")

// MaxGranularityMinutes bounds a bucket to one day.
const MaxGranularityMinutes = 24 * 60

type Bucket struct {
	Start    time.Time
	End      time.Time
	Bookings []*booking.Booking
}

type Grid struct {
	ResourceID  uuid.UUID
	Date        time.Time
	Granularity time.Duration
	WindowStart time.Time
	WindowEnd   time.Time
	Buckets     []Bucket
}

// BuildGrid lays bookings over the resource's operating window on day. A
// booking is placed in every bucket its slot intersects; cancelled bookings
// and bookings on other resources are left out. Empty buckets are kept.
func BuildGrid(res *resource.Resource, day time.Time, granularityMinutes int, bookings []*booking.Booking) (*Grid, error) {
	if granularityMinutes <= 0 || granularityMinutes > MaxGranularityMinutes {
		return nil, ErrInvalidGranularity
	}
	g := time.Duration(granularityMinutes) * time.Minute
	open, closeAt := res.WindowOn(day)
	span := closeAt.Sub(open)
	if span <= 0 || span%g != 0 {
		return nil, ErrInvalidGranularity
	}

	n := int(span / g)
	buckets := make([]Bucket, n)
	for i := range buckets {
		start := open.Add(time.Duration(i) * g)
		buckets[i] = Bucket{Start: start, End: start.Add(g), Bookings: []*booking.Booking{}}
	}

	placed := make([]*booking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ResourceID() != res.ID() || b.Status() == booking.StatusCancelled {
			continue
		}
		if !b.ScheduledStart().Before(closeAt) || !b.ScheduledEnd().After(open) {
			continue
		}
		placed = append(placed, b)
	}
	sort.SliceStable(placed, func(i, j int) bool {
		si, sj := placed[i].ScheduledStart(), placed[j].ScheduledStart()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		idi, idj := placed[i].ID(), placed[j].ID()
		return bytes.Compare(idi[:], idj[:]) < 0
	})

	for _, b := range placed {
		first, last := 0, n-1
		if off := b.ScheduledStart().Sub(open); off > 0 {
			first = int(off / g)
		}
		if off := b.ScheduledEnd().Sub(open); off < span {
			last = int((off - 1) / g)
		}
		for i := first; i <= last; i++ {
			buckets[i].Bookings = append(buckets[i].Bookings, b)
		}
	}

	y, m, d := day.Date()
	return &Grid{
		ResourceID:  res.ID(),
		Date:        time.Date(y, m, d, 0, 0, 0, 0, res.Location()),
		Granularity: g,
		WindowStart: open,
		WindowEnd:   closeAt,
		Buckets:     buckets,
	}, nil
}
