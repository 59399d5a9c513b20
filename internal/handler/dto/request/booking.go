package request

import (
	"strings"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/queries"

	"github.com/google/uuid"
)

var ErrInvalidQuery = errs.New("invalid query parameter")

type CreateBookingRequest struct {
	CustomerID     uuid.UUID `json:"customerId" binding:"required"`
	ServiceID      uuid.UUID `json:"serviceId" binding:"required"`
	ScheduledStart time.Time `json:"scheduledStart" binding:"required"`
	Notes          string    `json:"notes" binding:"max=2000"`
	// Confirm creates the booking directly confirmed (staff only).
	Confirm bool `json:"confirm"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed in_progress completed cancelled no_show"`
	Reason string `json:"reason" binding:"max=500"`
}

type PaymentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid refunded failed"`
}

type ListBookingsQuery struct {
	ResourceID string `form:"resourceId"`
	Search     string `form:"search" binding:"max=200"`
	Status     string `form:"status"`
	From       string `form:"from"`
	To         string `form:"to"`
	After      string `form:"after"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// ToFilter parses the optional parameters. from/to accept RFC 3339 timestamps or YYYY-MM-DD (UTC midnight).
func (q *ListBookingsQuery) ToFilter() (queries.ListFilter, error) {
	f := queries.ListFilter{
		Search: strings.TrimSpace(q.Search),
		After:  q.After,
		Limit:  q.Limit,
	}
	if q.ResourceID != "" {
		id, err := uuid.Parse(q.ResourceID)
		if err != nil {
			return f, errs.Wrap(ErrInvalidQuery, "resourceId")
		}
		f.ResourceID = &id
	}
	if q.Status != "" {
		st, err := booking.ParseStatus(q.Status)
		if err != nil {
			return f, errs.Wrap(ErrInvalidQuery, "status")
		}
		f.Status = st
	}
	var err error
	if f.From, err = parseBound(q.From); err != nil {
		return f, errs.Wrap(ErrInvalidQuery, "from")
	}
	if f.To, err = parseBound(q.To); err != nil {
		return f, errs.Wrap(ErrInvalidQuery, "to")
	}
	return f, nil
}

type ScheduleQuery struct {
	Date        string `form:"date" binding:"required"`
	Granularity int    `form:"granularity" binding:"omitempty,max=1440"`
}

const DefaultGranularityMinutes = 60

// Day returns the calendar date; only its year, month and day are used.
func (q *ScheduleQuery) Day() (time.Time, error) {
	d, err := time.Parse(time.DateOnly, q.Date)
	if err != nil {
		return time.Time{}, errs.Wrap(ErrInvalidQuery, "date")
	}
	return d, nil
}

func (q *ScheduleQuery) GranularityMinutes() int {
	if q.Granularity == 0 {
		return DefaultGranularityMinutes
	}
	return q.Granularity
}

func parseBound(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
