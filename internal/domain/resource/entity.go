package resource

import (
	"errors"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
)

var (
	ErrEmptyResourceName   = errors.New("resource name cannot be empty")
	ErrNegativeLeadTime    = errors.New("lead time cannot be negative")
	ErrResourceNameTooLong = errors.New("resource name is too long (max 255 characters)")
	ErrInvalidTimeZone     = errors.New("unknown time zone")
	ErrInvalidWindow       = errors.New("operating window must open before it closes on the same day")
)

const (
	MaxResourceNameLength = 255
	minutesPerDay         = 24 * 60
)

// Resource is the schedulable unit bookings are placed on (one per provider).
type Resource struct {
	id          uuid.UUID
	name        string
	location    *time.Location
	window      OperatingWindow
	leadTimeMin int
	createdAt   time.Time
	updatedAt   time.Time
}

// OperatingWindow is expressed in minutes after local midnight, [OpensAt, ClosesAt).
type OperatingWindow struct {
	OpensAt  int
	ClosesAt int
}

func (w OperatingWindow) Validate() error {
	if w.OpensAt < 0 || w.ClosesAt > minutesPerDay || w.OpensAt >= w.ClosesAt {
		return ErrInvalidWindow
	}
	return nil
}

func (w OperatingWindow) Length() time.Duration {
	return time.Duration(w.ClosesAt-w.OpensAt) * time.Minute
}

func NewResource(id uuid.UUID, name, timeZone string, window OperatingWindow, leadTimeMin int) (*Resource, error) {
	if err := validateResourceName(name); err != nil {
		return nil, err
	}
	if err := validateLeadTime(leadTimeMin); err != nil {
		return nil, err
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	loc, err := loadLocation(timeZone)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Resource{
		id:          id,
		name:        strings.TrimSpace(name),
		location:    loc,
		window:      window,
		leadTimeMin: leadTimeMin,
	}, nil
}

func ReconstructResource(id uuid.UUID, name, timeZone string, window OperatingWindow, leadTimeMin int, createdAt, updatedAt time.Time) (*Resource, error) {
	loc, err := loadLocation(timeZone)
	if err != nil {
		return nil, err
	}
	return &Resource{
		id:          id,
		name:        name,
		location:    loc,
		window:      window,
		leadTimeMin: leadTimeMin,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

// WindowOn returns the operating window for the calendar date of day, read
// from its year, month and day fields and placed in the resource's zone.
func (r *Resource) WindowOn(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	openAt := time.Date(y, m, d, r.window.OpensAt/60, r.window.OpensAt%60, 0, 0, r.location)
	closeAt := time.Date(y, m, d, r.window.ClosesAt/60, r.window.ClosesAt%60, 0, 0, r.location)
	return openAt, closeAt
}

// Fits reports whether [start, end) lies inside the window of start's local day.
func (r *Resource) Fits(start, end time.Time) bool {
	openAt, closeAt := r.WindowOn(start.In(r.location))
	return !start.Before(openAt) && !end.After(closeAt)
}

func (r *Resource) IsBookableAt(start, now time.Time) bool {
	required := now.Add(time.Duration(r.leadTimeMin) * time.Minute)
	return !start.Before(required)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrInvalidTimeZone
	}
	return loc, nil
}

func validateResourceName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyResourceName
	}
	if len(name) > MaxResourceNameLength {
		return ErrResourceNameTooLong
	}
	return nil
}

func validateLeadTime(leadTimeMin int) error {
	if leadTimeMin < 0 {
		return ErrNegativeLeadTime
	}
	return nil
}

func (r *Resource) ID() uuid.UUID            { return r.id }
func (r *Resource) Name() string             { return r.name }
func (r *Resource) Location() *time.Location { return r.location }
func (r *Resource) TimeZone() string         { return r.location.String() }
func (r *Resource) Window() OperatingWindow  { return r.window }
func (r *Resource) LeadTimeMin() int         { return r.leadTimeMin }
func (r *Resource) CreatedAt() time.Time     { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time     { return r.updatedAt }
