package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxNotesLength = 2000

// TimeSlot is the half-open interval [start, end).
type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	if start.IsZero() {
		return TimeSlot{}, ErrMissingStart
	}
	if !end.After(start) {
		return TimeSlot{}, ErrInvalidTimeSlot
	}
	return TimeSlot{start: start, end: end}, nil
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.start)
}

// Overlaps uses half-open semantics, so slots that only touch do not overlap.
func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.end) && other.start.Before(ts.end)
}

type Money struct {
	cents int64
}

func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{cents: cents}, nil
}

func MoneyFromCents(cents int64) Money {
	return Money{cents: cents}
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// CustomerRef is the customer snapshot captured when the booking was made.
type CustomerRef struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}

// ServiceRef is the service snapshot captured when the booking was made.
type ServiceRef struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int
	PriceCents      int64
	Category        string
}

func (s ServiceRef) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

type Note struct {
	value string
}

func NewNote(value string) (Note, error) {
	value = strings.TrimSpace(value)
	if len(value) > MaxNotesLength {
		return Note{}, ErrNotesTooLong
	}
	return Note{value: value}, nil
}

func (n Note) String() string {
	return n.value
}

func (n Note) IsEmpty() bool {
	return n.value == ""
}
