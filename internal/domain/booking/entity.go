package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	id                 uuid.UUID
	resourceID         uuid.UUID
	customer           CustomerRef
	service            ServiceRef
	slot               TimeSlot
	status             Status
	totalAmount        Money
	paymentStatus      PaymentStatus
	notes              Note
	cancellationReason string
	createdAt          time.Time
	updatedAt          time.Time
}

type NewParams struct {
	// ID is optional; callers that retry pass the same pre-generated id.
	ID            uuid.UUID
	ResourceID    uuid.UUID
	Customer      CustomerRef
	Service       ServiceRef
	Start         time.Time
	Notes         string
	InitialStatus Status
}

func NewBooking(p NewParams, now time.Time) (*Booking, error) {
	if p.ResourceID == uuid.Nil {
		return nil, ErrMissingResource
	}
	if p.Customer.ID == uuid.Nil {
		return nil, ErrMissingCustomer
	}
	if p.Service.ID == uuid.Nil {
		return nil, ErrMissingService
	}
	if p.Service.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	amount, err := NewMoney(p.Service.PriceCents)
	if err != nil {
		return nil, err
	}
	slot, err := NewTimeSlot(p.Start, p.Start.Add(p.Service.Duration()))
	if err != nil {
		return nil, err
	}
	notes, err := NewNote(p.Notes)
	if err != nil {
		return nil, err
	}

	status := p.InitialStatus
	if status == "" {
		status = StatusPending
	}
	if status != StatusPending && status != StatusConfirmed {
		return nil, ErrInvalidInitialStatus
	}

	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Booking{
		id:            id,
		resourceID:    p.ResourceID,
		customer:      p.Customer,
		service:       p.Service,
		slot:          slot,
		status:        status,
		totalAmount:   amount,
		paymentStatus: PaymentPending,
		notes:         notes,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

type ReconstructParams struct {
	ID                 uuid.UUID
	ResourceID         uuid.UUID
	Customer           CustomerRef
	Service            ServiceRef
	Start              time.Time
	Status             Status
	TotalAmountCents   int64
	PaymentStatus      PaymentStatus
	Notes              string
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Reconstruct rebuilds a stored booking without re-running creation rules.
func Reconstruct(p ReconstructParams) *Booking {
	return &Booking{
		id:                 p.ID,
		resourceID:         p.ResourceID,
		customer:           p.Customer,
		service:            p.Service,
		slot:               TimeSlot{start: p.Start, end: p.Start.Add(p.Service.Duration())},
		status:             p.Status,
		totalAmount:        MoneyFromCents(p.TotalAmountCents),
		paymentStatus:      p.PaymentStatus,
		notes:              Note{value: p.Notes},
		cancellationReason: p.CancellationReason,
		createdAt:          p.CreatedAt,
		updatedAt:          p.UpdatedAt,
	}
}

// CheckTransition validates an edge and its reason without touching any booking.
func CheckTransition(from, to Status, reason string) error {
	if !to.IsValid() {
		return ErrInvalidStatus
	}
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	if to.RequiresReason() && strings.TrimSpace(reason) == "" {
		return ErrMissingReason
	}
	return nil
}

// Transition moves the booking to target. It reports false when target is
// already the current status; the booking is left untouched in that case.
// Slot re-validation for pending -> confirmed belongs to the caller.
func (b *Booking) Transition(target Status, reason string, now time.Time) (bool, error) {
	if b.status == target {
		return false, nil
	}
	if err := CheckTransition(b.status, target, reason); err != nil {
		return false, err
	}
	b.status = target
	if target.RequiresReason() {
		b.cancellationReason = strings.TrimSpace(reason)
	}
	b.updatedAt = now
	return true, nil
}

// SetPaymentStatus reports false when nothing changed.
func (b *Booking) SetPaymentStatus(ps PaymentStatus, now time.Time) (bool, error) {
	if !ps.IsValid() {
		return false, ErrInvalidPaymentStatus
	}
	if b.paymentStatus == ps {
		return false, nil
	}
	b.paymentStatus = ps
	b.updatedAt = now
	return true, nil
}

func (b *Booking) IsActive() bool {
	return b.status.IsActive()
}

// Clone returns an independent copy; every field is a value.
func (b *Booking) Clone() *Booking {
	c := *b
	return &c
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) ResourceID() uuid.UUID        { return b.resourceID }
func (b *Booking) Customer() CustomerRef        { return b.customer }
func (b *Booking) Service() ServiceRef          { return b.service }
func (b *Booking) Slot() TimeSlot               { return b.slot }
func (b *Booking) ScheduledStart() time.Time    { return b.slot.Start() }
func (b *Booking) ScheduledEnd() time.Time      { return b.slot.End() }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) TotalAmount() Money           { return b.totalAmount }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) Notes() Note                  { return b.notes }
func (b *Booking) CancellationReason() string   { return b.cancellationReason }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
