package booking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus        = errors.New("invalid booking status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrInvalidInitialStatus = errors.New("booking must start as pending or confirmed")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrMissingReason        = errors.New("a reason is required to cancel or mark no-show")
	ErrSlotConflict         = errors.New("time slot overlaps an active booking")
	ErrInvalidTimeSlot      = errors.New("scheduled end must be after scheduled start")
	ErrMissingStart         = errors.New("scheduled start is required")
	ErrMissingCustomer      = errors.New("customer reference is required")
	ErrMissingService       = errors.New("service reference is required")
	ErrMissingResource      = errors.New("resource is required")
	ErrInvalidDuration      = errors.New("service duration must be positive")
	ErrNegativeAmount       = errors.New("amount cannot be negative")
	ErrNotesTooLong         = errors.New("notes are too long")
)

// TransitionError is returned for an edge that is not in the transition table.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ConflictError names the active booking that already holds the slot.
type ConflictError struct {
	ConflictingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot held by booking %s", e.ConflictingID)
}

func (e *ConflictError) Unwrap() error {
	return ErrSlotConflict
}
