package commands

import (
	"context"
	"encoding/json"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/resource"
	"booking-engine/internal/domain/schedule"
	"booking-engine/internal/domain/user"
	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrStartInPast           = errs.New("booking cannot start in the past")
	ErrInsufficientLeadTime  = errs.New("booking does not meet the resource lead time")
	ErrOutsideOperatingHours = errs.New("booking must fit inside the operating window")
	ErrInvalidResource       = errs.New("resource configuration is invalid")
)

// Actor is the authenticated caller of a command.
type Actor struct {
	ID   uuid.UUID
	Role user.Role
}

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/commands/booking_mock.go -package=commandsmock

type BookingCommands interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*booking.Booking, error)
	TransitionBooking(ctx context.Context, in TransitionInput) (*booking.Booking, error)
	RecordPaymentStatus(ctx context.Context, in PaymentStatusInput) (*booking.Booking, error)
}

type bookingCommandsImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
	opts  shared.Options
	newID func() uuid.UUID
}

func NewBookingCommands(uow shared.UnitOfWork, clk clock.Clock, opts shared.Options) BookingCommands {
	return &bookingCommandsImpl{
		uow:   uow,
		clock: clk,
		opts:  opts,
		newID: uuid.New,
	}
}

// ================================================================================
// CreateBooking
// ================================================================================

type CreateBookingInput struct {
	CustomerID uuid.UUID
	ServiceID  uuid.UUID
	Start      time.Time
	Notes      string
	// Confirm creates the booking directly confirmed; staff only.
	Confirm bool
	Actor   Actor
}

func (c *bookingCommandsImpl) CreateBooking(ctx context.Context, in CreateBookingInput) (*booking.Booking, error) {
	if err := authorizeCreate(in); err != nil {
		return nil, err
	}

	ctx, cancel := c.opts.WithTimeout(ctx)
	defer cancel()

	// One id for every attempt, so a retried insert finds its own earlier write.
	id := c.newID()

	var created *booking.Booking
	err := shared.RetryOnce(ctx, c.opts, "create booking", func(ctx context.Context) error {
		b, err := c.createOnce(ctx, id, in)
		if err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *bookingCommandsImpl) createOnce(ctx context.Context, id uuid.UUID, in CreateBookingInput) (*booking.Booking, error) {
	reads := c.uow.CommandReads()

	customer, err := reads.CustomerByID(ctx, in.CustomerID)
	if err != nil {
		return nil, referenceErr(err, errs.ErrCustomerNotFound)
	}
	svc, err := reads.ServiceByID(ctx, in.ServiceID)
	if err != nil {
		return nil, referenceErr(err, errs.ErrServiceNotFound)
	}
	res, err := c.loadResource(ctx, svc.ResourceID)
	if err != nil {
		return nil, err
	}

	status := booking.StatusPending
	if in.Confirm {
		status = booking.StatusConfirmed
	}
	now := c.clock.Now()
	b, err := booking.NewBooking(booking.NewParams{
		ID:         id,
		ResourceID: res.ID(),
		Customer: booking.CustomerRef{
			ID:    customer.ID,
			Name:  customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		},
		Service: booking.ServiceRef{
			ID:              svc.ID,
			Name:            svc.Name,
			DurationMinutes: svc.DurationMinutes,
			PriceCents:      svc.PriceCents,
			Category:        svc.Category,
		},
		Start:         in.Start.In(res.Location()),
		Notes:         in.Notes,
		InitialStatus: status,
	}, now)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}
	if err := validatePlacement(res, b, now); err != nil {
		return nil, err
	}

	var out *booking.Booking
	err = c.uow.WithinResource(ctx, res.ID(), func(ctx context.Context, tx shared.Tx) error {
		existing, err := tx.Bookings().ActiveOverlapping(ctx, res.ID(), b.ScheduledStart(), b.ScheduledEnd())
		if err != nil {
			return err
		}
		if err := schedule.CheckSlot(existing, res.ID(), b.Slot(), b.ID()); err != nil {
			return err
		}

		if err := tx.Bookings().Create(ctx, b); err != nil {
			if !infra.IsKind(err, infra.KindDuplicateKey) {
				return err
			}
			// An earlier attempt committed before its response was lost.
			stored, getErr := tx.Bookings().GetForUpdate(ctx, b.ID())
			if getErr != nil {
				return getErr
			}
			out = stored
			return nil
		}

		if b.Status() == booking.StatusPending {
			if err := enqueuePendingNotice(ctx, tx, b, now); err != nil {
				return err
			}
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, shared.Classify(err, errs.ErrBookingNotFound)
	}
	return out, nil
}

func (c *bookingCommandsImpl) loadResource(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	snap, err := c.uow.CommandReads().ResourceByID(ctx, id)
	if err != nil {
		return nil, shared.Classify(err, errs.ErrResourceNotFound)
	}
	res, err := resource.ReconstructResource(
		snap.ID,
		snap.Name,
		snap.TimeZone,
		resource.OperatingWindow{OpensAt: snap.OpensAt, ClosesAt: snap.ClosesAt},
		snap.LeadTimeMin,
		time.Time{},
		time.Time{},
	)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "load resource"), ErrInvalidResource)
	}
	return res, nil
}

// A customer or service id that does not resolve is bad input, not a missing booking.
func referenceErr(err error, notFound error) error {
	err = shared.Classify(err, notFound)
	if errs.Is(err, notFound) {
		return errs.Mark(err, errs.ErrValidation)
	}
	return err
}

func validatePlacement(res *resource.Resource, b *booking.Booking, now time.Time) error {
	if b.ScheduledStart().Before(now) {
		return errs.Mark(ErrStartInPast, errs.ErrValidation)
	}
	if !res.IsBookableAt(b.ScheduledStart(), now) {
		return errs.Mark(ErrInsufficientLeadTime, errs.ErrValidation)
	}
	if !res.Fits(b.ScheduledStart(), b.ScheduledEnd()) {
		return errs.Mark(ErrOutsideOperatingHours, errs.ErrValidation)
	}
	return nil
}

func enqueuePendingNotice(ctx context.Context, tx shared.Tx, b *booking.Booking, now time.Time) error {
	payload, err := json.Marshal(shared.PendingBookingNotice{
		BookingID:      b.ID(),
		CustomerName:   b.Customer().Name,
		ServiceName:    b.Service().Name,
		ScheduledStart: b.ScheduledStart(),
	})
	if err != nil {
		return errs.Wrap(err, "marshal pending notice")
	}
	return tx.Notifications().CreateJob(ctx, shared.NotificationKindBooking, shared.TopicBookingPending, payload, now)
}

func authorizeCreate(in CreateBookingInput) error {
	switch in.Actor.Role {
	case user.RoleStaff:
		return nil
	case user.RoleCustomer:
		if in.Confirm || in.Actor.ID != in.CustomerID {
			return errs.ErrForbidden
		}
		return nil
	default:
		return errs.ErrForbidden
	}
}

// ================================================================================
// TransitionBooking
// ================================================================================

type TransitionInput struct {
	BookingID uuid.UUID
	Target    booking.Status
	Reason    string
	Actor     Actor
}

func (c *bookingCommandsImpl) TransitionBooking(ctx context.Context, in TransitionInput) (*booking.Booking, error) {
	if !in.Target.IsValid() {
		return nil, errs.Mark(booking.ErrInvalidStatus, errs.ErrValidation)
	}

	ctx, cancel := c.opts.WithTimeout(ctx)
	defer cancel()

	var out *booking.Booking
	err := shared.RetryOnce(ctx, c.opts, "transition booking", func(ctx context.Context) error {
		b, err := c.transitionOnce(ctx, in)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bookingCommandsImpl) transitionOnce(ctx context.Context, in TransitionInput) (*booking.Booking, error) {
	current, err := c.uow.CommandReads().BookingByID(ctx, in.BookingID)
	if err != nil {
		return nil, shared.Classify(err, errs.ErrBookingNotFound)
	}
	if err := authorizeTransition(in.Actor, current, in.Target); err != nil {
		return nil, err
	}

	var out *booking.Booking
	err = c.uow.WithinResource(ctx, current.ResourceID(), func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if b.Status() == in.Target {
			out = b
			return nil
		}
		if err := booking.CheckTransition(b.Status(), in.Target, in.Reason); err != nil {
			return err
		}
		if booking.RevalidatesSlot(b.Status(), in.Target) {
			existing, err := tx.Bookings().ActiveOverlapping(ctx, b.ResourceID(), b.ScheduledStart(), b.ScheduledEnd())
			if err != nil {
				return err
			}
			if err := schedule.CheckSlot(existing, b.ResourceID(), b.Slot(), b.ID()); err != nil {
				return err
			}
		}
		if _, err := b.Transition(in.Target, in.Reason, c.clock.Now()); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, shared.Classify(err, errs.ErrBookingNotFound)
	}
	return out, nil
}

// Customers may only cancel their own bookings.
func authorizeTransition(actor Actor, b *booking.Booking, target booking.Status) error {
	switch actor.Role {
	case user.RoleStaff:
		return nil
	case user.RoleCustomer:
		if actor.ID == b.Customer().ID && target == booking.StatusCancelled {
			return nil
		}
		return errs.ErrForbidden
	default:
		return errs.ErrForbidden
	}
}

// ================================================================================
// RecordPaymentStatus
// ================================================================================

type PaymentStatusInput struct {
	BookingID uuid.UUID
	Status    booking.PaymentStatus
}

func (c *bookingCommandsImpl) RecordPaymentStatus(ctx context.Context, in PaymentStatusInput) (*booking.Booking, error) {
	if !in.Status.IsValid() {
		return nil, errs.Mark(booking.ErrInvalidPaymentStatus, errs.ErrValidation)
	}

	ctx, cancel := c.opts.WithTimeout(ctx)
	defer cancel()

	var out *booking.Booking
	err := shared.RetryOnce(ctx, c.opts, "record payment status", func(ctx context.Context) error {
		current, err := c.uow.CommandReads().BookingByID(ctx, in.BookingID)
		if err != nil {
			return shared.Classify(err, errs.ErrBookingNotFound)
		}
		err = c.uow.WithinResource(ctx, current.ResourceID(), func(ctx context.Context, tx shared.Tx) error {
			b, err := tx.Bookings().GetForUpdate(ctx, in.BookingID)
			if err != nil {
				return err
			}
			changed, err := b.SetPaymentStatus(in.Status, c.clock.Now())
			if err != nil {
				return err
			}
			if changed {
				if err := tx.Bookings().Update(ctx, b); err != nil {
					return err
				}
			}
			out = b
			return nil
		})
		return shared.Classify(err, errs.ErrBookingNotFound)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
