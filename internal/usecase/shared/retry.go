package shared

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
)

type Options struct {
	RequestTimeout time.Duration
	RetryDelay     time.Duration
}

func NewOptions(cfg config.Config) Options {
	return Options{
		RequestTimeout: cfg.Booking.RequestTimeout,
		RetryDelay:     cfg.Booking.RetryDelay,
	}
}

func (o Options) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.RequestTimeout)
}

// RetryOnce runs fn again after RetryDelay when the first attempt failed with
// ErrStorageUnavailable. fn must return classified errors.
func RetryOnce(ctx context.Context, o Options, op string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !errs.Is(err, errs.ErrStorageUnavailable) || ctx.Err() != nil {
		return err
	}

	slog.Warn("retrying after storage failure",
		"op", op,
		"delay_ms", o.RetryDelay.Milliseconds(),
		"error", err.Error())

	timer := time.NewTimer(o.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return err
	case <-timer.C:
	}
	return fn(ctx)
}

// Classify maps a raw error onto the usecase taxonomy. Domain rule and
// validation errors pass through, repository NOT_FOUND becomes notFound and
// everything else, deadline expiry included, is ErrStorageUnavailable.
func Classify(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case isClassified(err):
		return err
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, notFound)
	case infra.IsKind(err, infra.KindForeignKeyViolated):
		return errs.Mark(err, errs.ErrValidation)
	default:
		return errs.Mark(err, errs.ErrStorageUnavailable)
	}
}

var classified = []error{
	errs.ErrValidation,
	errs.ErrForbidden,
	errs.ErrStorageUnavailable,
	errs.ErrBookingNotFound,
	errs.ErrResourceNotFound,
	errs.ErrCustomerNotFound,
	errs.ErrServiceNotFound,
	booking.ErrSlotConflict,
	booking.ErrInvalidTransition,
	booking.ErrMissingReason,
}

func isClassified(err error) bool {
	for _, target := range classified {
		if errs.Is(err, target) {
			return true
		}
	}
	return false
}
