package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/infra/readstore"
	"booking-engine/internal/infra/repository"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"

	advisoryLockSQL = `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errResourceLock       = errs.New("failed to acquire resource lock")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool *pgxpool.Pool
	// locker, when set, replaces the transaction-scoped advisory lock.
	locker shared.ResourceLocker
}

func NewPostgresUoW(pool *pgxpool.Pool, locker shared.ResourceLocker) *PostgresUoW {
	return &PostgresUoW{
		pool:   pool,
		locker: locker,
	}
}

// WithinResource runs fn in a ReadCommitted transaction that holds the
// resource's exclusive write lock until commit or rollback.
func (u *PostgresUoW) WithinResource(ctx context.Context, resourceID uuid.UUID, fn func(ctx context.Context, tx shared.Tx) error) error {
	if u.locker == nil {
		return u.runInTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, resourceID, true, fn)
	}

	unlock, err := u.locker.Lock(ctx, resourceID.String())
	if err != nil {
		return errs.Mark(err, errResourceLock)
	}
	defer unlock()
	return u.runInTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, resourceID, false, fn)
}

func (u *PostgresUoW) CommandReads() shared.CommandReads {
	return newCommandReads(u.pool)
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTx(ctx context.Context, options pgx.TxOptions, resourceID uuid.UUID, advisory bool, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		err = nil
		if advisory {
			if _, lockErr := pgxTx.Exec(ctx, advisoryLockSQL, resourceID.String()); lockErr != nil {
				err = errs.Mark(lockErr, errResourceLock)
			}
		}
		if err == nil {
			err = fn(ctx, &pgTx{dbtx: pgxTx})
			if err == nil {
				if err = pgxTx.Commit(ctx); err == nil {
					return nil
				}
				err = errs.Mark(err, errTransactionCommit)
			}
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries {
				slog.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"resource_id", resourceID.String(),
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- Intentionally safe conversion after masking
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx db.DBTX

	// Lazy-initialized repositories
	bookingRepo      shared.BookingRepository
	notificationRepo shared.NotificationRepository
}

func (t *pgTx) Bookings() shared.BookingRepository {
	if t.bookingRepo == nil {
		t.bookingRepo = repository.NewBookingRepository(t.dbtx)
	}
	return t.bookingRepo
}

func (t *pgTx) Notifications() shared.NotificationRepository {
	if t.notificationRepo == nil {
		t.notificationRepo = repository.NewNotificationRepository(t.dbtx)
	}
	return t.notificationRepo
}

type commandReads struct {
	bookings  *readstore.BookingReadStore
	resources *readstore.ResourceReadStore
	catalog   *readstore.CatalogReadStore
}

func newCommandReads(dbtx db.DBTX) *commandReads {
	return &commandReads{
		bookings:  readstore.NewBookingReadStore(dbtx),
		resources: readstore.NewResourceReadStore(dbtx),
		catalog:   readstore.NewCatalogReadStore(dbtx),
	}
}

func (r *commandReads) BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.bookings.FindByID(ctx, id)
}

func (r *commandReads) ResourceByID(ctx context.Context, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	return r.resources.Snapshot(ctx, id)
}

func (r *commandReads) CustomerByID(ctx context.Context, id uuid.UUID) (*shared.CustomerSnapshot, error) {
	return r.catalog.CustomerByID(ctx, id)
}

func (r *commandReads) ServiceByID(ctx context.Context, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	return r.catalog.ServiceByID(ctx, id)
}
