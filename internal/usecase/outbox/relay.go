package outbox

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/readmodel"

	"github.com/google/uuid"
)

const maxBackoff = 5 * time.Minute

type Store interface {
	// ClaimDue leases up to limit due jobs until now+lease and bumps their attempt count.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]readmodel.NotificationJobRM, error)
	MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, lastErr string, nextRunAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, now time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Relay delivers committed outbox jobs. Delivery failures stay on the job row.
type Relay struct {
	store Store
	pub   Publisher
	clock clock.Clock
	cfg   config.NotifyConfig
}

func NewRelay(store Store, pub Publisher, clk clock.Clock, cfg config.NotifyConfig) *Relay {
	return &Relay{store: store, pub: pub, clock: clk, cfg: cfg}
}

// RunOnce processes one batch and returns how many jobs were delivered.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	jobs, err := r.store.ClaimDue(ctx, r.clock.Now(), r.cfg.Lease, r.cfg.BatchSize)
	if err != nil {
		return 0, errs.Wrap(err, "claim notification jobs")
	}

	sent := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		delivered, err := r.deliver(ctx, job)
		if err != nil {
			return sent, errs.Wrap(err, "update notification job")
		}
		if delivered {
			sent++
		}
	}
	return sent, nil
}

func (r *Relay) deliver(ctx context.Context, job readmodel.NotificationJobRM) (bool, error) {
	pubErr := r.pub.Publish(ctx, job.Topic, job.Payload)
	now := r.clock.Now()
	if pubErr == nil {
		return true, r.store.MarkSent(ctx, job.ID, now)
	}

	if int(job.Attempts) >= r.cfg.MaxAttempts {
		slog.Error("notification job failed permanently",
			"job_id", job.ID.String(),
			"topic", job.Topic,
			"attempts", job.Attempts,
			"error", pubErr.Error())
		return false, r.store.MarkFailed(ctx, job.ID, pubErr.Error(), now)
	}

	wait := Backoff(int(job.Attempts))
	slog.Warn("notification delivery failed, will retry",
		"job_id", job.ID.String(),
		"topic", job.Topic,
		"attempts", job.Attempts,
		"retry_in_ms", wait.Milliseconds(),
		"error", pubErr.Error())
	return false, r.store.MarkRetry(ctx, job.ID, pubErr.Error(), now.Add(wait))
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("notification relay batch failed", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Backoff is 2^attempts seconds, capped at five minutes.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if attempts > 9 {
		return maxBackoff
	}
	return min(time.Duration(1<<attempts)*time.Second, maxBackoff)
}
