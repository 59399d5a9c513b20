package memstore

import (
	"context"
	"slices"
	"time"

	"booking-engine/internal/infra"
	"booking-engine/internal/usecase/outbox"
	"booking-engine/internal/usecase/readmodel"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// Outbox exposes the job table to the relay.
func (s *Store) Outbox() outbox.Store {
	return outboxStore{s}
}

type outboxStore struct{ s *Store }

func (o outboxStore) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]readmodel.NotificationJobRM, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	var due []*readmodel.NotificationJobRM
	for _, j := range o.s.jobs {
		if (j.Status == shared.JobQueued || j.Status == shared.JobProcessing) && !j.RunAt.After(now) {
			due = append(due, j)
		}
	}
	slices.SortStableFunc(due, func(a, b *readmodel.NotificationJobRM) int {
		return a.RunAt.Compare(b.RunAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]readmodel.NotificationJobRM, 0, len(due))
	for _, j := range due {
		j.Status = shared.JobProcessing
		j.RunAt = now.Add(lease)
		j.Attempts++
		j.UpdatedAt = now
		out = append(out, *j)
	}
	return out, nil
}

func (o outboxStore) MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	return o.update(id, func(j *readmodel.NotificationJobRM) {
		j.Status = shared.JobSent
		j.LastError = nil
		j.UpdatedAt = now
	})
}

func (o outboxStore) MarkRetry(ctx context.Context, id uuid.UUID, lastErr string, nextRunAt time.Time) error {
	return o.update(id, func(j *readmodel.NotificationJobRM) {
		j.Status = shared.JobQueued
		j.LastError = &lastErr
		j.RunAt = nextRunAt
		j.UpdatedAt = o.s.clock.Now()
	})
}

func (o outboxStore) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, now time.Time) error {
	return o.update(id, func(j *readmodel.NotificationJobRM) {
		j.Status = shared.JobFailed
		j.LastError = &lastErr
		j.UpdatedAt = now
	})
}

func (o outboxStore) update(id uuid.UUID, apply func(*readmodel.NotificationJobRM)) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	for _, j := range o.s.jobs {
		if j.ID == id {
			apply(j)
			return nil
		}
	}
	return infra.NewRepoErr(infra.KindNotFound, "notification job not found", nil)
}
