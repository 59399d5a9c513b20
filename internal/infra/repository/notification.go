package repository

import (
	"context"
	"time"

	"booking-engine/internal/infra"
	"booking-engine/internal/infra/db"
	"booking-engine/internal/usecase/readmodel"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createNotificationJobSQL = `
INSERT INTO notification_jobs (kind, topic, payload, run_at, status)
VALUES ($1, $2, $3, $4, $5)`

	// Rows stuck in processing past their lease are picked up again.
	claimNotificationJobsSQL = `
UPDATE notification_jobs j
SET status = 'processing',
    run_at = $2,
    attempts = j.attempts + 1,
    updated_at = $1
WHERE j.id IN (
	SELECT id FROM notification_jobs
	WHERE status IN ('queued', 'processing') AND run_at <= $1
	ORDER BY run_at, id
	LIMIT $3
	FOR UPDATE SKIP LOCKED
)
RETURNING j.id, j.kind, j.topic, j.payload, j.run_at, j.attempts, j.status, j.last_error, j.created_at, j.updated_at`

	markNotificationSentSQL = `
UPDATE notification_jobs SET status = 'sent', last_error = NULL, updated_at = $2 WHERE id = $1`

	markNotificationRetrySQL = `
UPDATE notification_jobs SET status = 'queued', last_error = $2, run_at = $3, updated_at = now() WHERE id = $1`

	markNotificationFailedSQL = `
UPDATE notification_jobs SET status = 'failed', last_error = $2, updated_at = $3 WHERE id = $1`
)

// NotificationRepository enqueues outbox jobs inside the booking transaction.
type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(tx db.DBTX) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	_, err := r.db.Exec(ctx, createNotificationJobSQL, kind, topic, payload, runAt, shared.JobQueued)
	if err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}

// OutboxRepository is used by the relay outside any booking transaction.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]readmodel.NotificationJobRM, error) {
	rows, err := r.pool.Query(ctx, claimNotificationJobsSQL, now, now.Add(lease), limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim notification jobs", err)
	}
	defer rows.Close()

	var jobs []readmodel.NotificationJobRM
	for rows.Next() {
		var (
			job     readmodel.NotificationJobRM
			lastErr pgtype.Text
		)
		if err := rows.Scan(&job.ID, &job.Kind, &job.Topic, &job.Payload, &job.RunAt,
			&job.Attempts, &job.Status, &lastErr, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan notification job", err)
		}
		if lastErr.Valid {
			job.LastError = &lastErr.String
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read notification jobs", err)
	}
	return jobs, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.exec(ctx, "failed to mark notification job sent", markNotificationSentSQL, id, now)
}

func (r *OutboxRepository) MarkRetry(ctx context.Context, id uuid.UUID, lastErr string, nextRunAt time.Time) error {
	return r.exec(ctx, "failed to reschedule notification job", markNotificationRetrySQL, id, lastErr, nextRunAt)
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, now time.Time) error {
	return r.exec(ctx, "failed to mark notification job failed", markNotificationFailedSQL, id, lastErr, now)
}

func (r *OutboxRepository) exec(ctx context.Context, msg, sql string, args ...any) error {
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return infra.WrapRepoErr(msg, err)
	}
	return nil
}
