//go:build unit

package outbox_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/outbox"
	"booking-engine/internal/usecase/shared"
	"booking-engine/tests/common/memtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu    sync.Mutex
	fail  error
	sent  []string
	calls int
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail != nil {
		return p.fail
	}
	p.sent = append(p.sent, topic+" "+string(payload))
	return nil
}

func notifyConfig() config.NotifyConfig {
	cfg := config.NewTestConfig().Notify
	cfg.MaxAttempts = 3
	cfg.Lease = 10 * time.Second
	return cfg
}

func TestRelayRunOnce(t *testing.T) {
	ctx := context.Background()

	enqueue := func(t *testing.T, n int) (*fakePublisher, *outbox.Relay, func() []string) {
		store, clk, cat := memtest.NewSeededStore(t)
		for range n {
			require.NoError(t, store.WithinResource(ctx, cat.Resource.ID(), func(ctx context.Context, tx shared.Tx) error {
				return tx.Notifications().CreateJob(ctx, shared.NotificationKindBooking, shared.TopicBookingPending, []byte(`{}`), clk.Now())
			}))
		}
		pub := &fakePublisher{}
		relay := outbox.NewRelay(store.Outbox(), pub, clk, notifyConfig())
		statuses := func() []string {
			var out []string
			for _, j := range store.Jobs() {
				out = append(out, j.Status)
			}
			return out
		}
		return pub, relay, statuses
	}

	t.Run("delivers queued jobs once", func(t *testing.T) {
		pub, relay, statuses := enqueue(t, 2)

		sent, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, sent)
		assert.Equal(t, []string{shared.JobSent, shared.JobSent}, statuses())

		sent, err = relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Equal(t, 2, pub.calls)
	})

	t.Run("failures are recorded and retried until max attempts", func(t *testing.T) {
		store, clk, cat := memtest.NewSeededStore(t)
		require.NoError(t, store.WithinResource(ctx, cat.Resource.ID(), func(ctx context.Context, tx shared.Tx) error {
			return tx.Notifications().CreateJob(ctx, shared.NotificationKindBooking, shared.TopicBookingPending, []byte(`{}`), clk.Now())
		}))
		pub := &fakePublisher{fail: errs.New("broker unreachable")}
		relay := outbox.NewRelay(store.Outbox(), pub, clk, notifyConfig())

		for attempt := 1; attempt <= 3; attempt++ {
			sent, err := relay.RunOnce(ctx)
			require.NoError(t, err)
			assert.Zero(t, sent)

			job := store.Jobs()[0]
			assert.Equal(t, int32(attempt), job.Attempts)
			require.NotNil(t, job.LastError)
			assert.Equal(t, "broker unreachable", *job.LastError)
			if attempt < 3 {
				assert.Equal(t, shared.JobQueued, job.Status)
				assert.True(t, job.RunAt.After(clk.Now()))
			} else {
				assert.Equal(t, shared.JobFailed, job.Status)
			}
			clk.Add(time.Hour)
		}

		sent, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Equal(t, 3, pub.calls)
	})

	t.Run("a job waits for its backoff", func(t *testing.T) {
		store, clk, cat := memtest.NewSeededStore(t)
		require.NoError(t, store.WithinResource(ctx, cat.Resource.ID(), func(ctx context.Context, tx shared.Tx) error {
			return tx.Notifications().CreateJob(ctx, shared.NotificationKindBooking, shared.TopicBookingPending, []byte(`{}`), clk.Now())
		}))
		pub := &fakePublisher{fail: errs.New("down")}
		relay := outbox.NewRelay(store.Outbox(), pub, clk, notifyConfig())

		_, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		pub.fail = nil

		sent, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent, "retried before backoff elapsed")

		clk.Add(3 * time.Second)
		sent, err = relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, shared.JobSent, store.Jobs()[0].Status)
	})

	t.Run("Run stops with its context", func(t *testing.T) {
		pub, relay, statuses := enqueue(t, 1)
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			relay.Run(runCtx)
			close(done)
		}()

		assert.Eventually(t, func() bool {
			s := statuses()
			return len(s) == 1 && s[0] == shared.JobSent
		}, time.Second, 10*time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("relay did not stop")
		}
		pub.mu.Lock()
		defer pub.mu.Unlock()
		assert.Len(t, pub.sent, 1)
	})
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, outbox.Backoff(1))
	assert.Equal(t, 8*time.Second, outbox.Backoff(3))
	assert.Equal(t, 5*time.Minute, outbox.Backoff(30))
}
