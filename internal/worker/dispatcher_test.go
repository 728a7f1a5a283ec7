package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-origination/internal/adapter/repository/gormrepo"
	"loan-origination/internal/domain/task"
	"loan-origination/internal/testutil/dbtest"
	"loan-origination/internal/testutil/taskmock"
)

type failure struct {
	id       uint64
	attempts int
	msg      string
	next     time.Time
	dead     bool
}

type recorder struct {
	mu       sync.Mutex
	done     []uint64
	failures []failure
}

func (r *recorder) repo(claimed []task.Task) *taskmock.Repo {
	return &taskmock.Repo{
		ClaimFn: func(context.Context, time.Time, time.Duration, int) ([]task.Task, error) {
			return claimed, nil
		},
		MarkDoneFn: func(_ context.Context, id uint64) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.done = append(r.done, id)
			return nil
		},
		MarkFailedFn: func(_ context.Context, id uint64, attempts int, msg string, next time.Time, dead bool) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.failures = append(r.failures, failure{id, attempts, msg, next, dead})
			return nil
		},
	}
}

func TestRunOnce_Outcomes(t *testing.T) {
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		task      task.Task
		handler   HandlerFunc
		wantDone  bool
		wantDead  bool
		wantDelay time.Duration
	}{
		{
			name:     "success",
			task:     task.Task{ID: 1, Kind: "k", MaxAttempts: 3},
			handler:  func(context.Context, *task.Task) error { return nil },
			wantDone: true,
		},
		{
			name:      "first failure retries after 30s",
			task:      task.Task{ID: 2, Kind: "k", MaxAttempts: 3},
			handler:   func(context.Context, *task.Task) error { return errors.New("boom") },
			wantDelay: 30 * time.Second,
		},
		{
			name:      "second failure backs off",
			task:      task.Task{ID: 3, Kind: "k", Attempts: 1, MaxAttempts: 3},
			handler:   func(context.Context, *task.Task) error { return errors.New("boom") },
			wantDelay: time.Minute,
		},
		{
			name:     "last attempt parks the task",
			task:     task.Task{ID: 4, Kind: "k", Attempts: 2, MaxAttempts: 3},
			handler:  func(context.Context, *task.Task) error { return errors.New("boom") },
			wantDead: true,
		},
		{
			name:      "panic counts as failure",
			task:      task.Task{ID: 5, Kind: "k", MaxAttempts: 3},
			handler:   func(context.Context, *task.Task) error { panic("nil map") },
			wantDelay: 30 * time.Second,
		},
		{
			name:     "unknown kind is parked",
			task:     task.Task{ID: 6, Kind: "mystery", MaxAttempts: 3},
			wantDead: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			logger, _ := test.NewNullLogger()
			d := NewDispatcher(rec.repo([]task.Task{tt.task}), logger, WithDispatcherClock(func() time.Time { return now }))
			if tt.handler != nil {
				d.Register("k", tt.handler)
			}

			n, err := d.RunOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			if tt.wantDone {
				assert.Equal(t, []uint64{tt.task.ID}, rec.done)
				assert.Empty(t, rec.failures)
				return
			}
			assert.Empty(t, rec.done)
			require.Len(t, rec.failures, 1)
			f := rec.failures[0]
			assert.Equal(t, tt.task.Attempts+1, f.attempts)
			assert.Equal(t, tt.wantDead, f.dead)
			assert.NotEmpty(t, f.msg)
			if !tt.wantDead {
				assert.Equal(t, now.Add(tt.wantDelay), f.next)
			}
		})
	}
}

func TestRunOnce_ClaimError(t *testing.T) {
	repo := &taskmock.Repo{ClaimFn: func(context.Context, time.Time, time.Duration, int) ([]task.Task, error) {
		return nil, errors.New("db down")
	}}
	logger, _ := test.NewNullLogger()
	_, err := NewDispatcher(repo, logger).RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRunOnce_LeaseAndConcurrency(t *testing.T) {
	claimed := make([]task.Task, 6)
	for i := range claimed {
		claimed[i] = task.Task{ID: uint64(i + 1), Kind: "slow", MaxAttempts: 1}
	}
	rec := &recorder{}
	repo := rec.repo(claimed)
	var gotLease time.Duration
	claim := repo.ClaimFn
	repo.ClaimFn = func(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]task.Task, error) {
		gotLease = lease
		return claim(ctx, now, lease, limit)
	}

	logger, _ := test.NewNullLogger()
	d := NewDispatcher(repo, logger, WithLease(45*time.Second), WithConcurrency(2))
	var mu sync.Mutex
	running, peak := 0, 0
	var deadline time.Duration
	d.Register("slow", func(ctx context.Context, _ *task.Task) error {
		mu.Lock()
		running++
		if running > peak {
			peak = running
		}
		if dl, ok := ctx.Deadline(); ok {
			deadline = time.Until(dl)
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		running--
		mu.Unlock()
		return nil
	})

	n, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, 45*time.Second, gotLease)
	assert.LessOrEqual(t, peak, 2)
	assert.Greater(t, deadline, 30*time.Second, "handler runs under the configured lease")
	assert.LessOrEqual(t, deadline, 45*time.Second)
	assert.Len(t, rec.done, 6)
}

func TestDispatcher_AgainstDatabase(t *testing.T) {
	db := dbtest.Open(t)
	repo := gormrepo.NewTaskRepository(db)
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Minute)

	ok, err := task.New("ok", "echo", map[string]string{"msg": "hi"}, 3, past)
	require.NoError(t, err)
	bad, err := task.New("bad", "explode", nil, 1, past)
	require.NoError(t, err)
	require.NoError(t, repo.Enqueue(ctx, ok))
	require.NoError(t, repo.Enqueue(ctx, bad))

	logger, _ := test.NewNullLogger()
	d := NewDispatcher(repo, logger, WithBatchSize(1))
	var seen []string
	var mu sync.Mutex
	d.Register("echo", func(_ context.Context, t *task.Task) error {
		var p map[string]string
		if err := t.Decode(&p); err != nil {
			return err
		}
		mu.Lock()
		seen = append(seen, p["msg"])
		mu.Unlock()
		return nil
	})
	d.Register("explode", func(context.Context, *task.Task) error { return errors.New("always") })

	require.NoError(t, DrainJob(d)(ctx))
	assert.Equal(t, []string{"hi"}, seen)

	var stored []task.Task
	require.NoError(t, db.Order("id").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, task.StatusDone, stored[0].Status)
	assert.Equal(t, task.StatusDead, stored[1].Status)
	assert.Equal(t, "always", stored[1].LastError)

	dead, err := repo.ListDead(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "bad", dead[0].TaskID)

	n, err := d.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
