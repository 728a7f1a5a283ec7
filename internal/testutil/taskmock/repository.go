package taskmock

import (
	"context"
	"sync"
	"time"

	domain "loan-origination/internal/domain/task"
)

var _ domain.Repository = (*Repo)(nil)

// Repo keeps enqueued tasks in Enqueued unless EnqueueFn overrides it.
type Repo struct {
	mu       sync.Mutex
	Enqueued []*domain.Task

	EnqueueFn        func(ctx context.Context, t *domain.Task) error
	ClaimFn          func(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]domain.Task, error)
	MarkDoneFn       func(ctx context.Context, id uint64) error
	MarkFailedFn     func(ctx context.Context, id uint64, attempts int, errMsg string, nextRunAt time.Time, dead bool) error
	RequeueExpiredFn func(ctx context.Context, now time.Time) (int64, error)
	ListDeadFn       func(ctx context.Context, limit int) ([]domain.Task, error)
}

func (m *Repo) Enqueue(ctx context.Context, t *domain.Task) error {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Enqueued = append(m.Enqueued, t)
	return nil
}

func (m *Repo) Claim(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]domain.Task, error) {
	if m.ClaimFn != nil {
		return m.ClaimFn(ctx, now, lease, limit)
	}
	return nil, nil
}

func (m *Repo) MarkDone(ctx context.Context, id uint64) error {
	if m.MarkDoneFn != nil {
		return m.MarkDoneFn(ctx, id)
	}
	return nil
}

func (m *Repo) MarkFailed(ctx context.Context, id uint64, attempts int, errMsg string, nextRunAt time.Time, dead bool) error {
	if m.MarkFailedFn != nil {
		return m.MarkFailedFn(ctx, id, attempts, errMsg, nextRunAt, dead)
	}
	return nil
}

func (m *Repo) RequeueExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.RequeueExpiredFn != nil {
		return m.RequeueExpiredFn(ctx, now)
	}
	return 0, nil
}

func (m *Repo) ListDead(ctx context.Context, limit int) ([]domain.Task, error) {
	if m.ListDeadFn != nil {
		return m.ListDeadFn(ctx, limit)
	}
	return nil, nil
}

// Kinds lists enqueued task kinds in order.
func (m *Repo) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Enqueued))
	for _, t := range m.Enqueued {
		out = append(out, t.Kind)
	}
	return out
}
