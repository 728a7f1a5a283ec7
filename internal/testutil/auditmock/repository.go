package auditmock

import (
	"context"
	"sync"

	domain "loan-origination/internal/domain/audit"
)

var _ domain.Repository = (*Repo)(nil)

// Repo records every created entry in Entries unless CreateFn overrides it.
type Repo struct {
	mu      sync.Mutex
	Entries []*domain.Entry

	CreateFn        func(ctx context.Context, e *domain.Entry) error
	CreateBatchFn   func(ctx context.Context, entries []*domain.Entry) error
	ListFn          func(ctx context.Context, q domain.Query) ([]domain.Entry, int64, error)
	CountByActionFn func(ctx context.Context, loanApplicationID uint64) ([]domain.ActionCount, error)
	LatestFn        func(ctx context.Context, loanApplicationID uint64) (*domain.Entry, error)
}

func (m *Repo) Create(ctx context.Context, e *domain.Entry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, e)
	return nil
}

func (m *Repo) CreateBatch(ctx context.Context, entries []*domain.Entry) error {
	if m.CreateBatchFn != nil {
		return m.CreateBatchFn(ctx, entries)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entries...)
	return nil
}

func (m *Repo) List(ctx context.Context, q domain.Query) ([]domain.Entry, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, q)
	}
	return nil, 0, context.Canceled
}

func (m *Repo) CountByAction(ctx context.Context, loanApplicationID uint64) ([]domain.ActionCount, error) {
	if m.CountByActionFn != nil {
		return m.CountByActionFn(ctx, loanApplicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) Latest(ctx context.Context, loanApplicationID uint64) (*domain.Entry, error) {
	if m.LatestFn != nil {
		return m.LatestFn(ctx, loanApplicationID)
	}
	return nil, context.Canceled
}

// Actions lists recorded actions in write order.
func (m *Repo) Actions() []domain.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Action, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e.Action)
	}
	return out
}
