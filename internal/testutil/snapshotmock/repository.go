package snapshotmock

import (
	"context"

	domain "loan-origination/internal/domain/snapshot"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn            func(ctx context.Context, s *domain.Snapshot) error
	GetBySnapshotIDFn   func(ctx context.Context, snapshotID string) (*domain.Snapshot, error)
	ListByApplicationFn func(ctx context.Context, loanApplicationID uint64) ([]domain.Snapshot, error)
	LatestFn            func(ctx context.Context, loanApplicationID uint64) (*domain.Snapshot, error)
	MaxSequenceFn       func(ctx context.Context, loanApplicationID uint64) (int, error)
}

func (m *Repo) Create(ctx context.Context, s *domain.Snapshot) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, s)
	}
	return nil
}

func (m *Repo) GetBySnapshotID(ctx context.Context, snapshotID string) (*domain.Snapshot, error) {
	if m.GetBySnapshotIDFn != nil {
		return m.GetBySnapshotIDFn(ctx, snapshotID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByApplication(ctx context.Context, loanApplicationID uint64) ([]domain.Snapshot, error) {
	if m.ListByApplicationFn != nil {
		return m.ListByApplicationFn(ctx, loanApplicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) Latest(ctx context.Context, loanApplicationID uint64) (*domain.Snapshot, error) {
	if m.LatestFn != nil {
		return m.LatestFn(ctx, loanApplicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) MaxSequence(ctx context.Context, loanApplicationID uint64) (int, error) {
	if m.MaxSequenceFn != nil {
		return m.MaxSequenceFn(ctx, loanApplicationID)
	}
	return 0, nil
}
