package appmock

import (
	"context"

	domain "loan-origination/internal/domain/application"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to nil, reads to context.Canceled.
type Repo struct {
	CreateFn                      func(ctx context.Context, a *domain.LoanApplication) error
	GetByApplicationIDFn          func(ctx context.Context, applicationID string) (*domain.LoanApplication, error)
	GetByApplicationIDForUpdateFn func(ctx context.Context, applicationID string) (*domain.LoanApplication, error)
	GetByIDFn                     func(ctx context.Context, id uint64) (*domain.LoanApplication, error)
	ListFn                        func(ctx context.Context, f domain.ListFilter) ([]domain.LoanApplication, int64, error)
	UpdateStatusFn                func(ctx context.Context, a *domain.LoanApplication, expectedVersion int64) error
	SaveFn                        func(ctx context.Context, a *domain.LoanApplication) error
	SoftDeleteFn                  func(ctx context.Context, a *domain.LoanApplication, deletedBy uint64) error
}

func (m *Repo) Create(ctx context.Context, a *domain.LoanApplication) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByApplicationID(ctx context.Context, applicationID string) (*domain.LoanApplication, error) {
	if m.GetByApplicationIDFn != nil {
		return m.GetByApplicationIDFn(ctx, applicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*domain.LoanApplication, error) {
	if m.GetByApplicationIDForUpdateFn != nil {
		return m.GetByApplicationIDForUpdateFn(ctx, applicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.LoanApplication, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.LoanApplication, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, context.Canceled
}

func (m *Repo) UpdateStatus(ctx context.Context, a *domain.LoanApplication, expectedVersion int64) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, a, expectedVersion)
	}
	a.Version = expectedVersion + 1
	return nil
}

func (m *Repo) Save(ctx context.Context, a *domain.LoanApplication) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) SoftDelete(ctx context.Context, a *domain.LoanApplication, deletedBy uint64) error {
	if m.SoftDeleteFn != nil {
		return m.SoftDeleteFn(ctx, a, deletedBy)
	}
	return nil
}
