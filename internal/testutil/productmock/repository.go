package productmock

import (
	"context"

	domain "loan-origination/internal/domain/product"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn         func(ctx context.Context, p *domain.LoanProduct) error
	SaveFn           func(ctx context.Context, p *domain.LoanProduct) error
	GetByProductIDFn func(ctx context.Context, productID string) (*domain.LoanProduct, error)
	GetByIDFn        func(ctx context.Context, id uint64) (*domain.LoanProduct, error)
	ListFn           func(ctx context.Context, activeOnly bool) ([]domain.LoanProduct, error)
	CreateSnapshotFn func(ctx context.Context, s *domain.LoanProductSnapshot) error
	GetSnapshotFn    func(ctx context.Context, id uint64) (*domain.LoanProductSnapshot, error)
}

func (m *Repo) Create(ctx context.Context, p *domain.LoanProduct) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, p *domain.LoanProduct) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByProductID(ctx context.Context, productID string) (*domain.LoanProduct, error) {
	if m.GetByProductIDFn != nil {
		return m.GetByProductIDFn(ctx, productID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.LoanProduct, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, activeOnly bool) ([]domain.LoanProduct, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, activeOnly)
	}
	return nil, context.Canceled
}

func (m *Repo) CreateSnapshot(ctx context.Context, s *domain.LoanProductSnapshot) error {
	if m.CreateSnapshotFn != nil {
		return m.CreateSnapshotFn(ctx, s)
	}
	return nil
}

func (m *Repo) GetSnapshot(ctx context.Context, id uint64) (*domain.LoanProductSnapshot, error) {
	if m.GetSnapshotFn != nil {
		return m.GetSnapshotFn(ctx, id)
	}
	return nil, context.Canceled
}
