package documentmock

import (
	"context"
	"time"

	domain "loan-origination/internal/domain/document"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreatePersonalFn     func(ctx context.Context, d *domain.PersonalDocument) error
	CreateBusinessFn     func(ctx context.Context, d *domain.BusinessDocument) error
	ListPersonalFn       func(ctx context.Context, loanApplicationID uint64) ([]domain.PersonalDocument, error)
	ListBusinessFn       func(ctx context.Context, loanApplicationID uint64) ([]domain.BusinessDocument, error)
	CreateRequestFn      func(ctx context.Context, r *domain.Request) error
	FulfilRequestFn      func(ctx context.Context, id uint64, documentID string, at time.Time) (bool, error)
	GetRequestFn         func(ctx context.Context, requestID string) (*domain.Request, error)
	ListRequestsFn       func(ctx context.Context, loanApplicationID uint64) ([]domain.Request, error)
	ListOverdueFn        func(ctx context.Context, now time.Time, limit int) ([]domain.Request, error)
	MarkRequestOverdueFn func(ctx context.Context, id uint64, at time.Time) (bool, error)
}

func (m *Repo) CreatePersonal(ctx context.Context, d *domain.PersonalDocument) error {
	if m.CreatePersonalFn != nil {
		return m.CreatePersonalFn(ctx, d)
	}
	return nil
}

func (m *Repo) CreateBusiness(ctx context.Context, d *domain.BusinessDocument) error {
	if m.CreateBusinessFn != nil {
		return m.CreateBusinessFn(ctx, d)
	}
	return nil
}

func (m *Repo) ListPersonal(ctx context.Context, loanApplicationID uint64) ([]domain.PersonalDocument, error) {
	if m.ListPersonalFn != nil {
		return m.ListPersonalFn(ctx, loanApplicationID)
	}
	return []domain.PersonalDocument{}, nil
}

func (m *Repo) ListBusiness(ctx context.Context, loanApplicationID uint64) ([]domain.BusinessDocument, error) {
	if m.ListBusinessFn != nil {
		return m.ListBusinessFn(ctx, loanApplicationID)
	}
	return []domain.BusinessDocument{}, nil
}

func (m *Repo) CreateRequest(ctx context.Context, r *domain.Request) error {
	if m.CreateRequestFn != nil {
		return m.CreateRequestFn(ctx, r)
	}
	return nil
}

func (m *Repo) FulfilRequest(ctx context.Context, id uint64, documentID string, at time.Time) (bool, error) {
	if m.FulfilRequestFn != nil {
		return m.FulfilRequestFn(ctx, id, documentID, at)
	}
	return true, nil
}

func (m *Repo) GetRequest(ctx context.Context, requestID string) (*domain.Request, error) {
	if m.GetRequestFn != nil {
		return m.GetRequestFn(ctx, requestID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListRequests(ctx context.Context, loanApplicationID uint64) ([]domain.Request, error) {
	if m.ListRequestsFn != nil {
		return m.ListRequestsFn(ctx, loanApplicationID)
	}
	return []domain.Request{}, nil
}

func (m *Repo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Request, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, now, limit)
	}
	return []domain.Request{}, nil
}

func (m *Repo) MarkRequestOverdue(ctx context.Context, id uint64, at time.Time) (bool, error) {
	if m.MarkRequestOverdueFn != nil {
		return m.MarkRequestOverdueFn(ctx, id, at)
	}
	return true, nil
}
