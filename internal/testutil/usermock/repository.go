package usermock

import (
	"context"

	domain "loan-origination/internal/domain/user"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn              func(ctx context.Context, u *domain.User) error
	SaveFn                func(ctx context.Context, u *domain.User) error
	GetByExternalAuthIDFn func(ctx context.Context, externalID string) (*domain.User, error)
	GetByIDFn             func(ctx context.Context, id uint64) (*domain.User, error)
}

func (m *Repo) Create(ctx context.Context, u *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, u *domain.User) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, u)
	}
	return nil
}

func (m *Repo) GetByExternalAuthID(ctx context.Context, externalID string) (*domain.User, error) {
	if m.GetByExternalAuthIDFn != nil {
		return m.GetByExternalAuthIDFn(ctx, externalID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}
