package user

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	Save(ctx context.Context, u *User) error
	GetByExternalAuthID(ctx context.Context, externalID string) (*User, error)
	GetByID(ctx context.Context, id uint64) (*User, error)
}
