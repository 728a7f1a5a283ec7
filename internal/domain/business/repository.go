package business

import "context"

type Repository interface {
	Create(ctx context.Context, b *BusinessProfile) error
	GetByBusinessID(ctx context.Context, businessID string) (*BusinessProfile, error)
	GetByID(ctx context.Context, id uint64) (*BusinessProfile, error)
}
