package product

import "context"

type Repository interface {
	Create(ctx context.Context, p *LoanProduct) error
	Save(ctx context.Context, p *LoanProduct) error
	GetByProductID(ctx context.Context, productID string) (*LoanProduct, error)
	GetByID(ctx context.Context, id uint64) (*LoanProduct, error)
	List(ctx context.Context, activeOnly bool) ([]LoanProduct, error)

	CreateSnapshot(ctx context.Context, s *LoanProductSnapshot) error
	GetSnapshot(ctx context.Context, id uint64) (*LoanProductSnapshot, error)
}
