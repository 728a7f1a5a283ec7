package gormrepo

import (
	"context"

	"gorm.io/gorm"

	productDomain "loan-origination/internal/domain/product"
)

type ProductRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) *ProductRepository { return &ProductRepository{db: db} }

func (r *ProductRepository) Create(ctx context.Context, p *productDomain.LoanProduct) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepository) Save(ctx context.Context, p *productDomain.LoanProduct) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProductRepository) GetByProductID(ctx context.Context, productID string) (*productDomain.LoanProduct, error) {
	var out productDomain.LoanProduct
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uint64) (*productDomain.LoanProduct, error) {
	var out productDomain.LoanProduct
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ProductRepository) List(ctx context.Context, activeOnly bool) ([]productDomain.LoanProduct, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	out := make([]productDomain.LoanProduct, 0)
	err := q.Order("name ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *ProductRepository) CreateSnapshot(ctx context.Context, s *productDomain.LoanProductSnapshot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ProductRepository) GetSnapshot(ctx context.Context, id uint64) (*productDomain.LoanProductSnapshot, error) {
	var out productDomain.LoanProductSnapshot
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
