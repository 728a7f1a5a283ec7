package gormrepo

import (
	"context"

	"gorm.io/gorm"

	businessDomain "loan-origination/internal/domain/business"
)

type BusinessRepository struct{ db *gorm.DB }

func NewBusinessRepository(db *gorm.DB) *BusinessRepository { return &BusinessRepository{db: db} }

func (r *BusinessRepository) Create(ctx context.Context, b *businessDomain.BusinessProfile) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BusinessRepository) GetByBusinessID(ctx context.Context, businessID string) (*businessDomain.BusinessProfile, error) {
	var out businessDomain.BusinessProfile
	if err := r.db.WithContext(ctx).Where("business_id = ?", businessID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *BusinessRepository) GetByID(ctx context.Context, id uint64) (*businessDomain.BusinessProfile, error) {
	var out businessDomain.BusinessProfile
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
