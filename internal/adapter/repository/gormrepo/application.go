package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appDomain "loan-origination/internal/domain/application"
)

type ApplicationRepository struct{ db *gorm.DB }

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *appDomain.LoanApplication) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepository) Save(ctx context.Context, a *appDomain.LoanApplication) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *ApplicationRepository) GetByApplicationID(ctx context.Context, applicationID string) (*appDomain.LoanApplication, error) {
	var out appDomain.LoanApplication
	if err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByApplicationIDForUpdate issues SELECT ... FOR UPDATE. The sqlite
// dialect drops the locking clause; there BEGIN IMMEDIATE serializes writers.
func (r *ApplicationRepository) GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*appDomain.LoanApplication, error) {
	var out appDomain.LoanApplication
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ?", applicationID).
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uint64) (*appDomain.LoanApplication, error) {
	var out appDomain.LoanApplication
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ApplicationRepository) List(ctx context.Context, f appDomain.ListFilter) ([]appDomain.LoanApplication, int64, error) {
	q := r.db.WithContext(ctx).Model(&appDomain.LoanApplication{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	out := make([]appDomain.LoanApplication, 0)
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Offset).Find(&out).Error
	return out, total, err
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, a *appDomain.LoanApplication, expectedVersion int64) error {
	res := r.db.WithContext(ctx).
		Model(&appDomain.LoanApplication{}).
		Where("id = ? AND version = ?", a.ID, expectedVersion).
		Updates(map[string]any{
			"status":           a.Status,
			"status_reason":    a.StatusReason,
			"rejection_reason": a.RejectionReason,
			"last_updated_by":  a.LastUpdatedBy,
			"submitted_at":     a.SubmittedAt,
			"reviewed_at":      a.ReviewedAt,
			"approved_at":      a.ApprovedAt,
			"disbursed_at":     a.DisbursedAt,
			"rejected_at":      a.RejectedAt,
			"withdrawn_at":     a.WithdrawnAt,
			"version":          expectedVersion + 1,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appDomain.ErrStaleVersion
	}
	a.Version = expectedVersion + 1
	return nil
}

func (r *ApplicationRepository) SoftDelete(ctx context.Context, a *appDomain.LoanApplication, deletedBy uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(a).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Delete(a).Error
	})
}
