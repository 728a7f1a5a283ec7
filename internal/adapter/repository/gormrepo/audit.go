package gormrepo

import (
	"context"

	"gorm.io/gorm"

	auditDomain "loan-origination/internal/domain/audit"
)

// AuditRepository never updates or deletes rows.
type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

func (r *AuditRepository) Create(ctx context.Context, e *auditDomain.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *AuditRepository) CreateBatch(ctx context.Context, entries []*auditDomain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(entries).Error
}

func (r *AuditRepository) List(ctx context.Context, q auditDomain.Query) ([]auditDomain.Entry, int64, error) {
	db := r.db.WithContext(ctx).Model(&auditDomain.Entry{}).
		Where("loan_application_id = ?", q.LoanApplicationID)
	if len(q.Actions) > 0 {
		db = db.Where("action IN ?", q.Actions)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	out := make([]auditDomain.Entry, 0)
	err := db.Order("created_at DESC, id DESC").Limit(limit).Offset(q.Offset).Find(&out).Error
	return out, total, err
}

func (r *AuditRepository) CountByAction(ctx context.Context, loanApplicationID uint64) ([]auditDomain.ActionCount, error) {
	out := make([]auditDomain.ActionCount, 0)
	err := r.db.WithContext(ctx).Model(&auditDomain.Entry{}).
		Select("action, COUNT(*) AS count").
		Where("loan_application_id = ?", loanApplicationID).
		Group("action").
		Order("action").
		Scan(&out).Error
	return out, err
}

func (r *AuditRepository) Latest(ctx context.Context, loanApplicationID uint64) (*auditDomain.Entry, error) {
	var out auditDomain.Entry
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ?", loanApplicationID).
		Order("created_at DESC, id DESC").
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}
