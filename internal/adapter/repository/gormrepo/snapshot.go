package gormrepo

import (
	"context"

	"gorm.io/gorm"

	snapshotDomain "loan-origination/internal/domain/snapshot"
)

type SnapshotRepository struct{ db *gorm.DB }

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository { return &SnapshotRepository{db: db} }

func (r *SnapshotRepository) Create(ctx context.Context, s *snapshotDomain.Snapshot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SnapshotRepository) GetBySnapshotID(ctx context.Context, snapshotID string) (*snapshotDomain.Snapshot, error) {
	var out snapshotDomain.Snapshot
	if err := r.db.WithContext(ctx).Where("snapshot_id = ?", snapshotID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SnapshotRepository) ListByApplication(ctx context.Context, loanApplicationID uint64) ([]snapshotDomain.Snapshot, error) {
	out := make([]snapshotDomain.Snapshot, 0)
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ?", loanApplicationID).
		Order("sequence ASC").
		Find(&out).Error
	return out, err
}

func (r *SnapshotRepository) Latest(ctx context.Context, loanApplicationID uint64) (*snapshotDomain.Snapshot, error) {
	var out snapshotDomain.Snapshot
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ?", loanApplicationID).
		Order("sequence DESC").
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SnapshotRepository) MaxSequence(ctx context.Context, loanApplicationID uint64) (int, error) {
	var n int
	err := r.db.WithContext(ctx).Model(&snapshotDomain.Snapshot{}).
		Where("loan_application_id = ?", loanApplicationID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&n).Error
	return n, err
}
