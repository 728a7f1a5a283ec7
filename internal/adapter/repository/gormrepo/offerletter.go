package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	offerDomain "loan-origination/internal/domain/offerletter"
)

type OfferLetterRepository struct{ db *gorm.DB }

func NewOfferLetterRepository(db *gorm.DB) *OfferLetterRepository {
	return &OfferLetterRepository{db: db}
}

func (r *OfferLetterRepository) Create(ctx context.Context, o *offerDomain.OfferLetter) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OfferLetterRepository) Save(ctx context.Context, o *offerDomain.OfferLetter) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *OfferLetterRepository) GetByOfferLetterID(ctx context.Context, offerLetterID string) (*offerDomain.OfferLetter, error) {
	var out offerDomain.OfferLetter
	if err := r.db.WithContext(ctx).Where("offer_letter_id = ?", offerLetterID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByIDForUpdate locks the row for the rest of the transaction.
func (r *OfferLetterRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*offerDomain.OfferLetter, error) {
	var out offerDomain.OfferLetter
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&out, id).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetEnvelopeID stores envelopeID unless the letter already has one.
func (r *OfferLetterRepository) SetEnvelopeID(ctx context.Context, id uint64, envelopeID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&offerDomain.OfferLetter{}).
		Where("id = ? AND (envelope_id = '' OR envelope_id IS NULL)", id).
		UpdateColumns(map[string]any{"envelope_id": envelopeID, "updated_at": time.Now().UTC()})
	return res.RowsAffected == 1, res.Error
}

// MarkSent moves a draft letter to sent. It reports false when the letter
// had already left draft.
func (r *OfferLetterRepository) MarkSent(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&offerDomain.OfferLetter{}).
		Where("id = ? AND status = ?", id, offerDomain.StatusDraft).
		UpdateColumns(map[string]any{
			"status":     offerDomain.StatusSent,
			"sent_at":    gorm.Expr("COALESCE(sent_at, ?)", at),
			"updated_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *OfferLetterRepository) GetByEnvelopeID(ctx context.Context, envelopeID string) (*offerDomain.OfferLetter, error) {
	var out offerDomain.OfferLetter
	if err := r.db.WithContext(ctx).Where("envelope_id = ?", envelopeID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *OfferLetterRepository) GetActive(ctx context.Context, loanApplicationID uint64) (*offerDomain.OfferLetter, error) {
	var out offerDomain.OfferLetter
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ? AND is_active = ?", loanApplicationID, true).
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *OfferLetterRepository) ListByApplication(ctx context.Context, loanApplicationID uint64) ([]offerDomain.OfferLetter, error) {
	out := make([]offerDomain.OfferLetter, 0)
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ?", loanApplicationID).
		Order("version ASC").
		Find(&out).Error
	return out, err
}

// MaxVersion counts deleted letters too so versions are never reused.
func (r *OfferLetterRepository) MaxVersion(ctx context.Context, loanApplicationID uint64) (int, error) {
	var n int
	err := r.db.WithContext(ctx).Unscoped().Model(&offerDomain.OfferLetter{}).
		Where("loan_application_id = ?", loanApplicationID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&n).Error
	return n, err
}

func (r *OfferLetterRepository) ListExpiring(ctx context.Context, now time.Time, limit int) ([]offerDomain.OfferLetter, error) {
	out := make([]offerDomain.OfferLetter, 0)
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND status IN ? AND expires_at IS NOT NULL AND expires_at < ?",
			true, offerDomain.PendingStatuses, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
