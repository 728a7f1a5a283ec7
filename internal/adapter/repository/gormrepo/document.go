package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	docDomain "loan-origination/internal/domain/document"
)

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

func (r *DocumentRepository) CreatePersonal(ctx context.Context, d *docDomain.PersonalDocument) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DocumentRepository) CreateBusiness(ctx context.Context, d *docDomain.BusinessDocument) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DocumentRepository) ListPersonal(ctx context.Context, loanApplicationID uint64) ([]docDomain.PersonalDocument, error) {
	out := make([]docDomain.PersonalDocument, 0)
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ?", loanApplicationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *DocumentRepository) ListBusiness(ctx context.Context, loanApplicationID uint64) ([]docDomain.BusinessDocument, error) {
	out := make([]docDomain.BusinessDocument, 0)
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ?", loanApplicationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *DocumentRepository) CreateRequest(ctx context.Context, req *docDomain.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// FulfilRequest closes an open request. It reports false when the request
// was already fulfilled.
func (r *DocumentRepository) FulfilRequest(ctx context.Context, id uint64, documentID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&docDomain.Request{}).
		Where("id = ? AND status IN ?", id, []docDomain.RequestStatus{docDomain.RequestPending, docDomain.RequestOverdue}).
		UpdateColumns(map[string]any{
			"status":                docDomain.RequestFulfilled,
			"fulfilled_at":          at,
			"fulfilled_document_id": documentID,
			"updated_at":            at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *DocumentRepository) GetRequest(ctx context.Context, requestID string) (*docDomain.Request, error) {
	var out docDomain.Request
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *DocumentRepository) ListRequests(ctx context.Context, loanApplicationID uint64) ([]docDomain.Request, error) {
	out := make([]docDomain.Request, 0)
	err := r.db.WithContext(ctx).
		Where("loan_application_id = ?", loanApplicationID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *DocumentRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]docDomain.Request, error) {
	out := make([]docDomain.Request, 0)
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_at IS NOT NULL AND due_at < ?", docDomain.RequestPending, now).
		Order("due_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkRequestOverdue flips one pending request and reports whether it did.
func (r *DocumentRepository) MarkRequestOverdue(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&docDomain.Request{}).
		Where("id = ? AND status = ?", id, docDomain.RequestPending).
		UpdateColumns(map[string]any{"status": docDomain.RequestOverdue, "updated_at": at})
	return res.RowsAffected == 1, res.Error
}
