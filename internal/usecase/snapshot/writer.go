// Package snapshot captures immutable copies of an application and
// everything hanging off it at approval time.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/apperr"
	"loan-origination/internal/domain/business"
	"loan-origination/internal/domain/document"
	"loan-origination/internal/domain/offerletter"
	"loan-origination/internal/domain/product"
	domain "loan-origination/internal/domain/snapshot"
	"loan-origination/internal/domain/uow"
	"loan-origination/pkg/id"
)

// Data is the JSON document stored in snapshot_data.
type Data struct {
	Application       *application.LoanApplication `json:"application"`
	ProductSnapshot   *product.LoanProductSnapshot `json:"product_snapshot,omitempty"`
	BusinessProfile   *business.BusinessProfile    `json:"business_profile,omitempty"`
	PersonalDocuments []document.PersonalDocument  `json:"personal_documents"`
	BusinessDocuments []document.BusinessDocument  `json:"business_documents"`
	OfferLetters      []offerletter.OfferLetter    `json:"offer_letters"`
	CapturedAt        time.Time                    `json:"captured_at"`
}

type View struct {
	SnapshotID    string    `json:"snapshot_id"`
	ApplicationID string    `json:"application_id"`
	Sequence      int       `json:"sequence"`
	CreatedBy     uint64    `json:"created_by"`
	ApprovalStage string    `json:"approval_stage"`
	CreatedAt     time.Time `json:"created_at"`
	Data          Data      `json:"snapshot_data"`
}

// Writer captures snapshots inside the caller's transaction, so every source
// row is read through that transaction and sees its uncommitted changes.
// pool serves the read-only Get, List and Latest lookups.
type Writer struct {
	pool uow.Repos
	now  func() time.Time
}

func NewWriter(pool uow.Repos) *Writer {
	return &Writer{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a new snapshot of the application with primary key
// applicationPK using r, which should be the caller's transaction.
func (w *Writer) Create(ctx context.Context, r uow.Repos, applicationPK, createdBy uint64, approvalStage string) (*domain.Snapshot, error) {
	a, err := r.Applications.GetByID(ctx, applicationPK)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("LOAN_APPLICATION_NOT_FOUND", "loan application not found")
		}
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load loan application for snapshot", err)
	}

	data := Data{Application: a, CapturedAt: w.now()}
	if err := collect(ctx, r, a, &data); err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "read snapshot sources", err)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, apperr.Internal("SERIALIZATION_FAILURE", "encode snapshot", err)
	}

	seq, err := r.Snapshots.MaxSequence(ctx, a.ID)
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "read snapshot sequence", err)
	}
	s := &domain.Snapshot{
		SnapshotID:        id.NewID32(),
		LoanApplicationID: a.ID,
		Sequence:          seq + 1,
		CreatedBy:         createdBy,
		ApprovalStage:     approvalStage,
		SnapshotData:      datatypes.JSON(payload),
	}
	if err := r.Snapshots.Create(ctx, s); err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "write snapshot", err)
	}
	return s, nil
}

// collect fills data from r, one query at a time on the transaction's
// connection.
func collect(ctx context.Context, r uow.Repos, a *application.LoanApplication, data *Data) error {
	ps, err := r.Products.GetSnapshot(ctx, a.ProductSnapshotID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	data.ProductSnapshot = ps
	if a.BusinessID != nil {
		b, err := r.Businesses.GetByID(ctx, *a.BusinessID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		data.BusinessProfile = b
	}
	if data.PersonalDocuments, err = r.Documents.ListPersonal(ctx, a.ID); err != nil {
		return err
	}
	if data.BusinessDocuments, err = r.Documents.ListBusiness(ctx, a.ID); err != nil {
		return err
	}
	data.OfferLetters, err = r.OfferLetters.ListByApplication(ctx, a.ID)
	return err
}

func (w *Writer) Get(ctx context.Context, applicationID, snapshotID string) (*View, error) {
	a, err := w.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	s, err := w.pool.Snapshots.GetBySnapshotID(ctx, snapshotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("SNAPSHOT_NOT_FOUND", "snapshot not found")
		}
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load snapshot", err)
	}
	if s.LoanApplicationID != a.ID {
		return nil, apperr.NotFound("SNAPSHOT_NOT_FOUND", "snapshot not found")
	}
	return toView(a.ApplicationID, s)
}

// List returns every snapshot of the application, oldest first.
func (w *Writer) List(ctx context.Context, applicationID string) ([]View, error) {
	a, err := w.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	rows, err := w.pool.Snapshots.ListByApplication(ctx, a.ID)
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "list snapshots", err)
	}
	out := make([]View, 0, len(rows))
	for i := range rows {
		v, err := toView(a.ApplicationID, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (w *Writer) Latest(ctx context.Context, applicationID string) (*View, error) {
	a, err := w.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	s, err := w.pool.Snapshots.Latest(ctx, a.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("SNAPSHOT_NOT_FOUND", "application has no snapshot")
		}
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load latest snapshot", err)
	}
	return toView(a.ApplicationID, s)
}

func (w *Writer) application(ctx context.Context, applicationID string) (*application.LoanApplication, error) {
	a, err := w.pool.Applications.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("LOAN_APPLICATION_NOT_FOUND", "loan application not found")
		}
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load loan application", err)
	}
	return a, nil
}

func toView(applicationID string, s *domain.Snapshot) (*View, error) {
	v := &View{
		SnapshotID:    s.SnapshotID,
		ApplicationID: applicationID,
		Sequence:      s.Sequence,
		CreatedBy:     s.CreatedBy,
		ApprovalStage: s.ApprovalStage,
		CreatedAt:     s.CreatedAt,
	}
	if err := json.Unmarshal(s.SnapshotData, &v.Data); err != nil {
		return nil, apperr.Internal("SERIALIZATION_FAILURE", "decode snapshot", err)
	}
	return v, nil
}
