// Package document records uploaded files against loan applications and
// tracks requests for missing documents.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/apperr"
	"loan-origination/internal/domain/audit"
	domain "loan-origination/internal/domain/document"
	"loan-origination/internal/domain/uow"
	"loan-origination/internal/domain/user"
	auditUC "loan-origination/internal/usecase/audit"
	"loan-origination/pkg/id"
)

const overdueBatch = 200

type ActorResolver interface {
	Resolve(ctx context.Context, externalID string) (*user.User, error)
}

type UploadInput struct {
	ActorExternalID string
	ApplicationID   string
	Kind            domain.Kind
	DocumentType    string
	FileName        string
	FileURL         string
	MimeType        string
	SizeBytes       int64
	// RequestID, when set, fulfils that document request with this upload.
	RequestID string
}

type RequestInput struct {
	ActorExternalID string
	ApplicationID   string
	Kind            domain.Kind
	DocumentType    string
	Description     string
	DueAt           *time.Time
}

type Usecase struct {
	pool   uow.Repos
	uow    uow.UnitOfWork
	actors ActorResolver
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewUsecase(pool uow.Repos, tx uow.UnitOfWork, actors ActorResolver, log logrus.FieldLogger) *Usecase {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Usecase{pool: pool, uow: tx, actors: actors, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Upload stores the metadata of a file already placed in object storage.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (*domain.Document, error) {
	if in.Kind != domain.KindPersonal && in.Kind != domain.KindBusiness {
		return nil, apperr.InvalidParameters("INVALID_DOCUMENT_KIND", fmt.Sprintf("unknown document kind %q", in.Kind))
	}
	if strings.TrimSpace(in.DocumentType) == "" || strings.TrimSpace(in.FileName) == "" || strings.TrimSpace(in.FileURL) == "" {
		return nil, apperr.InvalidParameters("INVALID_PARAMETERS", "document_type, file_name and file_url are required")
	}
	actor, a, err := u.access(ctx, in.ActorExternalID, in.ApplicationID)
	if err != nil {
		return nil, err
	}

	doc := domain.Document{
		DocumentID:        id.NewID32(),
		LoanApplicationID: a.ID,
		UploadedBy:        actor.ID,
		DocumentType:      strings.TrimSpace(in.DocumentType),
		FileName:          strings.TrimSpace(in.FileName),
		FileURL:           strings.TrimSpace(in.FileURL),
		MimeType:          in.MimeType,
		SizeBytes:         in.SizeBytes,
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		switch in.Kind {
		case domain.KindPersonal:
			d := &domain.PersonalDocument{Document: doc}
			if err := r.Documents.CreatePersonal(ctx, d); err != nil {
				return apperr.Internal("PERSISTENCE_FAILURE", "store personal document", err)
			}
			doc = d.Document
		case domain.KindBusiness:
			d := &domain.BusinessDocument{Document: doc}
			if err := r.Documents.CreateBusiness(ctx, d); err != nil {
				return apperr.Internal("PERSISTENCE_FAILURE", "store business document", err)
			}
			doc = d.Document
		}
		if _, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
			LoanApplicationID: a.ID,
			UserID:            actor.ID,
			Action:            audit.ActionDocumentUploaded,
			Details:           fmt.Sprintf("%s document %s uploaded", in.Kind, doc.DocumentType),
			Metadata:          map[string]any{"document_id": doc.DocumentID, "kind": in.Kind},
		}); err != nil {
			return err
		}
		if in.RequestID == "" {
			return nil
		}
		return u.fulfil(ctx, r, a, actor, in.RequestID, in.Kind, doc.DocumentID)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns the documents of one kind, oldest first.
func (u *Usecase) List(ctx context.Context, actorExternalID, applicationID string, kind domain.Kind) ([]domain.Document, error) {
	_, a, err := u.access(ctx, actorExternalID, applicationID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Document, 0)
	switch kind {
	case domain.KindPersonal:
		rows, err := u.pool.Documents.ListPersonal(ctx, a.ID)
		if err != nil {
			return nil, apperr.Internal("PERSISTENCE_FAILURE", "list personal documents", err)
		}
		for _, d := range rows {
			out = append(out, d.Document)
		}
	case domain.KindBusiness:
		rows, err := u.pool.Documents.ListBusiness(ctx, a.ID)
		if err != nil {
			return nil, apperr.Internal("PERSISTENCE_FAILURE", "list business documents", err)
		}
		for _, d := range rows {
			out = append(out, d.Document)
		}
	default:
		return nil, apperr.InvalidParameters("INVALID_DOCUMENT_KIND", fmt.Sprintf("unknown document kind %q", kind))
	}
	return out, nil
}

// CreateRequest asks the application owner for a document.
func (u *Usecase) CreateRequest(ctx context.Context, in RequestInput) (*domain.Request, error) {
	if in.Kind != domain.KindPersonal && in.Kind != domain.KindBusiness {
		return nil, apperr.InvalidParameters("INVALID_DOCUMENT_KIND", fmt.Sprintf("unknown document kind %q", in.Kind))
	}
	if strings.TrimSpace(in.DocumentType) == "" {
		return nil, apperr.InvalidParameters("INVALID_PARAMETERS", "document_type is required")
	}
	if in.DueAt != nil && !in.DueAt.After(u.now()) {
		return nil, apperr.InvalidParameters("INVALID_PARAMETERS", "due_at must be in the future")
	}
	actor, a, err := u.access(ctx, in.ActorExternalID, in.ApplicationID)
	if err != nil {
		return nil, err
	}

	req := &domain.Request{
		RequestID:         id.NewID32(),
		LoanApplicationID: a.ID,
		RequestedBy:       actor.ID,
		RequestedFrom:     a.UserID,
		DocumentKind:      in.Kind,
		DocumentType:      strings.TrimSpace(in.DocumentType),
		Description:       in.Description,
		Status:            domain.RequestPending,
		DueAt:             in.DueAt,
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Documents.CreateRequest(ctx, req); err != nil {
			return apperr.Internal("PERSISTENCE_FAILURE", "create document request", err)
		}
		_, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
			LoanApplicationID: a.ID,
			UserID:            actor.ID,
			Action:            audit.ActionDocumentRequestCreated,
			Details:           fmt.Sprintf("requested %s document %s", req.DocumentKind, req.DocumentType),
			After:             req,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (u *Usecase) ListRequests(ctx context.Context, actorExternalID, applicationID string) ([]domain.Request, error) {
	_, a, err := u.access(ctx, actorExternalID, applicationID)
	if err != nil {
		return nil, err
	}
	out, err := u.pool.Documents.ListRequests(ctx, a.ID)
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "list document requests", err)
	}
	return out, nil
}

// Fulfil links an already uploaded document to an open request.
func (u *Usecase) Fulfil(ctx context.Context, actorExternalID, requestID, documentID string) (*domain.Request, error) {
	req, err := u.pool.Documents.GetRequest(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "DOCUMENT_REQUEST_NOT_FOUND", "document request not found")
	}
	a, err := u.pool.Applications.GetByID(ctx, req.LoanApplicationID)
	if err != nil {
		return nil, notFound(err, "LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	actor, _, err := u.access(ctx, actorExternalID, a.ApplicationID)
	if err != nil {
		return nil, err
	}
	var out *domain.Request
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := u.fulfil(ctx, r, a, actor, requestID, req.DocumentKind, documentID); err != nil {
			return err
		}
		got, err := r.Documents.GetRequest(ctx, requestID)
		if err != nil {
			return apperr.Internal("PERSISTENCE_FAILURE", "reload document request", err)
		}
		out = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkOverdue flips pending requests past their due date, one audit entry
// per request. The entry is attributed to the officer who set the deadline.
func (u *Usecase) MarkOverdue(ctx context.Context) (int64, error) {
	now := u.now()
	var n int64
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		due, err := r.Documents.ListOverdue(ctx, now, overdueBatch)
		if err != nil {
			return err
		}
		for i := range due {
			req := &due[i]
			moved, err := r.Documents.MarkRequestOverdue(ctx, req.ID, now)
			if err != nil {
				return err
			}
			if !moved {
				continue
			}
			if _, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
				LoanApplicationID: req.LoanApplicationID,
				UserID:            req.RequestedBy,
				Action:            audit.ActionDocumentRequestOverdue,
				Details:           "document request passed its due date",
				Metadata:          map[string]any{"request_id": req.RequestID, "due_at": req.DueAt},
			}); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return 0, err
		}
		return 0, apperr.Internal("PERSISTENCE_FAILURE", "mark overdue document requests", err)
	}
	if n > 0 {
		u.log.WithField("count", n).Info("document requests marked overdue")
	}
	return n, nil
}

func (u *Usecase) fulfil(ctx context.Context, r uow.Repos, a *application.LoanApplication, actor *user.User, requestID string, kind domain.Kind, documentID string) error {
	req, err := r.Documents.GetRequest(ctx, requestID)
	if err != nil {
		return notFound(err, "DOCUMENT_REQUEST_NOT_FOUND", "document request not found")
	}
	if req.LoanApplicationID != a.ID {
		return apperr.NotFound("DOCUMENT_REQUEST_NOT_FOUND", "document request not found")
	}
	if !req.IsOpen() {
		return apperr.Conflict("DOCUMENT_REQUEST_CLOSED", "document request already fulfilled")
	}
	if req.DocumentKind != kind {
		return apperr.InvalidParameters("INVALID_DOCUMENT_KIND",
			fmt.Sprintf("request expects a %s document", req.DocumentKind))
	}
	ok, err := hasDocument(ctx, r, a.ID, kind, documentID)
	if err != nil {
		return apperr.Internal("PERSISTENCE_FAILURE", "look up document", err)
	}
	if !ok {
		return apperr.NotFound("DOCUMENT_NOT_FOUND", "document not found on this application")
	}

	// the guarded update decides between concurrent fulfilments
	closed, err := r.Documents.FulfilRequest(ctx, req.ID, documentID, u.now())
	if err != nil {
		return apperr.Internal("PERSISTENCE_FAILURE", "fulfil document request", err)
	}
	if !closed {
		return apperr.Conflict("DOCUMENT_REQUEST_CLOSED", "document request already fulfilled")
	}
	_, err = auditUC.Append(ctx, r.Audits, auditUC.LogInput{
		LoanApplicationID: a.ID,
		UserID:            actor.ID,
		Action:            audit.ActionDocumentRequestFulfilled,
		Metadata:          map[string]any{"request_id": req.RequestID, "document_id": documentID},
	})
	return err
}

func hasDocument(ctx context.Context, r uow.Repos, appPK uint64, kind domain.Kind, documentID string) (bool, error) {
	switch kind {
	case domain.KindPersonal:
		rows, err := r.Documents.ListPersonal(ctx, appPK)
		if err != nil {
			return false, err
		}
		for _, d := range rows {
			if d.DocumentID == documentID {
				return true, nil
			}
		}
	case domain.KindBusiness:
		rows, err := r.Documents.ListBusiness(ctx, appPK)
		if err != nil {
			return false, err
		}
		for _, d := range rows {
			if d.DocumentID == documentID {
				return true, nil
			}
		}
	}
	return false, nil
}

// access resolves the actor and the application they may act on.
func (u *Usecase) access(ctx context.Context, actorExternalID, applicationID string) (*user.User, *application.LoanApplication, error) {
	actor, err := u.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return nil, nil, err
	}
	a, err := u.pool.Applications.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, nil, notFound(err, "LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	if !a.VisibleTo(actor) {
		return nil, nil, apperr.NotFound("LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	return actor, a, nil
}

func notFound(err error, code, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(code, msg)
	}
	return apperr.Internal("PERSISTENCE_FAILURE", msg, err)
}
