// Package application manages loan applications outside of status changes:
// creation, borrower edits while in draft, listing and deletion.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domain "loan-origination/internal/domain/application"
	"loan-origination/internal/domain/apperr"
	"loan-origination/internal/domain/audit"
	"loan-origination/internal/domain/business"
	"loan-origination/internal/domain/product"
	"loan-origination/internal/domain/uow"
	"loan-origination/internal/domain/user"
	auditUC "loan-origination/internal/usecase/audit"
	"loan-origination/pkg/id"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type ActorResolver interface {
	Resolve(ctx context.Context, externalID string) (*user.User, error)
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

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*ApplicationDTO, error) {
	actor, err := u.actors.Resolve(ctx, in.ActorExternalID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, apperr.InvalidParameters("INVALID_PARAMETERS", "product_id is required")
	}

	p, err := u.pool.Products.GetByProductID(ctx, in.ProductID)
	if err != nil {
		return nil, notFoundOr(err, "PRODUCT_NOT_FOUND", "loan product not found")
	}
	if !p.IsActive {
		return nil, apperr.InvalidParameters("PRODUCT_INACTIVE", "loan product is not accepting applications")
	}
	if in.Currency != "" && !strings.EqualFold(in.Currency, p.Currency) {
		return nil, apperr.InvalidParameters("CURRENCY_MISMATCH",
			fmt.Sprintf("product is offered in %s", p.Currency))
	}
	if !p.Accepts(in.RequestedAmount, in.TermMonths) {
		return nil, outOfRange(p.MinAmount, p.MaxAmount, p.MinTermMonths, p.MaxTermMonths)
	}

	var biz *business.BusinessProfile
	if in.BusinessID != "" {
		biz, err = u.pool.Businesses.GetByBusinessID(ctx, in.BusinessID)
		if err != nil {
			return nil, notFoundOr(err, "BUSINESS_NOT_FOUND", "business profile not found")
		}
		if biz.OwnerUserID != actor.ID {
			return nil, apperr.NotFound("BUSINESS_NOT_FOUND", "business profile not found")
		}
	}

	var (
		a     *domain.LoanApplication
		terms *product.LoanProductSnapshot
	)
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		terms = p.Freeze()
		if err := r.Products.CreateSnapshot(ctx, terms); err != nil {
			return apperr.Internal("PERSISTENCE_FAILURE", "freeze product terms", err)
		}
		a = &domain.LoanApplication{
			ApplicationID:     id.NewID32(),
			ApplicationNumber: id.NewApplicationNumber(u.now()),
			UserID:            actor.ID,
			LoanProductID:     p.ID,
			ProductSnapshotID: terms.ID,
			RequestedAmount:   in.RequestedAmount,
			TermMonths:        in.TermMonths,
			Currency:          p.Currency,
			Purpose:           strings.TrimSpace(in.Purpose),
			Status:            domain.StatusDraft,
			LastUpdatedBy:     &actor.ID,
			Version:           1,
		}
		if biz != nil {
			a.BusinessID = &biz.ID
		}
		if err := r.Applications.Create(ctx, a); err != nil {
			return apperr.Internal("PERSISTENCE_FAILURE", "create loan application", err)
		}
		_, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
			LoanApplicationID: a.ID,
			UserID:            actor.ID,
			Action:            audit.ActionApplicationCreated,
			Details:           fmt.Sprintf("application %s created", a.ApplicationNumber),
			After:             a,
			Metadata:          map[string]any{"product_id": p.ProductID, "product_version": p.Version},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	u.log.WithFields(logrus.Fields{
		"application_id": a.ApplicationID,
		"number":         a.ApplicationNumber,
	}).Info("loan application created")

	dto := toDTO(a, terms)
	dto.OwnerUserID = actor.UserID
	if biz != nil {
		dto.BusinessID = biz.BusinessID
	}
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, actorExternalID, applicationID string) (*ApplicationDTO, error) {
	actor, err := u.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return nil, err
	}
	a, err := u.visible(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	return u.describe(ctx, a)
}

// List returns applications newest first. Borrowers only see their own.
func (u *Usecase) List(ctx context.Context, in ListInput) (*ListResult, error) {
	actor, err := u.actors.Resolve(ctx, in.ActorExternalID)
	if err != nil {
		return nil, err
	}
	f := domain.ListFilter{Limit: in.Limit, Offset: in.Offset}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if in.Status != "" {
		st, err := domain.ParseStatus(in.Status)
		if err != nil {
			return nil, apperr.InvalidParameters("INVALID_STATUS", err.Error())
		}
		f.Status = st
	}
	if !actor.IsStaff() {
		f.UserID = actor.ID
	}

	rows, total, err := u.pool.Applications.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "list loan applications", err)
	}
	out := &ListResult{Items: make([]ApplicationDTO, 0, len(rows)), Total: total, Limit: f.Limit, Offset: f.Offset}
	for i := range rows {
		out.Items = append(out.Items, toDTO(&rows[i], nil))
	}
	return out, nil
}

// Update edits borrower-facing fields. Only drafts are editable.
func (u *Usecase) Update(ctx context.Context, in UpdateInput) (*ApplicationDTO, error) {
	actor, err := u.actors.Resolve(ctx, in.ActorExternalID)
	if err != nil {
		return nil, err
	}
	if _, err := u.visible(ctx, actor, in.ApplicationID); err != nil {
		return nil, err
	}

	var updated *domain.LoanApplication
	err = u.uow.WithinApplicationTx(ctx, in.ApplicationID, func(r uow.Repos, a *domain.LoanApplication) error {
		if !a.IsEditable() {
			return apperr.InvalidParameters("APPLICATION_NOT_EDITABLE",
				fmt.Sprintf("application in status %s cannot be edited", a.Status))
		}
		before := *a

		if in.RequestedAmount != nil {
			a.RequestedAmount = *in.RequestedAmount
		}
		if in.TermMonths != nil {
			a.TermMonths = *in.TermMonths
		}
		if in.Purpose != nil {
			a.Purpose = strings.TrimSpace(*in.Purpose)
		}
		terms, err := r.Products.GetSnapshot(ctx, a.ProductSnapshotID)
		if err != nil {
			return apperr.Internal("PERSISTENCE_FAILURE", "load product terms", err)
		}
		if !withinTerms(terms, a.RequestedAmount, a.TermMonths) {
			return outOfRange(terms.MinAmount, terms.MaxAmount, terms.MinTermMonths, terms.MaxTermMonths)
		}

		a.LastUpdatedBy = &actor.ID
		a.Version++
		if err := r.Applications.Save(ctx, a); err != nil {
			return apperr.Internal("PERSISTENCE_FAILURE", "update loan application", err)
		}
		if _, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
			LoanApplicationID: a.ID,
			UserID:            actor.ID,
			Action:            audit.ActionApplicationUpdated,
			Before:            &before,
			After:             a,
		}); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	return u.describe(ctx, updated)
}

// Delete soft-deletes a draft or withdrawn application.
func (u *Usecase) Delete(ctx context.Context, actorExternalID, applicationID string) error {
	actor, err := u.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return err
	}
	if _, err := u.visible(ctx, actor, applicationID); err != nil {
		return err
	}
	err = u.uow.WithinApplicationTx(ctx, applicationID, func(r uow.Repos, a *domain.LoanApplication) error {
		if a.Status != domain.StatusDraft && a.Status != domain.StatusWithdrawn {
			return apperr.InvalidParameters("APPLICATION_NOT_DELETABLE",
				fmt.Sprintf("application in status %s cannot be deleted", a.Status))
		}
		if _, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
			LoanApplicationID: a.ID,
			UserID:            actor.ID,
			Action:            audit.ActionApplicationDeleted,
			Before:            a,
		}); err != nil {
			return err
		}
		if err := r.Applications.SoftDelete(ctx, a, actor.ID); err != nil {
			return apperr.Internal("PERSISTENCE_FAILURE", "delete loan application", err)
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	u.log.WithField("application_id", applicationID).Info("loan application deleted")
	return nil
}

// visible loads the application if actor may see it. Borrowers get
// not-found for other people's applications.
func (u *Usecase) visible(ctx context.Context, actor *user.User, applicationID string) (*domain.LoanApplication, error) {
	a, err := u.pool.Applications.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, notFoundOr(err, "LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	if !a.VisibleTo(actor) {
		return nil, apperr.NotFound("LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	return a, nil
}

func (u *Usecase) describe(ctx context.Context, a *domain.LoanApplication) (*ApplicationDTO, error) {
	terms, err := u.pool.Products.GetSnapshot(ctx, a.ProductSnapshotID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load product terms", err)
	}
	dto := toDTO(a, terms)
	if owner, err := u.pool.Users.GetByID(ctx, a.UserID); err == nil {
		dto.OwnerUserID = owner.UserID
	}
	if a.BusinessID != nil {
		if b, err := u.pool.Businesses.GetByID(ctx, *a.BusinessID); err == nil {
			dto.BusinessID = b.BusinessID
		}
	}
	return &dto, nil
}

func withinTerms(t *product.LoanProductSnapshot, amount decimal.Decimal, termMonths int) bool {
	p := product.LoanProduct{
		MinAmount: t.MinAmount, MaxAmount: t.MaxAmount,
		MinTermMonths: t.MinTermMonths, MaxTermMonths: t.MaxTermMonths,
	}
	return p.Accepts(amount, termMonths)
}

func outOfRange(minAmt, maxAmt decimal.Decimal, minTerm, maxTerm int) error {
	return apperr.InvalidParameters("LOAN_TERMS_OUT_OF_RANGE", fmt.Sprintf(
		"amount must be between %s and %s, term between %d and %d months",
		minAmt.StringFixed(2), maxAmt.StringFixed(2), minTerm, maxTerm))
}

// notFoundOr classifies err: record-not-found becomes NotFound(code),
// classified errors pass through, anything else is a persistence failure.
func notFoundOr(err error, code, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(code, msg)
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal("PERSISTENCE_FAILURE", msg, err)
}
