// Package offerletter dispatches offer letters to the signing service and
// folds envelope updates back into the application lifecycle.
package offerletter

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
	domain "loan-origination/internal/domain/offerletter"
	"loan-origination/internal/domain/task"
	"loan-origination/internal/domain/uow"
	"loan-origination/internal/domain/user"
	"loan-origination/internal/infrastructure/signing"
	auditUC "loan-origination/internal/usecase/audit"
	"loan-origination/internal/usecase/status"
)

const expiryBatch = 100

type ActorResolver interface {
	Resolve(ctx context.Context, externalID string) (*user.User, error)
}

// StatusUpdater is the slice of the status orchestrator used here.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, in status.UpdateStatusInput) (*status.UpdateStatusResult, error)
}

type WebhookResult struct {
	OfferLetterID     string `json:"offer_letter_id"`
	EnvelopeStatus    string `json:"envelope_status"`
	ApplicationStatus string `json:"application_status"`
}

type Usecase struct {
	pool     uow.Repos
	uow      uow.UnitOfWork
	actors   ActorResolver
	statuses StatusUpdater
	signer   signing.Client
	systemID string
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewUsecase wires the offer letter flows. systemExternalID names the user
// that webhook-driven transitions and expiries are attributed to.
func NewUsecase(pool uow.Repos, tx uow.UnitOfWork, actors ActorResolver, statuses StatusUpdater, signer signing.Client, systemExternalID string, log logrus.FieldLogger) *Usecase {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Usecase{
		pool:     pool,
		uow:      tx,
		actors:   actors,
		statuses: statuses,
		signer:   signer,
		systemID: systemExternalID,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) List(ctx context.Context, actorExternalID, applicationID string) ([]domain.OfferLetter, error) {
	actor, err := u.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return nil, err
	}
	a, err := u.pool.Applications.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, notFound(err, "LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	if !a.VisibleTo(actor) {
		return nil, apperr.NotFound("LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	out, err := u.pool.OfferLetters.ListByApplication(ctx, a.ID)
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "list offer letters", err)
	}
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, actorExternalID, offerLetterID string) (*domain.OfferLetter, error) {
	actor, err := u.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return nil, err
	}
	o, err := u.pool.OfferLetters.GetByOfferLetterID(ctx, offerLetterID)
	if err != nil {
		return nil, notFound(err, "OFFER_LETTER_NOT_FOUND", "offer letter not found")
	}
	if !actor.IsStaff() {
		a, err := u.pool.Applications.GetByID(ctx, o.LoanApplicationID)
		if err != nil || !a.VisibleTo(actor) {
			return nil, apperr.NotFound("OFFER_LETTER_NOT_FOUND", "offer letter not found")
		}
	}
	return o, nil
}

// HandleSend is the task handler for task.KindOfferLetterSend. It is safe to
// retry: an envelope is only created once per letter.
func (u *Usecase) HandleSend(ctx context.Context, t *task.Task) error {
	var p task.OfferLetterSendPayload
	if err := t.Decode(&p); err != nil {
		return err
	}
	o, err := u.pool.OfferLetters.GetByOfferLetterID(ctx, p.OfferLetterID)
	if err != nil {
		return fmt.Errorf("load offer letter %s: %w", p.OfferLetterID, err)
	}
	if !o.IsActive || o.Status != domain.StatusDraft {
		u.log.WithFields(logrus.Fields{"offer_letter_id": o.OfferLetterID, "status": o.Status}).
			Info("offer letter no longer pending dispatch")
		return nil
	}
	a, err := u.pool.Applications.GetByID(ctx, o.LoanApplicationID)
	if err != nil {
		return fmt.Errorf("load application of offer letter %s: %w", o.OfferLetterID, err)
	}
	borrower, err := u.pool.Users.GetByID(ctx, a.UserID)
	if err != nil {
		return fmt.Errorf("load borrower of offer letter %s: %w", o.OfferLetterID, err)
	}

	if o.EnvelopeID == "" {
		env, err := u.signer.CreateEnvelope(ctx, signing.EnvelopeRequest{
			OfferLetterID:      o.OfferLetterID,
			ApplicationNumber:  a.ApplicationNumber,
			SignerEmail:        borrower.Email,
			SignerName:         borrower.FullName,
			Amount:             o.Amount,
			TermMonths:         o.TermMonths,
			InterestRate:       o.InterestRate,
			MonthlyInstallment: o.MonthlyInstallment,
			Currency:           o.Currency,
			ExpiresAt:          o.ExpiresAt,
		})
		if err != nil {
			return err
		}
		// persist before sending so a retry reuses the envelope
		stored, err := u.pool.OfferLetters.SetEnvelopeID(ctx, o.ID, env.EnvelopeID)
		if err != nil {
			return fmt.Errorf("store envelope id: %w", err)
		}
		if !stored {
			// a concurrent delivery got there first
			if o, err = u.pool.OfferLetters.GetByOfferLetterID(ctx, o.OfferLetterID); err != nil {
				return fmt.Errorf("reload offer letter %s: %w", p.OfferLetterID, err)
			}
		} else {
			o.EnvelopeID = env.EnvelopeID
		}
	}

	if _, err := u.signer.SendEnvelope(ctx, o.EnvelopeID); err != nil {
		return err
	}
	return u.uow.WithinTx(ctx, func(r uow.Repos) error {
		moved, err := r.OfferLetters.MarkSent(ctx, o.ID, u.now())
		if err != nil {
			return fmt.Errorf("mark offer letter sent: %w", err)
		}
		if !moved {
			// the signing webhook already advanced it
			return nil
		}
		_, err = auditUC.Append(ctx, r.Audits, auditUC.LogInput{
			LoanApplicationID: o.LoanApplicationID,
			UserID:            o.CreatedBy,
			Action:            audit.ActionOfferLetterEnvelopeStatus,
			Details:           "envelope sent to borrower",
			Metadata:          map[string]any{"offer_letter_id": o.OfferLetterID, "envelope_id": o.EnvelopeID, "status": domain.StatusSent},
		})
		return err
	})
}

// HandleWebhook applies an envelope status reported by the signing service.
// completed and declined advance the application as the system user. Updates
// that arrive after the letter reached an outcome are ignored.
func (u *Usecase) HandleWebhook(ctx context.Context, envelopeID, rawStatus string) (*WebhookResult, error) {
	if strings.TrimSpace(envelopeID) == "" {
		return nil, apperr.InvalidParameters("INVALID_PARAMETERS", "envelopeId is required")
	}
	st, err := domain.ParseEnvelopeStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
	if err != nil {
		return nil, apperr.InvalidParameters("INVALID_ENVELOPE_STATUS", err.Error())
	}
	system, err := u.actors.Resolve(ctx, u.systemID)
	if err != nil {
		return nil, err
	}
	o, err := u.pool.OfferLetters.GetByEnvelopeID(ctx, envelopeID)
	if err != nil {
		return nil, notFound(err, "OFFER_LETTER_NOT_FOUND", "no offer letter for envelope")
	}

	var current domain.Status
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		locked, err := r.OfferLetters.GetByIDForUpdate(ctx, o.ID)
		if err != nil {
			return apperr.Internal("PERSISTENCE_FAILURE", "lock offer letter", err)
		}
		current = locked.Status
		if !locked.Accepts(st) {
			return nil
		}
		before := locked.Status
		locked.ApplyEnvelopeStatus(st, u.now())
		if err := r.OfferLetters.Save(ctx, locked); err != nil {
			return apperr.Internal("PERSISTENCE_FAILURE", "update offer letter", err)
		}
		current = locked.Status
		_, err = auditUC.Append(ctx, r.Audits, auditUC.LogInput{
			LoanApplicationID: locked.LoanApplicationID,
			UserID:            system.ID,
			Action:            audit.ActionOfferLetterEnvelopeStatus,
			Details:           fmt.Sprintf("envelope %s -> %s", before, st),
			Metadata:          map[string]any{"offer_letter_id": locked.OfferLetterID, "envelope_id": envelopeID, "status": st},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if current != st {
		u.log.WithFields(logrus.Fields{
			"offer_letter_id": o.OfferLetterID,
			"status":          current,
			"reported":        st,
		}).Info("stale envelope update ignored")
	}

	a, err := u.pool.Applications.GetByID(ctx, o.LoanApplicationID)
	if err != nil {
		return nil, notFound(err, "LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	}
	res := &WebhookResult{OfferLetterID: o.OfferLetterID, EnvelopeStatus: string(current), ApplicationStatus: string(a.Status)}
	target, ok := domain.ApplicationStatusFor(current)
	if !ok || a.Status == target || a.Status != application.StatusOfferLetterSent {
		return res, nil
	}
	in := status.UpdateStatusInput{
		ApplicationID:   a.ApplicationID,
		Status:          string(target),
		ActorExternalID: u.systemID,
		Reason:          fmt.Sprintf("signing envelope %s", current),
		Metadata:        map[string]any{"envelope_id": envelopeID, "offer_letter_id": o.OfferLetterID},
	}
	upd, err := u.statuses.UpdateStatus(ctx, in)
	if err != nil {
		return nil, err
	}
	res.ApplicationStatus = upd.NewStatus
	return res, nil
}

// ExpireStale expires pending offer letters past their deadline. The parent
// application keeps its status; an officer decides what happens next.
func (u *Usecase) ExpireStale(ctx context.Context) (int, error) {
	system, err := u.actors.Resolve(ctx, u.systemID)
	if err != nil {
		return 0, err
	}
	now := u.now()
	letters, err := u.pool.OfferLetters.ListExpiring(ctx, now, expiryBatch)
	if err != nil {
		return 0, apperr.Internal("PERSISTENCE_FAILURE", "list expiring offer letters", err)
	}
	expired := 0
	for i := range letters {
		id, ref := letters[i].ID, letters[i].OfferLetterID
		done := false
		err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
			o, err := r.OfferLetters.GetByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			// signed or voided since it was listed
			if !o.Expirable(now) {
				return nil
			}
			o.ApplyEnvelopeStatus(domain.StatusExpired, now)
			if err := r.OfferLetters.Save(ctx, o); err != nil {
				return err
			}
			if _, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
				LoanApplicationID: o.LoanApplicationID,
				UserID:            system.ID,
				Action:            audit.ActionOfferLetterEnvelopeStatus,
				Details:           "offer letter expired unsigned",
				Metadata:          map[string]any{"offer_letter_id": o.OfferLetterID, "status": domain.StatusExpired},
			}); err != nil {
				return err
			}
			done = true
			return nil
		})
		if err != nil {
			u.log.WithError(err).WithField("offer_letter_id", ref).Warn("expire offer letter failed")
			continue
		}
		if done {
			expired++
		}
	}
	if expired > 0 {
		u.log.WithField("count", expired).Info("offer letters expired")
	}
	return expired, nil
}

func notFound(err error, code, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(code, msg)
	}
	return apperr.Internal("PERSISTENCE_FAILURE", msg, err)
}
