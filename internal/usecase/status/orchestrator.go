// Package status runs loan application status transitions together with
// their side effects.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/apperr"
	"loan-origination/internal/domain/audit"
	"loan-origination/internal/domain/offerletter"
	"loan-origination/internal/domain/task"
	"loan-origination/internal/domain/uow"
	"loan-origination/internal/domain/user"
	"loan-origination/internal/infrastructure/events"
	"loan-origination/internal/infrastructure/metrics"
	auditUC "loan-origination/internal/usecase/audit"
	snapshotUC "loan-origination/internal/usecase/snapshot"
	"loan-origination/pkg/id"
)

// ActorResolver maps the authenticated subject onto an internal user.
type ActorResolver interface {
	Resolve(ctx context.Context, externalID string) (*user.User, error)
}

type Option func(*Orchestrator)

func WithLogger(l logrus.FieldLogger) Option { return func(o *Orchestrator) { o.log = l } }

func WithPublisher(p events.Publisher) Option { return func(o *Orchestrator) { o.events = p } }

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithOfferLetterValidity sets how long a generated offer letter can be signed.
func WithOfferLetterValidity(d time.Duration) Option {
	return func(o *Orchestrator) { o.offerValidity = d }
}

func WithTaskMaxAttempts(n int) Option { return func(o *Orchestrator) { o.maxAttempts = n } }

type Orchestrator struct {
	pool      uow.Repos
	uow       uow.UnitOfWork
	actors    ActorResolver
	snapshots *snapshotUC.Writer
	audits    *auditUC.Writer

	events        events.Publisher
	log           logrus.FieldLogger
	now           func() time.Time
	offerValidity time.Duration
	maxAttempts   int
}

func NewOrchestrator(pool uow.Repos, tx uow.UnitOfWork, actors ActorResolver, snapshots *snapshotUC.Writer, audits *auditUC.Writer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		pool:          pool,
		uow:           tx,
		actors:        actors,
		snapshots:     snapshots,
		audits:        audits,
		events:        events.Nop{},
		log:           logrus.StandardLogger(),
		now:           func() time.Time { return time.Now().UTC() },
		offerValidity: 30 * 24 * time.Hour,
		maxAttempts:   5,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UpdateStatus moves an application to in.Status. The status row, its audit
// entries, an approval snapshot and a generated offer letter commit or roll
// back together; notifications and events are sent after commit and never
// fail the call.
func (o *Orchestrator) UpdateStatus(ctx context.Context, in UpdateStatusInput) (*UpdateStatusResult, error) {
	res, err := o.updateStatus(ctx, in)
	if err != nil {
		metrics.RecordTransitionFailure(string(apperr.KindOf(err)))
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) updateStatus(ctx context.Context, in UpdateStatusInput) (*UpdateStatusResult, error) {
	requested, err := application.ParseStatus(strings.TrimSpace(in.Status))
	if err != nil {
		return nil, apperr.InvalidParameters("INVALID_STATUS", err.Error())
	}
	if requested == application.StatusRejected && strings.TrimSpace(in.RejectionReason) == "" {
		return nil, apperr.InvalidParameters("REJECTION_REASON_REQUIRED", "rejection reason is required when rejecting an application")
	}

	current, err := o.load(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	actor, err := o.actors.Resolve(ctx, in.ActorExternalID)
	if err != nil {
		return nil, err
	}
	if !current.VisibleTo(actor) {
		return nil, errApplicationNotFound()
	}
	if !application.MayRequest(actor, requested) {
		return nil, apperr.Forbidden("STATUS_CHANGE_FORBIDDEN",
			fmt.Sprintf("borrowers may only submit or withdraw their own application, not move it to %s", requested))
	}
	if _, err := application.Validate(current.Status, requested); err != nil {
		return nil, err
	}

	var (
		res   *UpdateStatusResult
		owner uint64
	)
	err = o.uow.WithinApplicationTx(ctx, in.ApplicationID, func(r uow.Repos, a *application.LoanApplication) error {
		// the row may have moved since the unlocked read
		if _, err := application.Validate(a.Status, requested); err != nil {
			return err
		}

		prev := a.Status
		before := statusChange{Status: string(prev), StatusReason: a.StatusReason, RejectionReason: a.RejectionReason, Version: a.Version}
		expected := a.Version
		a.ApplyStatus(requested, actor.ID, in.Reason, strings.TrimSpace(in.RejectionReason), o.now())
		if err := r.Applications.UpdateStatus(ctx, a, expected); err != nil {
			if errors.Is(err, application.ErrStaleVersion) {
				return apperr.Conflict("CONCURRENT_MODIFICATION", "loan application was modified concurrently, retry")
			}
			return apperr.Internal("PERSISTENCE_FAILURE", "update loan application status", err)
		}
		after := statusChange{Status: string(a.Status), StatusReason: a.StatusReason, RejectionReason: a.RejectionReason, Version: a.Version}

		entry, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
			LoanApplicationID: a.ID,
			UserID:            actor.ID,
			Action:            audit.ActionForStatus(requested),
			Reason:            firstNonEmpty(in.RejectionReason, in.Reason),
			Details:           fmt.Sprintf("status changed from %s to %s", prev, requested),
			Before:            before,
			After:             after,
			Metadata:          in.Metadata,
		})
		if err != nil {
			return err
		}

		res = &UpdateStatusResult{
			Success:        true,
			ApplicationID:  a.ApplicationID,
			PreviousStatus: string(prev),
			NewStatus:      string(requested),
			Message:        fmt.Sprintf("Status updated from %s to %s", prev, requested),
			AuditEntryID:   entry.EntryID,
		}
		owner = a.UserID

		switch requested {
		case application.StatusApproved:
			return o.captureSnapshot(ctx, r, a, actor.ID, res)
		case application.StatusOfferLetterSent:
			return o.issueOfferLetter(ctx, r, a, actor.ID, res)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errApplicationNotFound()
		}
		if _, ok := apperr.As(err); !ok {
			return nil, apperr.Internal("PERSISTENCE_FAILURE", "status update transaction failed", err)
		}
		return nil, err
	}

	o.afterCommit(ctx, in, res, owner, actor)
	return res, nil
}

func (o *Orchestrator) captureSnapshot(ctx context.Context, r uow.Repos, a *application.LoanApplication, actorID uint64, res *UpdateStatusResult) error {
	s, err := o.snapshots.Create(ctx, r, a.ID, actorID, string(application.StatusApproved))
	if err != nil {
		return err
	}
	if _, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
		LoanApplicationID: a.ID,
		UserID:            actorID,
		Action:            audit.ActionSnapshotCreated,
		Details:           "application snapshot captured on approval",
		Metadata:          map[string]any{"snapshot_id": s.SnapshotID, "sequence": s.Sequence},
	}); err != nil {
		return err
	}
	res.SnapshotCreated = true
	res.SnapshotID = s.SnapshotID
	return nil
}

// issueOfferLetter creates the offer letter unless one is already active
// and schedules its dispatch to the signing service in the same transaction.
func (o *Orchestrator) issueOfferLetter(ctx context.Context, r uow.Repos, a *application.LoanApplication, actorID uint64, res *UpdateStatusResult) error {
	active, err := r.OfferLetters.GetActive(ctx, a.ID)
	switch {
	case err == nil:
		o.log.WithFields(logrus.Fields{
			"application_id":  a.ApplicationID,
			"offer_letter_id": active.OfferLetterID,
		}).Info("active offer letter exists, not creating another")
		res.OfferLetterID = active.OfferLetterID
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Internal("PERSISTENCE_FAILURE", "load active offer letter", err)
	}

	terms, err := r.Products.GetSnapshot(ctx, a.ProductSnapshotID)
	if err != nil {
		return apperr.Internal("PERSISTENCE_FAILURE", "load product terms", err)
	}
	version, err := r.OfferLetters.MaxVersion(ctx, a.ID)
	if err != nil {
		return apperr.Internal("PERSISTENCE_FAILURE", "read offer letter version", err)
	}

	expires := o.now().Add(o.offerValidity)
	letter := &offerletter.OfferLetter{
		OfferLetterID:      id.NewID32(),
		LoanApplicationID:  a.ID,
		Version:            version + 1,
		Amount:             a.RequestedAmount,
		TermMonths:         a.TermMonths,
		InterestRate:       terms.InterestRate,
		MonthlyInstallment: offerletter.MonthlyInstallment(a.RequestedAmount, terms.InterestRate, a.TermMonths),
		Currency:           a.Currency,
		Status:             offerletter.StatusDraft,
		IsActive:           true,
		CreatedBy:          actorID,
		ExpiresAt:          &expires,
	}
	if err := r.OfferLetters.Create(ctx, letter); err != nil {
		return apperr.Internal("PERSISTENCE_FAILURE", "create offer letter", err)
	}
	if _, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
		LoanApplicationID: a.ID,
		UserID:            actorID,
		Action:            audit.ActionOfferLetterCreated,
		Details:           fmt.Sprintf("offer letter v%d generated", letter.Version),
		After:             letter,
	}); err != nil {
		return err
	}

	t, err := task.New(id.NewTaskID(), task.KindOfferLetterSend,
		task.OfferLetterSendPayload{OfferLetterID: letter.OfferLetterID}, o.maxAttempts, o.now())
	if err != nil {
		return apperr.Internal("SERIALIZATION_FAILURE", "build offer letter task", err)
	}
	if err := r.Tasks.Enqueue(ctx, t); err != nil {
		return apperr.Internal("PERSISTENCE_FAILURE", "schedule offer letter dispatch", err)
	}
	if _, err := auditUC.Append(ctx, r.Audits, auditUC.LogInput{
		LoanApplicationID: a.ID,
		UserID:            actorID,
		Action:            audit.ActionOfferLetterSendScheduled,
		Details:           "offer letter queued for the signing service",
		Metadata:          map[string]any{"task_id": t.TaskID, "offer_letter_id": letter.OfferLetterID},
	}); err != nil {
		return err
	}
	res.OfferLetterID = letter.OfferLetterID
	return nil
}

func (o *Orchestrator) afterCommit(ctx context.Context, in UpdateStatusInput, res *UpdateStatusResult, ownerID uint64, actor *user.User) {
	log := o.log.WithFields(logrus.Fields{
		"application_id": res.ApplicationID,
		"from":           res.PreviousStatus,
		"to":             res.NewStatus,
	})
	metrics.RecordTransition(res.PreviousStatus, res.NewStatus)

	t, err := task.New(id.NewTaskID(), task.KindNotification, task.NotificationPayload{
		ApplicationID:  res.ApplicationID,
		Template:       string(audit.ActionForStatus(application.Status(res.NewStatus))),
		PreviousStatus: res.PreviousStatus,
		NewStatus:      res.NewStatus,
		Reason:         firstNonEmpty(in.RejectionReason, in.Reason),
	}, o.maxAttempts, o.now())
	if err == nil {
		err = o.pool.Tasks.Enqueue(ctx, t)
	}
	if err != nil {
		log.WithError(err).Warn("notification not scheduled")
	}

	var ownerRef string
	if owner, err := o.pool.Users.GetByID(ctx, ownerID); err == nil {
		ownerRef = owner.UserID
	}
	if err := o.events.PublishStatusChanged(ctx, events.StatusChanged{
		ApplicationID:  res.ApplicationID,
		UserID:         ownerRef,
		PreviousStatus: res.PreviousStatus,
		NewStatus:      res.NewStatus,
		ChangedBy:      actor.UserID,
		OccurredAt:     o.now(),
	}); err != nil {
		log.WithError(err).Warn("publish status_changed failed")
	}
	log.Info("status updated")
}

// Approve is UpdateStatus to approved.
func (o *Orchestrator) Approve(ctx context.Context, applicationID, actorExternalID, reason string, metadata map[string]any) (*UpdateStatusResult, error) {
	return o.UpdateStatus(ctx, UpdateStatusInput{
		ApplicationID:   applicationID,
		Status:          string(application.StatusApproved),
		ActorExternalID: actorExternalID,
		Reason:          reason,
		Metadata:        metadata,
	})
}

// Reject is UpdateStatus to rejected; rejectionReason is mandatory.
func (o *Orchestrator) Reject(ctx context.Context, applicationID, actorExternalID, rejectionReason, reason string, metadata map[string]any) (*UpdateStatusResult, error) {
	return o.UpdateStatus(ctx, UpdateStatusInput{
		ApplicationID:   applicationID,
		Status:          string(application.StatusRejected),
		ActorExternalID: actorExternalID,
		Reason:          reason,
		RejectionReason: rejectionReason,
		Metadata:        metadata,
	})
}

func (o *Orchestrator) GetStatus(ctx context.Context, actorExternalID, applicationID string) (*StatusView, error) {
	a, err := o.viewable(ctx, actorExternalID, applicationID)
	if err != nil {
		return nil, err
	}
	next, err := application.AllowedNext(a.Status)
	if err != nil {
		return nil, err
	}
	return &StatusView{
		ApplicationID: a.ApplicationID,
		Status:        string(a.Status),
		AllowedNext:   application.Strings(next),
		IsTerminal:    application.IsTerminal(a.Status),
		UpdatedAt:     a.UpdatedAt,
	}, nil
}

// History lists status changes newest first.
func (o *Orchestrator) History(ctx context.Context, actorExternalID, applicationID string, limit, offset int) (*History, error) {
	if _, err := o.viewable(ctx, actorExternalID, applicationID); err != nil {
		return nil, err
	}
	page, err := o.audits.ListActions(ctx, applicationID, audit.StatusActions(), limit, offset)
	if err != nil {
		return nil, err
	}
	out := &History{ApplicationID: page.ApplicationID, Total: page.Total, Items: make([]HistoryItem, 0, len(page.Entries))}
	for _, e := range page.Entries {
		item := HistoryItem{
			EntryID:   e.EntryID,
			Action:    e.Action,
			Reason:    e.Reason,
			ChangedBy: e.UserID,
			ChangedAt: e.CreatedAt,
		}
		var before, after statusChange
		if len(e.BeforeData) > 0 && json.Unmarshal(e.BeforeData, &before) == nil {
			item.PreviousStatus = before.Status
		}
		if len(e.AfterData) > 0 && json.Unmarshal(e.AfterData, &after) == nil {
			item.NewStatus = after.Status
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// viewable loads the application when the actor may read it; hidden
// applications look missing.
func (o *Orchestrator) viewable(ctx context.Context, actorExternalID, applicationID string) (*application.LoanApplication, error) {
	actor, err := o.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return nil, err
	}
	a, err := o.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !a.VisibleTo(actor) {
		return nil, errApplicationNotFound()
	}
	return a, nil
}

func errApplicationNotFound() error {
	return apperr.NotFound("LOAN_APPLICATION_NOT_FOUND", "loan application not found")
}

func (o *Orchestrator) load(ctx context.Context, applicationID string) (*application.LoanApplication, error) {
	a, err := o.pool.Applications.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errApplicationNotFound()
		}
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load loan application", err)
	}
	return a, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
