// Package audit writes and reads the append-only audit trail of loan
// applications.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/apperr"
	domain "loan-origination/internal/domain/audit"
	"loan-origination/internal/domain/uow"
	"loan-origination/pkg/id"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// LogInput describes one audit entry. Before, After and Metadata are
// marshalled to JSON; nil leaves the column empty.
type LogInput struct {
	LoanApplicationID uint64
	UserID            uint64
	Action            domain.Action
	Reason            string
	Details           string
	Before            any
	After             any
	Metadata          any
}

type TrailQuery struct {
	Limit  int
	Offset int
	Action string
}

type TrailPage struct {
	ApplicationID string         `json:"application_id"`
	Entries       []domain.Entry `json:"entries"`
	Total         int64          `json:"total"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
}

type Summary struct {
	ApplicationID string               `json:"application_id"`
	Total         int64                `json:"total"`
	ByAction      []domain.ActionCount `json:"by_action"`
	LastAction    domain.Action        `json:"last_action,omitempty"`
	LastActionAt  *time.Time           `json:"last_action_at,omitempty"`
}

type Writer struct {
	audits domain.Repository
	apps   application.Repository
	uow    uow.UnitOfWork
}

func NewWriter(audits domain.Repository, apps application.Repository, tx uow.UnitOfWork) *Writer {
	return &Writer{audits: audits, apps: apps, uow: tx}
}

// LogAction writes a single entry outside any caller transaction.
func (w *Writer) LogAction(ctx context.Context, in LogInput) (*domain.Entry, error) {
	return Append(ctx, w.audits, in)
}

// Append writes through repo, which may be bound to an open transaction.
func Append(ctx context.Context, repo domain.Repository, in LogInput) (*domain.Entry, error) {
	e, err := build(in)
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, e); err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "write audit entry", err)
	}
	return e, nil
}

// LogMultipleActions inserts all entries or none.
func (w *Writer) LogMultipleActions(ctx context.Context, in []LogInput) ([]*domain.Entry, error) {
	entries := make([]*domain.Entry, 0, len(in))
	for _, i := range in {
		e, err := build(i)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return entries, nil
	}
	err := w.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Audits.CreateBatch(ctx, entries)
	})
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "write audit batch", err)
	}
	return entries, nil
}

func (w *Writer) GetAuditTrail(ctx context.Context, applicationID string, q TrailQuery) (*TrailPage, error) {
	a, err := w.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	query := domain.Query{LoanApplicationID: a.ID, Limit: limit, Offset: offset}
	if q.Action != "" {
		query.Actions = []domain.Action{domain.Action(q.Action)}
	}
	entries, total, err := w.audits.List(ctx, query)
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "read audit trail", err)
	}
	return &TrailPage{
		ApplicationID: a.ApplicationID,
		Entries:       entries,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

// ListActions returns entries with one of actions, newest first.
func (w *Writer) ListActions(ctx context.Context, applicationID string, actions []domain.Action, limit, offset int) (*TrailPage, error) {
	a, err := w.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}
	entries, total, err := w.audits.List(ctx, domain.Query{
		LoanApplicationID: a.ID,
		Actions:           actions,
		Limit:             limit,
		Offset:            offset,
	})
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "read audit trail", err)
	}
	return &TrailPage{ApplicationID: a.ApplicationID, Entries: entries, Total: total, Limit: limit, Offset: offset}, nil
}

func (w *Writer) Summary(ctx context.Context, applicationID string) (*Summary, error) {
	a, err := w.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	counts, err := w.audits.CountByAction(ctx, a.ID)
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "count audit actions", err)
	}
	out := &Summary{ApplicationID: a.ApplicationID, ByAction: counts}
	for _, c := range counts {
		out.Total += c.Count
	}
	if out.Total == 0 {
		return out, nil
	}
	last, err := w.audits.Latest(ctx, a.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "read latest audit entry", err)
	}
	if last != nil {
		out.LastAction = last.Action
		at := last.CreatedAt
		out.LastActionAt = &at
	}
	return out, nil
}

func (w *Writer) application(ctx context.Context, applicationID string) (*application.LoanApplication, error) {
	a, err := w.apps.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("LOAN_APPLICATION_NOT_FOUND", "loan application not found")
		}
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load loan application", err)
	}
	return a, nil
}

func build(in LogInput) (*domain.Entry, error) {
	if in.LoanApplicationID == 0 || in.Action == "" {
		return nil, apperr.InvalidParameters("INVALID_AUDIT_ENTRY", "audit entry needs an application and an action")
	}
	before, err := toJSON(in.Before)
	if err != nil {
		return nil, err
	}
	after, err := toJSON(in.After)
	if err != nil {
		return nil, err
	}
	meta, err := toJSON(in.Metadata)
	if err != nil {
		return nil, err
	}
	return &domain.Entry{
		EntryID:           id.NewID32(),
		LoanApplicationID: in.LoanApplicationID,
		UserID:            in.UserID,
		Action:            in.Action,
		Reason:            in.Reason,
		Details:           in.Details,
		BeforeData:        before,
		AfterData:         after,
		Metadata:          meta,
	}, nil
}

func toJSON(v any) (datatypes.JSON, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case datatypes.JSON:
		return t, nil
	case json.RawMessage:
		return datatypes.JSON(t), nil
	case map[string]any:
		if len(t) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, apperr.Internal("SERIALIZATION_FAILURE", fmt.Sprintf("encode audit payload %T", v), err)
	}
	return datatypes.JSON(b), nil
}
