package offerlettermock

import (
	"context"
	"time"

	domain "loan-origination/internal/domain/offerletter"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn             func(ctx context.Context, o *domain.OfferLetter) error
	SaveFn               func(ctx context.Context, o *domain.OfferLetter) error
	GetByOfferLetterIDFn func(ctx context.Context, offerLetterID string) (*domain.OfferLetter, error)
	GetByEnvelopeIDFn    func(ctx context.Context, envelopeID string) (*domain.OfferLetter, error)
	GetByIDForUpdateFn   func(ctx context.Context, id uint64) (*domain.OfferLetter, error)
	SetEnvelopeIDFn      func(ctx context.Context, id uint64, envelopeID string) (bool, error)
	MarkSentFn           func(ctx context.Context, id uint64, at time.Time) (bool, error)
	GetActiveFn          func(ctx context.Context, loanApplicationID uint64) (*domain.OfferLetter, error)
	ListByApplicationFn  func(ctx context.Context, loanApplicationID uint64) ([]domain.OfferLetter, error)
	MaxVersionFn         func(ctx context.Context, loanApplicationID uint64) (int, error)
	ListExpiringFn       func(ctx context.Context, now time.Time, limit int) ([]domain.OfferLetter, error)
}

func (m *Repo) Create(ctx context.Context, o *domain.OfferLetter) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, o)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, o *domain.OfferLetter) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, o)
	}
	return nil
}

func (m *Repo) GetByOfferLetterID(ctx context.Context, offerLetterID string) (*domain.OfferLetter, error) {
	if m.GetByOfferLetterIDFn != nil {
		return m.GetByOfferLetterIDFn(ctx, offerLetterID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByEnvelopeID(ctx context.Context, envelopeID string) (*domain.OfferLetter, error) {
	if m.GetByEnvelopeIDFn != nil {
		return m.GetByEnvelopeIDFn(ctx, envelopeID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.OfferLetter, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) SetEnvelopeID(ctx context.Context, id uint64, envelopeID string) (bool, error) {
	if m.SetEnvelopeIDFn != nil {
		return m.SetEnvelopeIDFn(ctx, id, envelopeID)
	}
	return true, nil
}

func (m *Repo) MarkSent(ctx context.Context, id uint64, at time.Time) (bool, error) {
	if m.MarkSentFn != nil {
		return m.MarkSentFn(ctx, id, at)
	}
	return true, nil
}

func (m *Repo) GetActive(ctx context.Context, loanApplicationID uint64) (*domain.OfferLetter, error) {
	if m.GetActiveFn != nil {
		return m.GetActiveFn(ctx, loanApplicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByApplication(ctx context.Context, loanApplicationID uint64) ([]domain.OfferLetter, error) {
	if m.ListByApplicationFn != nil {
		return m.ListByApplicationFn(ctx, loanApplicationID)
	}
	return []domain.OfferLetter{}, nil
}

func (m *Repo) MaxVersion(ctx context.Context, loanApplicationID uint64) (int, error) {
	if m.MaxVersionFn != nil {
		return m.MaxVersionFn(ctx, loanApplicationID)
	}
	return 0, nil
}

func (m *Repo) ListExpiring(ctx context.Context, now time.Time, limit int) ([]domain.OfferLetter, error) {
	if m.ListExpiringFn != nil {
		return m.ListExpiringFn(ctx, now, limit)
	}
	return nil, nil
}
