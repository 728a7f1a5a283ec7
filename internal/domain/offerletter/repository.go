package offerletter

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, o *OfferLetter) error
	Save(ctx context.Context, o *OfferLetter) error
	GetByOfferLetterID(ctx context.Context, offerLetterID string) (*OfferLetter, error)
	GetByEnvelopeID(ctx context.Context, envelopeID string) (*OfferLetter, error)
	// GetByIDForUpdate reads the row under a write lock. Call it inside a
	// transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*OfferLetter, error)
	// SetEnvelopeID stores envelopeID only if none is set yet.
	SetEnvelopeID(ctx context.Context, id uint64, envelopeID string) (bool, error)
	// MarkSent moves a draft letter to sent and reports whether it did.
	MarkSent(ctx context.Context, id uint64, at time.Time) (bool, error)
	// GetActive returns the active, non-deleted letter of an application.
	GetActive(ctx context.Context, loanApplicationID uint64) (*OfferLetter, error)
	ListByApplication(ctx context.Context, loanApplicationID uint64) ([]OfferLetter, error)
	MaxVersion(ctx context.Context, loanApplicationID uint64) (int, error)
	// ListExpiring returns active, still pending letters whose expiry is
	// before now. Signed or otherwise settled letters never expire.
	ListExpiring(ctx context.Context, now time.Time, limit int) ([]OfferLetter, error)
}
