package audit

import "context"

// Repository is append-only by construction.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	CreateBatch(ctx context.Context, entries []*Entry) error
	// List returns entries newest first, plus the total matching q.
	List(ctx context.Context, q Query) ([]Entry, int64, error)
	CountByAction(ctx context.Context, loanApplicationID uint64) ([]ActionCount, error)
	Latest(ctx context.Context, loanApplicationID uint64) (*Entry, error)
}
