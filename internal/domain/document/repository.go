package document

import (
	"context"
	"time"
)

type Repository interface {
	CreatePersonal(ctx context.Context, d *PersonalDocument) error
	CreateBusiness(ctx context.Context, d *BusinessDocument) error
	ListPersonal(ctx context.Context, loanApplicationID uint64) ([]PersonalDocument, error)
	ListBusiness(ctx context.Context, loanApplicationID uint64) ([]BusinessDocument, error)

	CreateRequest(ctx context.Context, r *Request) error
	// FulfilRequest closes a pending or overdue request and reports whether
	// it did.
	FulfilRequest(ctx context.Context, id uint64, documentID string, at time.Time) (bool, error)
	GetRequest(ctx context.Context, requestID string) (*Request, error)
	ListRequests(ctx context.Context, loanApplicationID uint64) ([]Request, error)
	// ListOverdue returns pending requests due before now, oldest due first.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]Request, error)
	MarkRequestOverdue(ctx context.Context, id uint64, at time.Time) (bool, error)
}
