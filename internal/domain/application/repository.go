package application

import "context"

type Repository interface {
	Create(ctx context.Context, a *LoanApplication) error
	GetByApplicationID(ctx context.Context, applicationID string) (*LoanApplication, error)
	// Locks the row for the rest of the surrounding transaction.
	GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*LoanApplication, error)
	GetByID(ctx context.Context, id uint64) (*LoanApplication, error)
	List(ctx context.Context, f ListFilter) ([]LoanApplication, int64, error)
	// UpdateStatus persists the lifecycle columns of a only if the stored
	// version still equals expectedVersion; returns ErrStaleVersion otherwise.
	UpdateStatus(ctx context.Context, a *LoanApplication, expectedVersion int64) error
	Save(ctx context.Context, a *LoanApplication) error
	SoftDelete(ctx context.Context, a *LoanApplication, deletedBy uint64) error
}
