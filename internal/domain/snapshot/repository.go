package snapshot

import "context"

type Repository interface {
	Create(ctx context.Context, s *Snapshot) error
	GetBySnapshotID(ctx context.Context, snapshotID string) (*Snapshot, error)
	// ListByApplication returns snapshots oldest first.
	ListByApplication(ctx context.Context, loanApplicationID uint64) ([]Snapshot, error)
	Latest(ctx context.Context, loanApplicationID uint64) (*Snapshot, error)
	MaxSequence(ctx context.Context, loanApplicationID uint64) (int, error)
}
