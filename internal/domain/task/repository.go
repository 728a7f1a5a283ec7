package task

import (
	"context"
	"time"
)

type Repository interface {
	Enqueue(ctx context.Context, t *Task) error
	// Claim leases up to limit due pending tasks until now+lease.
	Claim(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]Task, error)
	MarkDone(ctx context.Context, id uint64) error
	// MarkFailed records err and either reschedules at nextRunAt or, when
	// dead is true, parks the task.
	MarkFailed(ctx context.Context, id uint64, attempts int, errMsg string, nextRunAt time.Time, dead bool) error
	// RequeueExpired returns running tasks whose lease ran out to pending.
	RequeueExpired(ctx context.Context, now time.Time) (int64, error)
	ListDead(ctx context.Context, limit int) ([]Task, error)
}
