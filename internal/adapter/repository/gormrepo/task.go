package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	taskDomain "loan-origination/internal/domain/task"
)

type TaskRepository struct{ db *gorm.DB }

func NewTaskRepository(db *gorm.DB) *TaskRepository { return &TaskRepository{db: db} }

func (r *TaskRepository) Enqueue(ctx context.Context, t *taskDomain.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// Claim selects due rows with SKIP LOCKED where the dialect supports it, so
// several workers can poll the same table.
func (r *TaskRepository) Claim(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]taskDomain.Task, error) {
	out := make([]taskDomain.Task, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_run_at <= ?", taskDomain.StatusPending, now).
			Order("next_run_at ASC, id ASC").
			Limit(limit).
			Find(&out).Error; err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}
		ids := make([]uint64, 0, len(out))
		for _, t := range out {
			ids = append(ids, t.ID)
		}
		until := now.Add(lease)
		if err := tx.Model(&taskDomain.Task{}).
			Where("id IN ? AND status = ?", ids, taskDomain.StatusPending).
			Updates(map[string]any{"status": taskDomain.StatusRunning, "locked_until": until}).Error; err != nil {
			return err
		}
		for i := range out {
			out[i].Status = taskDomain.StatusRunning
			out[i].LockedUntil = &until
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TaskRepository) MarkDone(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&taskDomain.Task{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": taskDomain.StatusDone, "locked_until": nil, "last_error": ""}).Error
}

func (r *TaskRepository) MarkFailed(ctx context.Context, id uint64, attempts int, errMsg string, nextRunAt time.Time, dead bool) error {
	status := taskDomain.StatusPending
	if dead {
		status = taskDomain.StatusDead
	}
	return r.db.WithContext(ctx).Model(&taskDomain.Task{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       status,
			"attempts":     attempts,
			"last_error":   errMsg,
			"next_run_at":  nextRunAt,
			"locked_until": nil,
		}).Error
}

// RequeueExpired counts a lapsed lease as a failed attempt. Tasks that run
// out of attempts this way are parked as dead instead of requeued.
func (r *TaskRepository) RequeueExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&taskDomain.Task{}).
			Where("status = ? AND locked_until IS NOT NULL AND locked_until < ?", taskDomain.StatusRunning, now).
			Session(&gorm.Session{})

		dead := expired.
			Where("attempts + 1 >= max_attempts").
			Updates(map[string]any{
				"status":       taskDomain.StatusDead,
				"attempts":     gorm.Expr("attempts + 1"),
				"last_error":   "lease expired",
				"locked_until": nil,
			})
		if dead.Error != nil {
			return dead.Error
		}
		requeued := expired.
			Updates(map[string]any{
				"status":       taskDomain.StatusPending,
				"attempts":     gorm.Expr("attempts + 1"),
				"last_error":   "lease expired",
				"locked_until": nil,
				"next_run_at":  now,
			})
		if requeued.Error != nil {
			return requeued.Error
		}
		n = dead.RowsAffected + requeued.RowsAffected
		return nil
	})
	return n, err
}

func (r *TaskRepository) ListDead(ctx context.Context, limit int) ([]taskDomain.Task, error) {
	out := make([]taskDomain.Task, 0)
	err := r.db.WithContext(ctx).
		Where("status = ?", taskDomain.StatusDead).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
