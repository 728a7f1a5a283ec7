// Package task exposes the durable task queue to operators.
package task

import (
	"context"

	"loan-origination/internal/domain/apperr"
	domain "loan-origination/internal/domain/task"
	"loan-origination/internal/domain/user"
)

const (
	defaultDeadLimit = 50
	maxDeadLimit     = 200
)

type ActorResolver interface {
	Resolve(ctx context.Context, externalID string) (*user.User, error)
}

type Usecase struct {
	tasks  domain.Repository
	actors ActorResolver
}

func NewUsecase(tasks domain.Repository, actors ActorResolver) *Usecase {
	return &Usecase{tasks: tasks, actors: actors}
}

type DeadList struct {
	Items []domain.Task `json:"items"`
	Limit int           `json:"limit"`
}

// ListDead returns parked tasks, most recently failed first. Admins only.
func (u *Usecase) ListDead(ctx context.Context, actorExternalID string, limit int) (*DeadList, error) {
	actor, err := u.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return nil, err
	}
	if actor.Role != user.RoleAdmin {
		return nil, apperr.Forbidden("ADMIN_ONLY", "only administrators may inspect the task queue")
	}
	if limit <= 0 {
		limit = defaultDeadLimit
	}
	if limit > maxDeadLimit {
		limit = maxDeadLimit
	}
	items, err := u.tasks.ListDead(ctx, limit)
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "list dead tasks", err)
	}
	return &DeadList{Items: items, Limit: limit}, nil
}
