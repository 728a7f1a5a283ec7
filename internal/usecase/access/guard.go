// Package access resolves the caller and checks they may see an application
// before any of its records are read.
package access

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/apperr"
	"loan-origination/internal/domain/user"
)

type ActorResolver interface {
	Resolve(ctx context.Context, externalID string) (*user.User, error)
}

type Guard struct {
	apps   application.Repository
	actors ActorResolver
}

func NewGuard(apps application.Repository, actors ActorResolver) *Guard {
	return &Guard{apps: apps, actors: actors}
}

// Viewer returns the actor and the application when the actor may read it.
// An application the actor may not see is reported as not found.
func (g *Guard) Viewer(ctx context.Context, actorExternalID, applicationID string) (*user.User, *application.LoanApplication, error) {
	actor, err := g.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return nil, nil, err
	}
	a, err := g.apps.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, NotFound()
		}
		return nil, nil, apperr.Internal("PERSISTENCE_FAILURE", "load loan application", err)
	}
	if !a.VisibleTo(actor) {
		return nil, nil, NotFound()
	}
	return actor, a, nil
}

// NotFound is the error for applications that are missing or hidden.
func NotFound() error {
	return apperr.NotFound("LOAN_APPLICATION_NOT_FOUND", "loan application not found")
}
