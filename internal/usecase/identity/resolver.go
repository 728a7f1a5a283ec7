// Package identity maps identity-provider subjects onto internal users.
package identity

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"loan-origination/internal/domain/apperr"
	"loan-origination/internal/domain/user"
	"loan-origination/pkg/id"
)

// Cache is keyed by external auth id. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*user.User, bool)
	Set(ctx context.Context, key string, u *user.User)
	Invalidate(ctx context.Context, key string)
}

type SyncInput struct {
	ExternalID string
	Email      string
	Phone      string
	FullName   string
	Role       user.Role
}

type Resolver struct {
	users user.Repository
	cache Cache
}

func NewResolver(users user.Repository, cache Cache) *Resolver {
	return &Resolver{users: users, cache: cache}
}

// Resolve returns the internal user for externalID.
func (r *Resolver) Resolve(ctx context.Context, externalID string) (*user.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, apperr.Unauthorized("UNAUTHORIZED", "user not authenticated")
	}
	if r.cache != nil {
		if u, ok := r.cache.Get(ctx, externalID); ok {
			return u, nil
		}
	}
	u, err := r.users.GetByExternalAuthID(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("USER_NOT_FOUND", "user not found")
		}
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load user", err)
	}
	if r.cache != nil {
		r.cache.Set(ctx, externalID, u)
	}
	return u, nil
}

// Invalidate drops externalID from the cache.
func (r *Resolver) Invalidate(ctx context.Context, externalID string) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, externalID)
	}
}

// Sync creates or refreshes the user row for the token subject. New users
// default to the borrower role; an existing role is only changed when the
// caller supplies one.
func (r *Resolver) Sync(ctx context.Context, in SyncInput) (*user.User, error) {
	ext := strings.TrimSpace(in.ExternalID)
	if ext == "" {
		return nil, apperr.Unauthorized("UNAUTHORIZED", "user not authenticated")
	}
	u, err := r.users.GetByExternalAuthID(ctx, ext)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		role := in.Role
		if role == "" {
			role = user.RoleBorrower
		}
		u = &user.User{
			UserID:         id.NewID32(),
			ExternalAuthID: ext,
			Email:          in.Email,
			Phone:          in.Phone,
			FullName:       in.FullName,
			Role:           role,
		}
		if err := r.users.Create(ctx, u); err != nil {
			return nil, apperr.Internal("PERSISTENCE_FAILURE", "create user", err)
		}
	case err != nil:
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load user", err)
	default:
		if in.Email != "" {
			u.Email = in.Email
		}
		if in.Phone != "" {
			u.Phone = in.Phone
		}
		if in.FullName != "" {
			u.FullName = in.FullName
		}
		if in.Role != "" {
			u.Role = in.Role
		}
		if err := r.users.Save(ctx, u); err != nil {
			return nil, apperr.Internal("PERSISTENCE_FAILURE", "update user", err)
		}
	}
	r.Invalidate(ctx, ext)
	return u, nil
}
