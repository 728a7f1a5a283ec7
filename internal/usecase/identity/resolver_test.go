package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"loan-origination/internal/domain/apperr"
	"loan-origination/internal/domain/user"
	"loan-origination/internal/infrastructure/cache"
	"loan-origination/internal/testutil/usermock"
)

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		external string
		repoErr  error
		wantCode string
	}{
		{"missing subject", "  ", nil, "UNAUTHORIZED"},
		{"unknown user", "auth|x", gorm.ErrRecordNotFound, "USER_NOT_FOUND"},
		{"store failure", "auth|x", errors.New("db down"), "PERSISTENCE_FAILURE"},
		{"found", "auth|x", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &usermock.Repo{
				GetByExternalAuthIDFn: func(_ context.Context, ext string) (*user.User, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return &user.User{ID: 1, ExternalAuthID: ext}, nil
				},
			}
			u, err := NewResolver(repo, nil).Resolve(context.Background(), tt.external)
			if got := apperr.CodeOf(err); got != tt.wantCode {
				t.Fatalf("code = %q (%v), want %q", got, err, tt.wantCode)
			}
			if tt.wantCode == "" && u.ID != 1 {
				t.Fatalf("user = %+v", u)
			}
		})
	}
}

func TestResolver_CachesAndInvalidates(t *testing.T) {
	calls := 0
	repo := &usermock.Repo{
		GetByExternalAuthIDFn: func(_ context.Context, ext string) (*user.User, error) {
			calls++
			return &user.User{ID: uint64(calls), ExternalAuthID: ext}, nil
		},
	}
	r := NewResolver(repo, cache.NewUserLRU(16, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(ctx, "auth|a"); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("repo calls = %d, want 1", calls)
	}

	r.Invalidate(ctx, "auth|a")
	u, _ := r.Resolve(ctx, "auth|a")
	if calls != 2 || u.ID != 2 {
		t.Fatalf("after invalidate calls=%d id=%d", calls, u.ID)
	}
}

func TestResolver_SyncCreatesThenUpdates(t *testing.T) {
	var stored *user.User
	repo := &usermock.Repo{
		GetByExternalAuthIDFn: func(context.Context, string) (*user.User, error) {
			if stored == nil {
				return nil, gorm.ErrRecordNotFound
			}
			cp := *stored
			return &cp, nil
		},
		CreateFn: func(_ context.Context, u *user.User) error { u.ID = 10; stored = u; return nil },
		SaveFn:   func(_ context.Context, u *user.User) error { stored = u; return nil },
	}
	c := cache.NewUserLRU(16, time.Minute)
	r := NewResolver(repo, c)
	ctx := context.Background()

	u, err := r.Sync(ctx, SyncInput{ExternalID: "auth|n", Email: "n@example.com"})
	if err != nil {
		t.Fatalf("Sync create: %v", err)
	}
	if u.Role != user.RoleBorrower || len(u.UserID) != 32 {
		t.Fatalf("created = %+v", u)
	}

	// warm the cache, then Sync must drop it
	_, _ = r.Resolve(ctx, "auth|n")
	u, err = r.Sync(ctx, SyncInput{ExternalID: "auth|n", FullName: "Nia", Role: user.RoleOfficer})
	if err != nil {
		t.Fatalf("Sync update: %v", err)
	}
	if u.FullName != "Nia" || u.Email != "n@example.com" || u.Role != user.RoleOfficer {
		t.Fatalf("updated = %+v", u)
	}
	if _, ok := c.Get(ctx, "auth|n"); ok {
		t.Fatalf("cache entry survived Sync")
	}

	if _, err := r.Sync(ctx, SyncInput{}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("want unauthorized, got %v", err)
	}
}
