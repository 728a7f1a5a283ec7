package access

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/apperr"
	"loan-origination/internal/domain/user"
	"loan-origination/internal/testutil/appmock"
	"loan-origination/internal/testutil/usermock"
	"loan-origination/internal/usecase/identity"
)

func newGuard(apps *appmock.Repo) *Guard {
	users := &usermock.Repo{
		GetByExternalAuthIDFn: func(_ context.Context, ext string) (*user.User, error) {
			switch ext {
			case "auth|owner":
				return &user.User{ID: 1, ExternalAuthID: ext, Role: user.RoleBorrower}, nil
			case "auth|stranger":
				return &user.User{ID: 2, ExternalAuthID: ext, Role: user.RoleBorrower}, nil
			case "auth|officer":
				return &user.User{ID: 3, ExternalAuthID: ext, Role: user.RoleOfficer}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	return NewGuard(apps, identity.NewResolver(users, nil))
}

func TestViewer(t *testing.T) {
	apps := &appmock.Repo{
		GetByApplicationIDFn: func(_ context.Context, id string) (*application.LoanApplication, error) {
			switch id {
			case "app-1":
				return &application.LoanApplication{ID: 10, ApplicationID: id, UserID: 1}, nil
			case "broken":
				return nil, errors.New("connection reset")
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	g := newGuard(apps)

	tests := []struct {
		name     string
		actor    string
		appID    string
		wantCode string
	}{
		{"owner", "auth|owner", "app-1", ""},
		{"officer", "auth|officer", "app-1", ""},
		{"other borrower is told not found", "auth|stranger", "app-1", "LOAN_APPLICATION_NOT_FOUND"},
		{"missing application", "auth|officer", "nope", "LOAN_APPLICATION_NOT_FOUND"},
		{"unknown actor", "auth|ghost", "app-1", "USER_NOT_FOUND"},
		{"datastore failure", "auth|officer", "broken", "PERSISTENCE_FAILURE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, a, err := g.Viewer(context.Background(), tt.actor, tt.appID)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if actor.ExternalAuthID != tt.actor || a.ApplicationID != tt.appID {
					t.Fatalf("got actor %q app %q", actor.ExternalAuthID, a.ApplicationID)
				}
				return
			}
			if got := apperr.CodeOf(err); got != tt.wantCode {
				t.Fatalf("code = %q, want %q (err=%v)", got, tt.wantCode, err)
			}
		})
	}
}
