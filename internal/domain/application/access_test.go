package application

import (
	"testing"

	"loan-origination/internal/domain/user"
)

func TestVisibleTo(t *testing.T) {
	a := &LoanApplication{UserID: 7}
	tests := []struct {
		name string
		u    *user.User
		want bool
	}{
		{"owner", &user.User{ID: 7, Role: user.RoleBorrower}, true},
		{"other borrower", &user.User{ID: 8, Role: user.RoleBorrower}, false},
		{"officer", &user.User{ID: 9, Role: user.RoleOfficer}, true},
		{"admin", &user.User{ID: 10, Role: user.RoleAdmin}, true},
		{"unknown role", &user.User{ID: 11, Role: "auditor"}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.VisibleTo(tt.u); got != tt.want {
				t.Fatalf("VisibleTo = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMayRequest(t *testing.T) {
	borrower := &user.User{ID: 1, Role: user.RoleBorrower}
	officer := &user.User{ID: 2, Role: user.RoleOfficer}

	for _, s := range AllStatuses {
		if !MayRequest(officer, s) {
			t.Errorf("officer must be allowed to request %s", s)
		}
		want := s == StatusSubmitted || s == StatusWithdrawn
		if got := MayRequest(borrower, s); got != want {
			t.Errorf("borrower MayRequest(%s) = %v, want %v", s, got, want)
		}
	}
}
