package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_MessageCarriesCode(t *testing.T) {
	err := NotFound("LOAN_APPLICATION_NOT_FOUND", "loan application not found")
	if got := err.Error(); got != "[LOAN_APPLICATION_NOT_FOUND] loan application not found" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestError_IsMatchesKindAndCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("USER_NOT_FOUND", "user not found"))

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is(err, ErrNotFound)")
	}
	if errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("kind mismatch must not match")
	}
	if !errors.Is(err, NotFound("USER_NOT_FOUND", "")) {
		t.Fatalf("same code should match")
	}
	if errors.Is(err, NotFound("SNAPSHOT_NOT_FOUND", "")) {
		t.Fatalf("different code must not match")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"typed", InvalidTransition("nope", nil), "INVALID_STATUS_TRANSITION"},
		{"plain string", errors.New("[REJECTION_REASON_REQUIRED] reason missing"), "REJECTION_REASON_REQUIRED"},
		{"no marker", errors.New("boom"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Fatalf("CodeOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf_DefaultsToInternal(t *testing.T) {
	if got := KindOf(errors.New("db down")); got != KindInternal {
		t.Fatalf("KindOf = %s, want internal", got)
	}
	if got := KindOf(Unauthorized("UNAUTHORIZED", "x")); got != KindUnauthorized {
		t.Fatalf("KindOf = %s, want unauthorized", got)
	}
	if !errors.Is(Forbidden("STATUS_CHANGE_FORBIDDEN", "x"), ErrForbidden) {
		t.Fatal("Forbidden must match ErrForbidden")
	}
}

func TestInternal_Unwraps(t *testing.T) {
	root := errors.New("connection reset")
	err := Internal("PERSISTENCE_FAILURE", "update failed", root)
	if !errors.Is(err, root) {
		t.Fatalf("expected to unwrap root cause")
	}
}
