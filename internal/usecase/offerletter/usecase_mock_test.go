package offerletter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/apperr"
	domain "loan-origination/internal/domain/offerletter"
	"loan-origination/internal/domain/task"
	"loan-origination/internal/domain/uow"
	"loan-origination/internal/domain/user"
	"loan-origination/internal/infrastructure/logging"
	"loan-origination/internal/testutil/appmock"
	"loan-origination/internal/testutil/auditmock"
	"loan-origination/internal/testutil/offerlettermock"
	"loan-origination/internal/testutil/uowmock"
	"loan-origination/internal/testutil/usermock"
	"loan-origination/internal/usecase/identity"
)

// mock-backed cases below never reach a database

func mockRepos(letters *offerlettermock.Repo, audits *auditmock.Repo) uow.Repos {
	users := &usermock.Repo{
		GetByIDFn: func(_ context.Context, id uint64) (*user.User, error) {
			return &user.User{ID: id, Email: "b@example.com", FullName: "Borrower"}, nil
		},
		GetByExternalAuthIDFn: func(_ context.Context, ext string) (*user.User, error) {
			return &user.User{ID: 99, ExternalAuthID: ext, Role: user.RoleAdmin}, nil
		},
	}
	apps := &appmock.Repo{
		GetByIDFn: func(_ context.Context, id uint64) (*application.LoanApplication, error) {
			return &application.LoanApplication{ID: id, UserID: 1, Status: application.StatusOfferLetterSent}, nil
		},
	}
	return uow.Repos{OfferLetters: letters, Applications: apps, Users: users, Audits: audits}
}

func TestHandleSend_SkipsAuditWhenLetterMovedOn(t *testing.T) {
	letters := &offerlettermock.Repo{
		GetByOfferLetterIDFn: func(_ context.Context, ref string) (*domain.OfferLetter, error) {
			return &domain.OfferLetter{ID: 7, OfferLetterID: ref, LoanApplicationID: 3, Status: domain.StatusDraft, IsActive: true, EnvelopeID: "env-7"}, nil
		},
		MarkSentFn: func(context.Context, uint64, time.Time) (bool, error) { return false, nil },
	}
	audits := &auditmock.Repo{}
	repos := mockRepos(letters, audits)
	signer := &fakeSigner{}
	uc := NewUsecase(repos, uowmock.Passthrough(repos), identity.NewResolver(repos.Users, nil), nil, signer, systemSub, logging.Discard())

	tk, err := task.New("t1", task.KindOfferLetterSend, task.OfferLetterSendPayload{OfferLetterID: "ol-7"}, 3, time.Now())
	require.NoError(t, err)
	require.NoError(t, uc.HandleSend(context.Background(), tk))

	assert.Zero(t, signer.created)
	assert.Equal(t, []string{"env-7"}, signer.sent)
	assert.Empty(t, audits.Entries)
}

func TestExpireStale_ListFailure(t *testing.T) {
	letters := &offerlettermock.Repo{
		ListExpiringFn: func(context.Context, time.Time, int) ([]domain.OfferLetter, error) {
			return nil, errors.New("connection reset")
		},
	}
	repos := mockRepos(letters, &auditmock.Repo{})
	uc := NewUsecase(repos, uowmock.Passthrough(repos), identity.NewResolver(repos.Users, nil), nil, &fakeSigner{}, systemSub, logging.Discard())

	n, err := uc.ExpireStale(context.Background())
	assert.Zero(t, n)
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestExpireStale_RechecksUnderLock(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	letters := &offerlettermock.Repo{
		ListExpiringFn: func(context.Context, time.Time, int) ([]domain.OfferLetter, error) {
			return []domain.OfferLetter{{ID: 5, OfferLetterID: "ol-5", Status: domain.StatusSent, IsActive: true, ExpiresAt: &past}}, nil
		},
		// signed between the listing and the lock
		GetByIDForUpdateFn: func(_ context.Context, id uint64) (*domain.OfferLetter, error) {
			return &domain.OfferLetter{ID: id, OfferLetterID: "ol-5", Status: domain.StatusCompleted, IsActive: true, ExpiresAt: &past}, nil
		},
		SaveFn: func(context.Context, *domain.OfferLetter) error {
			t.Fatal("a signed letter must not be saved as expired")
			return nil
		},
	}
	audits := &auditmock.Repo{}
	repos := mockRepos(letters, audits)
	uc := NewUsecase(repos, uowmock.Passthrough(repos), identity.NewResolver(repos.Users, nil), nil, &fakeSigner{}, systemSub, logging.Discard())

	n, err := uc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, audits.Entries)
}
