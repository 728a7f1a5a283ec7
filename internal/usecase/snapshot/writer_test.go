package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"loan-origination/internal/adapter/repository/gormrepo"
	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/apperr"
	"loan-origination/internal/domain/document"
	domain "loan-origination/internal/domain/snapshot"
	"loan-origination/internal/domain/uow"
	"loan-origination/internal/domain/user"
	"loan-origination/internal/testutil/appmock"
	"loan-origination/internal/testutil/dbtest"
	"loan-origination/internal/testutil/snapshotmock"
)

func TestWriter_CreateCapturesRelatedRows(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	owner := dbtest.User(t, db, "auth|owner", user.RoleBorrower)
	p := dbtest.Product(t, db)
	a := dbtest.Application(t, db, owner, p, application.StatusApproved)

	pool := gormrepo.NewRepos(db)
	require.NoError(t, pool.Documents.CreatePersonal(ctx, &document.PersonalDocument{Document: document.Document{
		DocumentID: "d1", LoanApplicationID: a.ID, UploadedBy: owner.ID,
		DocumentType: "id_card", FileName: "id.png", FileURL: "s3://b/id.png",
	}}))

	w := NewWriter(pool)
	tx := gormrepo.NewGormUoW(db)

	for i := 1; i <= 2; i++ {
		var created uint64
		err := tx.WithinTx(ctx, func(r uow.Repos) error {
			s, err := w.Create(ctx, r, a.ID, owner.ID, "approved")
			if err != nil {
				return err
			}
			created = uint64(s.Sequence)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), created)
	}

	list, err := w.List(ctx, a.ApplicationID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Sequence)

	latest, err := w.Latest(ctx, a.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Sequence)
	assert.Equal(t, application.StatusApproved, latest.Data.Application.Status)
	require.NotNil(t, latest.Data.ProductSnapshot)
	assert.Equal(t, p.ProductID, latest.Data.ProductSnapshot.ProductID)
	assert.Len(t, latest.Data.PersonalDocuments, 1)
	assert.Empty(t, latest.Data.BusinessDocuments)
	assert.Nil(t, latest.Data.BusinessProfile)

	got, err := w.Get(ctx, a.ApplicationID, list[0].SnapshotID)
	require.NoError(t, err)
	assert.Equal(t, list[0].SnapshotID, got.SnapshotID)
}

func TestWriter_CreateReadsThroughTransaction(t *testing.T) {
	db := dbtest.Open(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	owner := dbtest.User(t, db, "auth|owner", user.RoleBorrower)
	a := dbtest.Application(t, db, owner, dbtest.Product(t, db), application.StatusApproved)

	w := NewWriter(gormrepo.NewRepos(db))
	var captured *domain.Snapshot
	err = gormrepo.NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		// uncommitted, only visible inside this transaction
		if err := r.Documents.CreateBusiness(ctx, &document.BusinessDocument{Document: document.Document{
			DocumentID: "b1", LoanApplicationID: a.ID, UploadedBy: owner.ID,
			DocumentType: "tax_return", FileName: "tax.pdf", FileURL: "s3://b/tax.pdf",
		}}); err != nil {
			return err
		}
		s, err := w.Create(ctx, r, a.ID, owner.ID, "approved")
		captured = s
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, captured)

	latest, err := w.Latest(ctx, a.ApplicationID)
	require.NoError(t, err)
	require.Len(t, latest.Data.BusinessDocuments, 1)
	assert.Equal(t, "b1", latest.Data.BusinessDocuments[0].DocumentID)
}

func TestWriter_CreateRollsBackWithTransaction(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	owner := dbtest.User(t, db, "auth|owner", user.RoleBorrower)
	a := dbtest.Application(t, db, owner, dbtest.Product(t, db), application.StatusApproved)

	w := NewWriter(gormrepo.NewRepos(db))
	boom := errors.New("boom")
	err := gormrepo.NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		if _, err := w.Create(ctx, r, a.ID, owner.ID, "approved"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = w.Latest(ctx, a.ApplicationID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "got %v", err)
}

func TestWriter_NotFound(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	owner := dbtest.User(t, db, "auth|owner", user.RoleBorrower)
	a := dbtest.Application(t, db, owner, dbtest.Product(t, db), application.StatusApproved)
	w := NewWriter(gormrepo.NewRepos(db))

	_, err := w.List(ctx, "nope")
	assert.Equal(t, "LOAN_APPLICATION_NOT_FOUND", apperr.CodeOf(err))

	_, err = w.Get(ctx, a.ApplicationID, "nope")
	assert.Equal(t, "SNAPSHOT_NOT_FOUND", apperr.CodeOf(err))

	err = gormrepo.NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		_, err := w.Create(ctx, r, 999_999, owner.ID, "approved")
		return err
	})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.False(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestWriter_Get_SnapshotOfAnotherApplication(t *testing.T) {
	ctx := context.Background()
	pool := uow.Repos{
		Applications: &appmock.Repo{
			GetByApplicationIDFn: func(_ context.Context, ref string) (*application.LoanApplication, error) {
				return &application.LoanApplication{ID: 1, ApplicationID: ref}, nil
			},
		},
		Snapshots: &snapshotmock.Repo{
			GetBySnapshotIDFn: func(_ context.Context, ref string) (*domain.Snapshot, error) {
				return &domain.Snapshot{SnapshotID: ref, LoanApplicationID: 2, SnapshotData: []byte(`{}`)}, nil
			},
			LatestFn: func(context.Context, uint64) (*domain.Snapshot, error) {
				return &domain.Snapshot{SnapshotID: "s1", LoanApplicationID: 1, SnapshotData: []byte(`not json`)}, nil
			},
		},
	}
	w := NewWriter(pool)

	_, err := w.Get(ctx, "app-1", "s2")
	assert.Equal(t, "SNAPSHOT_NOT_FOUND", apperr.CodeOf(err))

	_, err = w.Latest(ctx, "app-1")
	assert.Equal(t, "SERIALIZATION_FAILURE", apperr.CodeOf(err))
}
