package gormrepo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	appDomain "loan-origination/internal/domain/application"
	auditDomain "loan-origination/internal/domain/audit"
	"loan-origination/internal/domain/uow"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db)

	var appID string
	err := NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		a := &appDomain.LoanApplication{
			ApplicationID: nextRef("a"), ApplicationNumber: nextRef("LA-"),
			UserID: u.ID, LoanProductID: 1, ProductSnapshotID: 1,
			TermMonths: 6, Currency: "USD", Status: appDomain.StatusDraft, Version: 1,
		}
		if err := r.Applications.Create(ctx, a); err != nil {
			return err
		}
		appID = a.ApplicationID
		return r.Audits.Create(ctx, &auditDomain.Entry{
			EntryID: nextRef("e"), LoanApplicationID: a.ID, UserID: u.ID,
			Action: auditDomain.ActionApplicationCreated,
		})
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	a, err := NewApplicationRepository(db).GetByApplicationID(ctx, appID)
	if err != nil {
		t.Fatalf("application not visible after commit: %v", err)
	}
	if _, total, _ := NewAuditRepository(db).List(ctx, auditDomain.Query{LoanApplicationID: a.ID}); total != 1 {
		t.Fatalf("audit total = %d, want 1", total)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db)
	boom := errors.New("boom")

	var appID string
	err := NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
		a := &appDomain.LoanApplication{
			ApplicationID: nextRef("a"), ApplicationNumber: nextRef("LA-"),
			UserID: u.ID, LoanProductID: 1, ProductSnapshotID: 1,
			TermMonths: 6, Currency: "USD", Status: appDomain.StatusDraft, Version: 1,
		}
		if err := r.Applications.Create(ctx, a); err != nil {
			return err
		}
		appID = a.ApplicationID
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if _, err := NewApplicationRepository(db).GetByApplicationID(ctx, appID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("row survived rollback: %v", err)
	}
}

func TestGormUoW_WithinApplicationTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db)
	seeded := seedApplication(t, db, u.ID, appDomain.StatusSubmitted)
	guow := NewGormUoW(db)

	err := guow.WithinApplicationTx(ctx, seeded.ApplicationID, func(r uow.Repos, a *appDomain.LoanApplication) error {
		if a.ID != seeded.ID {
			t.Fatalf("locked wrong row")
		}
		a.ApplyStatus(appDomain.StatusUnderReview, u.ID, "", "", utcNow())
		return r.Applications.UpdateStatus(ctx, a, a.Version)
	})
	if err != nil {
		t.Fatalf("WithinApplicationTx: %v", err)
	}
	got, _ := NewApplicationRepository(db).GetByApplicationID(ctx, seeded.ApplicationID)
	if got.Status != appDomain.StatusUnderReview {
		t.Fatalf("status = %s", got.Status)
	}

	called := false
	err = guow.WithinApplicationTx(ctx, "missing", func(uow.Repos, *appDomain.LoanApplication) error {
		called = true
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) || called {
		t.Fatalf("missing row: err=%v called=%v", err, called)
	}
}
