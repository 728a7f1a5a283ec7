package gormrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	appDomain "loan-origination/internal/domain/application"
)

func TestApplicationRepository_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db)
	a := seedApplication(t, db, u.ID, appDomain.StatusDraft)

	repo := NewApplicationRepository(db)
	got, err := repo.GetByApplicationID(ctx, a.ApplicationID)
	if err != nil {
		t.Fatalf("GetByApplicationID: %v", err)
	}
	if got.ID != a.ID || got.Status != appDomain.StatusDraft {
		t.Fatalf("unexpected row: %+v", got)
	}
	if !got.RequestedAmount.Equal(a.RequestedAmount) {
		t.Fatalf("amount = %s, want %s", got.RequestedAmount, a.RequestedAmount)
	}

	byPK, err := repo.GetByID(ctx, a.ID)
	if err != nil || byPK.ApplicationID != a.ApplicationID {
		t.Fatalf("GetByID = %+v, %v", byPK, err)
	}

	if _, err := repo.GetByApplicationID(ctx, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("want ErrRecordNotFound, got %v", err)
	}
}

func TestApplicationRepository_UpdateStatus_VersionGuard(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db)
	a := seedApplication(t, db, u.ID, appDomain.StatusUnderReview)
	repo := NewApplicationRepository(db)

	stale := *a

	a.ApplyStatus(appDomain.StatusApproved, u.ID, "looks good", "", time.Now())
	if err := repo.UpdateStatus(ctx, a, 1); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if a.Version != 2 {
		t.Fatalf("version = %d, want 2", a.Version)
	}

	stale.ApplyStatus(appDomain.StatusRejected, u.ID, "", "late writer", time.Now())
	if err := repo.UpdateStatus(ctx, &stale, 1); !errors.Is(err, appDomain.ErrStaleVersion) {
		t.Fatalf("want ErrStaleVersion, got %v", err)
	}

	got, _ := repo.GetByApplicationID(ctx, a.ApplicationID)
	if got.Status != appDomain.StatusApproved || got.Version != 2 {
		t.Fatalf("row = %s v%d, want approved v2", got.Status, got.Version)
	}
	if got.ApprovedAt == nil || got.RejectedAt != nil || got.RejectionReason != "" {
		t.Fatalf("milestones not persisted as expected: %+v", got)
	}
	if got.LastUpdatedBy == nil || *got.LastUpdatedBy != u.ID {
		t.Fatalf("last_updated_by = %v", got.LastUpdatedBy)
	}
}

func TestApplicationRepository_ListFiltersAndTotal(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db)
	bob := seedUser(t, db)

	seedApplication(t, db, alice.ID, appDomain.StatusDraft)
	seedApplication(t, db, alice.ID, appDomain.StatusSubmitted)
	seedApplication(t, db, alice.ID, appDomain.StatusSubmitted)
	seedApplication(t, db, bob.ID, appDomain.StatusSubmitted)

	repo := NewApplicationRepository(db)

	tests := []struct {
		name      string
		filter    appDomain.ListFilter
		wantTotal int64
		wantLen   int
	}{
		{"all", appDomain.ListFilter{}, 4, 4},
		{"by user", appDomain.ListFilter{UserID: alice.ID}, 3, 3},
		{"by status", appDomain.ListFilter{Status: appDomain.StatusSubmitted}, 3, 3},
		{"user and status", appDomain.ListFilter{UserID: alice.ID, Status: appDomain.StatusSubmitted}, 2, 2},
		{"paged", appDomain.ListFilter{Limit: 1, Offset: 1}, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, total, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if total != tt.wantTotal || len(out) != tt.wantLen {
				t.Fatalf("total=%d len=%d, want %d/%d", total, len(out), tt.wantTotal, tt.wantLen)
			}
		})
	}
}

func TestApplicationRepository_SoftDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db)
	a := seedApplication(t, db, u.ID, appDomain.StatusDraft)
	repo := NewApplicationRepository(db)

	if err := repo.SoftDelete(ctx, a, u.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := repo.GetByApplicationID(ctx, a.ApplicationID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted row still visible: %v", err)
	}

	var raw appDomain.LoanApplication
	if err := db.Unscoped().Where("id = ?", a.ID).First(&raw).Error; err != nil {
		t.Fatalf("unscoped read: %v", err)
	}
	if raw.DeletedBy == nil || *raw.DeletedBy != u.ID || !raw.DeletedAt.Valid {
		t.Fatalf("soft delete columns not set: %+v", raw)
	}
}
