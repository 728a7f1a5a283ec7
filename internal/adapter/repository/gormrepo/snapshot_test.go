package gormrepo

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	appDomain "loan-origination/internal/domain/application"
	snapshotDomain "loan-origination/internal/domain/snapshot"
)

func TestSnapshotRepository_SequencePerApplication(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db)
	a := seedApplication(t, db, u.ID, appDomain.StatusApproved)
	repo := NewSnapshotRepository(db)

	if n, err := repo.MaxSequence(ctx, a.ID); err != nil || n != 0 {
		t.Fatalf("MaxSequence on empty = %d, %v", n, err)
	}

	for i := 1; i <= 2; i++ {
		if err := repo.Create(ctx, &snapshotDomain.Snapshot{
			SnapshotID:        nextRef("s"),
			LoanApplicationID: a.ID,
			Sequence:          i,
			CreatedBy:         u.ID,
			ApprovalStage:     "approved",
			SnapshotData:      datatypes.JSON(`{"application":{"status":"approved"}}`),
		}); err != nil {
			t.Fatalf("create #%d: %v", i, err)
		}
	}

	dup := &snapshotDomain.Snapshot{
		SnapshotID:        nextRef("s"),
		LoanApplicationID: a.ID,
		Sequence:          2,
		CreatedBy:         u.ID,
		SnapshotData:      datatypes.JSON(`{}`),
	}
	if err := repo.Create(ctx, dup); err == nil {
		t.Fatalf("duplicate sequence must be rejected")
	}

	if n, _ := repo.MaxSequence(ctx, a.ID); n != 2 {
		t.Fatalf("MaxSequence = %d, want 2", n)
	}
	latest, err := repo.Latest(ctx, a.ID)
	if err != nil || latest.Sequence != 2 {
		t.Fatalf("Latest = %+v, %v", latest, err)
	}
	list, err := repo.ListByApplication(ctx, a.ID)
	if err != nil || len(list) != 2 || list[0].Sequence != 1 {
		t.Fatalf("ListByApplication = %+v, %v", list, err)
	}
	got, err := repo.GetBySnapshotID(ctx, list[0].SnapshotID)
	if err != nil || got.ID != list[0].ID {
		t.Fatalf("GetBySnapshotID = %+v, %v", got, err)
	}
}
