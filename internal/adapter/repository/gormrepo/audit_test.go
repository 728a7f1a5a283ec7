package gormrepo

import (
	"context"
	"testing"

	appDomain "loan-origination/internal/domain/application"
	auditDomain "loan-origination/internal/domain/audit"
)

func TestAuditRepository_ListNewestFirstWithFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db)
	a := seedApplication(t, db, u.ID, appDomain.StatusDraft)
	repo := NewAuditRepository(db)

	actions := []auditDomain.Action{
		auditDomain.ActionApplicationCreated,
		auditDomain.ActionApplicationSubmitted,
		auditDomain.ActionApplicationUnderReview,
		auditDomain.ActionApplicationApproved,
	}
	for _, act := range actions {
		if err := repo.Create(ctx, &auditDomain.Entry{
			EntryID:           nextRef("e"),
			LoanApplicationID: a.ID,
			UserID:            u.ID,
			Action:            act,
		}); err != nil {
			t.Fatalf("Create(%s): %v", act, err)
		}
	}

	out, total, err := repo.List(ctx, auditDomain.Query{LoanApplicationID: a.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 4 || len(out) != 4 {
		t.Fatalf("total=%d len=%d", total, len(out))
	}
	if out[0].Action != auditDomain.ActionApplicationApproved || out[3].Action != auditDomain.ActionApplicationCreated {
		t.Fatalf("not newest first: %s ... %s", out[0].Action, out[3].Action)
	}

	filtered, total, err := repo.List(ctx, auditDomain.Query{
		LoanApplicationID: a.ID,
		Actions:           []auditDomain.Action{auditDomain.ActionApplicationSubmitted},
	})
	if err != nil || total != 1 || len(filtered) != 1 {
		t.Fatalf("filtered = %v total=%d err=%v", filtered, total, err)
	}

	latest, err := repo.Latest(ctx, a.ID)
	if err != nil || latest.Action != auditDomain.ActionApplicationApproved {
		t.Fatalf("Latest = %+v, %v", latest, err)
	}
}

func TestAuditRepository_CreateBatchAndCount(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := seedUser(t, db)
	a := seedApplication(t, db, u.ID, appDomain.StatusApproved)
	repo := NewAuditRepository(db)

	batch := []*auditDomain.Entry{
		{EntryID: nextRef("e"), LoanApplicationID: a.ID, UserID: u.ID, Action: auditDomain.ActionOfferLetterSent},
		{EntryID: nextRef("e"), LoanApplicationID: a.ID, UserID: u.ID, Action: auditDomain.ActionOfferLetterCreated},
		{EntryID: nextRef("e"), LoanApplicationID: a.ID, UserID: u.ID, Action: auditDomain.ActionOfferLetterSent},
	}
	if err := repo.CreateBatch(ctx, batch); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if err := repo.CreateBatch(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	counts, err := repo.CountByAction(ctx, a.ID)
	if err != nil {
		t.Fatalf("CountByAction: %v", err)
	}
	got := map[auditDomain.Action]int64{}
	for _, c := range counts {
		got[c.Action] = c.Count
	}
	if got[auditDomain.ActionOfferLetterSent] != 2 || got[auditDomain.ActionOfferLetterCreated] != 1 {
		t.Fatalf("counts = %v", got)
	}
}
