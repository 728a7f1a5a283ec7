package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/uow"
)

// NewRepos binds every repository to db, which may be a transaction.
func NewRepos(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Applications: &ApplicationRepository{db: db},
		Audits:       &AuditRepository{db: db},
		Snapshots:    &SnapshotRepository{db: db},
		OfferLetters: &OfferLetterRepository{db: db},
		Products:     &ProductRepository{db: db},
		Documents:    &DocumentRepository{db: db},
		Businesses:   &BusinessRepository{db: db},
		Users:        &UserRepository{db: db},
		Tasks:        &TaskRepository{db: db},
	}
}

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}

func (u *GormUoW) WithinApplicationTx(ctx context.Context, applicationID string, fn func(r uow.Repos, a *application.LoanApplication) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := NewRepos(tx)
		// lock the application row up-front to prevent races
		a, err := r.Applications.GetByApplicationIDForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		return fn(r, a)
	})
}
