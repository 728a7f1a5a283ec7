package uow

import (
	"context"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/audit"
	"loan-origination/internal/domain/business"
	"loan-origination/internal/domain/document"
	"loan-origination/internal/domain/offerletter"
	"loan-origination/internal/domain/product"
	"loan-origination/internal/domain/snapshot"
	"loan-origination/internal/domain/task"
	"loan-origination/internal/domain/user"
)

// Repos bundles every repository bound to the same connection or transaction.
type Repos struct {
	Applications application.Repository
	Audits       audit.Repository
	Snapshots    snapshot.Repository
	OfferLetters offerletter.Repository
	Products     product.Repository
	Documents    document.Repository
	Businesses   business.Repository
	Users        user.Repository
	Tasks        task.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the application row first, then pass it in
	WithinApplicationTx(ctx context.Context, applicationID string, fn func(r Repos, a *application.LoanApplication) error) error
}
