// Package dbtest opens migrated sqlite databases and seeds rows for
// integration tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"loan-origination/internal/adapter/repository/gormrepo"
	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/product"
	"loan-origination/internal/domain/user"
	infradb "loan-origination/internal/infrastructure/db"
	"loan-origination/pkg/id"
)

// Open returns a file-backed sqlite DB under t.TempDir(). Transactions begin
// IMMEDIATE so concurrent writers queue on the busy timeout instead of
// failing with SQLITE_BUSY at commit.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") +
		"?_busy_timeout=10000&_txlock=immediate&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := infradb.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func User(t *testing.T, db *gorm.DB, externalID string, role user.Role) *user.User {
	t.Helper()
	u := &user.User{
		UserID:         id.NewID32(),
		ExternalAuthID: externalID,
		Email:          externalID + "@example.com",
		FullName:       "User " + externalID,
		Role:           role,
	}
	if err := gormrepo.NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// Product seeds an active product: 1,000-50,000 USD, 6-36 months, 12% APR.
func Product(t *testing.T, db *gorm.DB) *product.LoanProduct {
	t.Helper()
	p := &product.LoanProduct{
		ProductID:     id.NewID32(),
		Name:          "Working Capital",
		MinAmount:     decimal.NewFromInt(1_000),
		MaxAmount:     decimal.NewFromInt(50_000),
		MinTermMonths: 6,
		MaxTermMonths: 36,
		InterestRate:  decimal.NewFromInt(12),
		Currency:      "USD",
		Version:       1,
		IsActive:      true,
	}
	if err := gormrepo.NewProductRepository(db).Create(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

// Application seeds an application of owner in status, priced on a fresh
// snapshot of p.
func Application(t *testing.T, db *gorm.DB, owner *user.User, p *product.LoanProduct, status application.Status) *application.LoanApplication {
	t.Helper()
	ctx := context.Background()
	products := gormrepo.NewProductRepository(db)
	ps := p.Freeze()
	if err := products.CreateSnapshot(ctx, ps); err != nil {
		t.Fatalf("seed product snapshot: %v", err)
	}
	a := &application.LoanApplication{
		ApplicationID:     id.NewID32(),
		ApplicationNumber: id.NewApplicationNumber(ps.CreatedAt),
		UserID:            owner.ID,
		LoanProductID:     p.ID,
		ProductSnapshotID: ps.ID,
		RequestedAmount:   decimal.NewFromInt(10_000),
		TermMonths:        12,
		Currency:          p.Currency,
		Purpose:           "inventory",
		Status:            status,
		Version:           1,
	}
	if err := gormrepo.NewApplicationRepository(db).Create(ctx, a); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return a
}
