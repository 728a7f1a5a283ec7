package gormrepo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appDomain "loan-origination/internal/domain/application"
	userDomain "loan-origination/internal/domain/user"
	infradb "loan-origination/internal/infrastructure/db"
)

var seq atomic.Int64

func nextRef(prefix string) string {
	return fmt.Sprintf("%s%029d", prefix, seq.Add(1))
}

// openTestDB uses a file so several connections (and goroutines) share it.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "repo.db") +
		"?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
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

func seedUser(t *testing.T, db *gorm.DB) *userDomain.User {
	t.Helper()
	u := &userDomain.User{
		UserID:         nextRef("u"),
		ExternalAuthID: nextRef("auth|"),
		Email:          "borrower@example.com",
		FullName:       "Test Borrower",
		Role:           userDomain.RoleBorrower,
	}
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedApplication(t *testing.T, db *gorm.DB, userID uint64, status appDomain.Status) *appDomain.LoanApplication {
	t.Helper()
	a := &appDomain.LoanApplication{
		ApplicationID:     nextRef("a"),
		ApplicationNumber: nextRef("LA-"),
		UserID:            userID,
		LoanProductID:     1,
		ProductSnapshotID: 1,
		RequestedAmount:   decimal.NewFromInt(10_000),
		TermMonths:        12,
		Currency:          "USD",
		Purpose:           "working capital",
		Status:            status,
		Version:           1,
	}
	if err := NewApplicationRepository(db).Create(context.Background(), a); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return a
}

func utcNow() time.Time { return time.Now().UTC().Truncate(time.Second) }
