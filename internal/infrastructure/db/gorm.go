package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

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

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type options struct {
	log      *logrus.Logger
	logLevel logger.LogLevel
}

type Option func(*options)

// WithLogger routes gorm's SQL log through l.
func WithLogger(l *logrus.Logger, level logger.LogLevel) Option {
	return func(o *options) {
		o.log = l
		o.logLevel = level
	}
}

// Dialector picks the gorm driver for name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

func OpenGorm(driver, dsn string, opts ...Option) (*gorm.DB, error) {
	dial, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	return OpenGormWithDialector(dial, opts...)
}

func OpenGormWithDialector(dial gorm.Dialector, opts ...Option) (*gorm.DB, error) {
	o := options{logLevel: logger.Warn}
	for _, opt := range opts {
		opt(&o)
	}
	gl := logger.Default.LogMode(o.logLevel)
	if o.log != nil {
		gl = logger.New(o.log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  o.logLevel,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(dial, &gorm.Config{Logger: gl})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	if o.log != nil {
		o.log.WithField("dialect", dial.Name()).Info("gorm: connected")
	}
	return db, nil
}

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&user.User{},
		&business.BusinessProfile{},
		&product.LoanProduct{},
		&product.LoanProductSnapshot{},
		&application.LoanApplication{},
		&audit.Entry{},
		&snapshot.Snapshot{},
		&offerletter.OfferLetter{},
		&document.PersonalDocument{},
		&document.BusinessDocument{},
		&document.Request{},
		&task.Task{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Ping reports whether the underlying connection pool can reach the database.
func Ping(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
