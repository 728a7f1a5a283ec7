package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"

	httpadp "loan-origination/internal/adapter/http"
	mw "loan-origination/internal/adapter/middleware"
	"loan-origination/internal/adapter/repository/gormrepo"
	"loan-origination/internal/config"
	"loan-origination/internal/domain/task"
	"loan-origination/internal/domain/user"
	"loan-origination/internal/infrastructure/cache"
	infradb "loan-origination/internal/infrastructure/db"
	"loan-origination/internal/infrastructure/events"
	"loan-origination/internal/infrastructure/logging"
	"loan-origination/internal/infrastructure/metrics"
	"loan-origination/internal/infrastructure/notify"
	"loan-origination/internal/infrastructure/signing"
	"loan-origination/internal/usecase/access"
	appUC "loan-origination/internal/usecase/application"
	auditUC "loan-origination/internal/usecase/audit"
	businessUC "loan-origination/internal/usecase/business"
	documentUC "loan-origination/internal/usecase/document"
	"loan-origination/internal/usecase/identity"
	"loan-origination/internal/usecase/notification"
	offerletterUC "loan-origination/internal/usecase/offerletter"
	productUC "loan-origination/internal/usecase/product"
	snapshotUC "loan-origination/internal/usecase/snapshot"
	"loan-origination/internal/usecase/status"
	taskUC "loan-origination/internal/usecase/task"
	"loan-origination/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := infradb.OpenGorm(cfg.DBDriver, cfg.DSN(), infradb.WithLogger(log, logger.Warn))
	if err != nil {
		return err
	}
	if err := infradb.Migrate(db); err != nil {
		return err
	}

	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var userCache identity.Cache = cache.NewUserLRU(cfg.IdentityCacheSize, cfg.IdentityCacheTTL())
	if cfg.IdentityCacheBackend == "redis" {
		userCache = cache.NewUserRedis(rdb, cfg.IdentityCacheTTL())
	}

	pool := gormrepo.NewRepos(db)
	tx := gormrepo.NewGormUoW(db)
	resolver := identity.NewResolver(pool.Users, userCache)

	// webhook and sweep actions are attributed to this user
	if _, err := resolver.Sync(ctx, identity.SyncInput{
		ExternalID: cfg.SystemUserExternalID,
		FullName:   "System",
		Role:       user.RoleAdmin,
	}); err != nil {
		return err
	}

	audits := auditUC.NewWriter(pool.Audits, pool.Applications, tx)
	snapshots := snapshotUC.NewWriter(pool)
	orch := status.NewOrchestrator(pool, tx, resolver, snapshots, audits,
		status.WithLogger(log),
		status.WithPublisher(events.NewRedisPublisher(rdb)),
		status.WithOfferLetterValidity(cfg.OfferLetterValidity()),
		status.WithTaskMaxAttempts(cfg.TaskMaxAttempts),
	)

	var signer signing.Client = signing.NoopClient{}
	if cfg.SigningBaseURL != "" {
		signer = signing.NewHTTPClient(cfg.SigningBaseURL, cfg.SigningAPIKey)
	} else {
		log.Warn("SIGNING_BASE_URL not set, envelopes are simulated")
	}

	templates, err := notify.DefaultTemplates()
	if err != nil {
		return err
	}
	var notifier notify.Notifier = notify.NewLogNotifier(log, templates)
	if cfg.NotifyGatewayURL != "" {
		notifier = notify.NewGatewayNotifier(cfg.NotifyGatewayURL, cfg.NotifyRatePerSec, templates)
	}

	applications := appUC.NewUsecase(pool, tx, resolver, log)
	products := productUC.NewUsecase(pool.Products, log)
	businesses := businessUC.NewUsecase(pool.Businesses, resolver)
	documents := documentUC.NewUsecase(pool, tx, resolver, log)
	letters := offerletterUC.NewUsecase(pool, tx, resolver, orch, signer, cfg.SystemUserExternalID, log)

	// background work
	dispatcher := worker.NewDispatcher(pool.Tasks, log,
		worker.WithBatchSize(cfg.TaskBatchSize),
		worker.WithLease(cfg.TaskLease()),
		worker.WithConcurrency(cfg.TaskConcurrency),
	)
	dispatcher.Register(task.KindNotification, notification.NewHandler(pool, notifier, log).Handle)
	dispatcher.Register(task.KindOfferLetterSend, letters.HandleSend)

	sched := worker.NewScheduler(log)
	jobs := []struct {
		name, spec string
		job        worker.Job
	}{
		{"task-drain", cfg.TaskPollSpec, worker.DrainJob(dispatcher)},
		{"task-requeue-expired", "@every 1m", func(ctx context.Context) error {
			_, err := pool.Tasks.RequeueExpired(ctx, time.Now().UTC())
			return err
		}},
		{"document-requests-overdue", "@every 15m", func(ctx context.Context) error {
			_, err := documents.MarkOverdue(ctx)
			return err
		}},
		{"offer-letters-expire", "@every 1h", func(ctx context.Context) error {
			_, err := letters.ExpireStale(ctx)
			return err
		}},
	}
	for _, j := range jobs {
		if err := sched.Add(ctx, j.name, j.spec, j.job); err != nil {
			return err
		}
	}
	sched.Start(ctx)
	defer sched.Stop(30 * time.Second)

	// http
	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		middleware.Logger(),
		middleware.Recover(),
		metrics.Middleware(),
	)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	httpadp.Register(e, httpadp.Handlers{
		Health: httpadp.NewHandler(map[string]httpadp.Check{
			"db":    infradb.Ping(db),
			"redis": cache.Ping(rdb),
		}),
		Users:        httpadp.NewUserHandler(resolver, log),
		Products:     httpadp.NewProductHandler(products, log),
		Businesses:   httpadp.NewBusinessHandler(businesses, log),
		Applications: httpadp.NewApplicationHandler(applications, log),
		Statuses:     httpadp.NewStatusHandler(orch, log),
		Audits:       httpadp.NewAuditHandler(access.NewGuard(pool.Applications, resolver), audits, snapshots, log),
		Documents:    httpadp.NewDocumentHandler(documents, log),
		OfferLetters: httpadp.NewOfferLetterHandler(letters, cfg.SigningWebhookSecret, log),
		Tasks:        httpadp.NewTaskHandler(taskUC.NewUsecase(pool.Tasks, resolver), log),
	},
		mw.JWTAuth([]byte(cfg.JWTSecret)),
		mw.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log),
	)

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
