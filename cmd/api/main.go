package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-triage/internal/api/http"
	"github.com/spec-kit/helpdesk-triage/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-triage/internal/audit"
	"github.com/spec-kit/helpdesk-triage/internal/auth"
	"github.com/spec-kit/helpdesk-triage/internal/config"
	"github.com/spec-kit/helpdesk-triage/internal/events"
	"github.com/spec-kit/helpdesk-triage/internal/observability"
	"github.com/spec-kit/helpdesk-triage/internal/persistence"
	"github.com/spec-kit/helpdesk-triage/internal/queue"
	"github.com/spec-kit/helpdesk-triage/internal/repository"
	"github.com/spec-kit/helpdesk-triage/internal/service"
	"github.com/spec-kit/helpdesk-triage/internal/triage"
	"github.com/spec-kit/helpdesk-triage/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	articleRepo := repository.NewArticleRepository(pool)
	suggestionRepo := repository.NewSuggestionRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	configRepo := repository.NewTriageConfigRepository(pool)

	var auditSink audit.Sink
	if cfg.Kafka.Enabled() {
		kafkaSink := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		defer kafkaSink.Close()
		auditSink = kafkaSink
		logger.Info("audit stream enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}
	auditLogger := audit.NewLogger(auditRepo, auditSink, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(*cfg, userRepo, logger)
	systemUser, err := authService.Bootstrap(ctx, cfg.Auth.SeedAdminEmail, cfg.Auth.SeedAdminPassword)
	if err != nil {
		logger.Fatal("failed to bootstrap accounts", zap.Error(err))
	}

	triageService := service.NewTriageService(service.TriageDependencies{
		TicketRepo:     ticketRepo,
		SuggestionRepo: suggestionRepo,
		ConfigRepo:     configRepo,
		AuditLogger:    auditLogger,
		Classifier:     triage.NewKeywordClassifier(),
		Retriever:      triage.NewStoreRetriever(articleRepo),
		Composer:       triage.NewTemplateComposer(),
		Decisions:      triage.NewDecisionEngine(userRepo, ticketRepo),
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		SystemUserID:   systemUser.ID,
	})

	var triageJobs queue.Dispatcher
	if cfg.Queue.Enabled {
		jobQueue := queue.NewRedisQueue(redis.Client, cfg.Queue.Key)
		triageJobs = queue.NewQueuedDispatcher(jobQueue, logger)

		triageWorker := worker.NewTriageWorker(jobQueue, triageService, configRepo, metrics, logger, cfg.Queue)
		go triageWorker.Start(ctx)
		logger.Info("triage worker started", zap.Int("concurrency", cfg.Queue.Concurrency))
	} else {
		triageJobs = queue.NewInlineDispatcher(triageService)
		logger.Info("triage queue disabled, running inline")
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		UserRepo:    userRepo,
		ConfigRepo:  configRepo,
		AuditLogger: auditLogger,
		Dispatcher:  dispatcher,
		TriageJobs:  triageJobs,
		Logger:      logger,
	})
	articleService := service.NewArticleService(articleRepo, logger)
	configService := service.NewConfigService(configRepo, logger)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Triage:         handlers.NewTriageHandler(triageService, ticketService, auditRepo),
		Articles:       handlers.NewArticlesHandler(articleService),
		Admin:          handlers.NewAdminHandler(configService, authService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
