package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/policy-admin/internal/api/http"
	"github.com/spec-kit/policy-admin/internal/api/http/handlers"
	"github.com/spec-kit/policy-admin/internal/auth"
	"github.com/spec-kit/policy-admin/internal/carrier"
	"github.com/spec-kit/policy-admin/internal/config"
	"github.com/spec-kit/policy-admin/internal/events"
	"github.com/spec-kit/policy-admin/internal/observability"
	"github.com/spec-kit/policy-admin/internal/persistence"
	"github.com/spec-kit/policy-admin/internal/repository"
	"github.com/spec-kit/policy-admin/internal/service"
	"github.com/spec-kit/policy-admin/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	applicationRepo := repository.NewApplicationRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	licenseRepo := repository.NewLicenseRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	enrollmentClient := carrier.NewEnrollmentClient(cfg.Carrier, logger)
	rateClient := carrier.NewRateCartClient(cfg.Carrier, logger)
	quoteCache := carrier.NewQuoteCache(redis.Client, cfg.Carrier.QuoteTTL(), logger)

	authService := service.NewAuthService(*cfg, userRepo)
	applicationService := service.NewApplicationService(service.ApplicationDependencies{
		ApplicationRepo: applicationRepo,
		UserRepo:        userRepo,
		Enrollment:      enrollmentClient,
		Rater:           rateClient,
		QuoteCache:      quoteCache,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	documentService := service.NewDocumentService(service.DocumentDependencies{
		DocumentRepo:    documentRepo,
		UserRepo:        userRepo,
		ActivityLogRepo: activityRepo,
		Dispatcher:      dispatcher,
	})
	licenseService := service.NewLicenseService(service.LicenseDependencies{
		LicenseRepo:     licenseRepo,
		AppointmentRepo: appointmentRepo,
		AgentRepo:       agentRepo,
	})
	fanout := service.NewNotificationFanout(cfg.Notification, service.FanoutDependencies{
		UserRepo:         userRepo,
		AgentRepo:        agentRepo,
		NotificationRepo: notificationRepo,
	}, logger)
	worker.StartNotificationWorker(dispatcher, fanout)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, agentRepo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Applications:   handlers.NewApplicationsHandler(applicationService),
		Documents:      handlers.NewDocumentsHandler(documentService),
		Licenses:       handlers.NewLicensesHandler(licenseService),
		Notifications:  handlers.NewNotificationsHandler(notificationRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
