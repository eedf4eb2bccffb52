package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/secureleak/report-service/internal/api/http"
	"github.com/secureleak/report-service/internal/api/http/handlers"
	"github.com/secureleak/report-service/internal/auth"
	"github.com/secureleak/report-service/internal/config"
	"github.com/secureleak/report-service/internal/events"
	"github.com/secureleak/report-service/internal/observability"
	"github.com/secureleak/report-service/internal/persistence"
	"github.com/secureleak/report-service/internal/repository"
	"github.com/secureleak/report-service/internal/service"
	"github.com/secureleak/report-service/internal/worker"
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

	auditLogger, err := observability.NewAuditLogger(cfg.Logger)
	if err != nil {
		logger.Fatal("failed to open audit log", zap.Error(err))
	}
	defer auditLogger.Sync()

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
	reportRepo := repository.NewReportRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(dispatcher, auditLogger)

	sessions := auth.NewSessionManager(cfg.Session)
	sessionMiddleware := auth.NewMiddleware(sessions)
	guards := auth.NewGuards(userRepo)
	throttle := auth.NewThrottle(redis.Client, cfg.Auth, logger)

	authService := service.NewAuthService(cfg.Auth, userRepo, dispatcher, logger)
	reportService := service.NewReportService(reportRepo, commentRepo, guards, dispatcher)
	uploadService := service.NewUploadService(cfg.Uploads, reportRepo, guards, dispatcher)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.MaxBodyBytes,
	})

	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterSecurityMiddlewares(app, cfg)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:              handlers.NewAuthHandler(authService, sessions, throttle),
		Reports:           handlers.NewReportsHandler(reportService, uploadService),
		Admin:             handlers.NewAdminHandler(reportService, authService),
		SessionMiddleware: sessionMiddleware,
		Guards:            guards,
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
