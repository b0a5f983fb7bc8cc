package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/opsdesk/helpdesk/internal/api/http"
	"github.com/opsdesk/helpdesk/internal/api/http/handlers"
	"github.com/opsdesk/helpdesk/internal/auth"
	"github.com/opsdesk/helpdesk/internal/config"
	"github.com/opsdesk/helpdesk/internal/events"
	"github.com/opsdesk/helpdesk/internal/identity"
	"github.com/opsdesk/helpdesk/internal/observability"
	"github.com/opsdesk/helpdesk/internal/persistence"
	"github.com/opsdesk/helpdesk/internal/repository"
	"github.com/opsdesk/helpdesk/internal/service"
	"github.com/opsdesk/helpdesk/internal/storage"
	"github.com/opsdesk/helpdesk/internal/worker"
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
	ticketRepo := repository.NewTicketRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	clientRepo := repository.NewClientRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	credentialRepo := repository.NewCredentialRepository(pool)

	provider := identity.NewJWTProvider(cfg.Auth, credentialRepo)
	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		ProfileRepo: profileRepo,
		Dispatcher:  dispatcher,
		Cache:       redis,
		StatsTTL:    cfg.Cache.StatsTTL(),
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(notificationRepo, dispatcher, logger)
	accountService := service.NewAccountService(profileRepo, provider, logger)
	adminService := service.NewAdminService(service.AdminDependencies{
		ProfileRepo: profileRepo,
		ClientRepo:  clientRepo,
		Provider:    provider,
		Logger:      logger,
	})

	store, err := storage.NewLocalStore(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init attachment store", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(provider, profileRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Storage.MaxFileMB * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Accounts:       handlers.NewAccountsHandler(accountService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Uploads:        handlers.NewUploadsHandler(store, logger),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: authMiddleware,
	})

	worker.StartNotificationWorker(notificationService)

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
