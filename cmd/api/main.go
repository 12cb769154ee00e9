package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-ticket-service/internal/api/http"
	"github.com/spec-kit/sla-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/sla-ticket-service/internal/config"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/observability"
	"github.com/spec-kit/sla-ticket-service/internal/persistence"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
	"github.com/spec-kit/sla-ticket-service/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		ticketRepo   repository.TicketRepository
		activityRepo repository.ActivityLogRepository
	)
	if pg.Enabled() {
		ticketRepo = repository.NewTicketRepository(pg.PoolHandle())
		activityRepo = repository.NewActivityLogRepository(pg.PoolHandle())
	} else {
		ticketRepo = repository.NewMemoryTicketRepository()
		activityRepo = repository.NewMemoryActivityLogRepository()
	}
	ticketRepo = repository.NewCachedTicketRepository(ticketRepo, redis.ClientHandle(), cfg.SLA.CacheTTL(), logger)

	policy, err := cfg.SLA.Policy()
	if err != nil {
		logger.Fatal("invalid sla policy", zap.Error(err))
	}
	engine := sla.NewEngine(policy)
	deadlines := service.DeadlineLocked
	if cfg.SLA.RecomputeOnPriorityEdit {
		deadlines = service.DeadlineRecompute
	}
	logger.Info("sla policy loaded",
		zap.Any("minutes", policy.Table()),
		zap.Bool("recompute_on_priority_change", cfg.SLA.RecomputeOnPriorityEdit))

	metrics := observability.NewMetrics()
	notifications := worker.NewNotificationWorker(events.NewInMemoryDispatcher(), 0, logger)
	service.NewNotificationService(notifications, logger, cfg.Notification).RegisterHandlers()
	notifications.Start()
	defer notifications.Stop()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		ActivityRepo:   activityRepo,
		Dispatcher:     notifications,
		Engine:         engine,
		DeadlinePolicy: deadlines,
		Logger:         logger,
	})
	slaService := service.NewSLAService(engine, ticketRepo, metrics)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets: handlers.NewTicketsHandler(ticketService, slaService),
		SLA:     handlers.NewSLAHandler(slaService),
		Metrics: metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
