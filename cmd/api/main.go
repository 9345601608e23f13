package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/servicedesk/internal/api/http"
	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/cache"
	"github.com/spec-kit/servicedesk/internal/clock"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/worker"
)

func main() {
	root := &cli.Command{
		Name:  "servicedesk",
		Usage: "Hospital service desk ticketing backend",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return runServer(ctx, "", "")
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bootstrap-admin-email", Usage: "initial admin email when no user exists"},
			&cli.StringFlag{Name: "bootstrap-admin-password", Usage: "initial admin password when no user exists"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, c.String("bootstrap-admin-email"), c.String("bootstrap-admin-password"))
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit",
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pg, err := connectPostgres(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer pg.Close()
			return persistence.RunMigrations(ctx, pg.PoolHandle(), logger)
		},
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func connectPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*persistence.Postgres, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if pg.PoolHandle() == nil {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	return pg, nil
}

func runServer(ctx context.Context, bootstrapEmail, bootstrapPassword string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pg, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return err
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(metrics)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	areaRepo := repository.NewAreaRepository(pool)
	slaRepo := repository.NewSLARepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	workflowRepo := cache.NewWorkflowCache(repository.NewWorkflowRepository(pool), redis.Client, cfg.Redis.WorkflowCacheTTL(), logger)

	base := service.Base{
		Clock:      clock.System(),
		Audit:      auditRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	userService := service.NewUserService(cfg.Auth, service.UserDependencies{Base: base, UserRepo: userRepo})
	areaService := service.NewAreaService(service.AreaDependencies{Base: base, AreaRepo: areaRepo, TicketRepo: ticketRepo})
	slaService := service.NewSLAService(service.SLADependencies{Base: base, AreaRepo: areaRepo, SLARepo: slaRepo})
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{Base: base, AreaRepo: areaRepo, WorkflowRepo: workflowRepo})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Base:         base,
		TicketRepo:   ticketRepo,
		AreaRepo:     areaRepo,
		SLARepo:      slaRepo,
		WorkflowRepo: workflowRepo,
	})
	metricsService := service.NewMetricsService(base, ticketRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, cfg.App.Name)
	publisher := events.NewRedisPublisher(redis.Client, redis.EventsChannel, cfg.App.Name)
	worker.StartNotificationWorker(dispatcher, notificationService, publisher, logger)

	if bootstrapEmail != "" && bootstrapPassword != "" {
		if _, err := userService.BootstrapAdmin(ctx, bootstrapEmail, bootstrapPassword); err != nil {
			return err
		}
	}

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics,
			handlers.DependencyCheck{Name: "postgres", Ping: pg.Ping},
			handlers.DependencyCheck{Name: "redis", Ping: redis.Ping},
		),
		Users:          handlers.NewUsersHandler(userService),
		Areas:          handlers.NewAreasHandler(areaService, slaService),
		Workflows:      handlers.NewWorkflowsHandler(workflowService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Reports:        handlers.NewReportsHandler(metricsService),
		AuthMiddleware: auth.NewAuthMiddleware(userService.TokenManager(), userRepo),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	return app.Shutdown()
}
