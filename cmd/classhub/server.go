package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/coder/serpent"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/classhub/classhub/internal/app"
	"github.com/classhub/classhub/internal/auth"
	"github.com/classhub/classhub/internal/classroom"
	jobmetrics "github.com/classhub/classhub/internal/jobs"
	"github.com/classhub/classhub/internal/observability"
	"github.com/classhub/classhub/internal/platform/cache"
	"github.com/classhub/classhub/internal/platform/db"
	"github.com/classhub/classhub/internal/rbac"
	"github.com/classhub/classhub/internal/users"
	"github.com/classhub/classhub/internal/whitelist"
	"github.com/classhub/classhub/jobs"
)

func serverCommand() *serpent.Command {
	var withWorker bool
	return &serpent.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		Options: serpent.OptionSet{
			{
				Name:        "with-worker",
				Description: "Also process background jobs in this process.",
				Flag:        "with-worker",
				Env:         "CLASSHUB_WITH_WORKER",
				Value:       serpent.BoolOf(&withWorker),
			},
		},
		Handler: func(inv *serpent.Invocation) error {
			ctx, stop := signal.NotifyContext(inv.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, withWorker)
		},
	}
}

func runServer(ctx context.Context, withWorker bool) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	clock := quartz.NewReal()
	metrics := observability.NewMetrics()

	revocations := auth.NewRevocationStore(redisClient, "", clock)
	tokens, err := auth.NewJWTManager(auth.JWTConfig{
		Secret:      cfg.JWTSecret,
		Issuer:      cfg.JWTIssuer,
		TTL:         cfg.JWTTTL,
		Clock:       clock,
		Revocations: revocations,
	})
	if err != nil {
		return err
	}
	authService := auth.NewService(auth.NewRepository(dbpool), tokens, revocations)
	authHandler := auth.NewHandler(logger, authService, cfg.LoginRatePerMinute)

	userRepo := users.NewRepository(dbpool)
	whitelistRepo := whitelist.NewRepository(dbpool)

	rbacMiddleware := rbac.Middleware{
		Guard:         rbac.NewGuard(userRepo, rbac.NewResolver(whitelistRepo, clock, logger)),
		Logger:        logger,
		Metrics:       rbac.NewMetrics(metrics.Registerer()),
		ExposeDetails: cfg.ExposeDenialDetails(),
	}

	whitelistService := whitelist.NewService(whitelistRepo, clock, logger)

	inspector := asynq.NewInspector(cfg.AsynqRedis())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Authenticator:      auth.Authenticator{Verifier: tokens, Logger: logger},
		Metrics:            metrics,
		RBAC:               rbacMiddleware,
		AuthHandler:        authHandler,
		UsersHandler:       users.NewHandler(logger, users.NewService(userRepo), rbacMiddleware),
		WhitelistHandler:   whitelist.NewHandler(logger, whitelistService, rbacMiddleware),
		ClassroomHandler:   classroom.NewHandler(logger, classroom.NewRepository(dbpool), rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacMiddleware),
		JobHandler:         jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if withWorker {
		cron, err := jobs.WhitelistSweepCron(cfg.WhitelistSweepCron)
		if err != nil {
			return err
		}
		sweep := jobs.NewWhitelistSweepJob(whitelistService, logger, jobmetrics.NewMetrics(metrics.Registerer()))
		worker, err := jobs.NewWorker(jobs.WorkerConfig{
			RedisOpts:   cfg.AsynqRedis(),
			Concurrency: cfg.JobsConcurrency,
			Logger:      logger,
			Handlers:    []jobs.TaskHandler{{Type: jobs.TaskWhitelistSweep, Handler: sweep.Handle}},
			Cron:        cron,
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		return err
	}
	return nil
}
