package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/thejar/jar/internal/app"
	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/commitments"
	jobmetrics "github.com/thejar/jar/internal/jobs"
	"github.com/thejar/jar/internal/platform/db"
	"github.com/thejar/jar/internal/shared"
	"github.com/thejar/jar/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool)
	authzService := authz.NewService(authz.NewPGStore(pool))
	commitmentsService := commitments.NewService(commitments.NewRepository(pool), authzService, auditLogger)

	metrics := jobmetrics.NewMetrics(nil)

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	rolloverJob := jobs.NewCommitmentsRolloverJob(commitmentsService, logger, metrics)
	cleanupJob := jobs.NewAuditCleanupJob(auditLogger, logger, metrics)
	digestJob := jobs.NewWeeklyDigestJob(pool, client, logger, metrics)

	rolloverTask, err := jobs.NewCommitmentsRolloverTask()
	if err != nil {
		logger.Error("build rollover task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewAuditCleanupTask(int(cfg.AuditRetention.Hours()))
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}
	digestTask, err := jobs.NewWeeklyDigestTask()
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCommitmentsRollover, Handler: rolloverJob.Handle},
			{Type: jobs.TaskAuditCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskWeeklyDigest, Handler: digestJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "10 0 * * 1", Task: rolloverTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 6 * * 1", Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
