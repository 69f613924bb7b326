package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/thejar/jar/internal/app"
	"github.com/thejar/jar/internal/auth"
	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/commitments"
	"github.com/thejar/jar/internal/crm/customers"
	"github.com/thejar/jar/internal/crm/engagements"
	"github.com/thejar/jar/internal/dashboard"
	"github.com/thejar/jar/internal/hoa/assets"
	"github.com/thejar/jar/internal/hoa/bids"
	"github.com/thejar/jar/internal/hoa/issues"
	"github.com/thejar/jar/internal/hoa/milestones"
	"github.com/thejar/jar/internal/hoa/vendors"
	"github.com/thejar/jar/internal/observability"
	"github.com/thejar/jar/internal/orgs"
	"github.com/thejar/jar/internal/platform/cache"
	"github.com/thejar/jar/internal/platform/db"
	"github.com/thejar/jar/internal/profiles"
	"github.com/thejar/jar/internal/projects"
	"github.com/thejar/jar/internal/rocks"
	"github.com/thejar/jar/internal/shared"
	"github.com/thejar/jar/internal/signals"
	"github.com/thejar/jar/internal/teams"
	"github.com/thejar/jar/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "jar_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)

	authzService := authz.NewService(authz.NewPGStore(pool))
	activeTeam := authz.NewActiveTeamManager(authzService, "jar_active_team", cfg.ActiveTeamTTL, cfg.IsProduction())
	identity := authz.Middleware{Logger: logger}

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	orgsService := orgs.NewService(orgs.NewRepository(pool), authzService, auditLogger)
	orgsHandler := orgs.NewHandler(logger, orgsService)

	teamsService := teams.NewService(teams.NewRepository(pool), authzService, auditLogger)
	teamsHandler := teams.NewHandler(logger, teamsService, activeTeam)

	profilesService := profiles.NewService(profiles.NewRepository(pool), authzService)
	profilesHandler := profiles.NewHandler(logger, profilesService)

	rocksRepo := rocks.NewRepository(pool)
	rocksHandler := rocks.NewHandler(logger, rocks.NewService(rocksRepo, authzService, auditLogger))

	projectsRepo := projects.NewRepository(pool)
	projectsHandler := projects.NewHandler(logger, projects.NewService(projectsRepo, authzService, auditLogger))

	customersRepo := customers.NewRepository(pool)
	customersHandler := customers.NewHandler(logger, customers.NewService(customersRepo, authzService, auditLogger))

	engagementsRepo := engagements.NewRepository(pool)
	engagementsHandler := engagements.NewHandler(logger, engagements.NewService(engagementsRepo, customersRepo, authzService, auditLogger))

	commitmentsRepo := commitments.NewRepository(pool)
	commitmentsHandler := commitments.NewHandler(logger, commitments.NewService(commitmentsRepo, authzService, auditLogger))

	signalsRepo := signals.NewRepository(pool)
	signalsHandler := signals.NewHandler(logger, signals.NewService(signalsRepo, authzService, auditLogger))

	issuesRepo := issues.NewRepository(pool)
	issuesHandler := issues.NewHandler(logger, issues.NewService(issuesRepo, authzService, auditLogger))

	vendorsRepo := vendors.NewRepository(pool)
	vendorsHandler := vendors.NewHandler(logger, vendors.NewService(vendorsRepo, authzService, auditLogger))

	bidsService := bids.NewService(bids.NewRepository(pool), issuesRepo, vendorsRepo, authzService, auditLogger)
	bidsHandler := bids.NewHandler(logger, bidsService)

	milestonesRepo := milestones.NewRepository(pool)
	milestonesHandler := milestones.NewHandler(logger, milestones.NewService(milestonesRepo, authzService, auditLogger))

	assetsRepo := assets.NewRepository(pool)
	assetsHandler := assets.NewHandler(logger, assets.NewService(assetsRepo, authzService, auditLogger))

	dashboardService := dashboard.NewService(
		authzService,
		rocksRepo,
		projectsRepo,
		customersRepo,
		engagementsRepo,
		commitmentsRepo,
		issuesRepo,
		milestonesRepo,
		signalsRepo,
	)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, activeTeam)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Identity:       identity,

		AuthHandler:        authHandler,
		OrgsHandler:        orgsHandler,
		TeamsHandler:       teamsHandler,
		ProfilesHandler:    profilesHandler,
		RocksHandler:       rocksHandler,
		ProjectsHandler:    projectsHandler,
		CustomersHandler:   customersHandler,
		EngagementsHandler: engagementsHandler,
		CommitmentsHandler: commitmentsHandler,
		SignalsHandler:     signalsHandler,
		IssuesHandler:      issuesHandler,
		VendorsHandler:     vendorsHandler,
		BidsHandler:        bidsHandler,
		MilestonesHandler:  milestonesHandler,
		AssetsHandler:      assetsHandler,
		DashboardHandler:   dashboardHandler,

		JobHandler: jobHandler,
		Metrics:    metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
