package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

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
	"github.com/thejar/jar/internal/profiles"
	"github.com/thejar/jar/internal/projects"
	"github.com/thejar/jar/internal/rocks"
	"github.com/thejar/jar/internal/shared"
	"github.com/thejar/jar/internal/signals"
	"github.com/thejar/jar/internal/teams"
	"github.com/thejar/jar/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Identity       authz.Middleware

	AuthHandler        *auth.Handler
	OrgsHandler        *orgs.Handler
	TeamsHandler       *teams.Handler
	ProfilesHandler    *profiles.Handler
	RocksHandler       *rocks.Handler
	ProjectsHandler    *projects.Handler
	CustomersHandler   *customers.Handler
	EngagementsHandler *engagements.Handler
	CommitmentsHandler *commitments.Handler
	SignalsHandler     *signals.Handler
	IssuesHandler      *issues.Handler
	VendorsHandler     *vendors.Handler
	BidsHandler        *bids.Handler
	MilestonesHandler  *milestones.Handler
	AssetsHandler      *assets.Handler
	DashboardHandler   *dashboard.Handler

	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Identity:       params.Identity,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	params.AuthHandler.MountRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(params.Identity.RequireUser)

		params.OrgsHandler.MountRoutes(r)
		params.TeamsHandler.MountRoutes(r)
		params.ProfilesHandler.MountRoutes(r)
		params.RocksHandler.MountRoutes(r)
		params.ProjectsHandler.MountRoutes(r)
		params.CustomersHandler.MountRoutes(r)
		params.EngagementsHandler.MountRoutes(r)
		params.CommitmentsHandler.MountRoutes(r)
		params.SignalsHandler.MountRoutes(r)
		params.IssuesHandler.MountRoutes(r)
		params.VendorsHandler.MountRoutes(r)
		params.BidsHandler.MountRoutes(r)
		params.MilestonesHandler.MountRoutes(r)
		params.AssetsHandler.MountRoutes(r)
		params.DashboardHandler.MountRoutes(r)

		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
