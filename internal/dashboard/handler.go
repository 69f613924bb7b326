package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/platform/httpx"
)

// Handler serves the dashboard summary for the caller's active team.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	activeTeam *authz.ActiveTeamManager
}

func NewHandler(logger *slog.Logger, service *Service, activeTeam *authz.ActiveTeamManager) *Handler {
	return &Handler{logger: logger, service: service, activeTeam: activeTeam}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.summary)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	resolved, err := h.activeTeam.Resolve(r.Context(), w, r, id)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	summary, err := h.service.Summarize(r.Context(), id, resolved.Team.ID)
	if err != nil {
		h.logger.Error("dashboard summary", slog.Any("error", err), slog.Int64("team_id", resolved.Team.ID))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
