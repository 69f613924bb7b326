package teams

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/platform/httpx"
)

// Handler wires HTTP endpoints for team and membership management.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	activeTeam *authz.ActiveTeamManager
	validator  *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, activeTeam *authz.ActiveTeamManager) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		activeTeam: activeTeam,
		validator:  validator.New(),
	}
}

// MountRoutes registers team routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teams", h.listMine)
	r.Post("/teams", h.create)
	r.Get("/teams/active", h.showActive)
	r.Put("/teams/active", h.selectActive)
	r.Get("/teams/{teamID}", h.show)
	r.Put("/teams/{teamID}", h.update)
	r.Get("/teams/{teamID}/members", h.listMembers)
	r.Post("/teams/{teamID}/members", h.addMember)
	r.Put("/teams/{teamID}/members/{userID}", h.changeRole)
	r.Delete("/teams/{teamID}/members/{userID}", h.removeMember)
}

type createTeamRequest struct {
	OrgID       int64  `json:"org_id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type updateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type memberRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Role   string `json:"role" validate:"required,oneof=member manager"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=member manager"`
}

type selectTeamRequest struct {
	TeamID int64 `json:"team_id" validate:"required,gt=0"`
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	list, err := h.service.ListMine(r.Context(), id)
	if err != nil {
		h.logger.Error("list teams", slog.Any("error", err))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"teams": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	var req createTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	team, err := h.service.Create(r.Context(), id, req.OrgID, req.Name, req.Description)
	if err != nil {
		h.logger.Error("create team", slog.Any("error", err), slog.Int64("org_id", req.OrgID))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, team)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	teamID, ok := h.teamID(w, r)
	if !ok {
		return
	}
	team, err := h.service.Get(r.Context(), id, teamID)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	teamID, ok := h.teamID(w, r)
	if !ok {
		return
	}
	var req updateTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	team, err := h.service.Update(r.Context(), id, teamID, req.Name, req.Description)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (h *Handler) showActive(w http.ResponseWriter, r *http.Request) {
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
	httpx.JSON(w, http.StatusOK, resolvedPayload(resolved))
}

func (h *Handler) selectActive(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	var req selectTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	resolved, err := h.activeTeam.Set(r.Context(), w, id, req.TeamID)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resolvedPayload(resolved))
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	teamID, ok := h.teamID(w, r)
	if !ok {
		return
	}
	members, err := h.service.ListMembers(r.Context(), id, teamID)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	teamID, ok := h.teamID(w, r)
	if !ok {
		return
	}
	var req memberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.AddMember(r.Context(), id, teamID, req.UserID, authz.Role(req.Role)); err != nil {
		h.logger.Error("add member", slog.Any("error", err), slog.Int64("team_id", teamID))
		authz.Respond(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	teamID, ok := h.teamID(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ChangeRole(r.Context(), id, teamID, userID, authz.Role(req.Role)); err != nil {
		h.respondMembershipError(w, err, teamID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	teamID, ok := h.teamID(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveMember(r.Context(), id, teamID, userID); err != nil {
		h.respondMembershipError(w, err, teamID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondMembershipError(w http.ResponseWriter, err error, teamID int64) {
	switch {
	case errors.Is(err, ErrLastManager):
		httpx.Problem(w, http.StatusConflict, "Conflict", "a team must retain at least one manager")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "membership not found")
	default:
		h.logger.Error("membership mutation", slog.Any("error", err), slog.Int64("team_id", teamID))
		authz.Respond(w, err)
	}
}

func (h *Handler) teamID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
	if err != nil || teamID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid team id")
		return 0, false
	}
	return teamID, true
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return 0, false
	}
	return userID, true
}

func resolvedPayload(resolved authz.ResolvedTeam) map[string]any {
	return map[string]any{
		"team": map[string]any{
			"id":     resolved.Team.ID,
			"org_id": resolved.Team.OrgID,
			"name":   resolved.Team.Name,
		},
		"role":           resolved.Access.Role,
		"is_org_admin":   resolved.Access.IsOrgAdmin,
		"has_membership": resolved.Access.HasMembership,
	}
}
