package issues

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

// Handler wires HTTP endpoints for issues.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teams/{teamID}/issues", h.list)
	r.Post("/teams/{teamID}/issues", h.create)
	r.Get("/issues/{issueID}", h.show)
	r.Put("/issues/{issueID}", h.update)
	r.Delete("/issues/{issueID}", h.remove)
}

type issueRequest struct {
	Title       string `json:"title" validate:"required,max=300"`
	Description string `json:"description" validate:"max=10000"`
	Status      string `json:"status" validate:"omitempty,oneof=open in_progress resolved"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

func (r issueRequest) input() Input {
	return Input{
		Title:       r.Title,
		Description: r.Description,
		Status:      Status(r.Status),
		Priority:    Priority(r.Priority),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	teamID, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	status := Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid status filter")
		return
	}
	list, err := h.service.ListForTeam(r.Context(), id, teamID, status)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"issues": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	teamID, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	issue, err := h.service.Create(r.Context(), id, teamID, req.input())
	if err != nil {
		h.logger.Error("create issue", slog.Any("error", err), slog.Int64("team_id", teamID))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, issue)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	issueID, ok := pathID(w, r, "issueID")
	if !ok {
		return
	}
	issue, err := h.service.Get(r.Context(), id, issueID)
	if err != nil {
		h.respondIssueError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, issue)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	issueID, ok := pathID(w, r, "issueID")
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	issue, err := h.service.Update(r.Context(), id, issueID, req.input())
	if err != nil {
		h.respondIssueError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, issue)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	issueID, ok := pathID(w, r, "issueID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, issueID); err != nil {
		h.respondIssueError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (issueRequest, bool) {
	var req issueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) respondIssueError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "issue not found")
		return
	}
	authz.Respond(w, err)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
