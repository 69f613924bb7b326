package milestones

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/platform/httpx"
)

// Handler wires HTTP endpoints for milestones.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teams/{teamID}/milestones", h.list)
	r.Post("/teams/{teamID}/milestones", h.create)
	r.Put("/milestones/{milestoneID}", h.update)
	r.Delete("/milestones/{milestoneID}", h.remove)
}

type milestoneRequest struct {
	IssueID   *int64 `json:"issue_id" validate:"omitempty,gt=0"`
	Title     string `json:"title" validate:"required,max=300"`
	DueDate   string `json:"due_date" validate:"required,datetime=2006-01-02"`
	Completed bool   `json:"completed"`
}

func (r milestoneRequest) input() Input {
	due, _ := time.Parse("2006-01-02", r.DueDate)
	return Input{IssueID: r.IssueID, Title: r.Title, DueDate: due, Completed: r.Completed}
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
	list, err := h.service.ListForTeam(r.Context(), id, teamID)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"milestones": list})
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
	m, err := h.service.Create(r.Context(), id, teamID, req.input())
	if err != nil {
		h.logger.Error("create milestone", slog.Any("error", err), slog.Int64("team_id", teamID))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	milestoneID, ok := pathID(w, r, "milestoneID")
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	m, err := h.service.Update(r.Context(), id, milestoneID, req.input())
	if err != nil {
		h.respondMilestoneError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	milestoneID, ok := pathID(w, r, "milestoneID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, milestoneID); err != nil {
		h.respondMilestoneError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (milestoneRequest, bool) {
	var req milestoneRequest
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

func (h *Handler) respondMilestoneError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "milestone not found")
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
