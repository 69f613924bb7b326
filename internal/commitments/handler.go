package commitments

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

// Handler wires HTTP endpoints for commitments.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teams/{teamID}/commitments", h.list)
	r.Post("/teams/{teamID}/commitments", h.create)
	r.Put("/commitments/{commitmentID}", h.update)
	r.Put("/commitments/{commitmentID}/done", h.setDone)
	r.Delete("/commitments/{commitmentID}", h.remove)
}

type createCommitmentRequest struct {
	Title     string `json:"title" validate:"required,max=300"`
	WeekStart string `json:"week_start" validate:"omitempty,datetime=2006-01-02"`
	RockID    *int64 `json:"rock_id" validate:"omitempty,gt=0"`
}

type updateCommitmentRequest struct {
	Title  string `json:"title" validate:"required,max=300"`
	RockID *int64 `json:"rock_id" validate:"omitempty,gt=0"`
}

type doneRequest struct {
	Done bool `json:"done"`
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
	at := time.Now()
	if week := r.URL.Query().Get("week"); week != "" {
		parsed, err := time.Parse("2006-01-02", week)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "week must be YYYY-MM-DD")
			return
		}
		at = parsed
	}
	list, err := h.service.ListWeek(r.Context(), id, teamID, at)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"commitments": list, "week_start": WeekStartOf(at)})
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
	var req createCommitmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var weekStart time.Time
	if req.WeekStart != "" {
		weekStart, _ = time.Parse("2006-01-02", req.WeekStart)
	}
	c, err := h.service.Create(r.Context(), id, teamID, req.Title, weekStart, req.RockID)
	if err != nil {
		h.logger.Error("create commitment", slog.Any("error", err), slog.Int64("team_id", teamID))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	commitmentID, ok := pathID(w, r, "commitmentID")
	if !ok {
		return
	}
	var req updateCommitmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Update(r.Context(), id, commitmentID, req.Title, req.RockID)
	if err != nil {
		h.respondCommitmentError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) setDone(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	commitmentID, ok := pathID(w, r, "commitmentID")
	if !ok {
		return
	}
	var req doneRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	c, err := h.service.SetDone(r.Context(), id, commitmentID, req.Done)
	if err != nil {
		h.respondCommitmentError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	commitmentID, ok := pathID(w, r, "commitmentID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, commitmentID); err != nil {
		h.respondCommitmentError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondCommitmentError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "commitment not found")
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
