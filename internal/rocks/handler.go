package rocks

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

// Handler wires HTTP endpoints for rocks.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers rock routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teams/{teamID}/rocks", h.list)
	r.Post("/teams/{teamID}/rocks", h.create)
	r.Get("/rocks/{rockID}", h.show)
	r.Put("/rocks/{rockID}", h.update)
	r.Delete("/rocks/{rockID}", h.remove)
}

type createRockRequest struct {
	Title   string `json:"title" validate:"required,max=300"`
	Quarter string `json:"quarter" validate:"max=10"`
	Status  string `json:"status" validate:"omitempty,oneof=on_track off_track done dropped"`
}

type updateRockRequest struct {
	Title    string `json:"title" validate:"required,max=300"`
	Quarter  string `json:"quarter" validate:"max=10"`
	Status   string `json:"status" validate:"required,oneof=on_track off_track done dropped"`
	Progress int    `json:"progress" validate:"gte=0,lte=100"`
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
	list, err := h.service.ListForTeam(r.Context(), id, teamID, r.URL.Query().Get("quarter"))
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rocks": list})
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
	var req createRockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rock, err := h.service.Create(r.Context(), id, teamID, req.Title, req.Quarter, Status(req.Status))
	if err != nil {
		h.logger.Error("create rock", slog.Any("error", err), slog.Int64("team_id", teamID))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rock)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	rockID, ok := pathID(w, r, "rockID")
	if !ok {
		return
	}
	rock, err := h.service.Get(r.Context(), id, rockID)
	if err != nil {
		h.respondRockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rock)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	rockID, ok := pathID(w, r, "rockID")
	if !ok {
		return
	}
	var req updateRockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rock, err := h.service.Update(r.Context(), id, rockID, req.Title, req.Quarter, Status(req.Status), req.Progress)
	if err != nil {
		h.respondRockError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rock)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	rockID, ok := pathID(w, r, "rockID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, rockID); err != nil {
		h.respondRockError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondRockError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "rock not found")
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
