package assets

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

// Handler wires HTTP endpoints for assets.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teams/{teamID}/assets", h.list)
	r.Post("/teams/{teamID}/assets", h.create)
	r.Get("/assets/{assetID}", h.show)
	r.Put("/assets/{assetID}", h.update)
	r.Delete("/assets/{assetID}", h.remove)
}

type assetRequest struct {
	Name            string `json:"name" validate:"required,max=300"`
	PurchaseDate    string `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	ReplacementDate string `json:"replacement_date" validate:"omitempty,datetime=2006-01-02"`
	Notes           string `json:"notes" validate:"max=10000"`
}

func (r assetRequest) input() Input {
	in := Input{Name: r.Name, Notes: r.Notes}
	if r.PurchaseDate != "" {
		if d, err := time.Parse("2006-01-02", r.PurchaseDate); err == nil {
			in.PurchaseDate = &d
		}
	}
	if r.ReplacementDate != "" {
		if d, err := time.Parse("2006-01-02", r.ReplacementDate); err == nil {
			in.ReplacementDate = &d
		}
	}
	return in
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
	httpx.JSON(w, http.StatusOK, map[string]any{"assets": list})
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
	a, err := h.service.Create(r.Context(), id, teamID, req.input())
	if err != nil {
		h.logger.Error("create asset", slog.Any("error", err), slog.Int64("team_id", teamID))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	assetID, ok := pathID(w, r, "assetID")
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id, assetID)
	if err != nil {
		h.respondAssetError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	assetID, ok := pathID(w, r, "assetID")
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	a, err := h.service.Update(r.Context(), id, assetID, req.input())
	if err != nil {
		h.respondAssetError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	assetID, ok := pathID(w, r, "assetID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, assetID); err != nil {
		h.respondAssetError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (assetRequest, bool) {
	var req assetRequest
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

func (h *Handler) respondAssetError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "asset not found")
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
