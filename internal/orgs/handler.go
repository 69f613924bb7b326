package orgs

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

// Handler wires HTTP endpoints for org management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers org routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orgs", h.list)
	r.Post("/orgs", h.create)
	r.Get("/orgs/{orgID}", h.show)
	r.Get("/orgs/{orgID}/admins", h.listAdmins)
	r.Post("/orgs/{orgID}/admins", h.grantAdmin)
	r.Delete("/orgs/{orgID}/admins/{userID}", h.revokeAdmin)
}

type createOrgRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type grantAdminRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	list, err := h.service.List(r.Context(), id)
	if err != nil {
		h.logger.Error("list orgs", slog.Any("error", err))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orgs": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	var req createOrgRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	org, err := h.service.Create(r.Context(), id, req.Name)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "an org with that name already exists")
			return
		}
		h.logger.Error("create org", slog.Any("error", err))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, org)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	org, err := h.service.Get(r.Context(), id, orgID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "org not found")
			return
		}
		h.logger.Error("get org", slog.Any("error", err), slog.Int64("org_id", orgID))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

func (h *Handler) listAdmins(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	admins, err := h.service.ListAdmins(r.Context(), id, orgID)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"admins": admins})
}

func (h *Handler) grantAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	var req grantAdminRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.GrantAdmin(r.Context(), id, orgID, req.UserID); err != nil {
		h.logger.Error("grant org admin", slog.Any("error", err), slog.Int64("org_id", orgID))
		authz.Respond(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	if err := h.service.RevokeAdmin(r.Context(), id, orgID, userID); err != nil {
		switch {
		case errors.Is(err, ErrLastAdmin):
			httpx.Problem(w, http.StatusConflict, "Conflict", "an org must retain at least one admin")
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "admin grant not found")
		default:
			h.logger.Error("revoke org admin", slog.Any("error", err), slog.Int64("org_id", orgID))
			authz.Respond(w, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) orgID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	orgID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid org id")
		return 0, false
	}
	return orgID, true
}
