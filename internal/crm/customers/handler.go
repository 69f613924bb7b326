package customers

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

// Handler wires HTTP endpoints for customers.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teams/{teamID}/customers", h.list)
	r.Post("/teams/{teamID}/customers", h.create)
	r.Get("/customers/{customerID}", h.show)
	r.Put("/customers/{customerID}", h.update)
	r.Delete("/customers/{customerID}", h.remove)
}

type customerRequest struct {
	Name  string `json:"name" validate:"required,max=300"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=40"`
	Notes string `json:"notes" validate:"max=10000"`
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
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, meta, err := h.service.ListPage(r.Context(), id, teamID, page, perPage)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": list, "pagination": meta})
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
	c, err := h.service.Create(r.Context(), id, teamID, Input(req))
	if err != nil {
		h.logger.Error("create customer", slog.Any("error", err), slog.Int64("team_id", teamID))
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	customerID, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), id, customerID)
	if err != nil {
		h.respondCustomerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	customerID, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	c, err := h.service.Update(r.Context(), id, customerID, Input(req))
	if err != nil {
		h.respondCustomerError(w, err)
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
	customerID, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, customerID); err != nil {
		h.respondCustomerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (customerRequest, bool) {
	var req customerRequest
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

func (h *Handler) respondCustomerError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "customer not found")
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
