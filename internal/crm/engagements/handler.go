package engagements

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/crm/customers"
	"github.com/thejar/jar/internal/platform/httpx"
)

// Handler wires HTTP endpoints for engagements.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teams/{teamID}/engagements", h.listForTeam)
	r.Get("/customers/{customerID}/engagements", h.listForCustomer)
	r.Post("/customers/{customerID}/engagements", h.create)
	r.Get("/engagements/{engagementID}", h.show)
	r.Put("/engagements/{engagementID}", h.update)
	r.Delete("/engagements/{engagementID}", h.remove)
}

type engagementRequest struct {
	Title  string `json:"title" validate:"required,max=300"`
	Notes  string `json:"notes" validate:"max=10000"`
	Status string `json:"status" validate:"omitempty,oneof=lead active closed"`
}

func (r engagementRequest) input() Input {
	return Input{Title: r.Title, Notes: r.Notes, Status: Status(r.Status)}
}

func (h *Handler) listForTeam(w http.ResponseWriter, r *http.Request) {
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
	httpx.JSON(w, http.StatusOK, map[string]any{"engagements": list})
}

func (h *Handler) listForCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	customerID, ok := pathID(w, r, "customerID")
	if !ok {
		return
	}
	list, err := h.service.ListForCustomer(r.Context(), id, customerID)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"engagements": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
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
	e, err := h.service.Create(r.Context(), id, customerID, req.input())
	if err != nil {
		h.logger.Error("create engagement", slog.Any("error", err), slog.Int64("customer_id", customerID))
		h.respondEngagementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

// show includes a can_edit flag so the client knows whether to offer edit
// controls without a second round trip.
func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	engagementID, ok := pathID(w, r, "engagementID")
	if !ok {
		return
	}
	e, err := h.service.Get(r.Context(), id, engagementID)
	if err != nil {
		h.respondEngagementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"engagement": e,
		"can_edit":   h.service.CanEdit(r.Context(), id, engagementID),
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	engagementID, ok := pathID(w, r, "engagementID")
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	e, err := h.service.Update(r.Context(), id, engagementID, req.input())
	if err != nil {
		h.respondEngagementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	engagementID, ok := pathID(w, r, "engagementID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, engagementID); err != nil {
		h.respondEngagementError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (engagementRequest, bool) {
	var req engagementRequest
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

func (h *Handler) respondEngagementError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "engagement not found")
		return
	}
	if errors.Is(err, customers.ErrNotFound) {
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
