package bids

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thejar/jar/internal/authz"
	"github.com/thejar/jar/internal/hoa/issues"
	"github.com/thejar/jar/internal/hoa/vendors"
	"github.com/thejar/jar/internal/platform/httpx"
)

// Handler wires HTTP endpoints for bids.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/issues/{issueID}/bids", h.list)
	r.Post("/issues/{issueID}/bids", h.create)
	r.Put("/bids/{bidID}", h.update)
	r.Post("/bids/{bidID}/accept", h.accept)
	r.Delete("/bids/{bidID}", h.remove)
}

type createBidRequest struct {
	VendorID    int64  `json:"vendor_id" validate:"required,gt=0"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
	Notes       string `json:"notes" validate:"max=5000"`
}

type updateBidRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
	Notes       string `json:"notes" validate:"max=5000"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	issueID, ok := pathID(w, r, "issueID")
	if !ok {
		return
	}
	list, err := h.service.ListForIssue(r.Context(), id, issueID)
	if err != nil {
		authz.Respond(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bids": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	issueID, ok := pathID(w, r, "issueID")
	if !ok {
		return
	}
	var req createBidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	b, err := h.service.Create(r.Context(), id, issueID, Input{
		VendorID:    req.VendorID,
		AmountCents: req.AmountCents,
		Notes:       req.Notes,
	})
	if err != nil {
		h.logger.Error("create bid", slog.Any("error", err), slog.Int64("issue_id", issueID))
		h.respondBidError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	bidID, ok := pathID(w, r, "bidID")
	if !ok {
		return
	}
	var req updateBidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	b, err := h.service.Update(r.Context(), id, bidID, req.AmountCents, req.Notes)
	if err != nil {
		h.respondBidError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	bidID, ok := pathID(w, r, "bidID")
	if !ok {
		return
	}
	b, err := h.service.Accept(r.Context(), id, bidID)
	if err != nil {
		h.respondBidError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := authz.CurrentIdentity(r.Context())
	if err != nil {
		authz.Respond(w, err)
		return
	}
	bidID, ok := pathID(w, r, "bidID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, bidID); err != nil {
		h.respondBidError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondBidError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "bid not found")
	case errors.Is(err, issues.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "issue not found")
	case errors.Is(err, vendors.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "vendor not found")
	case errors.Is(err, ErrVendorMismatch):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
	default:
		authz.Respond(w, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
