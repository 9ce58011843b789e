package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardfleet/internal/fulfillment/models"
	id "cardfleet/pkg/domain"
	"cardfleet/pkg/platform/httputil"
	"cardfleet/pkg/requestcontext"
)

// Service defines the fulfillment operations the handler needs.
type Service interface {
	List(ctx context.Context) ([]models.RequestDetails, error)
	UpdateStatus(ctx context.Context, requestID id.RequestID, status models.RequestStatus, notes string) (*models.FulfillmentRequest, error)
}

// Handler wires fulfillment endpoints to the fulfillment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a fulfillment handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts fulfillment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/requests", h.HandleList)
	r.Post("/admin/requests/{requestID}/status", h.HandleUpdateStatus)
}

// UpdateStatusRequest moves a request through the shipment workflow.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// HandleList handles GET /admin/requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// HandleUpdateStatus handles POST /admin/requests/{requestID}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	reqID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger)
	if !ok {
		return
	}
	status, err := models.ParseRequestStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.UpdateStatus(ctx, reqID, status, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "request transition rejected",
			"request_id", requestID,
			"fulfillment_id", reqID,
			"status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}
