package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardfleet/internal/cards/models"
	"cardfleet/internal/cards/service"
	id "cardfleet/pkg/domain"
	dErrors "cardfleet/pkg/domain-errors"
	"cardfleet/pkg/platform/httputil"
	"cardfleet/pkg/requestcontext"
)

// Service defines the card operations the handler needs.
type Service interface {
	VerifyCard(ctx context.Context, serial string) (service.Verification, error)
	CreateBatch(ctx context.Context, serials []string, batchID string) ([]*models.Card, error)
	GenerateBatch(ctx context.Context, prefix string, count int) ([]*models.Card, error)
	BulkAssign(ctx context.Context, mappings []service.AssignmentMapping) ([]service.AssignmentResult, error)
	PlanAssignments(ctx context.Context, vehicleIDs []id.VehicleID) ([]service.AssignmentMapping, error)
	UpdateCard(ctx context.Context, cardID id.CardID, patch service.CardPatch) (*models.Card, error)
	DeleteCard(ctx context.Context, cardID id.CardID) error
	UnlinkCard(ctx context.Context, serial string) error
	AvailableCards(ctx context.Context) ([]*models.Card, error)
}

// Reconciler builds the inventory view. Separate from Service so the
// caching decorator slots in transparently.
type Reconciler interface {
	Inventory(ctx context.Context) ([]models.InventoryRow, error)
}

// Handler wires card endpoints to the card service.
type Handler struct {
	service    Service
	reconciler Reconciler
	logger     *slog.Logger
}

// New constructs a card handler with its dependencies.
func New(service Service, reconciler Reconciler, logger *slog.Logger) *Handler {
	return &Handler{service: service, reconciler: reconciler, logger: logger}
}

// Register mounts card endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/cards/verify", h.HandleVerify)
	r.Post("/admin/cards/batches", h.HandleCreateBatch)
	r.Post("/admin/cards/bulk-assign", h.HandleBulkAssign)
	r.Post("/admin/cards/unlink", h.HandleUnlink)
	r.Get("/admin/cards/available", h.HandleAvailable)
	r.Get("/admin/cards/inventory", h.HandleInventory)
	r.Patch("/admin/cards/{cardID}", h.HandleUpdate)
	r.Delete("/admin/cards/{cardID}", h.HandleDelete)
}

// HandleVerify handles POST /admin/cards/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[VerifyCardRequest](w, r, h.logger)
	if !ok {
		return
	}

	verification, err := h.service.VerifyCard(ctx, req.SerialNumber)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verification)
}

// HandleCreateBatch handles POST /admin/cards/batches.
func (h *Handler) HandleCreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateBatchRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	var (
		cards []*models.Card
		err   error
	)
	if req.Count > 0 {
		cards, err = h.service.GenerateBatch(ctx, req.Prefix, req.Count)
	} else {
		cards, err = h.service.CreateBatch(ctx, req.Serials, req.BatchID)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "create batch failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"cards": cards})
}

// HandleBulkAssign handles POST /admin/cards/bulk-assign.
func (h *Handler) HandleBulkAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BulkAssignRequest](w, r, h.logger)
	if !ok {
		return
	}

	mappings, err := req.ParsedMappings()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if len(mappings) == 0 {
		vehicleIDs, err := req.ParsedVehicleIDs()
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if len(vehicleIDs) == 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "provide mappings or vehicle_ids"))
			return
		}
		mappings, err = h.service.PlanAssignments(ctx, vehicleIDs)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	results, err := h.service.BulkAssign(ctx, mappings)
	if err != nil {
		h.logger.ErrorContext(ctx, "bulk assign failed",
			"request_id", requestID,
			"pairs", len(mappings),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

// HandleUnlink handles POST /admin/cards/unlink.
func (h *Handler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[UnlinkCardRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.UnlinkCard(ctx, req.SerialNumber); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAvailable handles GET /admin/cards/available.
func (h *Handler) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.AvailableCards(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

// HandleInventory handles GET /admin/cards/inventory.
func (h *Handler) HandleInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := h.reconciler.Inventory(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "inventory build failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"inventory": rows})
}

// HandleUpdate handles PATCH /admin/cards/{cardID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateCardRequest](w, r, h.logger)
	if !ok {
		return
	}
	patch, err := req.ParsedPatch()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	card, err := h.service.UpdateCard(ctx, cardID, patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, card)
}

// HandleDelete handles DELETE /admin/cards/{cardID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteCard(r.Context(), cardID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
