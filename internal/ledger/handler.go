package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mesa-pos/mesa-pos/internal/platform/httpx"
	"github.com/mesa-pos/mesa-pos/internal/shared"
)

// Handler wires HTTP endpoints for the inventory ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/movements", h.applyMovement)
		r.Get("/movements", h.movementHistory)
		r.Get("/stock", h.currentStock)
	})
}

type movementRequest struct {
	BranchID int64   `json:"branch_id" validate:"required,gt=0"`
	ItemID   int64   `json:"item_id" validate:"required,gt=0"`
	Delta    float64 `json:"delta" validate:"required"`
	Type     string  `json:"type" validate:"required"`
	Note     string  `json:"note,omitempty"`
	RefID    string  `json:"ref_id,omitempty" validate:"omitempty,uuid"`
}

func (h *Handler) applyMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	stock, err := h.service.ApplyMovement(r.Context(), MovementInput{
		BranchID: req.BranchID,
		ItemID:   req.ItemID,
		Delta:    req.Delta,
		Type:     MovementType(req.Type),
		Note:     req.Note,
		RefID:    req.RefID,
		ActorID:  actor.UserID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, stock)
}

func (h *Handler) movementHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	branchID, _ := strconv.ParseInt(q.Get("branch_id"), 10, 64)
	itemID, _ := strconv.ParseInt(q.Get("item_id"), 10, 64)
	if branchID <= 0 || itemID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "branch_id and item_id are required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	filter := HistoryFilter{
		BranchID: branchID,
		ItemID:   itemID,
		Type:     MovementType(q.Get("type")),
		Limit:    limit,
	}
	if fromStr := q.Get("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid from date")
			return
		}
		filter.From = from
	}
	if toStr := q.Get("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid to date")
			return
		}
		// End of day.
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}

	movements, err := h.service.GetMovementHistory(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": movements})
}

func (h *Handler) currentStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	branchID, _ := strconv.ParseInt(q.Get("branch_id"), 10, 64)
	itemID, _ := strconv.ParseInt(q.Get("item_id"), 10, 64)
	if branchID <= 0 || itemID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "branch_id and item_id are required")
		return
	}
	qty, err := h.service.GetCurrentQuantity(r.Context(), branchID, itemID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"branch_id": branchID,
		"item_id":   itemID,
		"quantity":  qty,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var negative *NegativeStockError
	switch {
	case errors.As(err, &negative):
		httpx.Problem(w, http.StatusConflict, "Negative Stock", err.Error())
	case errors.Is(err, ErrInvalidMovementType), errors.Is(err, ErrInvalidDelta):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrStockNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("ledger request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
