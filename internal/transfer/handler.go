package transfer

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mesa-pos/mesa-pos/internal/ledger"
	"github.com/mesa-pos/mesa-pos/internal/platform/httpx"
	"github.com/mesa-pos/mesa-pos/internal/shared"
)

// Handler wires HTTP endpoints for stock requests and transfers.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs transfer handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers request and transfer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/stock-requests", func(r chi.Router) {
		r.Post("/", h.createRequest)
		r.Get("/", h.listRequests)
		r.Get("/number/{number}", h.getRequestByNumber)
		r.Get("/{id}", h.getRequest)
		r.Get("/{id}/transfer", h.getRequestTransfer)
		r.Post("/{id}/submit", h.submitRequest)
		r.Post("/{id}/approve", h.approveRequest)
		r.Post("/{id}/reject", h.rejectRequest)
		r.Post("/{id}/cancel", h.cancelRequest)
	})
	r.Route("/stock-transfers", func(r chi.Router) {
		r.Get("/{id}", h.getTransfer)
		r.Post("/{id}/deliver", h.markDelivering)
		r.Post("/{id}/receive", h.recordReceipt)
		r.Post("/{id}/reject", h.rejectTransfer)
	})
}

type requestLine struct {
	ItemID   int64   `json:"item_id" validate:"required,gt=0"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Unit     string  `json:"unit,omitempty"`
	Priority int     `json:"priority,omitempty" validate:"gte=0"`
}

type createRequestRequest struct {
	OriginID      int64         `json:"origin_id" validate:"required,gt=0"`
	DestinationID int64         `json:"destination_id" validate:"required,gt=0"`
	RequiredDate  string        `json:"required_date,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	Items         []requestLine `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var req createRequestRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateRequestInput{
		OriginID:      req.OriginID,
		DestinationID: req.DestinationID,
		Notes:         req.Notes,
	}
	if req.RequiredDate != "" {
		date, err := time.Parse("2006-01-02", req.RequiredDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid required_date")
			return
		}
		input.RequiredDate = date
	}
	for _, line := range req.Items {
		input.Lines = append(input.Lines, RequestLineInput{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			Unit:     line.Unit,
			Priority: line.Priority,
		})
	}

	created, err := h.service.CreateRequest(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := RequestFilter{
		Status: RequestStatus(q.Get("status")),
	}
	filter.OriginID, _ = strconv.ParseInt(q.Get("origin_id"), 10, 64)
	filter.DestinationID, _ = strconv.ParseInt(q.Get("destination_id"), 10, 64)
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if filter.Status != "" && !filter.Status.IsValid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status")
		return
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
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}

	requests, pagination, err := h.service.ListRequests(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"requests":   requests,
		"pagination": pagination,
	})
}

func (h *Handler) getRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	request, err := h.service.GetRequest(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) getRequestByNumber(w http.ResponseWriter, r *http.Request) {
	request, err := h.service.GetRequestByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) getRequestTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	transfer, err := h.service.GetTransferForRequest(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transfer)
}

func (h *Handler) submitRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	request, err := h.service.SubmitForApproval(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

type quantityLine struct {
	ItemID   int64   `json:"item_id" validate:"required,gt=0"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

type approveRequestRequest struct {
	Items []quantityLine `json:"items,omitempty" validate:"omitempty,dive"`
}

func (h *Handler) approveRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req approveRequestRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	transfer, err := h.service.ApproveRequest(r.Context(), id, quantitiesByItem(req.Items))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, transfer)
}

type reasonRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) rejectRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req reasonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	request, err := h.service.RejectRequest(r.Context(), id, req.Reason)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) cancelRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	request, err := h.service.CancelRequest(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, request)
}

func (h *Handler) getTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	transfer, err := h.service.GetTransfer(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transfer)
}

type shipmentRequest struct {
	Items []quantityLine `json:"items,omitempty" validate:"omitempty,dive"`
}

func (h *Handler) markDelivering(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req shipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	transfer, err := h.service.MarkDelivering(r.Context(), id, quantitiesByItem(req.Items), r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transfer)
}

type receiptRequest struct {
	Items []quantityLine `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) recordReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req receiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	transfer, err := h.service.RecordReceipt(r.Context(), id, quantitiesByItem(req.Items), r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transfer)
}

func (h *Handler) rejectTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req reasonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	transfer, err := h.service.RejectTransfer(r.Context(), id, req.Reason)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, transfer)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return 0, false
	}
	return id, true
}

func quantitiesByItem(lines []quantityLine) QuantityByItem {
	if len(lines) == 0 {
		return nil
	}
	out := make(QuantityByItem, len(lines))
	for _, line := range lines {
		out[line.ItemID] = line.Quantity
	}
	return out
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var validation *ValidationError
	var transition *InvalidTransitionError
	var negative *ledger.NegativeStockError
	switch {
	case errors.As(err, &validation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &transition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.As(err, &negative):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrDuplicateNumber):
		httpx.Problem(w, http.StatusConflict, "Duplicate Document Number", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrLocked):
		httpx.Problem(w, http.StatusConflict, "Locked", "the document is being modified by another request")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	default:
		h.logger.Error("transfer request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
