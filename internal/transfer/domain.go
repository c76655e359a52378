package transfer

import (
	"errors"
	"fmt"
	"time"
)

// Stock request lifecycle statuses.
type RequestStatus string

const (
	RequestStatusNew       RequestStatus = "NEW"
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusApproved  RequestStatus = "APPROVED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusCancelled RequestStatus = "CANCELLED"
)

// Stock transfer lifecycle statuses. Kept separate from RequestStatus
// because the transition sets differ.
type TransferStatus string

const (
	TransferStatusNew        TransferStatus = "NEW"
	TransferStatusDelivering TransferStatus = "DELIVERING"
	TransferStatusCompleted  TransferStatus = "COMPLETED"
	TransferStatusRejected   TransferStatus = "REJECTED"
)

// StockRequest is a request by a destination branch for items supplied by
// an origin branch. Terminal once completed, rejected, or cancelled.
type StockRequest struct {
	ID            int64              `json:"id"`
	RequestNumber string             `json:"request_number"`
	OriginID      int64              `json:"origin_id"`
	DestinationID int64              `json:"destination_id"`
	Status        RequestStatus      `json:"status"`
	RequiredDate  time.Time          `json:"required_date,omitzero"`
	Notes         string             `json:"notes,omitempty"`
	CreatedBy     int64              `json:"created_by,omitempty"`
	ApprovedBy    int64              `json:"approved_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Items         []StockRequestItem `json:"items,omitempty"`
}

// StockRequestItem is one requested line.
type StockRequestItem struct {
	ID                int64   `json:"id"`
	RequestID         int64   `json:"request_id"`
	ItemID            int64   `json:"item_id"`
	QuantityRequested float64 `json:"quantity_requested"`
	QuantityApproved  float64 `json:"quantity_approved"`
	Unit              string  `json:"unit,omitempty"`
	Priority          int     `json:"priority"`
	SortOrder         int     `json:"sort_order"`
}

// StockTransfer is the shipment/receipt record created when a request is
// approved. Exactly one per approved request.
type StockTransfer struct {
	ID               int64               `json:"id"`
	TransferNumber   string              `json:"transfer_number"`
	RequestID        int64               `json:"request_id"`
	OriginID         int64               `json:"origin_id"`
	DestinationID    int64               `json:"destination_id"`
	Status           TransferStatus      `json:"status"`
	HasDiscrepancies bool                `json:"has_discrepancies"`
	CreatedBy        int64               `json:"created_by,omitempty"`
	ApprovedBy       int64               `json:"approved_by,omitempty"`
	DateCreated      time.Time           `json:"date_created"`
	DateReceived     *time.Time          `json:"date_received,omitempty"`
	Items            []StockTransferItem `json:"items,omitempty"`
}

// StockTransferItem tracks shipped vs. received quantities for one line.
// QuantityApproved is carried over from the request line so shipping can
// be validated without a join.
type StockTransferItem struct {
	ID                int64   `json:"id"`
	TransferID        int64   `json:"transfer_id"`
	ItemID            int64   `json:"item_id"`
	QuantityApproved  float64 `json:"quantity_approved"`
	QuantityShipped   float64 `json:"quantity_shipped"`
	QuantityReceived  float64 `json:"quantity_received"`
	Discrepancy       bool    `json:"discrepancy"`
	DiscrepancyReason string  `json:"discrepancy_reason,omitempty"`
	DiscrepancyQty    float64 `json:"discrepancy_qty"`
}

// RequestFilter narrows request listings.
type RequestFilter struct {
	OriginID      int64
	DestinationID int64
	Status        RequestStatus
	From          time.Time
	To            time.Time
	Page          int
	PerPage       int
}

// QuantityByItem maps an inventory item id to a quantity on one document
// line. Used for approve/ship/receive payloads.
type QuantityByItem map[int64]float64

// ValidationError indicates malformed input. Recoverable by the caller
// correcting the payload; never retried automatically.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "transfer: invalid input: " + e.Reason
}

// InvalidTransitionError indicates a state change not permitted from the
// entity's current status. The entity is left unchanged.
type InvalidTransitionError struct {
	Entity   string
	EntityID string
	From     string
	To       string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transfer: %s %s: illegal transition %s -> %s", e.Entity, e.EntityID, e.From, e.To)
}

var (
	// ErrNotFound indicates a missing request or transfer.
	ErrNotFound = errors.New("transfer: not found")
	// ErrDuplicateNumber indicates a document number collision.
	ErrDuplicateNumber = errors.New("transfer: document number already exists")
)
