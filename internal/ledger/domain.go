package ledger

import (
	"errors"
	"fmt"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementUsage      MovementType = "usage"
	MovementWaste      MovementType = "waste"
	MovementTheft      MovementType = "theft"
	MovementCorrection MovementType = "correction"
	MovementTransfer   MovementType = "transfer"
	MovementSale       MovementType = "sale"
	MovementReturn     MovementType = "return"
)

// IsValid checks if the movement type is known.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementPurchase, MovementUsage, MovementWaste, MovementTheft,
		MovementCorrection, MovementTransfer, MovementSale, MovementReturn:
		return true
	default:
		return false
	}
}

// StockMovement is one append-only ledger entry. The running sum of deltas
// per (branch, item) equals BranchStock.Quantity; the ledger is the source
// of truth and BranchStock a materialized projection.
type StockMovement struct {
	ID         int64        `json:"id"`
	BranchID   int64        `json:"branch_id"`
	ItemID     int64        `json:"item_id"`
	Delta      float64      `json:"delta"`
	Type       MovementType `json:"type"`
	Note       string       `json:"note,omitempty"`
	TransferID int64        `json:"transfer_id,omitempty"`
	RefID      string       `json:"ref_id,omitempty"`
	ActorID    int64        `json:"actor_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// BranchStock is the on-hand quantity projection for a (branch, item) pair.
// Created on first movement, never deleted, only zeroed.
type BranchStock struct {
	BranchID        int64     `json:"branch_id"`
	ItemID          int64     `json:"item_id"`
	Quantity        float64   `json:"quantity"`
	ReorderLevel    float64   `json:"reorder_level"`
	Flagged         bool      `json:"flagged"`
	LastRestockedAt time.Time `json:"last_restocked_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MovementInput describes a ledger append.
type MovementInput struct {
	BranchID   int64
	ItemID     int64
	Delta      float64
	Type       MovementType
	Note       string
	TransferID int64
	RefID      string
	ActorID    int64
}

// HistoryFilter narrows movement history queries. Results are ordered by
// timestamp ascending; callers re-query for a fresh cursor.
type HistoryFilter struct {
	BranchID int64
	ItemID   int64
	Type     MovementType
	From     time.Time
	To       time.Time
	Limit    int
}

// NegativeStockError reports a movement that would drive on-hand quantity
// negative outside a correction. The movement is not applied.
type NegativeStockError struct {
	BranchID  int64
	ItemID    int64
	Attempted float64
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("ledger: movement would drive stock negative (branch=%d item=%d attempted=%.3f)", e.BranchID, e.ItemID, e.Attempted)
}

var (
	// ErrInvalidMovementType indicates an unknown movement type.
	ErrInvalidMovementType = errors.New("ledger: invalid movement type")
	// ErrInvalidDelta indicates a zero quantity delta.
	ErrInvalidDelta = errors.New("ledger: delta must be non zero")
	// ErrStockNotFound indicates a missing projection row.
	ErrStockNotFound = errors.New("ledger: branch stock not found")
)
