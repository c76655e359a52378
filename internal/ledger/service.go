package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mesa-pos/mesa-pos/internal/shared"
)

// Float comparisons on quantities tolerate accumulated rounding.
const qtyEpsilon = 0.0001

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetStock(ctx context.Context, branchID, itemID int64) (BranchStock, error)
	ListMovements(ctx context.Context, filter HistoryFilter) ([]StockMovement, error)
	ListLowStock(ctx context.Context) ([]BranchStock, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates ledger operations. Appends and the projection update
// happen in one transaction; the projection always equals the running sum
// of movements for the pair.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache *StockCache
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cache *StockCache) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// ApplyMovement appends a StockMovement and updates the projection. It
// fails with NegativeStockError when the resulting quantity would be
// negative and the movement is not a correction. Corrections may force a
// negative quantity; the projection row is then flagged for audit.
func (s *Service) ApplyMovement(ctx context.Context, input MovementInput) (BranchStock, error) {
	if input.BranchID <= 0 || input.ItemID <= 0 {
		return BranchStock{}, errors.New("ledger: branch and item required")
	}
	if !input.Type.IsValid() {
		return BranchStock{}, ErrInvalidMovementType
	}
	if math.Abs(input.Delta) < qtyEpsilon {
		return BranchStock{}, ErrInvalidDelta
	}
	if input.RefID != "" {
		if _, err := uuid.Parse(input.RefID); err != nil {
			return BranchStock{}, fmt.Errorf("ledger: invalid ref id: %w", err)
		}
	}

	now := time.Now().UTC()
	var updated BranchStock
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		stock, err := tx.GetStockForUpdate(ctx, input.BranchID, input.ItemID)
		if err != nil && !errors.Is(err, ErrStockNotFound) {
			return err
		}
		if errors.Is(err, ErrStockNotFound) {
			stock = BranchStock{BranchID: input.BranchID, ItemID: input.ItemID}
		}

		newQty := stock.Quantity + input.Delta
		if math.Abs(newQty) < qtyEpsilon {
			newQty = 0
		}
		if newQty < -qtyEpsilon && input.Type != MovementCorrection {
			return &NegativeStockError{BranchID: input.BranchID, ItemID: input.ItemID, Attempted: newQty}
		}

		movement := StockMovement{
			BranchID:   input.BranchID,
			ItemID:     input.ItemID,
			Delta:      input.Delta,
			Type:       input.Type,
			Note:       input.Note,
			TransferID: input.TransferID,
			RefID:      input.RefID,
			ActorID:    input.ActorID,
			OccurredAt: now,
		}
		if _, err := tx.InsertMovement(ctx, movement); err != nil {
			return err
		}

		stock.Quantity = newQty
		stock.Flagged = newQty < -qtyEpsilon
		if input.Delta > 0 {
			stock.LastRestockedAt = now
		}
		if err := tx.UpsertStock(ctx, stock); err != nil {
			return err
		}
		updated = stock
		updated.UpdatedAt = now
		return nil
	})
	if err != nil {
		return BranchStock{}, err
	}

	_ = s.cache.Invalidate(ctx, input.BranchID, input.ItemID)

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   fmt.Sprintf("ledger:%s", input.Type),
			Entity:   "stock_movement",
			EntityID: fmt.Sprintf("%d:%d", input.BranchID, input.ItemID),
			Meta: map[string]any{
				"branch_id":   input.BranchID,
				"item_id":     input.ItemID,
				"delta":       input.Delta,
				"transfer_id": input.TransferID,
				"note":        input.Note,
			},
		})
	}
	return updated, nil
}

// GetCurrentQuantity returns the projection quantity. Pairs without any
// movement report zero.
func (s *Service) GetCurrentQuantity(ctx context.Context, branchID, itemID int64) (float64, error) {
	if branchID <= 0 || itemID <= 0 {
		return 0, errors.New("ledger: branch and item required")
	}
	if qty, ok := s.cache.Get(ctx, branchID, itemID); ok {
		return qty, nil
	}
	stock, err := s.repo.GetStock(ctx, branchID, itemID)
	if errors.Is(err, ErrStockNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	_ = s.cache.Set(ctx, branchID, itemID, stock.Quantity)
	return stock.Quantity, nil
}

// GetBranchStock returns the full projection row.
func (s *Service) GetBranchStock(ctx context.Context, branchID, itemID int64) (BranchStock, error) {
	if branchID <= 0 || itemID <= 0 {
		return BranchStock{}, errors.New("ledger: branch and item required")
	}
	return s.repo.GetStock(ctx, branchID, itemID)
}

// GetMovementHistory lists ledger entries for a pair, oldest first.
func (s *Service) GetMovementHistory(ctx context.Context, filter HistoryFilter) ([]StockMovement, error) {
	if filter.BranchID <= 0 || filter.ItemID <= 0 {
		return nil, errors.New("ledger: branch and item required")
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, ErrInvalidMovementType
	}
	return s.repo.ListMovements(ctx, filter)
}

// ListLowStock returns projection rows at or below their reorder level.
func (s *Service) ListLowStock(ctx context.Context) ([]BranchStock, error) {
	return s.repo.ListLowStock(ctx)
}
