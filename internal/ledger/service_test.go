package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	stocks    map[string]BranchStock
	movements []StockMovement
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{stocks: make(map[string]BranchStock)}
}

func pairKey(branchID, itemID int64) string {
	return fmt.Sprintf("%d:%d", branchID, itemID)
}

type memoryTx struct {
	repo *memoryRepo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetStock(ctx context.Context, branchID, itemID int64) (BranchStock, error) {
	if stock, ok := r.stocks[pairKey(branchID, itemID)]; ok {
		return stock, nil
	}
	return BranchStock{}, ErrStockNotFound
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter HistoryFilter) ([]StockMovement, error) {
	var out []StockMovement
	for _, m := range r.movements {
		if filter.BranchID != 0 && m.BranchID != filter.BranchID {
			continue
		}
		if filter.ItemID != 0 && m.ItemID != filter.ItemID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memoryRepo) ListLowStock(ctx context.Context) ([]BranchStock, error) {
	var out []BranchStock
	for _, stock := range r.stocks {
		if stock.ReorderLevel > 0 && stock.Quantity <= stock.ReorderLevel {
			out = append(out, stock)
		}
	}
	return out, nil
}

func (tx *memoryTx) GetStockForUpdate(ctx context.Context, branchID, itemID int64) (BranchStock, error) {
	return tx.repo.GetStock(ctx, branchID, itemID)
}

func (tx *memoryTx) InsertMovement(ctx context.Context, movement StockMovement) (int64, error) {
	tx.repo.nextID++
	movement.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, movement)
	return movement.ID, nil
}

func (tx *memoryTx) UpsertStock(ctx context.Context, stock BranchStock) error {
	tx.repo.stocks[pairKey(stock.BranchID, stock.ItemID)] = stock
	return nil
}

func (r *memoryRepo) sumDeltas(branchID, itemID int64) float64 {
	var sum float64
	for _, m := range r.movements {
		if m.BranchID == branchID && m.ItemID == itemID {
			sum += m.Delta
		}
	}
	return sum
}

func TestApplyMovementMaintainsRunningSum(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	stock, err := svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: 25, Type: MovementPurchase})
	require.NoError(t, err)
	require.InDelta(t, 25.0, stock.Quantity, 0.0001)

	stock, err = svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: -7.5, Type: MovementUsage})
	require.NoError(t, err)
	require.InDelta(t, 17.5, stock.Quantity, 0.0001)

	stock, err = svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: -2, Type: MovementWaste, Note: "spoiled"})
	require.NoError(t, err)
	require.InDelta(t, 15.5, stock.Quantity, 0.0001)

	// The projection must equal the sum of deltas for the pair.
	require.InDelta(t, repo.sumDeltas(1, 10), stock.Quantity, 0.0001)
	require.Len(t, repo.movements, 3)
}

func TestApplyMovementRejectsNegativeStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: 5, Type: MovementPurchase})
	require.NoError(t, err)

	var negative *NegativeStockError
	_, err = svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: -6, Type: MovementSale})
	require.ErrorAs(t, err, &negative)
	require.Equal(t, int64(1), negative.BranchID)
	require.Equal(t, int64(10), negative.ItemID)

	// The rejected movement must not appear in the ledger.
	require.Len(t, repo.movements, 1)
	qty, err := svc.GetCurrentQuantity(ctx, 1, 10)
	require.NoError(t, err)
	require.InDelta(t, 5.0, qty, 0.0001)
}

func TestCorrectionMayForceNegativeAndFlags(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: 3, Type: MovementPurchase})
	require.NoError(t, err)

	stock, err := svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: -5, Type: MovementCorrection, Note: "audit count"})
	require.NoError(t, err)
	require.InDelta(t, -2.0, stock.Quantity, 0.0001)
	require.True(t, stock.Flagged)

	// A later restock clears the flag.
	stock, err = svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: 10, Type: MovementPurchase})
	require.NoError(t, err)
	require.InDelta(t, 8.0, stock.Quantity, 0.0001)
	require.False(t, stock.Flagged)
}

func TestApplyMovementValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: 1, Type: "banana"})
	require.ErrorIs(t, err, ErrInvalidMovementType)

	_, err = svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: 0, Type: MovementPurchase})
	require.ErrorIs(t, err, ErrInvalidDelta)

	_, err = svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: 1, Type: MovementPurchase, RefID: "not-a-uuid"})
	require.Error(t, err)
}

func TestGetCurrentQuantityDefaultsToZero(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	qty, err := svc.GetCurrentQuantity(context.Background(), 3, 99)
	require.NoError(t, err)
	require.Zero(t, qty)
}

func TestMovementHistoryFilters(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: 5, Type: MovementPurchase})
	require.NoError(t, err)
	_, err = svc.ApplyMovement(ctx, MovementInput{BranchID: 1, ItemID: 10, Delta: -1, Type: MovementUsage})
	require.NoError(t, err)
	_, err = svc.ApplyMovement(ctx, MovementInput{BranchID: 2, ItemID: 10, Delta: 4, Type: MovementPurchase})
	require.NoError(t, err)

	movements, err := svc.GetMovementHistory(ctx, HistoryFilter{BranchID: 1, ItemID: 10})
	require.NoError(t, err)
	require.Len(t, movements, 2)

	movements, err = svc.GetMovementHistory(ctx, HistoryFilter{BranchID: 1, ItemID: 10, Type: MovementUsage})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.InDelta(t, -1.0, movements[0].Delta, 0.0001)
}
