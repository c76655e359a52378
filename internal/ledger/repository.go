package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, branchID, itemID int64) (BranchStock, error)
	InsertMovement(ctx context.Context, movement StockMovement) (int64, error)
	UpsertStock(ctx context.Context, stock BranchStock) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetStock returns the projection row for a (branch, item) pair.
func (r *Repository) GetStock(ctx context.Context, branchID, itemID int64) (BranchStock, error) {
	const query = `SELECT branch_id, item_id, quantity, reorder_level, flagged, last_restocked_at, updated_at
		FROM branch_stock WHERE branch_id = $1 AND item_id = $2`
	return scanStock(r.pool.QueryRow(ctx, query, branchID, itemID), branchID, itemID)
}

// ListMovements returns ledger entries matching the filter, oldest first.
func (r *Repository) ListMovements(ctx context.Context, filter HistoryFilter) ([]StockMovement, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	const query = `SELECT id, branch_id, item_id, delta, movement_type, note, transfer_id, ref_id, actor_id, occurred_at
		FROM stock_movements
		WHERE branch_id = $1 AND item_id = $2
		  AND ($3 = '' OR movement_type = $3)
		  AND ($4::timestamptz IS NULL OR occurred_at >= $4)
		  AND ($5::timestamptz IS NULL OR occurred_at <= $5)
		ORDER BY occurred_at, id
		LIMIT $6`

	var from, to any
	if !filter.From.IsZero() {
		from = filter.From
	}
	if !filter.To.IsZero() {
		to = filter.To
	}
	rows, err := r.pool.Query(ctx, query, filter.BranchID, filter.ItemID, string(filter.Type), from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		var transferID, actorID *int64
		var note, refID *string
		if err := rows.Scan(&m.ID, &m.BranchID, &m.ItemID, &m.Delta, &m.Type, &note, &transferID, &refID, &actorID, &m.OccurredAt); err != nil {
			return nil, err
		}
		if note != nil {
			m.Note = *note
		}
		if transferID != nil {
			m.TransferID = *transferID
		}
		if refID != nil {
			m.RefID = *refID
		}
		if actorID != nil {
			m.ActorID = *actorID
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ListLowStock returns projection rows at or below their reorder level.
func (r *Repository) ListLowStock(ctx context.Context) ([]BranchStock, error) {
	const query = `SELECT bs.branch_id, bs.item_id, bs.quantity,
			COALESCE(NULLIF(bs.reorder_level, 0), it.reorder_level) AS reorder_level,
			bs.flagged, bs.last_restocked_at, bs.updated_at
		FROM branch_stock bs
		JOIN inventory_items it ON it.id = bs.item_id
		WHERE bs.quantity <= COALESCE(NULLIF(bs.reorder_level, 0), it.reorder_level)
		ORDER BY bs.branch_id, bs.item_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []BranchStock
	for rows.Next() {
		var s BranchStock
		var restocked *time.Time
		if err := rows.Scan(&s.BranchID, &s.ItemID, &s.Quantity, &s.ReorderLevel, &s.Flagged, &restocked, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if restocked != nil {
			s.LastRestockedAt = *restocked
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

func (r *txRepo) GetStockForUpdate(ctx context.Context, branchID, itemID int64) (BranchStock, error) {
	const query = `SELECT branch_id, item_id, quantity, reorder_level, flagged, last_restocked_at, updated_at
		FROM branch_stock WHERE branch_id = $1 AND item_id = $2 FOR UPDATE`
	return scanStock(r.tx.QueryRow(ctx, query, branchID, itemID), branchID, itemID)
}

func (r *txRepo) InsertMovement(ctx context.Context, movement StockMovement) (int64, error) {
	const query = `INSERT INTO stock_movements (branch_id, item_id, delta, movement_type, note, transfer_id, ref_id, actor_id, occurred_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, 0), NULLIF($7, ''), NULLIF($8, 0), $9)
		RETURNING id`
	var id int64
	err := r.tx.QueryRow(ctx, query,
		movement.BranchID, movement.ItemID, movement.Delta, string(movement.Type),
		movement.Note, movement.TransferID, movement.RefID, movement.ActorID, movement.OccurredAt,
	).Scan(&id)
	return id, err
}

func (r *txRepo) UpsertStock(ctx context.Context, stock BranchStock) error {
	const query = `INSERT INTO branch_stock (branch_id, item_id, quantity, reorder_level, flagged, last_restocked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (branch_id, item_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    flagged = EXCLUDED.flagged,
		    last_restocked_at = COALESCE(EXCLUDED.last_restocked_at, branch_stock.last_restocked_at),
		    updated_at = NOW()`
	var restocked any
	if !stock.LastRestockedAt.IsZero() {
		restocked = stock.LastRestockedAt
	}
	_, err := r.tx.Exec(ctx, query, stock.BranchID, stock.ItemID, stock.Quantity, stock.ReorderLevel, stock.Flagged, restocked)
	return err
}

func scanStock(row pgx.Row, branchID, itemID int64) (BranchStock, error) {
	var s BranchStock
	var restocked *time.Time
	err := row.Scan(&s.BranchID, &s.ItemID, &s.Quantity, &s.ReorderLevel, &s.Flagged, &restocked, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BranchStock{BranchID: branchID, ItemID: itemID}, ErrStockNotFound
		}
		return BranchStock{}, err
	}
	if restocked != nil {
		s.LastRestockedAt = *restocked
	}
	return s, nil
}
