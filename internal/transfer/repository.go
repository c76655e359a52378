package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists requests and transfers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	NextDocumentNumber(ctx context.Context, org, kind string) (int64, error)

	CreateRequest(ctx context.Context, req StockRequest) (int64, error)
	InsertRequestItem(ctx context.Context, item StockRequestItem) error
	GetRequestForUpdate(ctx context.Context, id int64) (StockRequest, error)
	UpdateRequestStatus(ctx context.Context, id int64, status RequestStatus) error
	SetRequestApproval(ctx context.Context, id, actorID int64) error
	AppendRequestNote(ctx context.Context, id int64, note string) error
	SetRequestItemApproved(ctx context.Context, itemID int64, qty float64) error

	CreateTransfer(ctx context.Context, t StockTransfer) (int64, error)
	InsertTransferItem(ctx context.Context, item StockTransferItem) error
	GetTransferForUpdate(ctx context.Context, id int64) (StockTransfer, error)
	UpdateTransferStatus(ctx context.Context, id int64, status TransferStatus) error
	SetTransferItemShipped(ctx context.Context, itemID int64, qty float64) error
	SetTransferItemReceipt(ctx context.Context, item StockTransferItem) error
	CompleteTransfer(ctx context.Context, id int64, receivedAt time.Time, hasDiscrepancies bool) error
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

const requestColumns = `id, request_number, origin_id, destination_id, status, required_date, notes, created_by, approved_by, created_at, updated_at`

func scanRequest(row pgx.Row) (StockRequest, error) {
	var req StockRequest
	var requiredDate *time.Time
	var notes *string
	var createdBy, approvedBy *int64
	err := row.Scan(
		&req.ID, &req.RequestNumber, &req.OriginID, &req.DestinationID, &req.Status,
		&requiredDate, &notes, &createdBy, &approvedBy, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockRequest{}, ErrNotFound
		}
		return StockRequest{}, err
	}
	if requiredDate != nil {
		req.RequiredDate = *requiredDate
	}
	if notes != nil {
		req.Notes = *notes
	}
	if createdBy != nil {
		req.CreatedBy = *createdBy
	}
	if approvedBy != nil {
		req.ApprovedBy = *approvedBy
	}
	return req, nil
}

// GetRequest returns a request with its items.
func (r *Repository) GetRequest(ctx context.Context, id int64) (StockRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM stock_requests WHERE id = $1`, requestColumns)
	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return StockRequest{}, err
	}
	items, err := r.getRequestItems(ctx, id)
	if err != nil {
		return StockRequest{}, err
	}
	req.Items = items
	return req, nil
}

// GetRequestByNumber returns a request by its human-facing number.
func (r *Repository) GetRequestByNumber(ctx context.Context, number string) (StockRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM stock_requests WHERE request_number = $1`, requestColumns)
	req, err := scanRequest(r.pool.QueryRow(ctx, query, number))
	if err != nil {
		return StockRequest{}, err
	}
	items, err := r.getRequestItems(ctx, req.ID)
	if err != nil {
		return StockRequest{}, err
	}
	req.Items = items
	return req, nil
}

func (r *Repository) getRequestItems(ctx context.Context, requestID int64) ([]StockRequestItem, error) {
	const query = `SELECT id, request_id, item_id, quantity_requested, quantity_approved, unit, priority, sort_order
		FROM stock_request_items WHERE request_id = $1 ORDER BY sort_order, id`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []StockRequestItem
	for rows.Next() {
		var it StockRequestItem
		var unit *string
		if err := rows.Scan(&it.ID, &it.RequestID, &it.ItemID, &it.QuantityRequested, &it.QuantityApproved, &unit, &it.Priority, &it.SortOrder); err != nil {
			return nil, err
		}
		if unit != nil {
			it.Unit = *unit
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListRequests returns requests matching the filter plus the total count.
func (r *Repository) ListRequests(ctx context.Context, filter RequestFilter) ([]StockRequest, int, error) {
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total
		FROM stock_requests
		WHERE ($1 = 0 OR origin_id = $1)
		  AND ($2 = 0 OR destination_id = $2)
		  AND ($3 = '' OR status = $3)
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at <= $5)
		ORDER BY created_at DESC, id DESC
		LIMIT $6 OFFSET $7`, requestColumns)

	var from, to any
	if !filter.From.IsZero() {
		from = filter.From
	}
	if !filter.To.IsZero() {
		to = filter.To
	}
	rows, err := r.pool.Query(ctx, query, filter.OriginID, filter.DestinationID, string(filter.Status), from, to, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []StockRequest
	var total int
	for rows.Next() {
		var req StockRequest
		var requiredDate *time.Time
		var notes *string
		var createdBy, approvedBy *int64
		if err := rows.Scan(
			&req.ID, &req.RequestNumber, &req.OriginID, &req.DestinationID, &req.Status,
			&requiredDate, &notes, &createdBy, &approvedBy, &req.CreatedAt, &req.UpdatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		if requiredDate != nil {
			req.RequiredDate = *requiredDate
		}
		if notes != nil {
			req.Notes = *notes
		}
		if createdBy != nil {
			req.CreatedBy = *createdBy
		}
		if approvedBy != nil {
			req.ApprovedBy = *approvedBy
		}
		requests = append(requests, req)
	}
	return requests, total, rows.Err()
}

const transferColumns = `id, transfer_number, request_id, origin_id, destination_id, status, has_discrepancies, created_by, approved_by, date_created, date_received`

func scanTransfer(row pgx.Row) (StockTransfer, error) {
	var t StockTransfer
	var createdBy, approvedBy *int64
	err := row.Scan(
		&t.ID, &t.TransferNumber, &t.RequestID, &t.OriginID, &t.DestinationID, &t.Status,
		&t.HasDiscrepancies, &createdBy, &approvedBy, &t.DateCreated, &t.DateReceived,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockTransfer{}, ErrNotFound
		}
		return StockTransfer{}, err
	}
	if createdBy != nil {
		t.CreatedBy = *createdBy
	}
	if approvedBy != nil {
		t.ApprovedBy = *approvedBy
	}
	return t, nil
}

// GetTransfer returns a transfer with its items.
func (r *Repository) GetTransfer(ctx context.Context, id int64) (StockTransfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM stock_transfers WHERE id = $1`, transferColumns)
	t, err := scanTransfer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return StockTransfer{}, err
	}
	items, err := r.getTransferItems(ctx, id)
	if err != nil {
		return StockTransfer{}, err
	}
	t.Items = items
	return t, nil
}

// GetTransferByRequest returns the transfer linked to a request, if any.
func (r *Repository) GetTransferByRequest(ctx context.Context, requestID int64) (StockTransfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM stock_transfers WHERE request_id = $1`, transferColumns)
	t, err := scanTransfer(r.pool.QueryRow(ctx, query, requestID))
	if err != nil {
		return StockTransfer{}, err
	}
	items, err := r.getTransferItems(ctx, t.ID)
	if err != nil {
		return StockTransfer{}, err
	}
	t.Items = items
	return t, nil
}

func (r *Repository) getTransferItems(ctx context.Context, transferID int64) ([]StockTransferItem, error) {
	const query = `SELECT id, transfer_id, item_id, quantity_approved, quantity_shipped, quantity_received, discrepancy, discrepancy_reason, discrepancy_qty
		FROM stock_transfer_items WHERE transfer_id = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []StockTransferItem
	for rows.Next() {
		var it StockTransferItem
		var reason *string
		if err := rows.Scan(&it.ID, &it.TransferID, &it.ItemID, &it.QuantityApproved, &it.QuantityShipped, &it.QuantityReceived, &it.Discrepancy, &reason, &it.DiscrepancyQty); err != nil {
			return nil, err
		}
		if reason != nil {
			it.DiscrepancyReason = *reason
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListDiscrepancies returns completed transfers with discrepancies since
// the given time, for reporting.
func (r *Repository) ListDiscrepancies(ctx context.Context, since time.Time) ([]StockTransfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM stock_transfers
		WHERE status = $1 AND has_discrepancies AND date_received >= $2
		ORDER BY date_received`, transferColumns)
	rows, err := r.pool.Query(ctx, query, string(TransferStatusCompleted), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []StockTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range transfers {
		items, err := r.getTransferItems(ctx, transfers[i].ID)
		if err != nil {
			return nil, err
		}
		transfers[i].Items = items
	}
	return transfers, nil
}

func (r *txRepo) NextDocumentNumber(ctx context.Context, org, kind string) (int64, error) {
	const query = `INSERT INTO doc_sequences (org, kind, value) VALUES ($1, $2, 10001)
		ON CONFLICT (org, kind) DO UPDATE SET value = doc_sequences.value + 1
		RETURNING value`
	var value int64
	err := r.tx.QueryRow(ctx, query, org, kind).Scan(&value)
	return value, err
}

func (r *txRepo) CreateRequest(ctx context.Context, req StockRequest) (int64, error) {
	const query = `INSERT INTO stock_requests (request_number, origin_id, destination_id, status, required_date, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, 0))
		RETURNING id`
	var requiredDate any
	if !req.RequiredDate.IsZero() {
		requiredDate = req.RequiredDate
	}
	var id int64
	err := r.tx.QueryRow(ctx, query, req.RequestNumber, req.OriginID, req.DestinationID, string(req.Status), requiredDate, req.Notes, req.CreatedBy).Scan(&id)
	if err != nil && isUniqueViolation(err) {
		return 0, ErrDuplicateNumber
	}
	return id, err
}

func (r *txRepo) InsertRequestItem(ctx context.Context, item StockRequestItem) error {
	const query = `INSERT INTO stock_request_items (request_id, item_id, quantity_requested, quantity_approved, unit, priority, sort_order)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`
	_, err := r.tx.Exec(ctx, query, item.RequestID, item.ItemID, item.QuantityRequested, item.QuantityApproved, item.Unit, item.Priority, item.SortOrder)
	return err
}

func (r *txRepo) GetRequestForUpdate(ctx context.Context, id int64) (StockRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM stock_requests WHERE id = $1 FOR UPDATE`, requestColumns)
	return scanRequest(r.tx.QueryRow(ctx, query, id))
}

func (r *txRepo) UpdateRequestStatus(ctx context.Context, id int64, status RequestStatus) error {
	const query = `UPDATE stock_requests SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.tx.Exec(ctx, query, id, string(status))
	if err == nil && tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return err
}

func (r *txRepo) SetRequestApproval(ctx context.Context, id, actorID int64) error {
	const query = `UPDATE stock_requests SET approved_by = NULLIF($2, 0), updated_at = NOW() WHERE id = $1`
	_, err := r.tx.Exec(ctx, query, id, actorID)
	return err
}

func (r *txRepo) AppendRequestNote(ctx context.Context, id int64, note string) error {
	const query = `UPDATE stock_requests
		SET notes = TRIM(BOTH E'\n' FROM COALESCE(notes, '') || E'\n' || $2), updated_at = NOW()
		WHERE id = $1`
	_, err := r.tx.Exec(ctx, query, id, note)
	return err
}

func (r *txRepo) SetRequestItemApproved(ctx context.Context, itemID int64, qty float64) error {
	const query = `UPDATE stock_request_items SET quantity_approved = $2 WHERE id = $1`
	_, err := r.tx.Exec(ctx, query, itemID, qty)
	return err
}

func (r *txRepo) CreateTransfer(ctx context.Context, t StockTransfer) (int64, error) {
	const query = `INSERT INTO stock_transfers (transfer_number, request_id, origin_id, destination_id, status, created_by, approved_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0), NULLIF($7, 0))
		RETURNING id`
	var id int64
	err := r.tx.QueryRow(ctx, query, t.TransferNumber, t.RequestID, t.OriginID, t.DestinationID, string(t.Status), t.CreatedBy, t.ApprovedBy).Scan(&id)
	if err != nil && isUniqueViolation(err) {
		return 0, ErrDuplicateNumber
	}
	return id, err
}

func (r *txRepo) InsertTransferItem(ctx context.Context, item StockTransferItem) error {
	const query = `INSERT INTO stock_transfer_items (transfer_id, item_id, quantity_approved)
		VALUES ($1, $2, $3)`
	_, err := r.tx.Exec(ctx, query, item.TransferID, item.ItemID, item.QuantityApproved)
	return err
}

func (r *txRepo) GetTransferForUpdate(ctx context.Context, id int64) (StockTransfer, error) {
	query := fmt.Sprintf(`SELECT %s FROM stock_transfers WHERE id = $1 FOR UPDATE`, transferColumns)
	return scanTransfer(r.tx.QueryRow(ctx, query, id))
}

func (r *txRepo) UpdateTransferStatus(ctx context.Context, id int64, status TransferStatus) error {
	const query = `UPDATE stock_transfers SET status = $2 WHERE id = $1`
	tag, err := r.tx.Exec(ctx, query, id, string(status))
	if err == nil && tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return err
}

func (r *txRepo) SetTransferItemShipped(ctx context.Context, itemID int64, qty float64) error {
	const query = `UPDATE stock_transfer_items SET quantity_shipped = $2 WHERE id = $1`
	_, err := r.tx.Exec(ctx, query, itemID, qty)
	return err
}

func (r *txRepo) SetTransferItemReceipt(ctx context.Context, item StockTransferItem) error {
	const query = `UPDATE stock_transfer_items
		SET quantity_received = $2, discrepancy = $3, discrepancy_reason = NULLIF($4, ''), discrepancy_qty = $5
		WHERE id = $1`
	_, err := r.tx.Exec(ctx, query, item.ID, item.QuantityReceived, item.Discrepancy, item.DiscrepancyReason, item.DiscrepancyQty)
	return err
}

func (r *txRepo) CompleteTransfer(ctx context.Context, id int64, receivedAt time.Time, hasDiscrepancies bool) error {
	const query = `UPDATE stock_transfers
		SET status = $2, date_received = $3, has_discrepancies = $4
		WHERE id = $1`
	tag, err := r.tx.Exec(ctx, query, id, string(TransferStatusCompleted), receivedAt, hasDiscrepancies)
	if err == nil && tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
