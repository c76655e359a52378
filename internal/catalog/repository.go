package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads masterdata from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetBranch fetches one branch by id.
func (r *Repository) GetBranch(ctx context.Context, id int64) (Branch, error) {
	const query = `SELECT id, code, name, address, created_at FROM branches WHERE id = $1`
	var b Branch
	err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Branch{}, ErrNotFound
		}
		return Branch{}, err
	}
	return b, nil
}

// ListBranches returns all branches ordered by code.
func (r *Repository) ListBranches(ctx context.Context) ([]Branch, error) {
	const query = `SELECT id, code, name, address, created_at FROM branches ORDER BY code`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.CreatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// GetItem fetches one inventory item by id.
func (r *Repository) GetItem(ctx context.Context, id int64) (InventoryItem, error) {
	const query = `SELECT id, sku, name, category, unit, reorder_level, min_level, max_level, created_at
		FROM inventory_items WHERE id = $1`
	var it InventoryItem
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&it.ID, &it.SKU, &it.Name, &it.Category, &it.Unit,
		&it.ReorderLevel, &it.MinLevel, &it.MaxLevel, &it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InventoryItem{}, ErrNotFound
		}
		return InventoryItem{}, err
	}
	return it, nil
}

// ListItems returns items matching the filter plus the total count.
func (r *Repository) ListItems(ctx context.Context, filter ItemFilter) ([]InventoryItem, int, error) {
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	const query = `SELECT id, sku, name, category, unit, reorder_level, min_level, max_level, created_at,
			COUNT(*) OVER() AS total
		FROM inventory_items
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR sku ILIKE '%' || $2 || '%' OR name ILIKE '%' || $2 || '%')
		ORDER BY sku
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, filter.Category, filter.Search, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []InventoryItem
	var total int
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(
			&it.ID, &it.SKU, &it.Name, &it.Category, &it.Unit,
			&it.ReorderLevel, &it.MinLevel, &it.MaxLevel, &it.CreatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}
