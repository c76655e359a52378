package catalog

import (
	"errors"
	"time"
)

// Branch is an organizational unit that holds stock. Branches are managed
// by the back-office screens outside this core; here they are read-only.
type Branch struct {
	ID        int64
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
}

// InventoryItem identifies a stocked item. Identity fields are immutable;
// reorder levels are defaults that BranchStock may override per branch.
type InventoryItem struct {
	ID           int64
	SKU          string
	Name         string
	Category     string
	Unit         string
	ReorderLevel float64
	MinLevel     float64
	MaxLevel     float64
	CreatedAt    time.Time
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	Category string
	Search   string
	Page     int
	PerPage  int
}

// ErrNotFound indicates a missing branch or item.
var ErrNotFound = errors.New("catalog: not found")
