package catalog

import (
	"context"
	"errors"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	GetBranch(ctx context.Context, id int64) (Branch, error)
	ListBranches(ctx context.Context) ([]Branch, error)
	GetItem(ctx context.Context, id int64) (InventoryItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]InventoryItem, int, error)
}

// Service exposes read-only masterdata lookups.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetBranch returns one branch.
func (s *Service) GetBranch(ctx context.Context, id int64) (Branch, error) {
	if id <= 0 {
		return Branch{}, errors.New("catalog: branch id required")
	}
	return s.repo.GetBranch(ctx, id)
}

// ListBranches returns all branches.
func (s *Service) ListBranches(ctx context.Context) ([]Branch, error) {
	return s.repo.ListBranches(ctx)
}

// GetItem returns one inventory item.
func (s *Service) GetItem(ctx context.Context, id int64) (InventoryItem, error) {
	if id <= 0 {
		return InventoryItem{}, errors.New("catalog: item id required")
	}
	return s.repo.GetItem(ctx, id)
}

// ListItems returns items matching the filter.
func (s *Service) ListItems(ctx context.Context, filter ItemFilter) ([]InventoryItem, int, error) {
	return s.repo.ListItems(ctx, filter)
}

// BranchExists reports whether the branch id references a known branch.
func (s *Service) BranchExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.GetBranch(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ItemExists reports whether the item id references a known item.
func (s *Service) ItemExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
