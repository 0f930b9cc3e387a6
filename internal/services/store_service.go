// Package services – StoreService
//
// This file implements the StoreService, the read side of the public
// directory: paginated listing of visible stores and single-store lookup.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/0xVampirot/justZappIt/internal/domain"
	"github.com/0xVampirot/justZappIt/internal/repo"
)

// StoreService serves directory reads. Closed stores are excluded from
// listings but remain fetchable by id (their page explains the closure).
type StoreService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewStoreService constructs a StoreService.
func NewStoreService(db *gorm.DB) *StoreService {
	return &StoreService{DB: db}
}

// ListPage returns a page of visible stores ordered by operator name, plus
// the total visible count. It applies defaults for invalid page/pageSize.
func (s *StoreService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Store, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountVisibleStores(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Store{}, 0, nil
	}

	items, err := repo.ListStoresPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Get fetches a single store by id, including closed ones.
func (s *StoreService) Get(ctx context.Context, id string) (*domain.Store, error) {
	store, err := repo.GetStore(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}
