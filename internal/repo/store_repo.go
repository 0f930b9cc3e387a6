// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Store model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a store is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/0xVampirot/justZappIt/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// visibleStatuses are the verification states shown on the default map and
// listing. Closed stores stay in the table but drop out of results.
var visibleStatuses = []domain.VerificationStatus{
	domain.StatusSeedConfirmed,
	domain.StatusSeedPartial,
	domain.StatusCommunityVerified,
	domain.StatusUnverified,
	domain.StatusFlagged,
}

// CreateStore inserts a new Store row. A UUID primary key is generated when
// the caller has not set one (the seed importer passes its own), and
// CreatedAt/UpdatedAt are set to UTC now.
func CreateStore(ctx context.Context, db *gorm.DB, s *domain.Store) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	return db.WithContext(ctx).Create(s).Error
}

// GetStore fetches a single store by ID, or ErrNotFound if missing.
func GetStore(ctx context.Context, db *gorm.DB, id string) (*domain.Store, error) {
	var s domain.Store
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CountVisibleStores returns the number of stores in a non-closed state.
func CountVisibleStores(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Store{}).
		Where("verification_status IN ?", visibleStatuses).
		Count(&total).Error
	return total, err
}

// ListStoresPage returns a page of non-closed stores ordered alphabetically
// by operator name. Use CountVisibleStores to obtain the total for pagination
// metadata. The caller computes offset and limit.
func ListStoresPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Store, error) {
	var out []domain.Store
	err := db.WithContext(ctx).
		Where("verification_status IN ?", visibleStatuses).
		Order("operator_name").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateStoreTrust writes recomputed vote tallies and verification status for
// a store and bumps updated_at. If no rows are affected (store missing), it
// returns ErrNotFound.
func UpdateStoreTrust(ctx context.Context, db *gorm.DB, id string, confirms, flags int, status domain.VerificationStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Store{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"confirm_count":       confirms,
			"flag_count":          flags,
			"verification_status": status,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// StoreEdit carries the descriptive fields a community edit may change.
// Location and trust-state columns are deliberately absent.
type StoreEdit struct {
	Website      *string
	OpeningHours *string
	Phone        *string
	Email        *string
}

// ApplyStoreEdit updates the editable descriptive fields of a store and bumps
// updated_at. Nil pointers leave the existing value untouched. Returns
// ErrNotFound when the store does not exist.
func ApplyStoreEdit(ctx context.Context, db *gorm.DB, id string, edit StoreEdit) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if edit.Website != nil {
		updates["website"] = edit.Website
	}
	if edit.OpeningHours != nil {
		updates["opening_hours"] = edit.OpeningHours
	}
	if edit.Phone != nil {
		updates["phone"] = edit.Phone
	}
	if edit.Email != nil {
		updates["email"] = edit.Email
	}

	res := db.WithContext(ctx).
		Model(&domain.Store{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
