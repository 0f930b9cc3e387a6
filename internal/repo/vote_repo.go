// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Vote model.
//
// Error semantics:
//   - Duplicate votes (same store_id, type, ip_hash) rely on the database
//     unique constraint and are returned as ErrDuplicate. The service layer
//     translates that into a domain error (e.g. ErrDuplicateVote).
//   - On other DB errors (connectivity, constraints, etc.), the raw gorm
//     error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/0xVampirot/justZappIt/internal/domain"
)

// ErrDuplicate indicates that a row violating a unique constraint already
// exists (e.g. the same identity voting the same way on the same store twice).
var ErrDuplicate = errors.New("duplicate")

// CreateVote inserts a vote row for the given store, type, and identity hash.
// The (store_id, type, ip_hash) triple must be unique; a second identical vote
// returns ErrDuplicate so callers can surface a conflict instead of silently
// dropping it.
func CreateVote(ctx context.Context, db *gorm.DB, storeID, voteType string, note *string, ipHash string) (*domain.Vote, error) {
	v := &domain.Vote{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		Type:      voteType,
		Note:      note,
		IPHash:    ipHash,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return v, nil
}

// CountStoreVotes returns the current confirm and flag tallies for a store,
// derived from the votes table. Recounting from scratch (rather than
// incrementing) keeps the stored counters honest even when writes race.
func CountStoreVotes(ctx context.Context, db *gorm.DB, storeID string) (confirms, flags int64, err error) {
	q := db.WithContext(ctx).Model(&domain.Vote{}).Where("store_id = ?", storeID)
	if err = q.Session(&gorm.Session{}).Where("type = ?", domain.VoteConfirm).Count(&confirms).Error; err != nil {
		return 0, 0, err
	}
	if err = q.Session(&gorm.Session{}).Where("type LIKE ?", "flag_%").Count(&flags).Error; err != nil {
		return 0, 0, err
	}
	return confirms, flags, nil
}

// CountRecentFlags counts flag-family votes recorded by the given identity
// hash at or after since. The flag cooldown guard is built on this.
func CountRecentFlags(ctx context.Context, db *gorm.DB, ipHash string, since time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("ip_hash = ? AND type LIKE ? AND created_at >= ?", ipHash, "flag_%", since).
		Count(&n).Error
	return n, err
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
