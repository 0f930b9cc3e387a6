// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file implements the durable per-identity rate-limit
// counter with a lazy-reset rolling window.
//
// The check-then-act race matters here: two simultaneous requests from the
// same identity must not both observe "count below limit" and both pass.
// ConsumeRateLimit therefore executes insert, conditional reset, increment,
// and read-back as ONE SQL statement (upsert with CASE + RETURNING). Never
// split this into a select followed by an update.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Decision is the outcome of consuming one rate-limited action.
type Decision struct {
	Allowed   bool
	Remaining int
}

// ConsumeRateLimit records one action for ipHash and decides whether it fits
// inside the current window of at most maxActions.
//
// Window semantics (lazy reset, not a sliding log): the first action from an
// identity, or the first action after reset_at has passed, restarts the
// counter at 1 with reset_at = now + window. Every other action increments in
// place. Allowed means the post-update count is still <= maxActions.
//
// Callers must treat any returned error as a denial (fail closed).
func ConsumeRateLimit(ctx context.Context, db *gorm.DB, ipHash string, maxActions int, window time.Duration, now time.Time) (Decision, error) {
	now = now.UTC()
	resetAt := now.Add(window)

	var row struct {
		ActionCount int
	}
	err := db.WithContext(ctx).Raw(`
		INSERT INTO rate_limits (ip_hash, action_count, reset_at)
		VALUES (?, 1, ?)
		ON CONFLICT(ip_hash) DO UPDATE SET
			action_count = CASE WHEN rate_limits.reset_at < ? THEN 1 ELSE rate_limits.action_count + 1 END,
			reset_at     = CASE WHEN rate_limits.reset_at < ? THEN ? ELSE rate_limits.reset_at END
		RETURNING action_count`,
		ipHash, resetAt, now, now, resetAt,
	).Scan(&row).Error
	if err != nil {
		return Decision{}, err
	}

	remaining := maxActions - row.ActionCount
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   row.ActionCount <= maxActions,
		Remaining: remaining,
	}, nil
}

// GetRateLimit fetches the raw counter row for an identity hash, or
// ErrNotFound. Used by tests and operational tooling; request paths only ever
// go through ConsumeRateLimit.
func GetRateLimit(ctx context.Context, db *gorm.DB, ipHash string) (count int, resetAt time.Time, err error) {
	var row struct {
		ActionCount int
		ResetAt     time.Time
	}
	err = db.WithContext(ctx).
		Table("rate_limits").
		Where("ip_hash = ?", ipHash).
		Take(&row).Error
	if err != nil {
		return 0, time.Time{}, err
	}
	return row.ActionCount, row.ResetAt, nil
}
