// Package services – ModerationService
//
// This file implements the ModerationService, which owns the store trust-state
// machine. It applies confirm/flag votes behind the abuse gates (captcha,
// durable rate limit, flag cooldown), recounts vote tallies from the votes
// table, and reclassifies the store's verification status with a pure
// threshold function. Service-level errors (ErrDuplicateVote, ErrRateLimited,
// ErrFlagCooldown, ...) are returned for predictable cases so handlers can map
// them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/0xVampirot/justZappIt/internal/captcha"
	"github.com/0xVampirot/justZappIt/internal/config"
	"github.com/0xVampirot/justZappIt/internal/domain"
	"github.com/0xVampirot/justZappIt/internal/repo"
)

// Trust thresholds. Five flags close a store, three put it under review,
// three confirmations promote a community store. Closure is not reversed by
// later confirmations.
const (
	flagsToClose     = 5
	flagsToFlag      = 3
	confirmsToVerify = 3
)

// ModerationService applies community votes to stores and keeps their trust
// state consistent with the recorded vote history. It is safe for concurrent
// use; correctness under races rests on the votes-table unique constraint,
// the atomic rate-limit upsert, and the idempotence of StatusFor.
type ModerationService struct {
	// DB is the database handle used for all moderation operations.
	DB *gorm.DB
	// Captcha is the human-verification oracle consulted before any vote.
	Captcha captcha.Verifier
	// Abuse carries the rate-limit and cooldown knobs.
	Abuse config.AbuseConfig

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewModerationService constructs a ModerationService.
func NewModerationService(db *gorm.DB, verifier captcha.Verifier, abuse config.AbuseConfig) *ModerationService {
	return &ModerationService{DB: db, Captcha: verifier, Abuse: abuse, now: time.Now}
}

// clock returns the service time source, defaulting to time.Now for
// zero-value construction in tests.
func (s *ModerationService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// StatusFor recomputes a store's verification status from its vote tallies.
//
// It is a pure function of (confirms, flags, current): evaluating it twice
// from the same counters always yields the same answer, which makes racing
// recomputations safe: whichever write lands last, both derived the same
// status once all votes are durable. Thresholds are checked worst-first so
// closure always wins; below every threshold the current status is kept
// (unverified, seed_partial, whatever it was).
func StatusFor(confirms, flags int, current domain.VerificationStatus) domain.VerificationStatus {
	switch {
	case flags >= flagsToClose:
		return domain.StatusClosed
	case flags >= flagsToFlag:
		return domain.StatusFlagged
	case confirms >= confirmsToVerify:
		return domain.StatusCommunityVerified
	default:
		return current
	}
}

// VoteRequest is a validated vote command.
type VoteRequest struct {
	StoreID      string
	Type         string
	Note         *string
	CaptchaToken string
	IPHash       string
}

// CastVote runs the full vote pipeline: captcha → durable rate limit → flag
// cooldown (flag votes only) → vote insert → tally recount → status rewrite.
//
// Error semantics:
//   - ErrInvalidVoteType, ErrStoreNotFound for bad input;
//   - ErrCaptchaFailed / ErrCaptchaUnavailable from the oracle;
//   - ErrRateLimited when the budget is spent or the counter store errors;
//   - ErrFlagCooldown when the identity flagged too recently (handlers mask
//     this one as success; the narrow threshold must not be learnable);
//   - ErrDuplicateVote when the (store, type, identity) triple already exists;
//   - the raw DB error for unexpected failures.
func (s *ModerationService) CastVote(ctx context.Context, req VoteRequest) error {
	if !domain.ValidVoteType(req.Type) {
		return ErrInvalidVoteType
	}

	humanOK, err := s.Captcha.Verify(ctx, req.CaptchaToken)
	if err != nil {
		return ErrCaptchaUnavailable
	}
	if !humanOK {
		return ErrCaptchaFailed
	}

	now := s.clock().UTC()
	decision, err := repo.ConsumeRateLimit(ctx, s.DB, req.IPHash, s.Abuse.MaxActions, s.Abuse.Window, now)
	if err != nil || !decision.Allowed {
		// Counter-store failure counts as denial.
		return ErrRateLimited
	}

	if domain.IsFlagType(req.Type) {
		since := now.Add(-s.Abuse.FlagCooldown)
		n, err := repo.CountRecentFlags(ctx, s.DB, req.IPHash, since)
		if err != nil || n >= int64(s.Abuse.FlagCooldownMax) {
			return ErrFlagCooldown
		}
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store, err := repo.GetStore(ctx, tx, req.StoreID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrStoreNotFound
			}
			return err
		}

		if _, err := repo.CreateVote(ctx, tx, store.ID, req.Type, req.Note, req.IPHash); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDuplicateVote
			}
			return err
		}

		confirms, flags, err := repo.CountStoreVotes(ctx, tx, store.ID)
		if err != nil {
			return err
		}
		next := StatusFor(int(confirms), int(flags), store.Status)
		return repo.UpdateStoreTrust(ctx, tx, store.ID, int(confirms), int(flags), next)
	})
}

// ApplyEdit applies an accepted edit's descriptive fields to a store.
//
// Edits apply immediately once intake accepts them; there is no community
// confirmation gate yet. Submission.ConfirmCount is already persisted, so a
// future confirmation-gated queue only needs to defer this call until the
// submission gathers enough confirmations. Location and trust-state fields
// are never touched here.
func (s *ModerationService) ApplyEdit(ctx context.Context, db *gorm.DB, storeID string, edit repo.StoreEdit) error {
	if db == nil {
		db = s.DB
	}
	if err := repo.ApplyStoreEdit(ctx, db, storeID, edit); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrStoreNotFound
		}
		return err
	}
	return nil
}
