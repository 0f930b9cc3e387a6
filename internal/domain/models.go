// Package domain defines the persistence models for stores, votes,
// submissions, and rate-limit counters. These types are mapped with GORM and
// form the core data layer of the directory application.
package domain

import (
	"strings"
	"time"
)

// VerificationStatus is the trust state of a store. The six literals are a
// closed contract consumed by map rendering and filtering; renaming or adding
// one is a breaking change.
type VerificationStatus string

const (
	StatusSeedConfirmed     VerificationStatus = "seed_confirmed"
	StatusSeedPartial       VerificationStatus = "seed_partial"
	StatusCommunityVerified VerificationStatus = "community_verified"
	StatusUnverified        VerificationStatus = "unverified"
	StatusFlagged           VerificationStatus = "flagged"
	StatusClosed            VerificationStatus = "closed"
)

// Store provenance.
const (
	SourceSeed      = "seed"
	SourceCommunity = "community"
)

// Vote types. Everything except VoteConfirm counts toward the flag tally.
const (
	VoteConfirm      = "confirm"
	VoteFlagClosed   = "flag_closed"
	VoteFlagWrong    = "flag_wrong"
	VoteFlagNoCrypto = "flag_no_crypto"
)

// Submission types.
const (
	SubmissionNewStore = "new_store"
	SubmissionEdit     = "edit"
)

// SubmissionStatusLive is the only submission status the current design
// writes. Kept as a column so a future confirmation-gated edit queue can
// retire submissions without a migration.
const SubmissionStatusLive = "live"

// IsFlagType reports whether a vote type belongs to the flag family.
func IsFlagType(t string) bool { return strings.HasPrefix(t, "flag_") }

// ValidVoteType reports whether t is one of the accepted vote types.
func ValidVoteType(t string) bool {
	switch t {
	case VoteConfirm, VoteFlagClosed, VoteFlagWrong, VoteFlagNoCrypto:
		return true
	}
	return false
}

// Store represents a physical location claiming to accept cryptocurrency.
//
// Trust state (VerificationStatus, ConfirmCount, FlagCount, Source) is owned
// by the moderation core: counts mirror the votes table and status is
// recomputed from them on every vote. Edits only ever touch descriptive
// fields; location and trust state are off limits.
type Store struct {
	ID            string             `json:"id"             gorm:"type:char(36);primaryKey"`
	OperatorName  string             `json:"operator_name"  gorm:"type:varchar(100);not null;index"`
	StreetAddress *string            `json:"street_address" gorm:"type:varchar(200)"`
	City          string             `json:"city"           gorm:"type:varchar(100);not null"`
	Country       string             `json:"country"        gorm:"type:varchar(100);not null;index"`
	Lat           float64            `json:"lat"            gorm:"not null"`
	Lng           float64            `json:"lng"            gorm:"not null"`
	IsApproximate bool               `json:"is_approximate" gorm:"not null;default:false"`
	Website       *string            `json:"website"        gorm:"type:varchar(200)"`
	OpeningHours  *string            `json:"opening_hours"  gorm:"type:varchar(100)"`
	Phone         *string            `json:"phone"          gorm:"type:varchar(50)"`
	Email         *string            `json:"email"          gorm:"type:varchar(100)"`
	AcceptsCrypto CryptoList         `json:"accepts_crypto" gorm:"type:text"`
	Status        VerificationStatus `json:"verification_status" gorm:"column:verification_status;type:varchar(32);not null;default:'unverified';index;check:verification_status IN ('seed_confirmed','seed_partial','community_verified','unverified','flagged','closed')"`
	ConfirmCount  int                `json:"confirm_count"  gorm:"not null;default:0;check:confirm_count >= 0"`
	FlagCount     int                `json:"flag_count"     gorm:"not null;default:0;check:flag_count >= 0"`
	Source        string             `json:"source"         gorm:"type:varchar(16);not null;default:'community';check:source IN ('seed','community')"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// TableName returns the database table name for Store.
func (Store) TableName() string { return "stores" }

// Vote is an anonymous assertion about a store. At most one vote of a given
// (store, type, hashed identity) triple may exist; the composite unique index
// turns repeat votes into a reportable conflict instead of a silent no-op.
type Vote struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	StoreID   string    `json:"store_id"   gorm:"type:char(36);not null;index;uniqueIndex:ux_votes_store_type_ip,priority:1"`
	Type      string    `json:"type"       gorm:"type:varchar(20);not null;uniqueIndex:ux_votes_store_type_ip,priority:2;check:type IN ('confirm','flag_closed','flag_wrong','flag_no_crypto')"`
	Note      *string   `json:"note,omitempty" gorm:"type:varchar(500)"`
	IPHash    string    `json:"-"          gorm:"column:ip_hash;type:char(64);not null;index;uniqueIndex:ux_votes_store_type_ip,priority:3"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	// Store is the voted-on row. Votes are cascade-deleted with it.
	Store Store `json:"-" gorm:"foreignKey:StoreID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string { return "votes" }

// Submission records a proposed creation or edit for audit/history,
// independent of its effect on the stores table. Rows are immutable once
// written. ConfirmCount is persisted for a future multi-confirmation edit
// workflow; nothing reads it yet.
type Submission struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	Type         string    `json:"type"          gorm:"type:varchar(16);not null;check:type IN ('new_store','edit')"`
	StoreID      *string   `json:"store_id,omitempty" gorm:"type:char(36);index"`
	Payload      string    `json:"payload"       gorm:"type:text;not null"`
	IPHash       string    `json:"-"             gorm:"column:ip_hash;type:char(64);not null;index"`
	ConfirmCount int       `json:"confirm_count" gorm:"not null;default:0"`
	Status       string    `json:"status"        gorm:"type:varchar(16);not null;default:'live'"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for Submission.
func (Submission) TableName() string { return "submissions" }

// RateLimitCounter is the per-identity rolling action counter behind the
// durable rate limiter. reset_at governs validity, not row presence; stale
// rows simply age out logically and are restarted in place.
type RateLimitCounter struct {
	IPHash      string    `gorm:"column:ip_hash;type:char(64);primaryKey"`
	ActionCount int       `gorm:"not null;default:1"`
	ResetAt     time.Time `gorm:"not null"`
}

// TableName returns the database table name for RateLimitCounter.
func (RateLimitCounter) TableName() string { return "rate_limits" }
