package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/0xVampirot/justZappIt/internal/domain"
)

// voteFixtures migrates stores+votes and inserts one store to vote on.
func voteFixtures(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	db := newRepoDB(t, &domain.Store{}, &domain.Vote{})
	s := testStore("Voted On")
	if err := CreateStore(context.Background(), db, s); err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	return db, s.ID
}

func TestCreateVote_SecondIdenticalVoteIsDuplicate(t *testing.T) {
	db, storeID := voteFixtures(t)
	ctx := context.Background()

	v, err := CreateVote(ctx, db, storeID, domain.VoteConfirm, nil, "hash-a")
	if err != nil {
		t.Fatalf("CreateVote: %v", err)
	}
	if v.ID == "" || v.CreatedAt.IsZero() {
		t.Fatalf("vote fields unset: %+v", v)
	}

	_, err = CreateVote(ctx, db, storeID, domain.VoteConfirm, nil, "hash-a")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("repeat vote err = %v; want ErrDuplicate", err)
	}

	// Different type from the same identity is a separate vote.
	if _, err := CreateVote(ctx, db, storeID, domain.VoteFlagWrong, nil, "hash-a"); err != nil {
		t.Fatalf("different type should pass: %v", err)
	}
	// Same type from a different identity is a separate vote.
	if _, err := CreateVote(ctx, db, storeID, domain.VoteConfirm, nil, "hash-b"); err != nil {
		t.Fatalf("different identity should pass: %v", err)
	}
}

func TestCountStoreVotes_SplitsConfirmsAndFlags(t *testing.T) {
	db, storeID := voteFixtures(t)
	ctx := context.Background()

	votes := []struct{ typ, hash string }{
		{domain.VoteConfirm, "h1"},
		{domain.VoteConfirm, "h2"},
		{domain.VoteFlagClosed, "h1"},
		{domain.VoteFlagWrong, "h3"},
		{domain.VoteFlagNoCrypto, "h4"},
	}
	for _, v := range votes {
		if _, err := CreateVote(ctx, db, storeID, v.typ, nil, v.hash); err != nil {
			t.Fatalf("CreateVote(%s,%s): %v", v.typ, v.hash, err)
		}
	}

	confirms, flags, err := CountStoreVotes(ctx, db, storeID)
	if err != nil {
		t.Fatalf("CountStoreVotes: %v", err)
	}
	if confirms != 2 || flags != 3 {
		t.Fatalf("counts = (%d, %d); want (2, 3)", confirms, flags)
	}

	// Unknown store counts as zero, not an error.
	confirms, flags, err = CountStoreVotes(ctx, db, "missing")
	if err != nil || confirms != 0 || flags != 0 {
		t.Fatalf("missing store = (%d, %d, %v); want (0, 0, nil)", confirms, flags, err)
	}
}

func TestCountRecentFlags_WindowAndIdentityScoped(t *testing.T) {
	db, storeID := voteFixtures(t)
	ctx := context.Background()

	if _, err := CreateVote(ctx, db, storeID, domain.VoteFlagClosed, nil, "h1"); err != nil {
		t.Fatalf("CreateVote: %v", err)
	}
	if _, err := CreateVote(ctx, db, storeID, domain.VoteFlagWrong, nil, "h1"); err != nil {
		t.Fatalf("CreateVote: %v", err)
	}
	// confirms never count toward the cooldown
	if _, err := CreateVote(ctx, db, storeID, domain.VoteConfirm, nil, "h1"); err != nil {
		t.Fatalf("CreateVote: %v", err)
	}
	// another identity never counts
	if _, err := CreateVote(ctx, db, storeID, domain.VoteFlagNoCrypto, nil, "h2"); err != nil {
		t.Fatalf("CreateVote: %v", err)
	}

	since := time.Now().UTC().Add(-time.Hour)
	n, err := CountRecentFlags(ctx, db, "h1", since)
	if err != nil {
		t.Fatalf("CountRecentFlags: %v", err)
	}
	if n != 2 {
		t.Fatalf("recent flags = %d; want 2", n)
	}

	// A future cutoff excludes everything.
	n, err = CountRecentFlags(ctx, db, "h1", time.Now().UTC().Add(time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("future cutoff = (%d, %v); want (0, nil)", n, err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := map[error]bool{
		gorm.ErrDuplicatedKey: true,
		errors.New("UNIQUE constraint failed: votes.store_id"):    true,
		errors.New("constraint failed: UNIQUE constraint (2067)"): true,
		errors.New("duplicate key value violates unique index"):   true,
		errors.New("no such table: votes"):                        false,
	}
	for err, want := range cases {
		if got := isUniqueViolation(err); got != want {
			t.Fatalf("isUniqueViolation(%v) = %v; want %v", err, got, want)
		}
	}
}
