package handlers

import (
	"context"

	"github.com/0xVampirot/justZappIt/internal/domain"
	"github.com/0xVampirot/justZappIt/internal/geocode"
	"github.com/0xVampirot/justZappIt/internal/identity"
	"github.com/0xVampirot/justZappIt/internal/services"
)

// ModerationAPI is the slice of the moderation service the vote handler needs.
type ModerationAPI interface {
	CastVote(ctx context.Context, req services.VoteRequest) error
}

// SubmissionAPI is the slice of the submission service the intake handler needs.
type SubmissionAPI interface {
	Submit(ctx context.Context, req services.SubmissionRequest) (*services.SubmissionResult, error)
}

// StoreAPI is the read-side store service used by listing and detail handlers.
type StoreAPI interface {
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Store, int64, error)
	Get(ctx context.Context, id string) (*domain.Store, error)
}

// Handlers bundles the HTTP handlers with their service dependencies.
type Handlers struct {
	modSvc   ModerationAPI
	subSvc   SubmissionAPI
	storeSvc StoreAPI
	geocoder geocode.Resolver
	hasher   *identity.Hasher
}

// New wires the handler set. All dependencies are required except geocoder,
// which may be nil when the geocode proxy endpoint is not mounted.
func New(mod ModerationAPI, sub SubmissionAPI, store StoreAPI, geo geocode.Resolver, hasher *identity.Hasher) *Handlers {
	return &Handlers{
		modSvc:   mod,
		subSvc:   sub,
		storeSvc: store,
		geocoder: geo,
		hasher:   hasher,
	}
}
