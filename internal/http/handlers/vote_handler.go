// Vote HTTP handlers.
//
// This file exposes the REST endpoint for community votes on stores:
//   - POST /votes  (confirm or flag a store)
//
// Handlers are transport-thin: they hash the caller's network address,
// delegate to the moderation service, and translate service errors into HTTP
// results. Two denials are deliberately masked as success: flag cooldown
// here, and the honeypot on the submissions handler. Adversaries must not be
// able to observe the thresholds.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0xVampirot/justZappIt/internal/http/middleware"
	"github.com/0xVampirot/justZappIt/internal/identity"
	"github.com/0xVampirot/justZappIt/internal/services"
)

// SubmitVoteRequest is the JSON payload for casting a vote.
type SubmitVoteRequest struct {
	// StoreID is the UUID of the voted-on store.
	StoreID string `json:"store_id" binding:"required,uuid" example:"fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b"`
	// Type is one of: confirm, flag_closed, flag_wrong, flag_no_crypto.
	Type string `json:"type" binding:"required,oneof=confirm flag_closed flag_wrong flag_no_crypto" example:"confirm"`
	// Note is optional free text attached to the vote.
	Note *string `json:"note,omitempty" binding:"omitempty,max=500" example:"Paid with sats last week"`
	// HCaptchaToken is the captcha response token from the widget.
	HCaptchaToken string `json:"hcaptcha_token" binding:"required" example:"10000000-aaaa-bbbb-cccc-000000000001"`
}

// SubmitVoteResponse acknowledges an accepted (or masked) vote.
type SubmitVoteResponse struct {
	Success bool `json:"success" example:"true"`
}

// SubmitVote godoc
// @ID          submitVote
// @Summary     Vote on a store
// @Description Records an anonymous confirm or flag vote and recomputes the store's verification status.
// @Tags        Votes
// @Accept      json
// @Produce     json
// @Param       body body handlers.SubmitVoteRequest true "Vote payload"
// @Success     200  {object} handlers.SubmitVoteResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload or captcha"
// @Failure     404  {object} handlers.ErrorResponse "Store not found"
// @Failure     409  {object} handlers.ErrorResponse "Already voted this way"
// @Failure     429  {object} handlers.ErrorResponse "Rate limit exceeded"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /votes [post]
func (h *Handlers) SubmitVote(c *gin.Context) {
	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload data")
		return
	}

	ipHash := h.hasher.Hash(identity.ClientAddress(c.Request.Header))

	err := h.modSvc.CastVote(c.Request.Context(), services.VoteRequest{
		StoreID:      req.StoreID,
		Type:         req.Type,
		Note:         req.Note,
		CaptchaToken: req.HCaptchaToken,
		IPHash:       ipHash,
	})
	switch {
	case err == nil:
		middleware.VotesRecorded.WithLabelValues(req.Type).Inc()
		ok(c, http.StatusOK, SubmitVoteResponse{Success: true})

	case errors.Is(err, services.ErrFlagCooldown):
		// Silently accept: the cooldown threshold must not be observable.
		middleware.AbuseDenials.WithLabelValues("flag_cooldown").Inc()
		middleware.LoggerFrom(c).Info().Str("store_id", req.StoreID).Msg("flag cooldown active, vote dropped")
		ok(c, http.StatusOK, SubmitVoteResponse{Success: true})

	case errors.Is(err, services.ErrInvalidVoteType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid vote type")
	case errors.Is(err, services.ErrCaptchaFailed):
		middleware.AbuseDenials.WithLabelValues("captcha").Inc()
		fail(c, http.StatusBadRequest, ErrCodeCaptchaFailed, "hCaptcha verification failed")
	case errors.Is(err, services.ErrStoreNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "store not found")
	case errors.Is(err, services.ErrDuplicateVote):
		middleware.AbuseDenials.WithLabelValues("duplicate").Inc()
		fail(c, http.StatusConflict, ErrCodeConflict, "You have already voted this way for this store.")
	case errors.Is(err, services.ErrRateLimited):
		middleware.AbuseDenials.WithLabelValues("rate_limit").Inc()
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "Rate limit exceeded. Try again tomorrow.")
	default:
		// Includes ErrCaptchaUnavailable and DB failures: log internally,
		// keep the caller-facing message generic.
		middleware.LoggerFrom(c).Error().Err(err).Msg("vote failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred. Please try again.")
	}
}
