package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0xVampirot/justZappIt/internal/http/middleware"
	"github.com/0xVampirot/justZappIt/internal/identity"
	"github.com/0xVampirot/justZappIt/internal/services"
)

// CreateSubmissionRequest is the JSON payload for the submission intake
// endpoint. The Website field is a honeypot: it is invisible in the real form,
// so any non-empty value marks the sender as a bot. LoadedAt carries the
// client-side form render time in Unix milliseconds for the time trap.
type CreateSubmissionRequest struct {
	// Type is "new_store" or "edit".
	Type string `json:"type" binding:"required,oneof=new_store edit" example:"new_store"`
	// StoreID is required for edits, ignored for new stores.
	StoreID *string `json:"store_id,omitempty" binding:"omitempty,uuid" example:"fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b"`
	// Payload holds the type-specific submission body.
	Payload json.RawMessage `json:"payload" binding:"required" swaggertype:"object"`
	// HCaptchaToken is the captcha response token from the widget.
	HCaptchaToken string `json:"hcaptcha_token" binding:"required" example:"10000000-aaaa-bbbb-cccc-000000000001"`
	// Website is the honeypot field. Humans never see it; leave it empty.
	Website string `json:"website,omitempty"`
	// LoadedAt is the Unix-millisecond timestamp at which the form rendered.
	LoadedAt int64 `json:"loaded_at,omitempty" example:"1756400000000"`
}

// CreateSubmissionResponse acknowledges an accepted (or masked) submission.
type CreateSubmissionResponse struct {
	Success      bool   `json:"success" example:"true"`
	SubmissionID string `json:"submission_id,omitempty" example:"9c1f9e61-8a2e-4a43-8a20-0f0f4ec2f6a0"`
	StoreID      string `json:"store_id,omitempty" example:"fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b"`
}

// CreateSubmission godoc
// @ID          createSubmission
// @Summary     Submit a new store or an edit
// @Description Validates and records a community submission. New stores go live immediately as unverified.
// @Tags        Submissions
// @Accept      json
// @Produce     json
// @Param       body body handlers.CreateSubmissionRequest true "Submission payload"
// @Success     200  {object} handlers.CreateSubmissionResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload, captcha failure, or form submitted too fast"
// @Failure     404  {object} handlers.ErrorResponse "Edit target not found"
// @Failure     429  {object} handlers.ErrorResponse "Rate limit exceeded"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /submissions [post]
func (h *Handlers) CreateSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload data")
		return
	}

	ipHash := h.hasher.Hash(identity.ClientAddress(c.Request.Header))

	res, err := h.subSvc.Submit(c.Request.Context(), services.SubmissionRequest{
		Type:         req.Type,
		StoreID:      req.StoreID,
		Payload:      req.Payload,
		CaptchaToken: req.HCaptchaToken,
		IPHash:       ipHash,
		Honeypot:     req.Website,
		LoadedAt:     req.LoadedAt,
	})
	switch {
	case err == nil:
		middleware.SubmissionsAccepted.WithLabelValues(req.Type).Inc()
		ok(c, http.StatusOK, CreateSubmissionResponse{
			Success:      true,
			SubmissionID: res.SubmissionID,
			StoreID:      res.StoreID,
		})

	case errors.Is(err, services.ErrBotDetected):
		// Honeypot tripped: respond exactly like a success so the bot cannot
		// tell it was caught. No record is written.
		middleware.AbuseDenials.WithLabelValues("honeypot").Inc()
		middleware.LoggerFrom(c).Info().Msg("honeypot triggered, submission dropped")
		ok(c, http.StatusOK, CreateSubmissionResponse{Success: true})

	case errors.Is(err, services.ErrTooFast):
		middleware.AbuseDenials.WithLabelValues("time_trap").Inc()
		fail(c, http.StatusBadRequest, ErrCodeTooFast, "Form submitted too quickly. Please review your entry and try again.")
	case errors.Is(err, services.ErrInvalidSubmissionType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid submission type")
	case errors.Is(err, services.ErrCaptchaFailed):
		middleware.AbuseDenials.WithLabelValues("captcha").Inc()
		fail(c, http.StatusBadRequest, ErrCodeCaptchaFailed, "hCaptcha verification failed")
	case errors.Is(err, services.ErrRateLimited):
		middleware.AbuseDenials.WithLabelValues("rate_limit").Inc()
		fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, "Rate limit exceeded. Try again tomorrow.")
	case errors.Is(err, services.ErrStoreNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "store not found")
	case errors.Is(err, services.ErrGeocodeFailed):
		fail(c, http.StatusBadRequest, ErrCodeGeocodeFailed, "Address could not be geocoded. Provide coordinates or check the address.")
	default:
		if pe, isPayload := services.AsPayloadError(err); isPayload {
			failWithDetails(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid submission payload", pe.Fields)
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("submission failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "An internal error occurred. Please try again.")
	}
}
