// Package services defines the business logic for stores, votes, and
// submissions. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer. Two of them (ErrBotDetected, ErrFlagCooldown) must be masked as
// success by handlers so automated adversaries get no feedback.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrStoreNotFound indicates that the referenced store does not exist.
	ErrStoreNotFound = errors.New("store not found")

	// ErrInvalidVoteType is returned when a vote type is outside the fixed
	// set (confirm, flag_closed, flag_wrong, flag_no_crypto).
	ErrInvalidVoteType = errors.New("invalid vote type")

	// ErrDuplicateVote is returned when the same anonymous identity votes
	// the same way on the same store twice.
	ErrDuplicateVote = errors.New("vote already recorded")

	// ErrRateLimited is returned when the durable per-identity action budget
	// is exhausted, or when the counter store errors (fail closed).
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrFlagCooldown is returned when an identity has flagged too often in
	// the trailing cooldown window, or when the vote history cannot be read
	// (fail closed). Handlers must mask this as success.
	ErrFlagCooldown = errors.New("flag cooldown active")

	// ErrBotDetected is returned when the honeypot field is non-empty.
	// Handlers must mask this as success.
	ErrBotDetected = errors.New("honeypot tripped")

	// ErrTooFast is returned when the form was submitted faster than a human
	// plausibly could fill it.
	ErrTooFast = errors.New("submission too fast")

	// ErrInvalidSubmissionType is returned for submission types outside
	// {new_store, edit}.
	ErrInvalidSubmissionType = errors.New("invalid submission type")

	// ErrCaptchaFailed is returned when the captcha oracle rejects a token.
	ErrCaptchaFailed = errors.New("captcha verification failed")

	// ErrCaptchaUnavailable is returned when the captcha oracle cannot be
	// reached; the action is denied rather than guessed (fail closed).
	ErrCaptchaUnavailable = errors.New("captcha verification unavailable")

	// ErrGeocodeFailed is returned when a submission carries no coordinates
	// and no geocoding match could be resolved for its address.
	ErrGeocodeFailed = errors.New("could not resolve location")
)

// PayloadError reports schema-validation failures with field-level detail.
// Handlers serialize Fields into the 400 response body verbatim.
type PayloadError struct {
	Fields map[string]string
}

// Error implements the error interface with a deterministic field order.
func (e *PayloadError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

// AsPayloadError unwraps err into a *PayloadError if it is one.
func AsPayloadError(err error) (*PayloadError, bool) {
	var pe *PayloadError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
