// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// This file centralizes symbolic error code constants mapped to HTTP responses
// via the `fail()` helper. Codes are lowercase snake_case and give clients a
// stable, machine-readable taxonomy alongside the human-readable message.
//
// One deliberate gap: abuse detections (honeypot, flag cooldown) have no code
// at all. Those responses are indistinguishable from success so automated
// adversaries cannot learn the thresholds.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeCaptchaFailed = "captcha_failed"
	ErrCodeTooFast       = "too_fast"
	ErrCodeGeocodeFailed = "geocode_failed"
)
