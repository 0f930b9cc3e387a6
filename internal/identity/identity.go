// Package identity turns a raw client network address into the anonymous,
// non-reversible handle used for rate limiting and vote uniqueness. No user
// accounts exist anywhere in the system; a salted SHA-256 of the client
// address is the only identity the moderation surface ever sees.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/0xVampirot/justZappIt/internal/config"
)

// ErrSaltRequired is returned by NewHasher when production mode is combined
// with a missing or placeholder salt. A guessable salt lets an attacker
// precompute identity hashes and walk around the rate limiter, so refusing to
// start is the only safe behavior.
var ErrSaltRequired = errors.New("identity: IP_HASH_SALT must be a real secret in production")

// Hasher derives stable anonymous handles from client addresses.
// Same address + same salt => same handle; rotating the salt invalidates all
// prior rate-limit history, which is acceptable.
type Hasher struct {
	salt string
}

// NewHasher validates the salt for the given production flag and returns a
// ready Hasher. In development an empty or placeholder salt is tolerated with
// a loud warning and the placeholder is substituted so hashing stays
// deterministic.
func NewHasher(salt string, production bool) (*Hasher, error) {
	s := strings.TrimSpace(salt)
	if s == "" || s == config.PlaceholderSalt {
		if production {
			return nil, ErrSaltRequired
		}
		log.Warn().Msg("identity: using default IP_HASH_SALT; this is insecure outside development")
		s = config.PlaceholderSalt
	}
	return &Hasher{salt: s}, nil
}

// Hash returns the fixed-length hex digest of raw combined with the salt.
func (h *Hasher) Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw + h.salt))
	return hex.EncodeToString(sum[:])
}

// ClientAddress extracts the client network address from proxy headers:
// the first X-Forwarded-For entry, then X-Real-IP, then the sentinel
// "unknown". It trims whitespace and never fails on missing headers.
func ClientAddress(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first := strings.SplitN(fwd, ",", 2)[0]
		if s := strings.TrimSpace(first); s != "" {
			return s
		}
	}
	if real := strings.TrimSpace(h.Get("X-Real-IP")); real != "" {
		return real
	}
	return "unknown"
}
