// Package services – SubmissionService
//
// This file implements the SubmissionService, the intake pipeline for
// new-store and edit proposals. Gates run strictly in order, each
// short-circuiting: honeypot → time trap → schema validation → captcha →
// durable rate limit. On full acceptance a Submission row is always recorded;
// new_store additionally creates the Store row in the same transaction, and
// edit applies immediately through ModerationService.ApplyEdit.
package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/0xVampirot/justZappIt/internal/captcha"
	"github.com/0xVampirot/justZappIt/internal/config"
	"github.com/0xVampirot/justZappIt/internal/domain"
	"github.com/0xVampirot/justZappIt/internal/geocode"
	"github.com/0xVampirot/justZappIt/internal/repo"
)

// Field length bounds mirrored from the public form.
const (
	maxNameLen    = 100
	maxAddressLen = 200
	maxCityLen    = 100
	maxCountryLen = 100
	maxWebsiteLen = 200
	maxHoursLen   = 100
	maxPhoneLen   = 50
	maxEmailLen   = 100
	maxTickerLen  = 20
	maxTickers    = 20
)

// NewStorePayload is the proposed field set for a new store. Lat/Lng are
// optional; when absent the service geocodes the submitted address.
type NewStorePayload struct {
	OperatorName  string   `json:"operator_name"`
	StreetAddress *string  `json:"street_address,omitempty"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	IsApproximate bool     `json:"is_approximate"`
	Website       *string  `json:"website,omitempty"`
	OpeningHours  *string  `json:"opening_hours,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	Email         *string  `json:"email,omitempty"`
	AcceptsCrypto []string `json:"accepts_crypto"`
}

// EditPayload is the proposed field set for an edit. Only descriptive fields
// may be proposed; location and trust state are not editable.
type EditPayload struct {
	Website      *string `json:"website,omitempty"`
	OpeningHours *string `json:"opening_hours,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
}

// SubmissionRequest is the raw intake command, including the anti-bot
// signals collected by the form.
type SubmissionRequest struct {
	Type         string
	StoreID      *string
	Payload      json.RawMessage
	CaptchaToken string
	IPHash       string

	// Honeypot is a hidden form field that stays empty for humans.
	Honeypot string
	// LoadedAt is the client-reported form-load time in Unix milliseconds;
	// zero means the signal was not provided.
	LoadedAt int64
}

// SubmissionResult reports what an accepted submission produced.
type SubmissionResult struct {
	SubmissionID string
	// StoreID is the created store for new_store, the edited store for edit.
	StoreID string
}

// SubmissionService validates and records intake requests.
type SubmissionService struct {
	DB         *gorm.DB
	Captcha    captcha.Verifier
	Geocoder   geocode.Resolver
	Moderation *ModerationService
	Abuse      config.AbuseConfig

	now func() time.Time
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(db *gorm.DB, verifier captcha.Verifier, resolver geocode.Resolver, mod *ModerationService, abuse config.AbuseConfig) *SubmissionService {
	return &SubmissionService{
		DB:         db,
		Captcha:    verifier,
		Geocoder:   resolver,
		Moderation: mod,
		Abuse:      abuse,
		now:        time.Now,
	}
}

func (s *SubmissionService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// titleCaser canonicalizes submitted city/country casing ("prague" → "Prague").
var titleCaser = cases.Title(language.Und)

// Submit runs the intake pipeline and, on acceptance, persists the submission
// (plus the store row for new_store) atomically.
//
// Error semantics:
//   - ErrBotDetected for a tripped honeypot (handlers mask as success);
//   - ErrTooFast when the form round-trip undercuts the minimum fill time;
//   - ErrInvalidSubmissionType, *PayloadError for malformed proposals;
//   - ErrGeocodeFailed when no coordinates were given and none resolve;
//   - ErrCaptchaFailed / ErrCaptchaUnavailable from the oracle;
//   - ErrRateLimited when the identity budget is spent, or when the counter
//     store errors (fail closed);
//   - ErrStoreNotFound for edits against unknown stores;
//   - the raw DB error for unexpected failures.
func (s *SubmissionService) Submit(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error) {
	now := s.clock()

	// 1) Honeypot: bots fill every field. Callers answer with fake success.
	if strings.TrimSpace(req.Honeypot) != "" {
		return nil, ErrBotDetected
	}

	// 2) Time trap: humans cannot complete the form in under the minimum.
	if req.LoadedAt > 0 {
		elapsed := now.Sub(time.UnixMilli(req.LoadedAt))
		if elapsed < s.Abuse.MinSubmitTime {
			return nil, ErrTooFast
		}
	}

	// 3) Schema validation (field-level detail on failure).
	var (
		newStore *NewStorePayload
		edit     *EditPayload
	)
	switch req.Type {
	case domain.SubmissionNewStore:
		p, err := s.parseNewStore(ctx, req.Payload)
		if err != nil {
			return nil, err
		}
		newStore = p
	case domain.SubmissionEdit:
		if req.StoreID == nil || strings.TrimSpace(*req.StoreID) == "" {
			return nil, &PayloadError{Fields: map[string]string{"store_id": "required for edits"}}
		}
		p, err := parseEdit(req.Payload)
		if err != nil {
			return nil, err
		}
		edit = p
	default:
		return nil, ErrInvalidSubmissionType
	}

	// 4) Captcha oracle.
	humanOK, err := s.Captcha.Verify(ctx, req.CaptchaToken)
	if err != nil {
		return nil, ErrCaptchaUnavailable
	}
	if !humanOK {
		return nil, ErrCaptchaFailed
	}

	// 5) Durable rate limit; errors deny.
	decision, err := repo.ConsumeRateLimit(ctx, s.DB, req.IPHash, s.Abuse.MaxActions, s.Abuse.Window, now)
	if err != nil || !decision.Allowed {
		return nil, ErrRateLimited
	}

	// Acceptance: submission row always, plus the per-type effect, as a unit.
	var result SubmissionResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch req.Type {
		case domain.SubmissionNewStore:
			store := storeFromPayload(newStore)
			if err := repo.CreateStore(ctx, tx, store); err != nil {
				return err
			}
			payload, err := json.Marshal(newStore)
			if err != nil {
				return err
			}
			sub, err := repo.CreateSubmission(ctx, tx, req.Type, &store.ID, string(payload), req.IPHash)
			if err != nil {
				return err
			}
			result = SubmissionResult{SubmissionID: sub.ID, StoreID: store.ID}
			return nil

		default: // edit
			payload, err := json.Marshal(edit)
			if err != nil {
				return err
			}
			sub, err := repo.CreateSubmission(ctx, tx, req.Type, req.StoreID, string(payload), req.IPHash)
			if err != nil {
				return err
			}
			if err := s.Moderation.ApplyEdit(ctx, tx, *req.StoreID, repo.StoreEdit{
				Website:      edit.Website,
				OpeningHours: edit.OpeningHours,
				Phone:        edit.Phone,
				Email:        edit.Email,
			}); err != nil {
				return err
			}
			result = SubmissionResult{SubmissionID: sub.ID, StoreID: *req.StoreID}
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// parseNewStore decodes, validates, and normalizes a new-store payload,
// resolving coordinates when the submitter did not supply them.
func (s *SubmissionService) parseNewStore(ctx context.Context, raw json.RawMessage) (*NewStorePayload, error) {
	var p NewStorePayload
	if err := strictUnmarshal(raw, &p); err != nil {
		return nil, &PayloadError{Fields: map[string]string{"payload": "malformed JSON"}}
	}

	fields := map[string]string{}
	p.OperatorName = strings.TrimSpace(p.OperatorName)
	p.City = titleCaser.String(strings.TrimSpace(p.City))
	p.Country = titleCaser.String(strings.TrimSpace(p.Country))

	requireBounded(fields, "operator_name", p.OperatorName, maxNameLen)
	requireBounded(fields, "city", p.City, maxCityLen)
	requireBounded(fields, "country", p.Country, maxCountryLen)
	optionalBounded(fields, "street_address", p.StreetAddress, maxAddressLen)
	optionalBounded(fields, "website", p.Website, maxWebsiteLen)
	optionalBounded(fields, "opening_hours", p.OpeningHours, maxHoursLen)
	optionalBounded(fields, "phone", p.Phone, maxPhoneLen)
	optionalBounded(fields, "email", p.Email, maxEmailLen)
	if p.Email != nil && *p.Email != "" && !strings.Contains(*p.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if p.Website != nil && *p.Website != "" &&
		!strings.HasPrefix(*p.Website, "http://") && !strings.HasPrefix(*p.Website, "https://") {
		fields["website"] = "must be an http(s) URL"
	}
	if len(p.AcceptsCrypto) > maxTickers {
		fields["accepts_crypto"] = "too many entries"
	}
	tickers := make([]string, 0, len(p.AcceptsCrypto))
	for _, t := range p.AcceptsCrypto {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if len(t) > maxTickerLen {
			fields["accepts_crypto"] = "ticker too long"
			break
		}
		tickers = append(tickers, t)
	}
	p.AcceptsCrypto = tickers

	// Coordinates: validate when given, geocode when absent.
	switch {
	case p.Lat != nil && p.Lng != nil:
		if *p.Lat < -90 || *p.Lat > 90 {
			fields["lat"] = "must be within [-90, 90]"
		}
		if *p.Lng < -180 || *p.Lng > 180 {
			fields["lng"] = "must be within [-180, 180]"
		}
	case p.Lat == nil && p.Lng == nil:
		// resolved below, after the cheap checks
	default:
		fields["lat"] = "lat and lng must be provided together"
	}

	if len(fields) > 0 {
		return nil, &PayloadError{Fields: fields}
	}

	if p.Lat == nil {
		if err := s.resolveCoordinates(ctx, &p); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// resolveCoordinates geocodes "street, city, country" first, then falls back
// to "city, country" with is_approximate set, mirroring how seed imports
// grade their confidence.
func (s *SubmissionService) resolveCoordinates(ctx context.Context, p *NewStorePayload) error {
	type candidate struct {
		q           string
		approximate bool
	}
	var queries []candidate
	if p.StreetAddress != nil && strings.TrimSpace(*p.StreetAddress) != "" {
		queries = append(queries, candidate{
			q: strings.TrimSpace(*p.StreetAddress) + ", " + p.City + ", " + p.Country,
		})
	}
	queries = append(queries, candidate{q: p.City + ", " + p.Country, approximate: true})

	for _, cand := range queries {
		res, err := s.Geocoder.Search(ctx, cand.q)
		if err != nil {
			return ErrGeocodeFailed
		}
		if res != nil {
			lat, lng := res.Lat, res.Lng
			p.Lat, p.Lng = &lat, &lng
			p.IsApproximate = cand.approximate || res.Approximate
			return nil
		}
	}
	return ErrGeocodeFailed
}

// parseEdit decodes and validates an edit payload.
func parseEdit(raw json.RawMessage) (*EditPayload, error) {
	var p EditPayload
	if err := strictUnmarshal(raw, &p); err != nil {
		return nil, &PayloadError{Fields: map[string]string{"payload": "malformed JSON"}}
	}

	fields := map[string]string{}
	optionalBounded(fields, "website", p.Website, maxWebsiteLen)
	optionalBounded(fields, "opening_hours", p.OpeningHours, maxHoursLen)
	optionalBounded(fields, "phone", p.Phone, maxPhoneLen)
	optionalBounded(fields, "email", p.Email, maxEmailLen)
	if p.Email != nil && *p.Email != "" && !strings.Contains(*p.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if p.Website != nil && *p.Website != "" &&
		!strings.HasPrefix(*p.Website, "http://") && !strings.HasPrefix(*p.Website, "https://") {
		fields["website"] = "must be an http(s) URL"
	}
	if p.Website == nil && p.OpeningHours == nil && p.Phone == nil && p.Email == nil {
		fields["payload"] = "at least one field must be proposed"
	}
	if len(fields) > 0 {
		return nil, &PayloadError{Fields: fields}
	}
	return &p, nil
}

// storeFromPayload maps a validated proposal onto a fresh community store row
// with zero trust.
func storeFromPayload(p *NewStorePayload) *domain.Store {
	return &domain.Store{
		OperatorName:  p.OperatorName,
		StreetAddress: p.StreetAddress,
		City:          p.City,
		Country:       p.Country,
		Lat:           *p.Lat,
		Lng:           *p.Lng,
		IsApproximate: p.IsApproximate,
		Website:       p.Website,
		OpeningHours:  p.OpeningHours,
		Phone:         p.Phone,
		Email:         p.Email,
		AcceptsCrypto: domain.CryptoList(p.AcceptsCrypto),
		Status:        domain.StatusUnverified,
		Source:        domain.SourceCommunity,
		ConfirmCount:  0,
		FlagCount:     0,
	}
}

// strictUnmarshal decodes raw into v, rejecting unknown fields so typos in
// payload keys surface as validation errors instead of silent drops.
func strictUnmarshal(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

func requireBounded(fields map[string]string, name, val string, max int) {
	if val == "" {
		fields[name] = "required"
		return
	}
	if len(val) > max {
		fields[name] = "too long"
	}
}

func optionalBounded(fields map[string]string, name string, val *string, max int) {
	if val != nil && len(*val) > max {
		fields[name] = "too long"
	}
}
