// Package geocode resolves free-text location queries to coordinates via the
// Nominatim search API. It backs two things: the public geocode proxy route
// and the submission flow's coordinate fallback when a submitter does not
// supply lat/lng directly.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/0xVampirot/justZappIt/internal/config"
)

// Result is a single geocoding best match.
type Result struct {
	Lat float64
	Lng float64
	// Approximate marks a city-level fallback rather than a street-level hit.
	Approximate bool
}

// Resolver turns a location query into at most one best match.
// Implementations must be safe for concurrent use.
type Resolver interface {
	// Search returns the best match for q, or (nil, nil) when nothing matched.
	Search(ctx context.Context, q string) (*Result, error)
}

// Nominatim is a Resolver backed by the OpenStreetMap Nominatim API.
// Nominatim's usage policy requires a descriptive User-Agent and at most one
// request per second; callers on hot paths should sit behind the edge limiter.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// New builds a Nominatim resolver from config.
func New(cfg config.GeocodeConfig) *Nominatim {
	return &Nominatim{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// nominatimHit is the subset of the upstream response we read. Nominatim
// returns coordinates as strings.
type nominatimHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Search queries the upstream with format=json&limit=1 and parses the single
// best match, if any.
func (n *Nominatim) Search(ctx context.Context, q string) (*Result, error) {
	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", n.baseURL, url.QueryEscape(q))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.userAgent)

	res, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: upstream returned %d", res.StatusCode)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(res.Body).Decode(&hits); err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad latitude %q", hits[0].Lat)
	}
	lng, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad longitude %q", hits[0].Lon)
	}
	return &Result{Lat: lat, Lng: lng}, nil
}

// StaticResolver returns a fixed result. Test helper.
type StaticResolver struct {
	Result *Result
	Err    error
}

// Search implements Resolver.
func (s StaticResolver) Search(context.Context, string) (*Result, error) { return s.Result, s.Err }

var (
	_ Resolver = (*Nominatim)(nil)
	_ Resolver = StaticResolver{}
)
