// Command seed imports the initial store dataset from a CSV file. Each row is
// geocoded through Nominatim with a persistent JSON cache and polite pacing
// between upstream requests. Rows that resolve at street level are stored as
// seed_confirmed; rows that only resolve at city level fall back to
// approximate coordinates and seed_partial.
//
// Usage:
//
//	seed -csv stores.csv [-cache geocode-cache.json] [-db app.db]
//
// Expected CSV header:
//
//	operator_name,street_address,city,country,accepts_crypto,website,opening_hours,phone,email
//
// accepts_crypto is a pipe-separated ticker list, e.g. "BTC|ETH".
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/0xVampirot/justZappIt/internal/config"
	"github.com/0xVampirot/justZappIt/internal/domain"
	"github.com/0xVampirot/justZappIt/internal/geocode"
	"github.com/0xVampirot/justZappIt/internal/repo"
	"github.com/0xVampirot/justZappIt/internal/sysutil"
)

// geocodePause is the minimum delay between upstream Nominatim calls, per the
// usage policy (max 1 req/s).
const geocodePause = 1100 * time.Millisecond

// cachedHit is one stored geocode result. Misses are cached too so reruns do
// not hammer the upstream with queries known to fail.
type cachedHit struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	NoHit  bool    `json:"no_hit,omitempty"`
	Approx bool    `json:"approx,omitempty"`
}

// geocodeCache is a file-backed query→result map.
type geocodeCache struct {
	path    string
	entries map[string]cachedHit
	dirty   bool
}

func loadCache(path string) (*geocodeCache, error) {
	c := &geocodeCache{path: path, entries: map[string]cachedHit{}}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &c.entries); err != nil {
		return nil, fmt.Errorf("parse cache %s: %w", path, err)
	}
	return c, nil
}

func (c *geocodeCache) get(q string) (cachedHit, bool) {
	hit, found := c.entries[q]
	return hit, found
}

func (c *geocodeCache) put(q string, hit cachedHit) {
	c.entries[q] = hit
	c.dirty = true
}

func (c *geocodeCache) save() error {
	if !c.dirty {
		return nil
	}
	raw, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, raw, 0o644)
}

// pacedResolver wraps a geocode.Resolver with the cache and the pacing delay.
type pacedResolver struct {
	inner    geocode.Resolver
	cache    *geocodeCache
	lastCall time.Time
}

func (p *pacedResolver) lookup(ctx context.Context, q string) (*geocode.Result, error) {
	if hit, found := p.cache.get(q); found {
		if hit.NoHit {
			return nil, nil
		}
		return &geocode.Result{Lat: hit.Lat, Lng: hit.Lng, Approximate: hit.Approx}, nil
	}

	if wait := geocodePause - time.Since(p.lastCall); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.lastCall = time.Now()

	res, err := p.inner.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if res == nil {
		p.cache.put(q, cachedHit{NoHit: true})
		return nil, nil
	}
	p.cache.put(q, cachedHit{Lat: res.Lat, Lng: res.Lng, Approx: res.Approximate})
	return res, nil
}

// seedRow is one parsed CSV record.
type seedRow struct {
	OperatorName  string
	StreetAddress string
	City          string
	Country       string
	AcceptsCrypto []string
	Website       string
	OpeningHours  string
	Phone         string
	Email         string
}

func main() {
	csvPath := flag.String("csv", "stores.csv", "path to the seed CSV file")
	cachePath := flag.String("cache", "geocode-cache.json", "path to the geocode cache file")
	dbPath := flag.String("db", "", "SQLite path (defaults to DB_PATH from the environment)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.MustLoad()
	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if *dbPath == "" {
		*dbPath = cfg.DBPath
	}

	db, err := repo.OpenSQLite(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *dbPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	cache, err := loadCache(*cachePath)
	if err != nil {
		log.Fatal().Err(err).Msg("geocode cache load failed")
	}
	resolver := &pacedResolver{inner: geocode.New(cfg.Geocode), cache: cache}

	rows, err := readSeedCSV(*csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *csvPath).Msg("seed CSV read failed")
	}
	log.Info().Int("rows", len(rows)).Msg("seed import starting")

	ctx := context.Background()
	var imported, partial, skipped int
	for i, row := range rows {
		store, err := buildStore(ctx, resolver, row)
		if err != nil {
			log.Warn().Err(err).Int("row", i+2).Str("operator", row.OperatorName).Msg("row skipped")
			skipped++
			continue
		}
		if err := repo.CreateStore(ctx, db, store); err != nil {
			log.Warn().Err(err).Int("row", i+2).Str("operator", row.OperatorName).Msg("insert failed, row skipped")
			skipped++
			continue
		}
		imported++
		if store.Status == domain.StatusSeedPartial {
			partial++
		}
	}

	if err := cache.save(); err != nil {
		log.Error().Err(err).Msg("geocode cache save failed")
	}
	log.Info().
		Int("imported", imported).
		Int("partial", partial).
		Int("skipped", skipped).
		Msg("seed import finished")
}

func readSeedCSV(path string) ([]seedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"operator_name", "city", "country"} {
		if _, found := col[required]; !found {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	field := func(rec []string, name string) string {
		i, found := col[name]
		if !found || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []seedRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := seedRow{
			OperatorName:  field(rec, "operator_name"),
			StreetAddress: field(rec, "street_address"),
			City:          field(rec, "city"),
			Country:       field(rec, "country"),
			Website:       field(rec, "website"),
			OpeningHours:  field(rec, "opening_hours"),
			Phone:         field(rec, "phone"),
			Email:         field(rec, "email"),
		}
		for _, t := range strings.Split(field(rec, "accepts_crypto"), "|") {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				row.AcceptsCrypto = append(row.AcceptsCrypto, t)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// buildStore geocodes a row and maps it to a store record. Street-level hits
// become seed_confirmed; city-level fallbacks become seed_partial with
// approximate coordinates.
func buildStore(ctx context.Context, resolver *pacedResolver, row seedRow) (*domain.Store, error) {
	if row.OperatorName == "" || row.City == "" || row.Country == "" {
		return nil, fmt.Errorf("operator_name, city and country are required")
	}

	status := domain.StatusSeedConfirmed
	approximate := false

	var hit *geocode.Result
	var err error
	if row.StreetAddress != "" {
		hit, err = resolver.lookup(ctx, strings.Join([]string{row.StreetAddress, row.City, row.Country}, ", "))
		if err != nil {
			return nil, err
		}
	}
	if hit == nil {
		hit, err = resolver.lookup(ctx, row.City+", "+row.Country)
		if err != nil {
			return nil, err
		}
		if hit == nil {
			return nil, fmt.Errorf("address did not geocode")
		}
		status = domain.StatusSeedPartial
		approximate = true
	}

	store := domain.Store{
		OperatorName:  row.OperatorName,
		City:          row.City,
		Country:       row.Country,
		Lat:           hit.Lat,
		Lng:           hit.Lng,
		IsApproximate: approximate || hit.Approximate,
		AcceptsCrypto: domain.CryptoList(row.AcceptsCrypto),
		Status:        status,
		Source:        domain.SourceSeed,
	}
	if row.StreetAddress != "" {
		store.StreetAddress = &row.StreetAddress
	}
	if row.Website != "" {
		store.Website = &row.Website
	}
	if row.OpeningHours != "" {
		store.OpeningHours = &row.OpeningHours
	}
	if row.Phone != "" {
		store.Phone = &row.Phone
	}
	if row.Email != "" {
		store.Email = &row.Email
	}
	return &store, nil
}
