// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich reconciles bibliographic metadata against external
// catalogue APIs. Each provider adapter implements the Provider
// interface; Enricher fans queries out concurrently and merges the
// scored results into the extracted baseline record.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mwaldhauer/scilit/internal/cache"
	"github.com/mwaldhauer/scilit/internal/httputil"
	"github.com/mwaldhauer/scilit/pkg/types"
)

// IdentifierKind names the hard identifier a provider can resolve
// directly, bypassing fuzzy search.
type IdentifierKind int

const (
	// KindNone means the provider only supports title/author queries.
	KindNone IdentifierKind = iota
	// KindDOI means the provider resolves DOIs.
	KindDOI
	// KindISBN means the provider resolves ISBNs.
	KindISBN
)

// Provider adapts one external catalogue API. Implementations return
// (record, true, nil) on a usable match, (zero, false, nil) when the
// service answered but had nothing acceptable, and a non-nil error only
// for transport-level failures.
type Provider interface {
	Name() string
	IDKind() IdentifierKind
	FetchByID(ctx context.Context, id string) (types.Record, bool, error)
	FetchByQuery(ctx context.Context, title string, authors []string) (types.Record, bool, error)
}

// providerPriority is the fixed tie-break order when two providers
// score identically. Scholarly indexes outrank book catalogues.
var providerPriority = []string{"crossref", "openalex", "googlebooks", "openlib", "k10plus"}

// priorityRank maps a provider name to its position in providerPriority.
// Unknown names sort last.
func priorityRank(name string) int {
	for i, n := range providerPriority {
		if n == name {
			return i
		}
	}
	return len(providerPriority)
}

// Deps bundles the shared collaborators handed to every adapter.
type Deps struct {
	Client *http.Client
	Cache  cache.Store
	Config types.EnrichConfig
	// Log receives diagnostic warnings. May be io.Discard.
	Log io.Writer
}

// Registry builds the full set of provider adapters keyed by name.
func Registry(deps Deps) map[string]Provider {
	return map[string]Provider{
		"crossref":    NewCrossRef(deps),
		"openalex":    NewOpenAlex(deps),
		"googlebooks": NewGoogleBooks(deps),
		"openlib":     NewOpenLibrary(deps),
		"k10plus":     NewK10plus(deps),
	}
}

// doiPattern matches a DOI embedded anywhere in a string, so raw values
// like "https://doi.org/10.1234/abc" or "DOI: 10.1234/abc" resolve.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[-._;()/:a-zA-Z0-9]+`)

// ExtractDOI pulls the first DOI out of a raw identifier string, or
// returns "" when none is present.
func ExtractDOI(raw string) string {
	return doiPattern.FindString(raw)
}

// NormalizeISBN strips separators and noise from a raw ISBN. Returns ""
// unless the remainder is a plausible 10- or 13-character ISBN.
func NormalizeISBN(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	isbn := b.String()
	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// queryCleaner removes characters that break remote query parsers
// (quotes, colons, brackets) before the text is embedded in a search
// expression.
var queryCleaner = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// cleanQueryText sanitizes free text for use inside a provider query.
func cleanQueryText(s string) string {
	return strings.Join(strings.Fields(queryCleaner.ReplaceAllString(s, " ")), " ")
}

// lastName returns the final whitespace-separated token of an author
// name, which most catalogues index as the surname.
func lastName(author string) string {
	fields := strings.Fields(author)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// firstAuthorLastName returns the surname of the first author, or "".
func firstAuthorLastName(authors []string) string {
	for _, a := range authors {
		if ln := lastName(a); ln != "" {
			return ln
		}
	}
	return ""
}

// fetchCached runs fetch through the result cache: a hit short-circuits
// the network call, and only found records are written back. Cache
// failures are invisible to the caller; a broken cache degrades to
// direct fetches.
func fetchCached(ctx context.Context, store cache.Store, key string, fetch func() (types.Record, bool, error)) (types.Record, bool, error) {
	if store != nil {
		if raw, ok := store.Get(ctx, key); ok {
			var rec types.Record
			if err := json.Unmarshal(raw, &rec); err == nil {
				return rec, true, nil
			}
		}
	}

	rec, found, err := fetch()
	if err != nil || !found {
		return types.Record{}, false, err
	}

	if store != nil {
		if raw, marshalErr := json.Marshal(rec); marshalErr == nil {
			// Zero TTL lets the store apply its configured default.
			_ = store.Set(ctx, key, raw, 0)
		}
	}
	return rec, true, nil
}

// retryOptions derives httputil retry settings from the config.
func retryOptions(cfg types.EnrichConfig) httputil.Options {
	return httputil.Options{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryBaseDelay}
}

// requestTimeout returns the per-request deadline, defaulting to 10s.
func requestTimeout(cfg types.EnrichConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return 10 * time.Second
}

// sruTimeout returns the deadline for SRU requests; library union
// catalogues answer noticeably slower than REST APIs.
func sruTimeout(cfg types.EnrichConfig) time.Duration {
	if cfg.SRUTimeout > 0 {
		return cfg.SRUTimeout
	}
	return 15 * time.Second
}

// maxCandidates bounds how many search hits a provider scores per query.
func maxCandidates(cfg types.EnrichConfig) int {
	if cfg.MaxCandidates > 0 {
		return cfg.MaxCandidates
	}
	return 5
}

// minAcceptScore is the floor below which a provider's best candidate is
// discarded as noise.
func minAcceptScore(cfg types.EnrichConfig) float64 {
	if cfg.MinAcceptScore > 0 {
		return cfg.MinAcceptScore
	}
	return 10
}

// getBody performs a GET with retry against rawURL and returns the
// response body. ok is false with a nil error when the service answered
// with a non-200 status; callers treat that as not found rather than a
// failure.
func getBody(ctx context.Context, deps Deps, rawURL string, timeout time.Duration) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(deps.Config))

	client := deps.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(client, req, retryOptions(deps.Config))
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	// DoWithRetry only hands back a 429 once its retries are spent;
	// that is a transport-level failure, not evidence the record does
	// not exist.
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, false, fmt.Errorf("rate limited after retries: %s", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("reading response: %w", err)
	}
	return body, true, nil
}

// userAgent returns the User-Agent header value sent to all providers.
func userAgent(cfg types.EnrichConfig) string {
	if cfg.UserAgent != "" {
		return cfg.UserAgent
	}
	return "scilit/1.0"
}
