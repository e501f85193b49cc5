// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mwaldhauer/scilit/internal/cache"
	"github.com/mwaldhauer/scilit/pkg/types"
)

// googleBooksBase is the Google Books volumes endpoint. Declared as a
// var so tests can substitute an httptest server.
var googleBooksBase = "https://www.googleapis.com/books/v1/volumes"

// GoogleBooks queries the Google Books volumes API. It is the primary
// ISBN resolver: the isbn: query operator returns exact matches, and
// volumes carry page counts and language codes the scholarly indexes
// lack.
type GoogleBooks struct {
	deps Deps
}

// NewGoogleBooks builds the Google Books adapter.
func NewGoogleBooks(deps Deps) *GoogleBooks { return &GoogleBooks{deps: deps} }

// Name returns the provider identifier.
func (g *GoogleBooks) Name() string { return "googlebooks" }

// IDKind reports that Google Books resolves ISBNs directly.
func (g *GoogleBooks) IDKind() IdentifierKind { return KindISBN }

// FetchByID resolves an ISBN via the isbn: query operator and takes the
// first volume.
func (g *GoogleBooks) FetchByID(ctx context.Context, isbn string) (types.Record, bool, error) {
	key := cache.Key("googlebooks", "isbn", isbn)
	return fetchCached(ctx, g.deps.Cache, key, func() (types.Record, bool, error) {
		params := url.Values{
			"q":          {"isbn:" + isbn},
			"maxResults": {"1"},
		}
		g.addKey(params)

		body, ok, err := getBody(ctx, g.deps, googleBooksBase+"?"+params.Encode(), requestTimeout(g.deps.Config))
		if err != nil {
			return types.Record{}, false, fmt.Errorf("googlebooks ISBN lookup: %w", err)
		}
		if !ok {
			return types.Record{}, false, nil
		}

		var response googleBooksResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return types.Record{}, false, nil
		}
		if len(response.Items) == 0 {
			return types.Record{}, false, nil
		}

		rec := parseGoogleBooksVolume(response.Items[0].VolumeInfo)
		return rec, !rec.IsEmpty(), nil
	})
}

// FetchByQuery searches volumes by intitle: and inauthor: operators and
// returns the best-scoring candidate above the acceptance floor.
func (g *GoogleBooks) FetchByQuery(ctx context.Context, title string, authors []string) (types.Record, bool, error) {
	var terms []string
	if clean := cleanQueryText(title); clean != "" {
		terms = append(terms, "intitle:"+clean)
	}
	if len(authors) > 0 && strings.TrimSpace(authors[0]) != "" {
		terms = append(terms, "inauthor:"+cleanQueryText(authors[0]))
	}
	if len(terms) == 0 {
		return types.Record{}, false, nil
	}

	key := cache.Key("googlebooks", "query", title+" "+strings.Join(authors, " "))
	return fetchCached(ctx, g.deps.Cache, key, func() (types.Record, bool, error) {
		params := url.Values{
			"q":          {strings.Join(terms, " ")},
			"maxResults": {fmt.Sprintf("%d", maxCandidates(g.deps.Config))},
		}
		g.addKey(params)

		body, ok, err := getBody(ctx, g.deps, googleBooksBase+"?"+params.Encode(), requestTimeout(g.deps.Config))
		if err != nil {
			return types.Record{}, false, fmt.Errorf("googlebooks search: %w", err)
		}
		if !ok {
			return types.Record{}, false, nil
		}

		var response googleBooksResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return types.Record{}, false, nil
		}

		items := response.Items
		if len(items) > maxCandidates(g.deps.Config) {
			items = items[:maxCandidates(g.deps.Config)]
		}

		best := -1.0
		var bestInfo googleBooksVolumeInfo
		for _, item := range items {
			if score := scoreGoogleBooksVolume(item.VolumeInfo, title, authors); score > best {
				best = score
				bestInfo = item.VolumeInfo
			}
		}
		if best <= minAcceptScore(g.deps.Config) {
			return types.Record{}, false, nil
		}

		rec := parseGoogleBooksVolume(bestInfo)
		return rec, !rec.IsEmpty(), nil
	})
}

// addKey attaches the API key when one is configured. Anonymous access
// works but is rate-limited more aggressively.
func (g *GoogleBooks) addKey(params url.Values) {
	if g.deps.Config.GoogleBooksAPIKey != "" {
		params.Set("key", g.deps.Config.GoogleBooksAPIKey)
	}
}

// Google Books API JSON structures.
type googleBooksResponse struct {
	Items []googleBooksItem `json:"items"`
}

type googleBooksItem struct {
	VolumeInfo googleBooksVolumeInfo `json:"volumeInfo"`
}

type googleBooksVolumeInfo struct {
	Title               string                  `json:"title"`
	Subtitle            string                  `json:"subtitle"`
	Authors             []string                `json:"authors"`
	Publisher           string                  `json:"publisher"`
	PublishedDate       string                  `json:"publishedDate"`
	IndustryIdentifiers []googleBooksIdentifier `json:"industryIdentifiers"`
	PageCount           int                     `json:"pageCount"`
	Language            string                  `json:"language"`
	Categories          []string                `json:"categories"`
	Description         string                  `json:"description"`
}

type googleBooksIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// fullTitle joins title and subtitle the way catalogues cite them.
func (v googleBooksVolumeInfo) fullTitle() string {
	if v.Subtitle != "" && v.Title != "" {
		return v.Title + ": " + v.Subtitle
	}
	return v.Title
}

// parseGoogleBooksVolume maps a volume onto the canonical record.
func parseGoogleBooksVolume(v googleBooksVolumeInfo) types.Record {
	rec := types.Record{
		Title:     v.fullTitle(),
		Authors:   v.Authors,
		Publisher: v.Publisher,
		PageCount: v.PageCount,
		Language:  v.Language,
		Abstract:  v.Description,
	}

	// publishedDate may be "2006", "2006-01", or "2006-01-02".
	if len(v.PublishedDate) >= 4 {
		if year, err := strconv.Atoi(v.PublishedDate[:4]); err == nil {
			rec.Year = year
		}
	}

	// Prefer ISBN-13; fall back to ISBN-10.
	for _, id := range v.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			rec.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && rec.ISBN == "" {
			rec.ISBN = id.Identifier
		}
	}

	if len(v.Categories) > 0 {
		keywords := v.Categories
		if len(keywords) > 5 {
			keywords = keywords[:5]
		}
		rec.Keywords = keywords
	}

	return rec
}

// scoreGoogleBooksVolume rates a raw search candidate before parsing.
func scoreGoogleBooksVolume(v googleBooksVolumeInfo, title string, authors []string) float64 {
	score := 0.0

	if v.Title != "" && title != "" {
		score += Similarity(v.fullTitle(), title) * titleWeight
	}

	if len(v.Authors) > 0 && len(authors) > 0 {
	authorLoop:
		for _, found := range v.Authors {
			lowerFound := strings.ToLower(found)
			for _, orig := range authors {
				lowerOrig := strings.ToLower(orig)
				if strings.Contains(lowerFound, lowerOrig) || strings.Contains(lowerOrig, lowerFound) {
					score += authorWeight
					break authorLoop
				}
			}
		}
	}

	if v.PublishedDate != "" {
		score += 5
	}
	if v.Publisher != "" {
		score += 5
	}
	if len(v.IndustryIdentifiers) > 0 {
		score += 5
	}
	if len(v.Categories) > 0 {
		score += 5
	}

	return score
}
