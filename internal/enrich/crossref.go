// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mwaldhauer/scilit/internal/cache"
	"github.com/mwaldhauer/scilit/pkg/types"
)

// crossRefBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossRefBase = "https://api.crossref.org/works"

// CrossRef queries the CrossRef REST API. CrossRef is the canonical
// registry for journal article DOIs, so it sits first in the provider
// priority order.
type CrossRef struct {
	deps Deps
}

// NewCrossRef builds the CrossRef adapter.
func NewCrossRef(deps Deps) *CrossRef { return &CrossRef{deps: deps} }

// Name returns the provider identifier.
func (c *CrossRef) Name() string { return "crossref" }

// IDKind reports that CrossRef resolves DOIs directly.
func (c *CrossRef) IDKind() IdentifierKind { return KindDOI }

// FetchByID resolves a bare DOI via GET /works/{doi}.
func (c *CrossRef) FetchByID(ctx context.Context, doi string) (types.Record, bool, error) {
	key := cache.Key("crossref", "doi", doi)
	return fetchCached(ctx, c.deps.Cache, key, func() (types.Record, bool, error) {
		reqURL := crossRefBase + "/" + url.PathEscape(doi)
		if c.deps.Config.Mailto != "" {
			reqURL += "?mailto=" + url.QueryEscape(c.deps.Config.Mailto)
		}

		body, ok, err := getBody(ctx, c.deps, reqURL, requestTimeout(c.deps.Config))
		if err != nil {
			return types.Record{}, false, fmt.Errorf("crossref DOI lookup: %w", err)
		}
		if !ok {
			return types.Record{}, false, nil
		}

		var envelope struct {
			Message crossRefWork `json:"message"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return types.Record{}, false, nil
		}

		rec := parseCrossRefWork(envelope.Message)
		return rec, !rec.IsEmpty(), nil
	})
}

// FetchByQuery searches CrossRef by title and first-author surname and
// returns the best-scoring candidate above the acceptance floor.
func (c *CrossRef) FetchByQuery(ctx context.Context, title string, authors []string) (types.Record, bool, error) {
	var parts []string
	if clean := cleanQueryText(title); clean != "" {
		parts = append(parts, fmt.Sprintf("title:%q", clean))
	}
	if surname := firstAuthorLastName(authors); surname != "" {
		parts = append(parts, fmt.Sprintf("author:%q", surname))
	}
	if len(parts) == 0 {
		return types.Record{}, false, nil
	}

	key := cache.Key("crossref", "query", title+" "+strings.Join(authors, " "))
	return fetchCached(ctx, c.deps.Cache, key, func() (types.Record, bool, error) {
		params := url.Values{
			"query": {strings.Join(parts, " ")},
			"rows":  {fmt.Sprintf("%d", maxCandidates(c.deps.Config))},
		}
		if c.deps.Config.Mailto != "" {
			params.Set("mailto", c.deps.Config.Mailto)
		}

		body, ok, err := getBody(ctx, c.deps, crossRefBase+"?"+params.Encode(), requestTimeout(c.deps.Config))
		if err != nil {
			return types.Record{}, false, fmt.Errorf("crossref search: %w", err)
		}
		if !ok {
			return types.Record{}, false, nil
		}

		var envelope struct {
			Message struct {
				Items []crossRefWork `json:"items"`
			} `json:"message"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return types.Record{}, false, nil
		}

		items := envelope.Message.Items
		if len(items) > maxCandidates(c.deps.Config) {
			items = items[:maxCandidates(c.deps.Config)]
		}

		best := -1.0
		var bestWork crossRefWork
		for _, item := range items {
			if score := scoreCrossRefWork(item, title, authors); score > best {
				best = score
				bestWork = item
			}
		}
		if best <= minAcceptScore(c.deps.Config) {
			return types.Record{}, false, nil
		}

		rec := parseCrossRefWork(bestWork)
		return rec, !rec.IsEmpty(), nil
	})
}

// crossRefWork mirrors the fields of a CrossRef work object that map
// onto the canonical record.
type crossRefWork struct {
	Title          []string         `json:"title"`
	Author         []crossRefAuthor `json:"author"`
	ContainerTitle []string         `json:"container-title"`
	Published      crossRefDate     `json:"published"`
	Publisher      string           `json:"publisher"`
	DOI            string           `json:"DOI"`
	ISSN           []string         `json:"ISSN"`
	Type           string           `json:"type"`
	Abstract       string           `json:"abstract"`
}

type crossRefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossRefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// year pulls the leading year out of a CrossRef date-parts array.
func (d crossRefDate) year() int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}

// parseCrossRefWork maps a CrossRef work onto the canonical record.
func parseCrossRefWork(w crossRefWork) types.Record {
	var rec types.Record

	if len(w.Title) > 0 {
		rec.Title = w.Title[0]
	}
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	if len(w.ContainerTitle) > 0 {
		rec.Journal = w.ContainerTitle[0]
	}
	rec.Year = w.Published.year()
	rec.Publisher = w.Publisher
	rec.DOI = w.DOI
	if len(w.ISSN) > 0 {
		rec.ISSN = w.ISSN[0]
	}
	rec.WorkType = w.Type
	rec.Abstract = w.Abstract

	return rec
}

// scoreCrossRefWork rates a raw search candidate before parsing. Title
// similarity carries up to 50 points, a surname match 30, and small
// bonuses reward completeness.
func scoreCrossRefWork(w crossRefWork, title string, authors []string) float64 {
	score := 0.0

	if len(w.Title) > 0 && title != "" {
		score += Similarity(w.Title[0], title) * titleWeight
	}

	if len(w.Author) > 0 && len(authors) > 0 {
	authorLoop:
		for _, a := range w.Author {
			if a.Family == "" {
				continue
			}
			for _, orig := range authors {
				if strings.Contains(strings.ToLower(orig), strings.ToLower(a.Family)) {
					score += authorWeight
					break authorLoop
				}
			}
		}
	}

	if w.Published.year() > 0 {
		score += 5
	}
	if len(w.ContainerTitle) > 0 {
		score += 5
	}
	if w.Publisher != "" {
		score += 5
	}
	if w.DOI != "" {
		score += 5
	}

	return score
}
