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

// openLibraryBase is the Open Library search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openLibraryBase = "https://openlibrary.org/search.json"

// OpenLibrary queries the Open Library search API. Its book records
// carry median page counts and rich subject headings, making it a good
// complement to Google Books for monographs.
type OpenLibrary struct {
	deps Deps
}

// NewOpenLibrary builds the Open Library adapter.
func NewOpenLibrary(deps Deps) *OpenLibrary { return &OpenLibrary{deps: deps} }

// Name returns the provider identifier.
func (o *OpenLibrary) Name() string { return "openlib" }

// IDKind reports that Open Library resolves ISBNs directly.
func (o *OpenLibrary) IDKind() IdentifierKind { return KindISBN }

// FetchByID resolves an ISBN through the search endpoint's isbn
// parameter and takes the first document.
func (o *OpenLibrary) FetchByID(ctx context.Context, isbn string) (types.Record, bool, error) {
	key := cache.Key("openlib", "isbn", isbn)
	return fetchCached(ctx, o.deps.Cache, key, func() (types.Record, bool, error) {
		params := url.Values{"isbn": {isbn}, "limit": {"1"}}

		body, ok, err := getBody(ctx, o.deps, openLibraryBase+"?"+params.Encode(), requestTimeout(o.deps.Config))
		if err != nil {
			return types.Record{}, false, fmt.Errorf("openlib ISBN lookup: %w", err)
		}
		if !ok {
			return types.Record{}, false, nil
		}

		var response openLibraryResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return types.Record{}, false, nil
		}
		if len(response.Docs) == 0 {
			return types.Record{}, false, nil
		}

		rec := parseOpenLibraryDoc(response.Docs[0])
		return rec, !rec.IsEmpty(), nil
	})
}

// FetchByQuery searches by title: and author: field queries and returns
// the best-scoring candidate above the acceptance floor.
func (o *OpenLibrary) FetchByQuery(ctx context.Context, title string, authors []string) (types.Record, bool, error) {
	var parts []string
	if clean := cleanQueryText(title); clean != "" {
		parts = append(parts, "title:"+clean)
	}
	if surname := firstAuthorLastName(authors); surname != "" {
		parts = append(parts, "author:"+surname)
	}
	if len(parts) == 0 {
		return types.Record{}, false, nil
	}

	key := cache.Key("openlib", "query", title+" "+strings.Join(authors, " "))
	return fetchCached(ctx, o.deps.Cache, key, func() (types.Record, bool, error) {
		params := url.Values{
			"q":     {strings.Join(parts, " ")},
			"limit": {fmt.Sprintf("%d", maxCandidates(o.deps.Config))},
		}

		body, ok, err := getBody(ctx, o.deps, openLibraryBase+"?"+params.Encode(), requestTimeout(o.deps.Config))
		if err != nil {
			return types.Record{}, false, fmt.Errorf("openlib search: %w", err)
		}
		if !ok {
			return types.Record{}, false, nil
		}

		var response openLibraryResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return types.Record{}, false, nil
		}

		docs := response.Docs
		if len(docs) > maxCandidates(o.deps.Config) {
			docs = docs[:maxCandidates(o.deps.Config)]
		}

		best := -1.0
		var bestDoc openLibraryDoc
		for _, doc := range docs {
			if score := scoreOpenLibraryDoc(doc, title, authors); score > best {
				best = score
				bestDoc = doc
			}
		}
		if best <= minAcceptScore(o.deps.Config) {
			return types.Record{}, false, nil
		}

		rec := parseOpenLibraryDoc(bestDoc)
		return rec, !rec.IsEmpty(), nil
	})
}

// Open Library API JSON structures.
type openLibraryResponse struct {
	Docs []openLibraryDoc `json:"docs"`
}

type openLibraryDoc struct {
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	PublishYear         []int    `json:"publish_year"`
	Publisher           []string `json:"publisher"`
	ISBN                []string `json:"isbn"`
	Language            []string `json:"language"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
	Subject             []string `json:"subject"`
}

// parseOpenLibraryDoc maps an Open Library document onto the canonical
// record.
func parseOpenLibraryDoc(doc openLibraryDoc) types.Record {
	rec := types.Record{
		Title:     doc.Title,
		Authors:   doc.AuthorName,
		PageCount: doc.NumberOfPagesMedian,
	}

	if doc.FirstPublishYear > 0 {
		rec.Year = doc.FirstPublishYear
	} else if len(doc.PublishYear) > 0 {
		earliest := doc.PublishYear[0]
		for _, y := range doc.PublishYear[1:] {
			if y < earliest {
				earliest = y
			}
		}
		rec.Year = earliest
	}

	if len(doc.Publisher) > 0 {
		rec.Publisher = doc.Publisher[0]
	}
	if len(doc.ISBN) > 0 {
		rec.ISBN = doc.ISBN[0]
	}
	if len(doc.Language) > 0 {
		rec.Language = normalizeLanguage(doc.Language[0])
	}

	if len(doc.Subject) > 0 {
		keywords := doc.Subject
		if len(keywords) > 5 {
			keywords = keywords[:5]
		}
		rec.Keywords = keywords
	}

	return rec
}

// normalizeLanguage maps MARC three-letter language codes to the
// two-letter codes used across the canonical record. Unknown codes pass
// through unchanged.
func normalizeLanguage(code string) string {
	switch code {
	case "eng":
		return "en"
	case "ger", "deu":
		return "de"
	}
	return code
}

// scoreOpenLibraryDoc rates a raw search candidate before parsing.
func scoreOpenLibraryDoc(doc openLibraryDoc, title string, authors []string) float64 {
	score := 0.0

	if doc.Title != "" && title != "" {
		score += Similarity(doc.Title, title) * titleWeight
	}

	if len(doc.AuthorName) > 0 && len(authors) > 0 {
	authorLoop:
		for _, found := range doc.AuthorName {
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

	if doc.FirstPublishYear > 0 || len(doc.PublishYear) > 0 {
		score += 5
	}
	if len(doc.Publisher) > 0 {
		score += 5
	}
	if len(doc.ISBN) > 0 {
		score += 5
	}
	if len(doc.Subject) > 0 {
		score += 5
	}

	return score
}
