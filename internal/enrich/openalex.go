// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mwaldhauer/scilit/internal/cache"
	"github.com/mwaldhauer/scilit/pkg/types"
)

// openAlexBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexBase = "https://api.openalex.org/works"

// OpenAlex queries the OpenAlex Works API. OpenAlex carries the richest
// supplemental fields of all providers: reconstructed abstracts, citation
// counts, open-access status, and concept keywords.
type OpenAlex struct {
	deps Deps
}

// NewOpenAlex builds the OpenAlex adapter.
func NewOpenAlex(deps Deps) *OpenAlex { return &OpenAlex{deps: deps} }

// Name returns the provider identifier.
func (o *OpenAlex) Name() string { return "openalex" }

// IDKind reports that OpenAlex resolves DOIs directly.
func (o *OpenAlex) IDKind() IdentifierKind { return KindDOI }

// FetchByID resolves a DOI through the filter endpoint and takes the
// first result.
func (o *OpenAlex) FetchByID(ctx context.Context, doi string) (types.Record, bool, error) {
	key := cache.Key("openalex", "doi", doi)
	return fetchCached(ctx, o.deps.Cache, key, func() (types.Record, bool, error) {
		params := url.Values{
			"filter":   {"doi:" + doi},
			"per-page": {"1"},
		}
		if o.deps.Config.Mailto != "" {
			params.Set("mailto", o.deps.Config.Mailto)
		}

		body, ok, err := getBody(ctx, o.deps, openAlexBase+"?"+params.Encode(), requestTimeout(o.deps.Config))
		if err != nil {
			return types.Record{}, false, fmt.Errorf("openalex DOI lookup: %w", err)
		}
		if !ok {
			return types.Record{}, false, nil
		}

		var response openAlexResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return types.Record{}, false, nil
		}
		if len(response.Results) == 0 {
			return types.Record{}, false, nil
		}

		rec := parseOpenAlexWork(response.Results[0])
		return rec, !rec.IsEmpty(), nil
	})
}

// FetchByQuery searches OpenAlex with title.search and, when available,
// an author.display_name.search filter, relying on the API's relevance
// ranking before local rescoring. A title is required; author names
// alone are too ambiguous for the filter syntax.
func (o *OpenAlex) FetchByQuery(ctx context.Context, title string, authors []string) (types.Record, bool, error) {
	clean := cleanQueryText(title)
	if clean == "" {
		return types.Record{}, false, nil
	}

	key := cache.Key("openalex", "query", title+" "+strings.Join(authors, " "))
	return fetchCached(ctx, o.deps.Cache, key, func() (types.Record, bool, error) {
		filters := []string{"title.search:" + clean}
		if surname := firstAuthorLastName(authors); surname != "" {
			filters = append(filters, "author.display_name.search:"+surname)
		}

		params := url.Values{
			"filter":   {strings.Join(filters, ";")},
			"sort":     {"relevance_score:desc"},
			"per-page": {fmt.Sprintf("%d", maxCandidates(o.deps.Config))},
		}
		if o.deps.Config.Mailto != "" {
			params.Set("mailto", o.deps.Config.Mailto)
		}

		body, ok, err := getBody(ctx, o.deps, openAlexBase+"?"+params.Encode(), requestTimeout(o.deps.Config))
		if err != nil {
			return types.Record{}, false, fmt.Errorf("openalex search: %w", err)
		}
		if !ok {
			return types.Record{}, false, nil
		}

		var response openAlexResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return types.Record{}, false, nil
		}

		works := response.Results
		if len(works) > maxCandidates(o.deps.Config) {
			works = works[:maxCandidates(o.deps.Config)]
		}

		best := -1.0
		var bestWork openAlexWork
		for _, work := range works {
			if score := scoreOpenAlexWork(work, title, authors); score > best {
				best = score
				bestWork = work
			}
		}
		if best <= minAcceptScore(o.deps.Config) {
			return types.Record{}, false, nil
		}

		rec := parseOpenAlexWork(bestWork)
		return rec, !rec.IsEmpty(), nil
	})
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	Title                 string              `json:"title"`
	DOI                   string              `json:"doi"`
	Authorships           []openAlexAuthor    `json:"authorships"`
	PublicationYear       int                 `json:"publication_year"`
	PrimaryLocation       openAlexLocation    `json:"primary_location"`
	CitedByCount          int                 `json:"cited_by_count"`
	Concepts              []openAlexConcept   `json:"concepts"`
	OpenAccess            openAlexOpenAccess  `json:"open_access"`
	Type                  string              `json:"type"`
	AbstractInvertedIndex map[string][]int    `json:"abstract_inverted_index"`
}

type openAlexAuthor struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexLocation struct {
	Source struct {
		DisplayName          string `json:"display_name"`
		ISSNL                string `json:"issn_l"`
		HostOrganizationName string `json:"host_organization_name"`
	} `json:"source"`
}

type openAlexConcept struct {
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA bool `json:"is_oa"`
}

// parseOpenAlexWork maps an OpenAlex work onto the canonical record.
func parseOpenAlexWork(w openAlexWork) types.Record {
	rec := types.Record{
		Title:        w.Title,
		Year:         w.PublicationYear,
		Journal:      w.PrimaryLocation.Source.DisplayName,
		ISSN:         w.PrimaryLocation.Source.ISSNL,
		Publisher:    w.PrimaryLocation.Source.HostOrganizationName,
		CitedByCount: w.CitedByCount,
		IsOpenAccess: w.OpenAccess.IsOA,
		WorkType:     w.Type,
		Abstract:     reconstructAbstract(w.AbstractInvertedIndex),
	}

	// OpenAlex returns DOIs as full https://doi.org/ URLs.
	rec.DOI = strings.TrimPrefix(w.DOI, "https://doi.org/")

	for _, authorship := range w.Authorships {
		if name := authorship.Author.DisplayName; name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	// Top concepts double as subject keywords.
	for i, concept := range w.Concepts {
		if i >= 3 {
			break
		}
		if concept.DisplayName != "" {
			rec.Keywords = append(rec.Keywords, concept.DisplayName)
		}
	}

	return rec
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back
// to plain text. The inverted index maps each word to the positions
// where it appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// scoreOpenAlexWork rates a raw search candidate before parsing.
func scoreOpenAlexWork(w openAlexWork, title string, authors []string) float64 {
	score := 0.0

	if w.Title != "" && title != "" {
		score += Similarity(w.Title, title) * titleWeight
	}

	if len(w.Authorships) > 0 && len(authors) > 0 {
	authorLoop:
		for _, authorship := range w.Authorships {
			found := strings.ToLower(authorship.Author.DisplayName)
			if found == "" {
				continue
			}
			for _, orig := range authors {
				lower := strings.ToLower(orig)
				if strings.Contains(lower, found) || strings.Contains(found, lower) {
					score += authorWeight
					break authorLoop
				}
			}
		}
	}

	if w.PublicationYear > 0 {
		score += 5
	}
	if w.PrimaryLocation.Source.DisplayName != "" {
		score += 5
	}
	if w.DOI != "" {
		score += 5
	}
	if w.CitedByCount > 0 {
		score += 5
	}

	return score
}
