// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/mwaldhauer/scilit/pkg/types"
)

// Placeholder values used when no source, local or remote, supplies the
// bibliographic minimum.
const (
	PlaceholderTitle  = "Unknown Title"
	PlaceholderAuthor = "Unknown Author"
)

// Default merge thresholds. A best score above fullAdoptThreshold
// replaces the extracted record wholesale; individual fields are trusted
// above fieldTrustThreshold.
const (
	defaultFullAdopt  = 70.0
	defaultFieldTrust = 30.0
)

// ProviderResult is one provider's scored answer.
type ProviderResult struct {
	Provider string
	Score    float64
	Record   types.Record
}

// Enricher reconciles extracted metadata against the configured
// providers and merges the answers into a best-effort canonical record.
type Enricher struct {
	providers map[string]Provider
	cfg       types.EnrichConfig
	log       io.Writer
}

// New builds an Enricher with the full provider registry.
func New(deps Deps) *Enricher {
	log := deps.Log
	if log == nil {
		log = io.Discard
	}
	return &Enricher{
		providers: Registry(deps),
		cfg:       deps.Config,
		log:       log,
	}
}

// NewWithProviders builds an Enricher over an explicit provider set.
func NewWithProviders(providers map[string]Provider, cfg types.EnrichConfig, log io.Writer) *Enricher {
	if log == nil {
		log = io.Discard
	}
	return &Enricher{providers: providers, cfg: cfg, log: log}
}

// BuildQuerySpec derives the searchable essence of an extracted record:
// cleaned title and authors plus any hard identifier found in the raw
// DOI and ISBN fields.
func BuildQuerySpec(rec types.Record) types.QuerySpec {
	return types.QuerySpec{
		Title:   rec.Title,
		Authors: rec.Authors,
		DOI:     ExtractDOI(rec.DOI),
		ISBN:    NormalizeISBN(rec.ISBN),
	}
}

// Enrich queries all enabled providers concurrently, scores their
// answers against the extracted title and authors, and merges the
// results into basic. It never fails: provider errors are logged as
// warnings and the extracted record survives with placeholder title and
// authors at worst.
func (e *Enricher) Enrich(ctx context.Context, basic types.Record) types.Record {
	spec := BuildQuerySpec(basic)
	if spec.IsEmpty() {
		return basic
	}

	results := e.collect(ctx, spec)
	if len(results) == 0 {
		fmt.Fprintf(e.log, "warning: no provider returned metadata\n")
		return ensurePlaceholders(basic)
	}

	// Sort by score descending; the fixed provider priority breaks ties
	// so results are deterministic regardless of completion order.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return priorityRank(results[i].Provider) < priorityRank(results[j].Provider)
	})

	best := results[0]
	fmt.Fprintf(e.log, "best match from %s with score %.2f\n", best.Provider, best.Score)

	if best.Score > e.fullAdoptThreshold() {
		return ensurePlaceholders(overlay(basic, best.Record))
	}

	return ensurePlaceholders(e.mergeFields(basic, results))
}

// collect fans the query out to every enabled provider and gathers the
// scored answers.
func (e *Enricher) collect(ctx context.Context, spec types.QuerySpec) []ProviderResult {
	active := e.activeProviders()
	if len(active) == 0 {
		return nil
	}

	type outcome struct {
		name  string
		rec   types.Record
		found bool
		err   error
	}

	ch := make(chan outcome, len(active))
	var wg sync.WaitGroup

	for name, p := range active {
		wg.Add(1)
		go func(name string, p Provider) {
			defer wg.Done()
			rec, found, err := e.query(ctx, p, spec)
			ch <- outcome{name: name, rec: rec, found: found, err: err}
		}(name, p)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var results []ProviderResult
	for out := range ch {
		if out.err != nil {
			fmt.Fprintf(e.log, "warning: %s: %v\n", out.name, out.err)
			continue
		}
		if !out.found {
			continue
		}
		results = append(results, ProviderResult{
			Provider: out.name,
			Score:    ScoreMetadata(out.rec, spec.Title, spec.Authors),
			Record:   out.rec,
		})
	}
	return results
}

// query routes one provider call: a hard identifier of the provider's
// kind takes the direct lookup path, everything else falls to the fuzzy
// title/author search.
func (e *Enricher) query(ctx context.Context, p Provider, spec types.QuerySpec) (types.Record, bool, error) {
	switch p.IDKind() {
	case KindDOI:
		if spec.DOI != "" {
			return p.FetchByID(ctx, spec.DOI)
		}
	case KindISBN:
		if spec.ISBN != "" {
			return p.FetchByID(ctx, spec.ISBN)
		}
	}

	if spec.Title == "" && len(spec.Authors) == 0 {
		return types.Record{}, false, nil
	}
	return p.FetchByQuery(ctx, spec.Title, spec.Authors)
}

// activeProviders filters the registry by the configured enable map. A
// nil map enables everything; with a non-nil map only providers
// explicitly set to true are queried, so an empty map disables all of
// them.
func (e *Enricher) activeProviders() map[string]Provider {
	if e.cfg.Providers == nil {
		return e.providers
	}
	active := make(map[string]Provider)
	for name, p := range e.providers {
		if e.cfg.Providers[name] {
			active[name] = p
		}
	}
	return active
}

func (e *Enricher) fullAdoptThreshold() float64 {
	if e.cfg.FullAdoptThreshold > 0 {
		return e.cfg.FullAdoptThreshold
	}
	return defaultFullAdopt
}

func (e *Enricher) fieldTrustThreshold() float64 {
	if e.cfg.FieldTrustThreshold > 0 {
		return e.cfg.FieldTrustThreshold
	}
	return defaultFieldTrust
}

// mergeFields combines results below the full-adoption threshold field
// by field: each field takes the value from the highest-scoring provider
// that supplies one, but only when that provider clears the trust
// threshold or the extracted record left the field empty.
func (e *Enricher) mergeFields(basic types.Record, results []ProviderResult) types.Record {
	trust := e.fieldTrustThreshold()
	out := basic

	out.Title = pickString(results, trust, basic.Title, func(r types.Record) string { return r.Title })
	out.Authors = pickStrings(results, trust, basic.Authors, func(r types.Record) []string { return r.Authors })
	out.Year = pickInt(results, trust, basic.Year, func(r types.Record) int { return r.Year })
	out.Publisher = pickString(results, trust, basic.Publisher, func(r types.Record) string { return r.Publisher })
	out.Journal = pickString(results, trust, basic.Journal, func(r types.Record) string { return r.Journal })
	out.DOI = pickString(results, trust, basic.DOI, func(r types.Record) string { return r.DOI })
	out.ISBN = pickString(results, trust, basic.ISBN, func(r types.Record) string { return r.ISBN })
	out.ISSN = pickString(results, trust, basic.ISSN, func(r types.Record) string { return r.ISSN })
	out.PageCount = pickInt(results, trust, basic.PageCount, func(r types.Record) int { return r.PageCount })
	out.Language = pickString(results, trust, basic.Language, func(r types.Record) string { return r.Language })
	out.Keywords = pickStrings(results, trust, basic.Keywords, func(r types.Record) []string { return r.Keywords })
	out.Abstract = pickString(results, trust, basic.Abstract, func(r types.Record) string { return r.Abstract })
	out.WorkType = pickString(results, trust, basic.WorkType, func(r types.Record) string { return r.WorkType })
	out.CitedByCount = pickInt(results, trust, basic.CitedByCount, func(r types.Record) int { return r.CitedByCount })

	return out
}

// pickString returns the value from the highest-scoring supplier, the
// current value when that supplier is below the trust threshold, or the
// current value when nobody supplies one. results must be sorted by
// score descending.
func pickString(results []ProviderResult, trust float64, current string, get func(types.Record) string) string {
	for _, r := range results {
		v := get(r.Record)
		if v == "" {
			continue
		}
		if r.Score > trust || current == "" {
			return v
		}
		return current
	}
	return current
}

func pickStrings(results []ProviderResult, trust float64, current []string, get func(types.Record) []string) []string {
	for _, r := range results {
		v := get(r.Record)
		if len(v) == 0 {
			continue
		}
		if r.Score > trust || len(current) == 0 {
			return v
		}
		return current
	}
	return current
}

func pickInt(results []ProviderResult, trust float64, current int, get func(types.Record) int) int {
	for _, r := range results {
		v := get(r.Record)
		if v == 0 {
			continue
		}
		if r.Score > trust || current == 0 {
			return v
		}
		return current
	}
	return current
}

// overlay copies every non-empty field of found over base. Empty fields
// never erase existing values.
func overlay(base, found types.Record) types.Record {
	out := base

	if found.Title != "" {
		out.Title = found.Title
	}
	if len(found.Authors) > 0 {
		out.Authors = found.Authors
	}
	if found.Year != 0 {
		out.Year = found.Year
	}
	if found.Publisher != "" {
		out.Publisher = found.Publisher
	}
	if found.Journal != "" {
		out.Journal = found.Journal
	}
	if found.DOI != "" {
		out.DOI = found.DOI
	}
	if found.ISBN != "" {
		out.ISBN = found.ISBN
	}
	if found.ISSN != "" {
		out.ISSN = found.ISSN
	}
	if found.PageCount != 0 {
		out.PageCount = found.PageCount
	}
	if found.Language != "" {
		out.Language = found.Language
	}
	if len(found.Keywords) > 0 {
		out.Keywords = found.Keywords
	}
	if found.Abstract != "" {
		out.Abstract = found.Abstract
	}
	if found.WorkType != "" {
		out.WorkType = found.WorkType
	}
	if found.CitedByCount != 0 {
		out.CitedByCount = found.CitedByCount
	}
	if found.IsOpenAccess {
		out.IsOpenAccess = true
	}

	return out
}

// ensurePlaceholders guarantees the bibliographic minimum so downstream
// formatting never sees an untitled, authorless record.
func ensurePlaceholders(rec types.Record) types.Record {
	if rec.Title == "" {
		rec.Title = PlaceholderTitle
	}
	if len(rec.Authors) == 0 {
		rec.Authors = []string{PlaceholderAuthor}
	}
	return rec
}
