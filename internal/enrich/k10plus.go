// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mwaldhauer/scilit/internal/cache"
	"github.com/mwaldhauer/scilit/pkg/types"
)

// k10plusBase is the K10plus SRU endpoint for the GBV/SWB union
// catalogue. Declared as a var so tests can substitute an httptest
// server.
var k10plusBase = "https://sru.k10plus.de/opac-de-627"

// K10plus queries the K10plus library union catalogue over SRU and
// parses MARCXML records. It is the strongest source for German-language
// monographs that the anglophone APIs miss.
type K10plus struct {
	deps Deps
}

// NewK10plus builds the K10plus adapter.
func NewK10plus(deps Deps) *K10plus { return &K10plus{deps: deps} }

// Name returns the provider identifier.
func (k *K10plus) Name() string { return "k10plus" }

// IDKind reports that K10plus resolves ISBNs directly.
func (k *K10plus) IDKind() IdentifierKind { return KindISBN }

// FetchByID resolves an ISBN through the NUM=ISBN CQL index.
func (k *K10plus) FetchByID(ctx context.Context, isbn string) (types.Record, bool, error) {
	key := cache.Key("k10plus", "isbn", isbn)
	return fetchCached(ctx, k.deps.Cache, key, func() (types.Record, bool, error) {
		records, err := k.searchRetrieve(ctx, "NUM=ISBN "+isbn, 1)
		if err != nil {
			return types.Record{}, false, fmt.Errorf("k10plus ISBN lookup: %w", err)
		}
		if len(records) == 0 {
			return types.Record{}, false, nil
		}

		rec := parseMARCRecord(records[0])
		return rec, !rec.IsEmpty(), nil
	})
}

// FetchByQuery searches via pica.tit and pica.per CQL clauses and
// returns the best-scoring candidate above the acceptance floor. MARC
// records are parsed before scoring, so ranking uses the canonical
// scorer directly.
func (k *K10plus) FetchByQuery(ctx context.Context, title string, authors []string) (types.Record, bool, error) {
	var clauses []string
	if clean := cleanQueryText(title); clean != "" {
		clauses = append(clauses, fmt.Sprintf("pica.tit=%q", clean))
	}
	if surname := firstAuthorLastName(authors); surname != "" {
		clauses = append(clauses, fmt.Sprintf("pica.per=%q", surname))
	}
	if len(clauses) == 0 {
		return types.Record{}, false, nil
	}

	key := cache.Key("k10plus", "query", title+" "+strings.Join(authors, " "))
	return fetchCached(ctx, k.deps.Cache, key, func() (types.Record, bool, error) {
		records, err := k.searchRetrieve(ctx, strings.Join(clauses, " and "), maxCandidates(k.deps.Config))
		if err != nil {
			return types.Record{}, false, fmt.Errorf("k10plus search: %w", err)
		}

		best := -1.0
		var bestRec types.Record
		for _, record := range records {
			rec := parseMARCRecord(record)
			if score := ScoreMetadata(rec, title, authors); score > best {
				best = score
				bestRec = rec
			}
		}
		if best <= minAcceptScore(k.deps.Config) {
			return types.Record{}, false, nil
		}
		return bestRec, !bestRec.IsEmpty(), nil
	})
}

// searchRetrieve runs an SRU searchRetrieve request with the given CQL
// query and returns the MARCXML records.
func (k *K10plus) searchRetrieve(ctx context.Context, cql string, maximum int) ([]marcRecord, error) {
	params := url.Values{
		"version":        {"1.1"},
		"operation":      {"searchRetrieve"},
		"query":          {cql},
		"maximumRecords": {strconv.Itoa(maximum)},
		"recordSchema":   {"marcxml"},
	}

	body, ok, err := getBody(ctx, k.deps, k10plusBase+"?"+params.Encode(), sruTimeout(k.deps.Config))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var response sruResponse
	if err := xml.Unmarshal(body, &response); err != nil {
		return nil, nil
	}
	if response.NumberOfRecords == 0 {
		return nil, nil
	}
	return response.Records, nil
}

// SRU / MARCXML structures. Field names match local XML element names;
// the decoder ignores the SRW and MARC namespaces.
type sruResponse struct {
	NumberOfRecords int          `xml:"numberOfRecords"`
	Records         []marcRecord `xml:"records>record>recordData>record"`
}

type marcRecord struct {
	ControlFields []marcControlField `xml:"controlfield"`
	DataFields    []marcDataField    `xml:"datafield"`
}

type marcControlField struct {
	Tag   string `xml:"tag,attr"`
	Value string `xml:",chardata"`
}

type marcDataField struct {
	Tag       string         `xml:"tag,attr"`
	Subfields []marcSubfield `xml:"subfield"`
}

type marcSubfield struct {
	Code  string `xml:"code,attr"`
	Value string `xml:",chardata"`
}

// controlField returns the value of the first control field with the
// given tag.
func (r marcRecord) controlField(tag string) string {
	for _, f := range r.ControlFields {
		if f.Tag == tag {
			return f.Value
		}
	}
	return ""
}

// dataField returns the first data field with the given tag.
func (r marcRecord) dataField(tag string) (marcDataField, bool) {
	for _, f := range r.DataFields {
		if f.Tag == tag {
			return f, true
		}
	}
	return marcDataField{}, false
}

// dataFields returns all data fields with the given tag.
func (r marcRecord) dataFields(tag string) []marcDataField {
	var fields []marcDataField
	for _, f := range r.DataFields {
		if f.Tag == tag {
			fields = append(fields, f)
		}
	}
	return fields
}

// subfield returns the value of the first subfield with the given code.
func (f marcDataField) subfield(code string) string {
	for _, s := range f.Subfields {
		if s.Code == code {
			return strings.TrimSpace(s.Value)
		}
	}
	return ""
}

var (
	// lifespanPattern matches trailing author life dates ("Kahneman,
	// Daniel, 1934-2024") added by authority records.
	lifespanPattern = regexp.MustCompile(`, \d{4}-\d{4}$`)
	yearPattern     = regexp.MustCompile(`\d{4}`)
	isbnPattern     = regexp.MustCompile(`[\dX]{10,13}`)
	pagesPattern    = regexp.MustCompile(`(\d+)\s*(?:Seiten|S\.|pages|p\.)`)
)

// parseMARCRecord maps a MARC21 bibliographic record onto the canonical
// record using the usual field assignments: 245 title, 100/700 authors,
// 008/264 year, 264 publisher, 020 ISBN, 300 extent, 650 subjects.
func parseMARCRecord(r marcRecord) types.Record {
	var rec types.Record

	if f, ok := r.dataField("245"); ok {
		var parts []string
		if a := f.subfield("a"); a != "" {
			parts = append(parts, a)
		}
		if b := f.subfield("b"); b != "" {
			parts = append(parts, b)
		}
		rec.Title = strings.TrimRight(strings.Join(parts, " "), " /:")
	}

	if f, ok := r.dataField("100"); ok {
		if name := f.subfield("a"); name != "" {
			rec.Authors = append(rec.Authors, lifespanPattern.ReplaceAllString(name, ""))
		}
	}
	for _, f := range r.dataFields("700") {
		if name := f.subfield("a"); name != "" {
			rec.Authors = append(rec.Authors, lifespanPattern.ReplaceAllString(name, ""))
		}
	}

	fixed := r.controlField("008")
	if len(fixed) >= 11 {
		if year, err := strconv.Atoi(fixed[7:11]); err == nil {
			rec.Year = year
		}
	}
	if f, ok := r.dataField("264"); ok {
		if rec.Year == 0 {
			if match := yearPattern.FindString(f.subfield("c")); match != "" {
				rec.Year, _ = strconv.Atoi(match)
			}
		}
		rec.Publisher = strings.TrimRight(f.subfield("b"), " :,.")
	}

	for _, f := range r.dataFields("020") {
		if match := isbnPattern.FindString(f.subfield("a")); match != "" {
			rec.ISBN = match
			break
		}
	}

	if f, ok := r.dataField("300"); ok {
		if match := pagesPattern.FindStringSubmatch(f.subfield("a")); match != nil {
			rec.PageCount, _ = strconv.Atoi(match[1])
		}
	}

	if len(fixed) >= 38 {
		rec.Language = normalizeLanguage(strings.TrimSpace(fixed[35:38]))
	}

	for _, f := range r.dataFields("650") {
		if subject := f.subfield("a"); subject != "" {
			rec.Keywords = append(rec.Keywords, subject)
			if len(rec.Keywords) == 5 {
				break
			}
		}
	}

	return rec
}
