// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleSRUXML = `<?xml version="1.0" encoding="UTF-8"?>
<zs:searchRetrieveResponse xmlns:zs="http://www.loc.gov/zing/srw/">
  <zs:version>1.1</zs:version>
  <zs:numberOfRecords>1</zs:numberOfRecords>
  <zs:records>
    <zs:record>
      <zs:recordData>
        <record xmlns="http://www.loc.gov/MARC21/slim">
          <controlfield tag="008">110525s2011    gw            000 0 ger d</controlfield>
          <datafield tag="020" ind1=" " ind2=" ">
            <subfield code="a">9783328100348 festeinband</subfield>
          </datafield>
          <datafield tag="100" ind1="1" ind2=" ">
            <subfield code="a">Kahneman, Daniel, 1934-2024</subfield>
          </datafield>
          <datafield tag="245" ind1="1" ind2="0">
            <subfield code="a">Schnelles Denken, langsames Denken</subfield>
            <subfield code="b">aus dem Englischen</subfield>
          </datafield>
          <datafield tag="264" ind1=" " ind2="1">
            <subfield code="b">Siedler :</subfield>
            <subfield code="c">[2011]</subfield>
          </datafield>
          <datafield tag="300" ind1=" " ind2=" ">
            <subfield code="a">621 Seiten</subfield>
          </datafield>
          <datafield tag="650" ind1=" " ind2="7">
            <subfield code="a">Kognitive Psychologie</subfield>
          </datafield>
          <datafield tag="650" ind1=" " ind2="7">
            <subfield code="a">Entscheidungsverhalten</subfield>
          </datafield>
          <datafield tag="700" ind1="1" ind2=" ">
            <subfield code="a">Schmidt, Thorsten</subfield>
          </datafield>
        </record>
      </zs:recordData>
    </zs:record>
  </zs:records>
</zs:searchRetrieveResponse>`

func TestK10plusFetchByID(t *testing.T) {
	var gotQuery, gotSchema string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotSchema = r.URL.Query().Get("recordSchema")
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, sampleSRUXML)
	}))
	defer ts.Close()
	swapBase(t, &k10plusBase, ts.URL)

	k := NewK10plus(Deps{Client: ts.Client()})
	rec, found, err := k.FetchByID(context.Background(), "9783328100348")
	if err != nil {
		t.Fatalf("FetchByID: %v", err)
	}
	if !found {
		t.Fatal("FetchByID: not found")
	}
	if gotQuery != "NUM=ISBN 9783328100348" {
		t.Errorf("query = %q, want NUM=ISBN CQL", gotQuery)
	}
	if gotSchema != "marcxml" {
		t.Errorf("recordSchema = %q", gotSchema)
	}
	if rec.Title != "Schnelles Denken, langsames Denken aus dem Englischen" {
		t.Errorf("Title = %q, want 245 $a $b joined", rec.Title)
	}
	// Life dates stripped from the authority form.
	if len(rec.Authors) != 2 || rec.Authors[0] != "Kahneman, Daniel" {
		t.Errorf("Authors = %v", rec.Authors)
	}
	if rec.Authors[1] != "Schmidt, Thorsten" {
		t.Errorf("Authors[1] = %q, want 700 entry", rec.Authors[1])
	}
	if rec.Year != 2011 {
		t.Errorf("Year = %d, want 008 positions 7-10", rec.Year)
	}
	if rec.Publisher != "Siedler" {
		t.Errorf("Publisher = %q, want trailing punctuation stripped", rec.Publisher)
	}
	if rec.ISBN != "9783328100348" {
		t.Errorf("ISBN = %q", rec.ISBN)
	}
	if rec.PageCount != 621 {
		t.Errorf("PageCount = %d", rec.PageCount)
	}
	if rec.Language != "de" {
		t.Errorf("Language = %q, want ger normalized from 008", rec.Language)
	}
	if len(rec.Keywords) != 2 {
		t.Errorf("Keywords = %v", rec.Keywords)
	}
}

func TestK10plusFetchByQueryCQL(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, sampleSRUXML)
	}))
	defer ts.Close()
	swapBase(t, &k10plusBase, ts.URL)

	k := NewK10plus(Deps{Client: ts.Client()})
	_, found, err := k.FetchByQuery(context.Background(), "Schnelles Denken, langsames Denken", []string{"Daniel Kahneman"})
	if err != nil {
		t.Fatalf("FetchByQuery: %v", err)
	}
	if !found {
		t.Fatal("FetchByQuery: not found")
	}
	if !strings.Contains(gotQuery, `pica.tit="Schnelles Denken langsames Denken"`) {
		t.Errorf("query = %q missing pica.tit clause", gotQuery)
	}
	if !strings.Contains(gotQuery, `pica.per="Kahneman"`) {
		t.Errorf("query = %q missing pica.per clause", gotQuery)
	}
	if !strings.Contains(gotQuery, " and ") {
		t.Errorf("query = %q, clauses must be joined with and", gotQuery)
	}
}

func TestK10plusZeroRecordsIsNotFound(t *testing.T) {
	body := `<?xml version="1.0"?>
<zs:searchRetrieveResponse xmlns:zs="http://www.loc.gov/zing/srw/">
  <zs:numberOfRecords>0</zs:numberOfRecords>
</zs:searchRetrieveResponse>`
	ts := jsonTestServer(http.StatusOK, body)
	defer ts.Close()
	swapBase(t, &k10plusBase, ts.URL)

	k := NewK10plus(Deps{Client: ts.Client()})
	_, found, err := k.FetchByID(context.Background(), "9783328100348")
	if err != nil || found {
		t.Fatalf("zero records: found=%v err=%v", found, err)
	}
}

func TestK10plusMalformedXMLIsNotFound(t *testing.T) {
	ts := jsonTestServer(http.StatusOK, "<not..xml")
	defer ts.Close()
	swapBase(t, &k10plusBase, ts.URL)

	k := NewK10plus(Deps{Client: ts.Client()})
	_, found, err := k.FetchByQuery(context.Background(), "anything", nil)
	if err != nil || found {
		t.Fatalf("malformed XML: found=%v err=%v", found, err)
	}
}

func TestParseMARCRecordYearFallback(t *testing.T) {
	// No usable 008 year; fall back to the 264 $c imprint.
	r := marcRecord{
		DataFields: []marcDataField{
			{Tag: "245", Subfields: []marcSubfield{{Code: "a", Value: "Ein Titel"}}},
			{Tag: "264", Subfields: []marcSubfield{{Code: "c", Value: "[2019]"}}},
		},
	}
	rec := parseMARCRecord(r)
	if rec.Year != 2019 {
		t.Errorf("Year = %d, want 264 $c fallback", rec.Year)
	}
}

func TestParseMARCRecordPageVariants(t *testing.T) {
	tests := []struct {
		extent string
		want   int
	}{
		{"621 Seiten", 621},
		{"312 S.", 312},
		{"450 pages", 450},
		{"99 p.", 99},
		{"Illustrationen", 0},
	}
	for _, tt := range tests {
		r := marcRecord{
			DataFields: []marcDataField{
				{Tag: "300", Subfields: []marcSubfield{{Code: "a", Value: tt.extent}}},
			},
		}
		if rec := parseMARCRecord(r); rec.PageCount != tt.want {
			t.Errorf("PageCount for %q = %d, want %d", tt.extent, rec.PageCount, tt.want)
		}
	}
}
