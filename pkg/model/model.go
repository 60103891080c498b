package model

import (
	"strings"
	"time"
)

// Column names of a ResultTable, in export order.
const (
	ColName         = "name"
	ColImageURL     = "image_url"
	ColLength       = "length"
	ColDisplacement = "displacement"
	ColWikidataID   = "wikidata_id"
)

// Columns returns the table columns in export order.
func Columns() []string {
	return []string{ColName, ColImageURL, ColLength, ColDisplacement, ColWikidataID}
}

// ShipRecord is one warship row projected from a SPARQL binding.
// Every field is optional: the endpoint omits unbound variables per row.
type ShipRecord struct {
	Name         *string `json:"name"`
	ImageURL     *string `json:"image_url"`
	Length       *string `json:"length"`
	Displacement *string `json:"displacement"`
	WikidataID   *string `json:"wikidata_id"` // Deduplication key, raw entity URI as returned
}

// Values returns the fields in column order; nil means absent.
func (r *ShipRecord) Values() []*string {
	return []*string{r.Name, r.ImageURL, r.Length, r.Displacement, r.WikidataID}
}

// QID returns the short entity id (e.g. "Q12345") from the identifier value,
// accepting full entity URIs and "wd:" prefixed names. Empty if the id is absent.
func (r *ShipRecord) QID() string {
	if r.WikidataID == nil {
		return ""
	}
	id := *r.WikidataID
	if i := strings.LastIndexAny(id, "/:"); i >= 0 {
		id = id[i+1:]
	}
	return id
}

// ResultTable is an ordered sequence of ShipRecord, in response order.
type ResultTable []ShipRecord

// Len returns the number of rows.
func (t ResultTable) Len() int { return len(t) }

// Empty reports whether the table has no rows.
func (t ResultTable) Empty() bool { return len(t) == 0 }

// Head returns the first n rows (all rows if n exceeds the length).
func (t ResultTable) Head(n int) ResultTable {
	if n < 0 {
		n = 0
	}
	if n > len(t) {
		n = len(t)
	}
	return t[:n]
}

// FetchRun describes one persisted pipeline execution.
type FetchRun struct {
	ID        string
	Source    string // Endpoint URL the rows came from
	StartedAt time.Time
	RowCount  int
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Deref returns the pointed-to string, or fallback when p is nil.
func Deref(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
