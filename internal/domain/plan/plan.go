// Package plan defines the query plan produced by season detection.
package plan

// Mode selects the retrieval strategy for a plan.
type Mode string

const (
	// Single issues one retrieval call, optionally scoped to a season.
	Single Mode = "single"
	// Compare issues one retrieval call per season and merges the results.
	Compare Mode = "compare"
)

// SubQuery is one season-scoped retrieval unit. Query carries an explicit
// season annotation so the embedding reflects the scope even before
// metadata filtering applies.
type SubQuery struct {
	Season int    `json:"season"`
	Query  string `json:"query"`
}

// Plan is the output of query planning. Seasons are de-duplicated and
// preserve first-seen order. Compare mode requires at least two seasons;
// single mode carries zero or one.
type Plan struct {
	Mode       Mode       `json:"mode"`
	Seasons    []int      `json:"seasons"`
	SubQueries []SubQuery `json:"subqueries,omitempty"`
}
