// Package query derives retrieval scoping from free-text questions:
// metadata filters and season-aware query plans.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/paddocklabs/regsearch/internal/domain/filter"
)

// Season bounds considered plausible for the corpus. Years outside this
// range are treated as stray numbers, not seasons.
const (
	MinSeason = 2018
	MaxSeason = 2026
)

var yearRe = regexp.MustCompile(`\b(20(?:1[8-9]|2[0-6]))\b`)

// articleExplicitRe matches only explicit article mentions anchored to the
// word "article"/"art." — stray digits, years and page numbers must not
// produce an article filter.
var articleExplicitRe = regexp.MustCompile(`(?i)\b(?:article|art\.?)\s*(\d{1,3}(?:\.\d{1,3})?)\b`)

// regTypeKeywords maps canonical regulation types to their query synonyms.
// Detection order is fixed; first match wins.
var regTypeKeywords = []struct {
	canon    string
	keywords []string
}{
	{"sporting", []string{"sporting", "sporting regulations", "sporting regs", "sport regs"}},
	{"technical", []string{"technical", "technical regulations", "technical regs", "tech regs"}},
	{"operational", []string{"operational", "operational regulations", "operational regs", "operations"}},
}

// seriesKeywords maps each series to its query synonyms.
var seriesKeywords = []struct {
	series   string
	keywords []string
}{
	{"f1", []string{"f1", "formula 1", "formula_1"}},
	{"f2", []string{"f2", "formula 2", "formula_2"}},
	{"f3", []string{"f3", "formula 3", "formula_3"}},
}

// allDocTypes is the union scope used when the series mention is absent or
// ambiguous: an ambiguous mention must not narrow incorrectly.
var allDocTypes = []string{"fia_f1_regulations", "fia_f2_regulations", "fia_f3_regulations"}

// BuildFilters derives the metadata predicate for a query. A tenant
// equality clause is always present, and series/doc-type scoping is always
// added alongside it. A lone tenant clause is returned unwrapped so that
// structural filter comparisons work.
func BuildFilters(q, tenant string) filter.Predicate {
	clauses := []filter.Predicate{filter.Eq("tenant", tenant)}

	if series := detectSeries(q); series != "" {
		clauses = append(clauses, filter.Eq("doc_type", "fia_"+series+"_regulations"))
	} else {
		clauses = append(clauses, filter.In("doc_type", allDocTypes...))
	}

	if season, ok := detectSeason(q); ok {
		clauses = append(clauses, filter.EqInt("season", season))
	}

	if regType := detectRegulationType(q); regType != "" {
		clauses = append(clauses, filter.Eq("regulation_type", regType))
	}

	if article := detectArticleExplicit(q); article != "" {
		clauses = append(clauses, filter.In("article_refs", article))
	}

	if len(clauses) == 1 {
		return clauses[0]
	}
	return filter.AndOf(clauses...)
}

// detectSeason finds the first in-range year token.
func detectSeason(q string) (int, bool) {
	m := yearRe.FindStringSubmatch(q)
	if m == nil {
		return 0, false
	}
	yr, err := strconv.Atoi(m[1])
	if err != nil || yr < MinSeason || yr > MaxSeason {
		return 0, false
	}
	return yr, true
}

// detectSeries returns the series only when exactly one matches; zero or
// several matches fall back to the union scope.
func detectSeries(q string) string {
	ql := strings.ToLower(q)
	var found []string
	for _, s := range seriesKeywords {
		for _, kw := range s.keywords {
			if strings.Contains(ql, kw) {
				found = append(found, s.series)
				break
			}
		}
	}
	if len(found) == 1 {
		return found[0]
	}
	return ""
}

func detectRegulationType(q string) string {
	ql := strings.ToLower(q)
	for _, rt := range regTypeKeywords {
		for _, kw := range rt.keywords {
			if strings.Contains(ql, kw) {
				return rt.canon
			}
		}
	}
	return ""
}

func detectArticleExplicit(q string) string {
	m := articleExplicitRe.FindStringSubmatch(q)
	if m == nil {
		return ""
	}
	return m[1]
}
