package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paddocklabs/regsearch/internal/domain"
)

var (
	yearRe         = regexp.MustCompile(`(20\d{2})`)
	issueRe        = regexp.MustCompile(`(?i)\bissue[\s_-]*(\d{1,2})\b`)
	publishedRe    = regexp.MustCompile(`\b(20\d{2})[-_/](\d{1,2})[-_/](\d{1,2})\b`)
	articleRe      = regexp.MustCompile(`(?i)\b(?:article|art\.?)\s*(\d{1,3}(?:\.\d{1,3})?)\b`)
	articleDotRe   = regexp.MustCompile(`\b(\d{1,3}\.\d{1,3})\b`)
)

// maxArticleRefs caps refs per chunk; regulation text quoting long
// cross-reference lists would otherwise dominate the tag field.
const maxArticleRefs = 20

// InferMetadata derives document-level metadata from a source filename.
// Unknown fields stay zero; series defaults to f1 because the bulk of the
// corpus is Formula 1 and FIA filenames rarely tag it explicitly.
func InferMetadata(filename, dataset, tenant string) domain.ChunkMeta {
	low := strings.ToLower(filename)

	meta := domain.ChunkMeta{
		Dataset:  dataset,
		Tenant:   tenant,
		DocTitle: filename,
		Source:   filename,
	}

	meta.Series = inferSeries(low)
	meta.DocType = fmt.Sprintf("fia_%s_regulations", meta.Series)

	if years := yearRe.FindAllString(filename, -1); len(years) > 0 {
		maxYear := 0
		for _, y := range years {
			if n, err := strconv.Atoi(y); err == nil && n > maxYear {
				maxYear = n
			}
		}
		meta.Season = maxYear
	}

	switch {
	case strings.Contains(low, "sporting"):
		meta.RegulationType = "sporting"
	case strings.Contains(low, "technical"):
		meta.RegulationType = "technical"
	case strings.Contains(low, "operational"):
		meta.RegulationType = "operational"
	}

	if m := issueRe.FindStringSubmatch(filename); m != nil {
		meta.Issue, _ = strconv.Atoi(m[1])
	}

	if m := publishedRe.FindStringSubmatch(filename); m != nil {
		mm, _ := strconv.Atoi(m[2])
		dd, _ := strconv.Atoi(m[3])
		meta.Published = fmt.Sprintf("%s-%02d-%02d", m[1], mm, dd)
	}

	return meta
}

func inferSeries(low string) string {
	switch {
	case strings.Contains(low, "formula 2"), strings.Contains(low, "formula_2"), strings.Contains(low, "f2"):
		return "f2"
	case strings.Contains(low, "formula 3"), strings.Contains(low, "formula_3"), strings.Contains(low, "f3"):
		return "f3"
	default:
		return "f1"
	}
}

// ExtractArticleRefs finds regulation article references in chunk text.
// Explicit "Article N" forms come first, then bare dotted numbers, both
// de-duplicated in order of appearance.
func ExtractArticleRefs(text string) []string {
	if text == "" {
		return nil
	}

	var refs []string
	seen := make(map[string]struct{})
	add := func(r string) {
		if _, dup := seen[r]; dup {
			return
		}
		seen[r] = struct{}{}
		refs = append(refs, r)
	}

	for _, m := range articleRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range articleDotRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	if len(refs) > maxArticleRefs {
		refs = refs[:maxArticleRefs]
	}
	return refs
}
