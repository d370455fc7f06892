package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paddocklabs/regsearch/internal/domain/plan"
)

var rangeRe = regexp.MustCompile(`(?i)\bfrom\s+(20(?:1[8-9]|2[0-6]))\s+to\s+(20(?:1[8-9]|2[0-6]))\b`)

// compareHints are phrases that mark comparison intent. Two or more
// detected seasons trigger compare mode on their own; the hints only
// matter at the margin.
var compareHints = []string{
	"compare", "difference", "changes", "changed", "vs", "versus",
	"between", "from", "to", "across", "over the years",
}

// Plan detects season scopes in a query and picks a retrieval strategy.
func Plan(q string) plan.Plan {
	seasons := ExtractSeasons(q)

	if len(seasons) == 0 {
		return plan.Plan{
			Mode:       plan.Single,
			Seasons:    []int{},
			SubQueries: []plan.SubQuery{{Query: q}},
		}
	}

	if isCompareQuery(q, seasons) && len(seasons) >= 2 {
		subs := make([]plan.SubQuery, 0, len(seasons))
		for _, s := range seasons {
			subs = append(subs, plan.SubQuery{Season: s, Query: annotate(q, s)})
		}
		return plan.Plan{Mode: plan.Compare, Seasons: seasons, SubQueries: subs}
	}

	first := seasons[0]
	return plan.Plan{
		Mode:       plan.Single,
		Seasons:    []int{first},
		SubQueries: []plan.SubQuery{{Season: first, Query: annotate(q, first)}},
	}
}

// ExtractSeasons finds every season the query references: range
// expressions expand to each year in the inclusive range (clamped to the
// plausible bounds), then standalone year tokens are appended. First-seen
// order, de-duplicated.
func ExtractSeasons(q string) []int {
	var seasons []int

	if m := rangeRe.FindStringSubmatch(q); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		lo, hi := min(a, b), max(a, b)
		lo = max(lo, MinSeason)
		hi = min(hi, MaxSeason)
		for y := lo; y <= hi; y++ {
			seasons = append(seasons, y)
		}
	}

	for _, m := range yearRe.FindAllStringSubmatch(q, -1) {
		y, err := strconv.Atoi(m[1])
		if err != nil || y < MinSeason || y > MaxSeason {
			continue
		}
		seasons = append(seasons, y)
	}

	return uniquePreserveOrder(seasons)
}

func isCompareQuery(q string, seasons []int) bool {
	if len(seasons) >= 2 {
		return true
	}
	ql := strings.ToLower(q)
	for _, h := range compareHints {
		if strings.Contains(ql, h) {
			return true
		}
	}
	return false
}

// annotate forces the season into the subquery text so the embedding also
// reflects it; metadata filters still apply on top.
func annotate(q string, season int) string {
	return fmt.Sprintf("%s (season %d)", strings.TrimSpace(q), season)
}

func uniquePreserveOrder(nums []int) []int {
	out := make([]int, 0, len(nums))
	seen := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		if _, ok := seen[n]; ok {
			continue
		}
		out = append(out, n)
		seen[n] = struct{}{}
	}
	return out
}
