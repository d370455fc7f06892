// Package guard is the three-stage safety filter around retrieval and
// generation: input screening before retrieval, context filtering after
// retrieval, output validation after generation.
package guard

import (
	"regexp"
	"strings"

	"github.com/paddocklabs/regsearch/internal/domain"
)

// minChunkLen is the shortest context chunk worth citing. Anything
// shorter is boilerplate or extraction noise.
const minChunkLen = 30

// injectionPatterns are heuristics for prompt-injection attempts. They
// run against the lower-cased query.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bignore\b.*\b(previous|prior|above)\b.*\b(instructions|rules)\b`),
	regexp.MustCompile(`\byou are now\b`),
	regexp.MustCompile(`\b(system|developer)\s+prompt\b`),
	regexp.MustCompile(`\breveal\b.*\b(prompt|instructions|policy|rules)\b`),
	regexp.MustCompile(`\bjailbreak\b`),
	regexp.MustCompile(`\bdo anything now\b`),
}

// Result is a pass/fail verdict with a human-readable reason on failure.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func pass() Result { return Result{OK: true} }

func fail(reason string) Result { return Result{OK: false, Reason: reason} }

// Input screens the user query before any retrieval happens.
func Input(query string) Result {
	q := strings.TrimSpace(query)
	if q == "" {
		return fail("Empty query.")
	}
	ql := strings.ToLower(q)
	for _, pat := range injectionPatterns {
		if pat.MatchString(ql) {
			return fail("Potential prompt injection attempt.")
		}
	}
	return pass()
}

// Context enforces tenant isolation and drops garbage chunks. Chunks
// without a tenant field pass; chunks tagged with a different tenant are
// removed. Order is preserved.
func Context(chunks []domain.Chunk, tenant string) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(strings.TrimSpace(c.Text())) < minChunkLen {
			continue
		}
		if ct := c.Meta().Tenant; ct != "" && ct != tenant {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Output validates the generated answer. An answer without citations is
// unverifiable and never reaches the caller.
func Output(answer string, citations []domain.Citation) Result {
	if strings.TrimSpace(answer) == "" {
		return fail("Empty answer.")
	}
	if len(citations) == 0 {
		return fail("No citations produced.")
	}
	return pass()
}
