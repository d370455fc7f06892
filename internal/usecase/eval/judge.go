package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/usecase/pipeline"
)

const judgeSystemPrompt = "You are a strict evaluator. Output JSON only."

// maxJudgeIssues bounds the unsupported-claim list carried per row.
const maxJudgeIssues = 10

// jsonObjectRe pulls the first JSON object out of a model reply that may
// wrap it in prose or code fences.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Verdict is the judge's decision for one answer. Judged=false means the
// judge did not produce a usable verdict; the row still counts in the
// run, just not in the faithfulness rate.
type Verdict struct {
	Judged     bool     `json:"judged"`
	Faithful   bool     `json:"faithful"`
	Issues     []string `json:"issues,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Judge checks answers against their cited evidence with an LLM.
type Judge struct {
	generator domain.Generator
}

func NewJudge(generator domain.Generator) *Judge {
	return &Judge{generator: generator}
}

type judgePrompt struct {
	Task         string              `json:"task"`
	Answer       string              `json:"answer"`
	Evidence     []pipeline.Evidence `json:"evidence"`
	OutputSchema map[string]string   `json:"output_schema"`
}

type judgeReply struct {
	Faithful   bool     `json:"faithful"`
	Issues     []string `json:"issues"`
	Confidence float64  `json:"confidence"`
}

// Faithfulness asks the judge model whether every claim in the answer is
// supported by the evidence. Malformed judge output yields an unjudged
// verdict with a note, never an error: one flaky judge reply must not
// kill a whole eval run.
func (j *Judge) Faithfulness(ctx context.Context, answer string, evidence []pipeline.Evidence) (Verdict, error) {
	prompt := judgePrompt{
		Task: "Decide if the answer is fully supported by the evidence.\n" +
			"If any claim is not supported, mark faithful=false and list the unsupported claims.\n" +
			"Be strict: if evidence does not directly support it, it's unsupported.",
		Answer:   answer,
		Evidence: evidence,
		OutputSchema: map[string]string{
			"faithful":   "bool",
			"issues":     "array of strings",
			"confidence": "0..1",
		},
	}

	payload, err := json.Marshal(prompt)
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal judge prompt: %w", err)
	}

	reply, err := j.generator.Complete(ctx, judgeSystemPrompt, string(payload))
	if err != nil {
		return Verdict{}, fmt.Errorf("judge completion: %w", err)
	}

	raw := jsonObjectRe.FindString(reply)
	if raw == "" {
		return Verdict{Issues: []string{"Judge returned non-JSON output."}}, nil
	}

	var parsed judgeReply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Verdict{Issues: []string{"Judge JSON parse failed."}}, nil
	}

	issues := parsed.Issues
	if len(issues) > maxJudgeIssues {
		issues = issues[:maxJudgeIssues]
	}
	return Verdict{
		Judged:     true,
		Faithful:   parsed.Faithful,
		Issues:     issues,
		Confidence: parsed.Confidence,
	}, nil
}
