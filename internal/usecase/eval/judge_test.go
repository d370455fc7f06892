package eval

import (
	"context"
	"errors"
	"testing"

	"github.com/paddocklabs/regsearch/internal/usecase/pipeline"
)

type mockGenerator struct {
	reply    string
	err      error
	lastUser string
}

func (m *mockGenerator) Complete(_ context.Context, _, user string) (string, error) {
	m.lastUser = user
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

var testEvidence = []pipeline.Evidence{
	{Ref: 1, Source: "doc.pdf", Page: 3, Text: "the minimum weight is 798 kg"},
}

func TestFaithfulness_CleanJSON(t *testing.T) {
	gen := &mockGenerator{reply: `{"faithful": true, "issues": [], "confidence": 0.92}`}
	j := NewJudge(gen)

	v, err := j.Faithfulness(context.Background(), "- 798 kg. [1]", testEvidence)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Judged || !v.Faithful || v.Confidence != 0.92 {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestFaithfulness_JSONInProse(t *testing.T) {
	gen := &mockGenerator{reply: "Here is my verdict:\n```json\n" +
		`{"faithful": false, "issues": ["claim about 2024 unsupported"], "confidence": 0.8}` +
		"\n```"}
	j := NewJudge(gen)

	v, err := j.Faithfulness(context.Background(), "answer", testEvidence)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Judged || v.Faithful {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	if len(v.Issues) != 1 {
		t.Fatalf("issues not carried: %+v", v)
	}
}

func TestFaithfulness_NonJSONOutput(t *testing.T) {
	gen := &mockGenerator{reply: "I think it looks fine."}
	j := NewJudge(gen)

	v, err := j.Faithfulness(context.Background(), "answer", testEvidence)
	if err != nil {
		t.Fatalf("malformed output must not be an error: %v", err)
	}
	if v.Judged {
		t.Fatalf("non-JSON output must stay unjudged: %+v", v)
	}
	if len(v.Issues) == 0 {
		t.Fatal("unjudged verdict must carry a note")
	}
}

func TestFaithfulness_BrokenJSON(t *testing.T) {
	gen := &mockGenerator{reply: `{"faithful": tru`}
	j := NewJudge(gen)

	v, err := j.Faithfulness(context.Background(), "answer", testEvidence)
	if err != nil {
		t.Fatalf("broken JSON must not be an error: %v", err)
	}
	if v.Judged {
		t.Fatalf("broken JSON must stay unjudged: %+v", v)
	}
}

func TestFaithfulness_GeneratorError(t *testing.T) {
	wantErr := errors.New("provider down")
	j := NewJudge(&mockGenerator{err: wantErr})

	_, err := j.Faithfulness(context.Background(), "answer", testEvidence)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected generator error, got: %v", err)
	}
}
