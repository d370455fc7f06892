package ingest

import (
	"fmt"
	"strings"
	"testing"
)

func TestInferMetadata(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		series   string
		docType  string
		season   int
		regType  string
		issue    int
		pub      string
	}{
		{
			name:     "f1 technical with issue",
			filename: "fia_2023_f1_technical_regulations_issue_4.pdf",
			series:   "f1", docType: "fia_f1_regulations",
			season: 2023, regType: "technical", issue: 4,
		},
		{
			name:     "f2 sporting",
			filename: "formula_2_sporting_regulations_2024.pdf",
			series:   "f2", docType: "fia_f2_regulations",
			season: 2024, regType: "sporting",
		},
		{
			name:     "f3 plain",
			filename: "f3_regulations_2022.pdf",
			series:   "f3", docType: "fia_f3_regulations",
			season: 2022,
		},
		{
			name:     "season is max year",
			filename: "2021_revisions_for_2023_technical.pdf",
			series:   "f1", docType: "fia_f1_regulations",
			season: 2023, regType: "technical",
		},
		{
			name:     "published date",
			filename: "f1_sporting_2023-06-29.pdf",
			series:   "f1", docType: "fia_f1_regulations",
			season: 2023, regType: "sporting", pub: "2023-06-29",
		},
		{
			name:     "defaults",
			filename: "regulations.pdf",
			series:   "f1", docType: "fia_f1_regulations",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := InferMetadata(tc.filename, "fia", "fia")
			if meta.Series != tc.series {
				t.Fatalf("series: got %q, want %q", meta.Series, tc.series)
			}
			if meta.DocType != tc.docType {
				t.Fatalf("doc_type: got %q, want %q", meta.DocType, tc.docType)
			}
			if meta.Season != tc.season {
				t.Fatalf("season: got %d, want %d", meta.Season, tc.season)
			}
			if meta.RegulationType != tc.regType {
				t.Fatalf("regulation_type: got %q, want %q", meta.RegulationType, tc.regType)
			}
			if meta.Issue != tc.issue {
				t.Fatalf("issue: got %d, want %d", meta.Issue, tc.issue)
			}
			if meta.Published != tc.pub {
				t.Fatalf("published: got %q, want %q", meta.Published, tc.pub)
			}
			if meta.Dataset != "fia" || meta.Tenant != "fia" {
				t.Fatalf("dataset/tenant not carried: %+v", meta)
			}
			if meta.DocTitle != tc.filename || meta.Source != tc.filename {
				t.Fatalf("title/source not carried: %+v", meta)
			}
		})
	}
}

func TestExtractArticleRefs(t *testing.T) {
	text := "As per Article 3.5, the floor must comply. See also art. 10 " +
		"and the tolerances in 3.5 and 12.1."

	refs := ExtractArticleRefs(text)

	want := []string{"3.5", "10", "12.1"}
	if len(refs) != len(want) {
		t.Fatalf("expected %v, got %v", want, refs)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, refs)
		}
	}
}

func TestExtractArticleRefs_Cap(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&b, " %d.%d", i, i)
	}

	refs := ExtractArticleRefs(b.String())
	if len(refs) != 20 {
		t.Fatalf("refs must be capped at 20, got %d", len(refs))
	}
}

func TestExtractArticleRefs_Empty(t *testing.T) {
	if refs := ExtractArticleRefs(""); refs != nil {
		t.Fatalf("expected nil for empty text, got %v", refs)
	}
}
