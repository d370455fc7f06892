package redis

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/paddocklabs/regsearch/internal/domain/filter"
)

func TestBuildFilterQuery(t *testing.T) {
	cases := []struct {
		name string
		pred filter.Predicate
		want string
	}{
		{
			name: "nil predicate",
			pred: nil,
			want: "",
		},
		{
			name: "tag equality",
			pred: filter.Eq("tenant", "fia"),
			want: `@tenant:{fia}`,
		},
		{
			name: "numeric equality becomes degenerate range",
			pred: filter.EqInt("season", 2023),
			want: `@season:[2023 2023]`,
		},
		{
			name: "membership joins with pipe",
			pred: filter.In("doc_type", "fia_f1_regulations", "fia_f2_regulations"),
			want: `@doc_type:{fia_f1_regulations|fia_f2_regulations}`,
		},
		{
			name: "conjunction joins with space",
			pred: filter.AndOf(
				filter.Eq("tenant", "fia"),
				filter.EqInt("season", 2021),
				filter.In("article_refs", "10"),
			),
			want: `@tenant:{fia} @season:[2021 2021] @article_refs:{10}`,
		},
		{
			name: "tag values are escaped",
			pred: filter.In("article_refs", "10.3"),
			want: `@article_refs:{10\.3}`,
		},
		{
			name: "string value with separators",
			pred: filter.Eq("source", "fia 2023-regs.pdf"),
			want: `@source:{fia\ 2023\-regs\.pdf}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildFilterQuery(tc.pred); got != tc.want {
				t.Fatalf("query = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestVectorToBytes(t *testing.T) {
	vec := []float32{1.5, -2.25, 0}
	raw := []byte(vectorToBytes(vec))

	if len(raw) != len(vec)*4 {
		t.Fatalf("length = %d, want %d", len(raw), len(vec)*4)
	}
	for i, want := range vec {
		got := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		if got != want {
			t.Fatalf("element %d = %f, want %f", i, got, want)
		}
	}
}
