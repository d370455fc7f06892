package retrieve

import "github.com/paddocklabs/regsearch/internal/domain"

// mergeBalanced interleaves per-season result lists round-robin so each
// season contributes evenly to the final set. Duplicate chunk ids keep
// their first (best-ranked) occurrence. Stops at limit or when every
// list is exhausted.
func mergeBalanced(batches [][]domain.Chunk, limit int) []domain.Chunk {
	if limit <= 0 {
		return nil
	}

	merged := make([]domain.Chunk, 0, limit)
	seen := make(map[string]struct{})

	for idx := 0; ; idx++ {
		progressed := false
		for _, batch := range batches {
			if idx >= len(batch) {
				continue
			}
			progressed = true

			c := batch[idx]
			if _, dup := seen[c.ID()]; dup {
				continue
			}
			seen[c.ID()] = struct{}{}

			merged = append(merged, c)
			if len(merged) == limit {
				return merged
			}
		}
		if !progressed {
			return merged
		}
	}
}
