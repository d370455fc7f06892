// Package cachekey derives deterministic cache keys for embedding and
// retrieval results. Identical inputs always produce identical keys; any
// parameter change (including recall width) changes the key, which is what
// keeps cached entries correct across configuration changes.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/domain/filter"
)

const (
	embeddingPrefix = domain.KeyPrefix + "emb:"
	retrievalPrefix = domain.KeyPrefix + "ret:"
)

// Embedding derives the cache key for an embedding of text under model.
// Case-sensitive; the text is whitespace-trimmed and nothing else.
func Embedding(text, model string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return embeddingPrefix + model + ":" + hex.EncodeToString(h[:])
}

// Surrogate derives a short stable stand-in for an embedding vector. Raw
// floats are not cache-stable across runs, so the key hashes a
// fixed-precision string rendering instead.
func Surrogate(vec []float32) string {
	var b strings.Builder
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.6f", v)
	}
	h := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(h[:])
}

// Retrieval derives the cache key for a vector store query: namespace,
// recall width, vector surrogate and the stable filter encoding all feed
// the hash.
func Retrieval(namespace string, recallK int, surrogate string, flt filter.Predicate) string {
	encoded := "{}"
	if flt != nil {
		encoded = flt.StableJSON()
	}
	base := fmt.Sprintf("%s|k=%d|emb=%s|flt=%s", namespace, recallK, surrogate, encoded)
	h := sha256.Sum256([]byte(base))
	return retrievalPrefix + hex.EncodeToString(h[:])
}
