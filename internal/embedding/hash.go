package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// Hash is an offline embedder for development and tests. Each lower-cased
// word is hashed into one of Dims buckets with a hashed sign, so texts that
// share words point in similar directions.
type Hash struct {
	Dims int
}

// NewHash returns a Hash embedder producing dims-wide vectors.
func NewHash(dims int) *Hash {
	return &Hash{Dims: dims}
}

// Model names the embedder in cache keys.
func (h *Hash) Model() string { return "feature-hash" }

// Embed never fails.
func (h *Hash) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, h.Dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		f := fnv.New64a()
		_, _ = f.Write([]byte(w))
		sum := f.Sum64()
		i := int(sum % uint64(h.Dims))
		if sum>>63 == 1 {
			v[i]--
		} else {
			v[i]++
		}
	}
	return v, nil
}
