// Package xxhash provides the dependency-free hash embedder and content
// fingerprints, both built on xxHash64.
package xxhash

import (
	"context"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/manx"
)

// DefaultDimension is the embedding size when none is configured.
const DefaultDimension = 384

// bigramWeight is the contribution of a word pair relative to a word.
const bigramWeight = 0.5

var _ manx.Embedder = (*Embedder)(nil)

// Embedder produces bag-of-words vectors by feature hashing. Texts sharing
// words score high cosine similarity regardless of word order; bigrams add
// a weaker order signal.
type Embedder struct {
	dim int
}

// NewEmbedder returns an Embedder producing vectors of dim dimensions.
// A non-positive dim selects DefaultDimension.
func NewEmbedder(dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Embedder{dim: dim}
}

// Embed returns the L2-normalized hash embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(manx.CleanText(text)))
	if len(words) == 0 {
		return nil, manx.Errorf(manx.EINVALID, "cannot embed empty text")
	}

	v := make([]float32, e.dim)
	for _, w := range words {
		e.scatter(v, xxhash.Sum64String(w), 1)
	}
	for i := 1; i < len(words); i++ {
		e.scatter(v, xxhash.Sum64String(words[i-1]+" "+words[i]), bigramWeight)
	}
	return manx.Normalize(v), nil
}

// scatter adds weight at h*(i+1) mod dim for every dimension i.
func (e *Embedder) scatter(v []float32, h uint64, weight float32) {
	d := uint64(e.dim)
	for i := uint64(0); i < d; i++ {
		v[(h*(i+1))%d] += weight
	}
}

// Info describes the provider.
func (e *Embedder) Info() manx.ProviderInfo {
	return manx.ProviderInfo{
		Name:           "Hash-based Embeddings",
		Type:           manx.EmbeddingHash,
		Model:          strconv.Itoa(e.dim) + "d",
		Description:    "Fast hash-based embeddings for basic semantic similarity",
		MaxInputLength: 2048,
	}
}

// ContentHash returns the hex xxHash64 fingerprint of content.
func ContentHash(content string) string {
	return strconv.FormatUint(xxhash.Sum64String(content), 16)
}
