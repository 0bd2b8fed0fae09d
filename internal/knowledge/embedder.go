package knowledge

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Embedder maps text to a fixed-dimension vector by hashing unigram and
// bigram features into buckets and L2-normalizing the counts. Vectors are
// non-negative, so cosine similarity between them lies in [0,1].
//
// The same embedder (identified by Version) must be used to build an index
// and to embed queries against it; the index loader enforces this.
type Embedder struct {
	dim int
}

const DefaultDim = 256

func NewEmbedder(dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	return &Embedder{dim: dim}, nil
}

func (e *Embedder) Dim() int { return e.dim }

// Version identifies the embedding function and its dimension. Any change to
// the hashing or tokenization scheme must bump the scheme tag.
func (e *Embedder) Version() string {
	return fmt.Sprintf("hashed-tf/v1/dim=%d", e.dim)
}

// Embed returns the normalized vector for text. Empty or all-stopword input
// yields the zero vector.
func (e *Embedder) Embed(text string) []float32 {
	vec := make([]float32, e.dim)
	tokens := embedTokens(text)
	if len(tokens) == 0 {
		return vec
	}
	for _, tok := range tokens {
		vec[bucket(tok, e.dim)]++
	}
	for i := 0; i+1 < len(tokens); i++ {
		vec[bucket(tokens[i]+" "+tokens[i+1], e.dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

func bucket(tok string, dim int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tok))
	return int(h.Sum32() % uint32(dim))
}

var embedStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "about": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "get": {},
	"have": {}, "how": {}, "in": {}, "is": {}, "it": {}, "me": {}, "my": {},
	"of": {}, "on": {}, "or": {}, "should": {}, "that": {}, "the": {},
	"there": {}, "to": {}, "was": {}, "we": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "who": {}, "will": {}, "with": {}, "you": {},
	"your": {},
}

func embedTokens(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := embedStopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// cosine assumes both vectors are already L2-normalized.
func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot < 0 {
		return 0
	}
	if dot > 1 {
		return 1
	}
	return dot
}
