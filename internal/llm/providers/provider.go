// File path: internal/llm/providers/provider.go
package providers

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
)

// Message is one turn of a model conversation.
type Message struct {
	Role    string
	Content string
}

// Provider abstracts a language-model backend: guarded prompt completion and
// text embedding. Both operations are fallible and may be rate limited;
// callers decide how to degrade.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}

// ErrNoGenerativeModel is returned by providers that can embed but not
// generate text. Callers degrade to their fixed fallback strings.
var ErrNoGenerativeModel = errors.New("provider has no generative model")

// LocalProvider is the offline fallback. It produces deterministic,
// normalized pseudo-embeddings so ingestion and analysis stay exercisable
// without any API key, and refuses generation so narrative fields degrade to
// their fixed fallbacks.
type LocalProvider struct {
	dim int
}

func NewLocalProvider(dim int) *LocalProvider {
	if dim <= 0 {
		dim = 384
	}
	return &LocalProvider{dim: dim}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	return "", ErrNoGenerativeModel
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, len(input))
	for i, text := range input {
		vectors[i] = l.pseudoEmbedding(text)
	}
	return vectors, nil
}

// pseudoEmbedding derives a unit vector from a text hash. Distinct texts get
// distinct directions; identical texts always get the same vector.
func (l *LocalProvider) pseudoEmbedding(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()
	if state == 0 {
		state = 1
	}
	vec := make([]float32, l.dim)
	var norm float64
	for i := range vec {
		// xorshift64 keeps the sequence deterministic per seed.
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		value := float64(int64(state%2000)-1000) / 1000
		vec[i] = float32(value)
		norm += value * value
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (l *LocalProvider) Name() string {
	return "local"
}
