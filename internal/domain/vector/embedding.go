package vector

import (
	"fmt"
	"strconv"
	"strings"
)

// Dim is the embedding dimensionality produced by the face model (Facenet).
const Dim = 128

// Embedding is a fixed-length face descriptor. Distances between embeddings
// are computed by the similarity backend; this type only validates shape and
// handles wire encoding.
type Embedding []float32

// NewEmbedding validates the dimensionality and returns the vector.
func NewEmbedding(values []float32) (Embedding, error) {
	if len(values) != Dim {
		return nil, fmt.Errorf("embedding must have %d dimensions, got %d", Dim, len(values))
	}
	return Embedding(values), nil
}

// NewEmbeddingFromFloat64 converts a float64 slice, as decoded from JSON.
func NewEmbeddingFromFloat64(values []float64) (Embedding, error) {
	if len(values) != Dim {
		return nil, fmt.Errorf("embedding must have %d dimensions, got %d", Dim, len(values))
	}
	e := make(Embedding, Dim)
	for i, v := range values {
		e[i] = float32(v)
	}
	return e, nil
}

// String renders the pgvector text literal, e.g. "[0.1,0.2,...]".
func (e Embedding) String() string {
	var b strings.Builder
	b.Grow(len(e) * 10)
	b.WriteByte('[')
	for i, v := range e {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// Float64s returns a float64 copy for drivers and JSON encoding.
func (e Embedding) Float64s() []float64 {
	out := make([]float64, len(e))
	for i, v := range e {
		out[i] = float64(v)
	}
	return out
}

// Similarity converts a backend dissimilarity distance into the reporting
// score 1 - distance/2, clamped to [0, 1]. Gating decisions never use this
// value; they compare raw distance against the stage threshold.
func Similarity(distance float64) float64 {
	s := 1 - distance/2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
