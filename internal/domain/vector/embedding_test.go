package vector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedding(t *testing.T) {
	t.Run("accepts the model dimensionality", func(t *testing.T) {
		e, err := NewEmbedding(make([]float32, Dim))
		require.NoError(t, err)
		assert.Len(t, e, Dim)
	})

	t.Run("rejects wrong dimensionality", func(t *testing.T) {
		_, err := NewEmbedding(make([]float32, Dim-1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "128 dimensions")

		_, err = NewEmbedding(nil)
		require.Error(t, err)
	})
}

func TestNewEmbeddingFromFloat64(t *testing.T) {
	values := make([]float64, Dim)
	values[0] = 0.25
	values[Dim-1] = -1.5

	e, err := NewEmbeddingFromFloat64(values)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), e[0])
	assert.Equal(t, float32(-1.5), e[Dim-1])

	_, err = NewEmbeddingFromFloat64(make([]float64, 3))
	require.Error(t, err)
}

func TestEmbedding_String(t *testing.T) {
	values := make([]float32, Dim)
	values[0] = 0.5
	e, err := NewEmbedding(values)
	require.NoError(t, err)

	s := e.String()
	assert.True(t, strings.HasPrefix(s, "[0.5,0,"))
	assert.True(t, strings.HasSuffix(s, "]"))
	assert.Equal(t, Dim-1, strings.Count(s, ","))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"identical vectors", 0, 1},
		{"typical match distance", 0.1, 0.95},
		{"opposite vectors", 2, 0},
		{"clamps below zero", 3, 0},
		{"clamps above one", -0.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.distance), 1e-9)
		})
	}
}
