package fixtures

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
)

// Embedding returns a valid test embedding with every component set to fill.
func Embedding(t *testing.T, fill float32) vector.Embedding {
	t.Helper()
	values := make([]float32, vector.Dim)
	for i := range values {
		values[i] = fill
	}
	e, err := vector.NewEmbedding(values)
	require.NoError(t, err)
	return e
}
