package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeIndexType(t *testing.T) {
	database := initDB(t)

	incidentsDbHandler, err := NewIncidentsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	t.Run("Change to HNSW index", func(t *testing.T) {
		err := incidentsDbHandler.ChangeIndexType(context.Background(), "hnsw", map[string]interface{}{
			"m":               16,
			"ef_construction": 64,
		})
		assert.NoError(t, err, "Expected ChangeIndexType to not return an error")
	})

	t.Run("Change to IVFFlat index", func(t *testing.T) {
		err := incidentsDbHandler.ChangeIndexType(context.Background(), "ivfflat", map[string]interface{}{
			"lists": 10,
		})
		assert.NoError(t, err, "Expected ChangeIndexType to not return an error")
	})

	t.Run("Change with default parameters", func(t *testing.T) {
		err := incidentsDbHandler.ChangeIndexType(context.Background(), "hnsw", nil)
		assert.NoError(t, err, "Expected ChangeIndexType to use defaults")
	})

	t.Run("Invalid index type", func(t *testing.T) {
		err := incidentsDbHandler.ChangeIndexType(context.Background(), "btree", nil)
		assert.Error(t, err, "Expected error for unsupported index type")
		assert.Contains(t, err.Error(), "unsupported index type")
	})
}
