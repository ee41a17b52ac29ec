package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValue(t *testing.T) {
	t.Run("Marshal metadata to json", func(t *testing.T) {
		metadata := Metadata{"class_1": "Notification"}

		value, err := metadata.Value()
		require.NoError(t, err)
		assert.JSONEq(t, `{"class_1":"Notification"}`, string(value.([]byte)))
	})
}

func TestMetadataScan(t *testing.T) {
	t.Run("Scan json bytes", func(t *testing.T) {
		var metadata Metadata
		err := metadata.Scan([]byte(`{"threshold":0.8}`))
		require.NoError(t, err)
		assert.Equal(t, 0.8, metadata["threshold"])
	})

	t.Run("Scan nil yields empty metadata", func(t *testing.T) {
		var metadata Metadata
		err := metadata.Scan(nil)
		require.NoError(t, err)
		assert.Empty(t, metadata)
	})

	t.Run("Scan unsupported type returns error", func(t *testing.T) {
		var metadata Metadata
		err := metadata.Scan(42)
		assert.Error(t, err)
	})
}
