package database

import (
	"testing"
	"time"

	"github.com/separk-1/GraphLER/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitiesNewEntitiesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewEntitiesDBHandler", func(t *testing.T) {
		entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewEntitiesDBHandler to not return an error")
		require.NotNil(t, entitiesDbHandler, "Expected NewEntitiesDBHandler to return a non-nil instance")
		require.NotNil(t, entitiesDbHandler.db, "Expected NewEntitiesDBHandler to have a non-nil database instance")
		require.NotNil(t, entitiesDbHandler.db.Instance, "Expected NewEntitiesDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewEntitiesDBHandler with nil database", func(t *testing.T) {
		_, err := NewEntitiesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating EntitiesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestEntitiesInsert(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err, "Expected NewEntitiesDBHandler to not return an error")

	t.Run("Insert entity", func(t *testing.T) {
		entity := &model.CanonicalEntity{
			Kind:     model.MentionKindCause,
			Name:     "seal wear",
			Metadata: model.Metadata{"source": "test"},
		}

		err := entitiesDbHandler.InsertEntity(entity)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEmpty(t, entity.ID, "Expected inserted entity to have an ID")
		assert.WithinDuration(t, entity.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")

		// Cleanup
		entitiesDbHandler.DeleteEntity(entity.ID)
	})

	t.Run("Insert duplicate key (upsert)", func(t *testing.T) {
		entity := &model.CanonicalEntity{
			Kind: model.MentionKindCorrectiveAction,
			Name: "replace valve seal",
		}
		err := entitiesDbHandler.InsertEntity(entity)
		require.NoError(t, err)
		firstID := entity.ID

		entity2 := &model.CanonicalEntity{
			Kind:     model.MentionKindCorrectiveAction,
			Name:     "replace valve seal",
			Aliases:  []string{"Replace Valve Seal"},
			Metadata: model.Metadata{"note": "second sighting"},
		}
		err = entitiesDbHandler.InsertEntity(entity2)
		assert.NoError(t, err, "Expected Insert to not return an error for duplicate key")
		assert.Equal(t, firstID, entity2.ID, "Expected the existing node to be reused")
		assert.Contains(t, entity2.Aliases, "Replace Valve Seal", "Expected aliases to be merged")
		assert.Equal(t, "second sighting", entity2.Metadata["note"], "Expected metadata to be merged")

		count, err := entitiesDbHandler.CountEntities()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "Expected exactly one canonical entity node")

		// Cleanup
		entitiesDbHandler.DeleteEntity(firstID)
	})

	t.Run("Same name under different kinds stays separate", func(t *testing.T) {
		cause := &model.CanonicalEntity{Kind: model.MentionKindCause, Name: "valve seal"}
		component := &model.CanonicalEntity{Kind: model.MentionKindComponent, Name: "valve seal"}

		require.NoError(t, entitiesDbHandler.InsertEntity(cause))
		require.NoError(t, entitiesDbHandler.InsertEntity(component))
		assert.NotEqual(t, cause.ID, component.ID, "Expected distinct nodes per kind")

		// Cleanup
		entitiesDbHandler.DeleteEntity(cause.ID)
		entitiesDbHandler.DeleteEntity(component.ID)
	})
}

func TestEntitiesGet(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)

	entity := &model.CanonicalEntity{
		Kind:     model.MentionKindRegulation,
		Name:     "10 CFR 50.72",
		Aliases:  []string{"10CFR50.72"},
		Metadata: model.Metadata{"class_1": "Reporting"},
	}
	err = entitiesDbHandler.InsertEntity(entity)
	require.NoError(t, err)

	t.Run("Get by id", func(t *testing.T) {
		retrieved, err := entitiesDbHandler.SelectEntity(entity.ID)
		assert.NoError(t, err, "Expected Get to not return an error")
		require.NotNil(t, retrieved, "Expected Get to return a non-nil entity")
		assert.Equal(t, entity.ID, retrieved.ID, "Expected entity IDs to match")
		assert.Equal(t, entity.Name, retrieved.Name, "Expected names to match")
		assert.Equal(t, entity.Kind, retrieved.Kind, "Expected kinds to match")
		assert.Equal(t, []string{"10CFR50.72"}, retrieved.Aliases, "Expected aliases to round-trip")
	})

	t.Run("Get by natural key", func(t *testing.T) {
		retrieved, err := entitiesDbHandler.SelectEntityByKey(model.MentionKindRegulation, "10 CFR 50.72")
		assert.NoError(t, err, "Expected GetByKey to not return an error")
		require.NotNil(t, retrieved)
		assert.Equal(t, entity.ID, retrieved.ID, "Expected entity IDs to match")
		assert.Equal(t, "Reporting", retrieved.Metadata["class_1"], "Expected metadata to round-trip")
	})

	t.Run("Get by kind", func(t *testing.T) {
		entities, err := entitiesDbHandler.SelectEntitiesByKind(model.MentionKindRegulation, 10)
		assert.NoError(t, err, "Expected GetByKind to not return an error")
		assert.GreaterOrEqual(t, len(entities), 1, "Expected at least the inserted entity")
	})

	// Cleanup
	entitiesDbHandler.DeleteEntity(entity.ID)
}

func TestEntitiesDelete(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)

	entity := &model.CanonicalEntity{Kind: model.MentionKindComponent, Name: "to delete"}
	err = entitiesDbHandler.InsertEntity(entity)
	require.NoError(t, err)

	err = entitiesDbHandler.DeleteEntity(entity.ID)
	assert.NoError(t, err, "Expected Delete to not return an error")

	_, err = entitiesDbHandler.SelectEntity(entity.ID)
	assert.Error(t, err, "Expected Get to return an error for deleted entity")
}
