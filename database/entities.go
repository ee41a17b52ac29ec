package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/separk-1/GraphLER/helper"
	"github.com/separk-1/GraphLER/model"
	loadSql "github.com/separk-1/GraphLER/sql"
)

// EntitiesDBHandlerFunctions defines the interface for canonical entity database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(entity *model.CanonicalEntity) error
	SelectEntity(id int64) (*model.CanonicalEntity, error)
	SelectEntityByKey(kind model.MentionKind, name string) (*model.CanonicalEntity, error)
	SelectEntitiesByKind(kind model.MentionKind, limit int) ([]*model.CanonicalEntity, error)
	CountEntities() (int64, error)
	DeleteEntity(id int64) error
}

// EntitiesDBHandler handles canonical-entity database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table in the database.
// If the table already exists, it does not create it again.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// InsertEntity upserts a canonical entity keyed by (kind, name).
// On conflict aliases and metadata are merged into the existing node.
func (h *EntitiesDBHandler) InsertEntity(entity *model.CanonicalEntity) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_entity($1, $2, $3, $4)`,
		string(entity.Kind),
		entity.Name,
		pq.Array(entity.Aliases),
		entity.Metadata,
	)

	err := row.Scan(
		&entity.ID,
		&entity.RID,
		&entity.Kind,
		&entity.Name,
		pq.Array(&entity.Aliases),
		&entity.Metadata,
		&entity.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEntity retrieves a canonical entity by ID
func (h *EntitiesDBHandler) SelectEntity(id int64) (*model.CanonicalEntity, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity($1)`,
		id,
	)
	return scanEntity(row)
}

// SelectEntityByKey retrieves a canonical entity by its natural key
func (h *EntitiesDBHandler) SelectEntityByKey(kind model.MentionKind, name string) (*model.CanonicalEntity, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity_by_key($1, $2)`,
		string(kind),
		name,
	)
	return scanEntity(row)
}

// SelectEntitiesByKind retrieves canonical entities of a kind
func (h *EntitiesDBHandler) SelectEntitiesByKind(kind model.MentionKind, limit int) ([]*model.CanonicalEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_kind($1, $2)`,
		string(kind),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.CanonicalEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// CountEntities returns the number of canonical entity nodes
func (h *EntitiesDBHandler) CountEntities() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_entities()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteEntity deletes a canonical entity by ID
func (h *EntitiesDBHandler) DeleteEntity(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanEntity(row rowScanner) (*model.CanonicalEntity, error) {
	entity := &model.CanonicalEntity{}
	err := row.Scan(
		&entity.ID,
		&entity.RID,
		&entity.Kind,
		&entity.Name,
		pq.Array(&entity.Aliases),
		&entity.Metadata,
		&entity.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return entity, nil
}
