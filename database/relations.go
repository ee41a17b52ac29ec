package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/separk-1/GraphLER/helper"
	"github.com/separk-1/GraphLER/model"
	loadSql "github.com/separk-1/GraphLER/sql"
)

// RelationsDBHandlerFunctions defines the interface for relationship database operations.
type RelationsDBHandlerFunctions interface {
	InsertRelation(relation *model.Relation) error
	SelectRelationsFromIncident(incidentID int64, relationType *model.RelationType) ([]*model.Relation, error)
	CountRelations() (int64, error)
	DeleteRelation(id int64) error
	InsertIncidentLink(link *model.IncidentLink) error
	SelectIncidentLinks(incidentID int64) ([]*model.IncidentLink, error)
	CountIncidentLinks() (int64, error)
	ResetGraph(ctx context.Context) error
}

// RelationsDBHandler handles relationship database operations
type RelationsDBHandler struct {
	db *helper.Database
}

// NewRelationsDBHandler creates a new relations database handler.
// It initializes the database connection and loads relation-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationsDBHandler(db *helper.Database, force bool) (*RelationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationsDbHandler := &RelationsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationsSql(relationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relations sql", err)
	}

	err = relationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationsDBHandler")

	return relationsDbHandler, nil
}

// CreateTable creates the 'relations' and 'incident_links' tables in the
// database. If the tables already exist, it does not create them again.
func (h *RelationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relations();`)
	if err != nil {
		log.Panicf("error initializing relations tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created tables relations, incident_links")

	return nil
}

// InsertRelation upserts a typed incident-to-entity relationship keyed by
// (incident, entity, type). The same triple is never duplicated.
func (h *RelationsDBHandler) InsertRelation(relation *model.Relation) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_relation($1, $2, $3, $4)`,
		relation.IncidentID,
		relation.EntityID,
		string(relation.Type),
		relation.Metadata,
	)

	err := row.Scan(
		&relation.ID,
		&relation.IncidentID,
		&relation.EntityID,
		&relation.Type,
		&relation.Metadata,
		&relation.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationsFromIncident retrieves relationships outgoing from an
// incident node, optionally filtered by type
func (h *RelationsDBHandler) SelectRelationsFromIncident(incidentID int64, relationType *model.RelationType) ([]*model.Relation, error) {
	var typeParam *string
	if relationType != nil {
		s := string(*relationType)
		typeParam = &s
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_relations_from_incident($1, $2)`,
		incidentID,
		typeParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var relations []*model.Relation
	for rows.Next() {
		relation := &model.Relation{}
		err := rows.Scan(
			&relation.ID,
			&relation.IncidentID,
			&relation.EntityID,
			&relation.Type,
			&relation.Metadata,
			&relation.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		relations = append(relations, relation)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relations, nil
}

// CountRelations returns the number of incident-to-entity relationships
func (h *RelationsDBHandler) CountRelations() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_relations()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteRelation deletes a relationship by ID
func (h *RelationsDBHandler) DeleteRelation(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_relation($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// InsertIncidentLink upserts a similarity edge between two incident nodes.
// The pair is unordered; the store keeps one row per pair and refreshes the
// score on re-runs.
func (h *RelationsDBHandler) InsertIncidentLink(link *model.IncidentLink) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_incident_link($1, $2, $3, $4)`,
		link.IncidentAID,
		link.IncidentBID,
		link.Score,
		link.Metadata,
	)

	err := row.Scan(
		&link.ID,
		&link.IncidentAID,
		&link.IncidentBID,
		&link.Score,
		&link.Metadata,
		&link.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectIncidentLinks retrieves similarity edges touching an incident node
func (h *RelationsDBHandler) SelectIncidentLinks(incidentID int64) ([]*model.IncidentLink, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_incident_links($1)`,
		incidentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var links []*model.IncidentLink
	for rows.Next() {
		link := &model.IncidentLink{}
		err := rows.Scan(
			&link.ID,
			&link.IncidentAID,
			&link.IncidentBID,
			&link.Score,
			&link.Metadata,
			&link.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		links = append(links, link)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return links, nil
}

// CountIncidentLinks returns the number of persisted similarity edges
func (h *RelationsDBHandler) CountIncidentLinks() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_incident_links()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// ResetGraph truncates all graph tables. Intended for rebuilding the graph
// from scratch before a full re-ingest.
func (h *RelationsDBHandler) ResetGraph(ctx context.Context) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT reset_graph();`)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
