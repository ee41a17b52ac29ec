package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/separk-1/GraphLER/helper"
	"github.com/separk-1/GraphLER/model"
	loadSql "github.com/separk-1/GraphLER/sql"
)

// IncidentsDBHandlerFunctions defines the interface for incident node database operations.
type IncidentsDBHandlerFunctions interface {
	InsertIncident(record *model.IncidentRecord) error
	SelectIncident(id int64) (*model.IncidentRecord, error)
	SelectIncidentByReportID(reportID string) (*model.IncidentRecord, error)
	SelectAllIncidents() ([]*model.IncidentRecord, error)
	CountIncidents() (int64, error)
	UpdateIncidentEmbedding(reportID string, embedding []float32) error
	SelectIncidentsBySimilarity(embedding []float32, limit int) ([]*model.IncidentMatch, error)
	DeleteIncident(id int64) error
}

// IncidentsDBHandler handles incident-node database operations
type IncidentsDBHandler struct {
	db *helper.Database
}

// NewIncidentsDBHandler creates a new incidents database handler.
// It loads incident-related SQL functions and creates the table with an
// embedding column of the given dimension.
// If force is true, it will reload the SQL functions even if they already exist.
func NewIncidentsDBHandler(db *helper.Database, embeddingDim int, force bool) (*IncidentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	incidentsDbHandler := &IncidentsDBHandler{
		db: db,
	}

	err := loadSql.LoadIncidentsSql(incidentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load incidents sql", err)
	}

	err = incidentsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized IncidentsDBHandler")

	return incidentsDbHandler, nil
}

// CreateTable creates the 'incidents' table in the database.
// If the table already exists, it does not create it again.
func (h *IncidentsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_incidents($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing incidents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table incidents")

	return nil
}

// InsertIncident upserts an incident node keyed by report id.
// On conflict the structured fields are refreshed and the node is reused.
func (h *IncidentsDBHandler) InsertIncident(record *model.IncidentRecord) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_incident($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ReportID,
		record.Title,
		record.Narrative,
		record.EventDate,
		record.Facility.Name,
		record.Facility.Unit,
		record.SystemAffected,
		record.Metadata,
	)

	err := row.Scan(
		&record.ID,
		&record.RID,
		&record.ReportID,
		&record.Title,
		&record.Narrative,
		&record.EventDate,
		&record.Facility.Name,
		&record.Facility.Unit,
		&record.SystemAffected,
		&record.Metadata,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectIncident retrieves an incident node by ID
func (h *IncidentsDBHandler) SelectIncident(id int64) (*model.IncidentRecord, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_incident($1)`,
		id,
	)
	return scanIncident(row)
}

// SelectIncidentByReportID retrieves an incident node by its natural key
func (h *IncidentsDBHandler) SelectIncidentByReportID(reportID string) (*model.IncidentRecord, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_incident_by_report_id($1)`,
		reportID,
	)
	return scanIncident(row)
}

// SelectAllIncidents retrieves all incident nodes ordered by report id
func (h *IncidentsDBHandler) SelectAllIncidents() ([]*model.IncidentRecord, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_incidents()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.IncidentRecord
	for rows.Next() {
		record, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

// CountIncidents returns the number of incident nodes
func (h *IncidentsDBHandler) CountIncidents() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_incidents()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// UpdateIncidentEmbedding stores the narrative embedding on an incident node
func (h *IncidentsDBHandler) UpdateIncidentEmbedding(reportID string, embedding []float32) error {
	embeddingVector := pgvector.NewVector(embedding)
	_, err := h.db.Instance.Exec(
		`SELECT update_incident_embedding($1, $2)`,
		reportID,
		embeddingVector,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectIncidentsBySimilarity retrieves incidents nearest to the given
// embedding by cosine distance
func (h *IncidentsDBHandler) SelectIncidentsBySimilarity(embedding []float32, limit int) ([]*model.IncidentMatch, error) {
	embeddingVector := pgvector.NewVector(embedding)
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_incidents_by_similarity($1, $2)`,
		embeddingVector,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var matches []*model.IncidentMatch
	for rows.Next() {
		match := &model.IncidentMatch{}
		err := rows.Scan(
			&match.ID,
			&match.RID,
			&match.ReportID,
			&match.Title,
			&match.Narrative,
			&match.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		matches = append(matches, match)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return matches, nil
}

// DeleteIncident deletes an incident node by ID
func (h *IncidentsDBHandler) DeleteIncident(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_incident($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*model.IncidentRecord, error) {
	record := &model.IncidentRecord{}
	err := row.Scan(
		&record.ID,
		&record.RID,
		&record.ReportID,
		&record.Title,
		&record.Narrative,
		&record.EventDate,
		&record.Facility.Name,
		&record.Facility.Unit,
		&record.SystemAffected,
		&record.Metadata,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	return record, nil
}
