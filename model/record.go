package model

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
)

// MentionKind is the type of an extracted entity mention.
type MentionKind string

const (
	MentionKindCause            MentionKind = "Cause"
	MentionKindCorrectiveAction MentionKind = "CorrectiveAction"
	MentionKindComponent        MentionKind = "Component"
	MentionKindRegulation       MentionKind = "Regulation"
)

// AllMentionKinds lists the recognized mention kinds.
var AllMentionKinds = []MentionKind{
	MentionKindCause,
	MentionKindCorrectiveAction,
	MentionKindComponent,
	MentionKindRegulation,
}

// Valid reports whether the kind is in the recognized set.
func (k MentionKind) Valid() bool {
	switch k {
	case MentionKindCause, MentionKindCorrectiveAction, MentionKindComponent, MentionKindRegulation:
		return true
	}
	return false
}

// RelationType is the label of a directed incident-to-entity relationship.
type RelationType string

const (
	RelationTypeCausedBy    RelationType = "CAUSED_BY"
	RelationTypeCorrectedBy RelationType = "CORRECTED_BY"
	RelationTypeInvolves    RelationType = "INVOLVES"
	RelationTypeCites       RelationType = "CITES"
	RelationTypeSimilarTo   RelationType = "SIMILAR_TO"
)

// RelationType returns the relationship label for mentions of this kind.
func (k MentionKind) RelationType() RelationType {
	switch k {
	case MentionKindCause:
		return RelationTypeCausedBy
	case MentionKindCorrectiveAction:
		return RelationTypeCorrectedBy
	case MentionKindComponent:
		return RelationTypeInvolves
	case MentionKindRegulation:
		return RelationTypeCites
	}
	return ""
}

// EntityMention is a typed span extracted from a record narrative.
// Normalized is filled in by the record validator.
type EntityMention struct {
	Kind       MentionKind `json:"kind"`
	Text       string      `json:"text"`
	Normalized string      `json:"normalized,omitempty"`
}

// Facility identifies the plant and unit an incident occurred at.
type Facility struct {
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

// IncidentRecord is one entity-enriched LER. Records are produced upstream,
// validated once and then consumed read-only.
type IncidentRecord struct {
	ID             int64           `json:"id,omitempty"`
	RID            uuid.UUID       `json:"rid,omitempty"`
	ReportID       string          `json:"report_id"`
	Title          string          `json:"title,omitempty"`
	Narrative      string          `json:"narrative"`
	EventDate      string          `json:"event_date,omitempty"`
	Facility       Facility        `json:"facility,omitempty"`
	SystemAffected string          `json:"system_affected,omitempty"`
	Mentions       []EntityMention `json:"mentions,omitempty"`
	Regulations    []string        `json:"regulations,omitempty"`
	Metadata       Metadata        `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at,omitempty"`
}

// ReadRecords parses incident records from JSONL input, one record per line.
// Blank lines are skipped.
func ReadRecords(r io.Reader) ([]*IncidentRecord, error) {
	var records []*IncidentRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		record := &IncidentRecord{}
		if err := json.Unmarshal(line, record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ReadRecordsFromFile reads a JSONL file of incident records.
func ReadRecordsFromFile(filePath string) ([]*IncidentRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadRecords(file)
}
