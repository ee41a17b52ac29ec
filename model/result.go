package model

import (
	"time"

	"github.com/google/uuid"
)

// IncidentMatch is an incident returned by embedding similarity search.
type IncidentMatch struct {
	ID         int64     `json:"id"`
	RID        uuid.UUID `json:"rid"`
	ReportID   string    `json:"report_id"`
	Title      string    `json:"title"`
	Narrative  string    `json:"narrative"`
	Similarity float64   `json:"similarity"`
}

// IncidentLink is a persisted similarity edge between two incident nodes,
// stored with the lower incident id first.
type IncidentLink struct {
	ID          int64     `json:"id"`
	IncidentAID int64     `json:"incident_a_id"`
	IncidentBID int64     `json:"incident_b_id"`
	Score       float64   `json:"score"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
