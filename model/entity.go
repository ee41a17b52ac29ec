package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityKey is the natural key of a canonical entity node.
type EntityKey struct {
	Kind MentionKind
	Name string
}

// CanonicalEntity is the single deduplicated identity for all mentions that
// resolve to the same (kind, normalized text) group. Created on first
// sighting, reused on subsequent matches, never deleted during a run.
type CanonicalEntity struct {
	ID        int64       `json:"id"`
	RID       uuid.UUID   `json:"rid"`
	Kind      MentionKind `json:"kind"`
	Name      string      `json:"name"`
	Aliases   []string    `json:"aliases,omitempty"`
	Metadata  Metadata    `json:"metadata,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Key returns the natural key used for upsert matching.
func (e *CanonicalEntity) Key() EntityKey {
	return EntityKey{Kind: e.Kind, Name: e.Name}
}

// AddAlias records an alias if it is not already present and differs from the
// canonical name.
func (e *CanonicalEntity) AddAlias(alias string) {
	if alias == "" || alias == e.Name {
		return
	}
	for _, a := range e.Aliases {
		if a == alias {
			return
		}
	}
	e.Aliases = append(e.Aliases, alias)
}

// Relation is a typed, directed relationship row between an incident node and
// a canonical entity node (or, for similarity links, a second incident node).
type Relation struct {
	ID         int64        `json:"id"`
	IncidentID int64        `json:"incident_id"`
	EntityID   int64        `json:"entity_id,omitempty"`
	Type       RelationType `json:"relation_type"`
	Metadata   Metadata     `json:"metadata,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
