package entities

import "time"

// Relationship represents a typed, directed edge between two entities in the
// same project. The type is a free-form label (e.g. "CONTAINS", "DEPENDS_ON").
type Relationship struct {
	ID           string         `json:"id"`
	Project      string         `json:"project"`
	FromEntityID string         `json:"from_entity_id"`
	ToEntityID   string         `json:"to_entity_id"`
	Type         string         `json:"type"`
	Properties   map[string]any `json:"properties,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
