package entities

import (
	"strings"
	"time"
)

// Entity represents a named, typed node in the knowledge graph. All identity
// and uniqueness reasoning is scoped to the entity's project.
type Entity struct {
	ID          string         `json:"id"`
	Project     string         `json:"project"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NormalizeName converts a name to lowercase and trims whitespace for
// case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IdentityKey is the (project, type, normalized name) tuple used to decide
// whether two entities are "the same" for upsert and deduplication. The store
// does not enforce it as a uniqueness constraint; only the upsert and
// deduplication paths reason about it.
type IdentityKey struct {
	Project        string
	Type           string
	NormalizedName string
}

// Identity returns the entity's identity key.
func (e *Entity) Identity() IdentityKey {
	return IdentityKey{
		Project:        e.Project,
		Type:           e.Type,
		NormalizedName: NormalizeName(e.Name),
	}
}
