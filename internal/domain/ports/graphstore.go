package ports

import (
	"context"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
)

// Direction selects which endpoint of a relationship must match an entity.
type Direction int

const (
	// DirectionOut matches relationships where the entity is the from endpoint.
	DirectionOut Direction = iota
	// DirectionIn matches relationships where the entity is the to endpoint.
	DirectionIn
	// DirectionBoth matches relationships touching the entity at either end.
	DirectionBoth
)

// GraphStore defines the persistence interface for the mutation core. It
// exposes simple CRUD plus indexed lookup; atomic grouping of multiple writes
// is handled above this interface by buffering and compensating deletes.
//
// Lookups that miss return (nil, nil), not an error.
type GraphStore interface {
	// EnsureSchema creates the storage schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the underlying store.
	Close() error

	// GetEntity returns the entity with the given id in the project, or nil.
	GetEntity(ctx context.Context, project, id string) (*entities.Entity, error)

	// PutEntity inserts or fully replaces an entity.
	PutEntity(ctx context.Context, entity *entities.Entity) error

	// DeleteEntity removes an entity. Incident relationships are not touched;
	// cascading is the caller's responsibility.
	DeleteEntity(ctx context.Context, project, id string) error

	// ListEntities returns all entities in a project, optionally filtered by
	// type (empty string = all types), ordered by creation time then id.
	ListEntities(ctx context.Context, project, entityType string) ([]entities.Entity, error)

	// FindEntitiesByIdentity returns all entities sharing an identity key.
	// More than one result means the store holds duplicates.
	FindEntitiesByIdentity(ctx context.Context, project, entityType, normalizedName string) ([]entities.Entity, error)

	// GetRelationship returns the relationship with the given id, or nil.
	GetRelationship(ctx context.Context, project, id string) (*entities.Relationship, error)

	// PutRelationship inserts or fully replaces a relationship.
	PutRelationship(ctx context.Context, rel *entities.Relationship) error

	// DeleteRelationship removes a relationship by id.
	DeleteRelationship(ctx context.Context, project, id string) error

	// GetRelationshipsByEntity returns relationships incident to an entity in
	// the given direction, ordered by creation time then id.
	GetRelationshipsByEntity(ctx context.Context, project, entityID string, dir Direction) ([]entities.Relationship, error)

	// LogAction appends an entry to the project's audit log.
	LogAction(ctx context.Context, project, action string, details map[string]any) error

	// ListAuditLog returns the most recent audit entries for a project.
	ListAuditLog(ctx context.Context, project string, limit int) ([]entities.AuditEntry, error)
}
