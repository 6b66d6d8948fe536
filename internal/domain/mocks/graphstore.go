package mocks

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/calder-ai/mindgraph/internal/domain/ports"
)

// errInjected is returned by operations configured to fail.
var errInjected = errors.New("injected store failure")

// GraphStore is an in-memory mock implementation of ports.GraphStore.
//
// Error injection: Err fails every call; the per-operation fields fail only
// that operation. FailPutRelationshipAt fails the Nth PutRelationship call
// (0-based), which lets tests force a partial batch commit.
type GraphStore struct {
	Entities      map[string]*entities.Entity       // keyed by id
	Relationships map[string]*entities.Relationship // keyed by id
	Audit         []entities.AuditEntry

	Err                   error
	PutEntityErr          error
	PutRelationshipErr    error
	FailPutRelationshipAt int

	putRelationshipCalls int
}

// NewGraphStore creates an empty mock GraphStore.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		Entities:              make(map[string]*entities.Entity),
		Relationships:         make(map[string]*entities.Relationship),
		FailPutRelationshipAt: -1,
	}
}

// EnsureSchema creates the storage schema if it doesn't exist.
func (m *GraphStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the underlying store.
func (m *GraphStore) Close() error {
	return nil
}

// GetEntity returns the entity with the given id in the project, or nil.
func (m *GraphStore) GetEntity(_ context.Context, project, id string) (*entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	e, ok := m.Entities[id]
	if !ok || e.Project != project {
		return nil, nil
	}
	cp := copyEntity(e)
	return &cp, nil
}

// PutEntity inserts or fully replaces an entity.
func (m *GraphStore) PutEntity(_ context.Context, entity *entities.Entity) error {
	if m.Err != nil {
		return m.Err
	}
	if m.PutEntityErr != nil {
		return m.PutEntityErr
	}
	cp := copyEntity(entity)
	m.Entities[entity.ID] = &cp
	return nil
}

// DeleteEntity removes an entity.
func (m *GraphStore) DeleteEntity(_ context.Context, project, id string) error {
	if m.Err != nil {
		return m.Err
	}
	e, ok := m.Entities[id]
	if !ok || e.Project != project {
		return &entities.NotFoundError{Kind: "entity", Project: project, ID: id}
	}
	delete(m.Entities, id)
	return nil
}

// ListEntities returns all entities in a project, optionally filtered by type.
func (m *GraphStore) ListEntities(_ context.Context, project, entityType string) ([]entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Entity
	for _, e := range m.Entities {
		if e.Project != project {
			continue
		}
		if entityType != "" && e.Type != entityType {
			continue
		}
		result = append(result, copyEntity(e))
	}
	sortEntities(result)
	return result, nil
}

// FindEntitiesByIdentity returns all entities sharing an identity key.
func (m *GraphStore) FindEntitiesByIdentity(_ context.Context, project, entityType, normalizedName string) ([]entities.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Entity
	for _, e := range m.Entities {
		if e.Project == project && e.Type == entityType && entities.NormalizeName(e.Name) == normalizedName {
			result = append(result, copyEntity(e))
		}
	}
	sortEntities(result)
	return result, nil
}

// GetRelationship returns the relationship with the given id, or nil.
func (m *GraphStore) GetRelationship(_ context.Context, project, id string) (*entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.Relationships[id]
	if !ok || r.Project != project {
		return nil, nil
	}
	cp := copyRelationship(r)
	return &cp, nil
}

// PutRelationship inserts or fully replaces a relationship.
func (m *GraphStore) PutRelationship(_ context.Context, rel *entities.Relationship) error {
	if m.Err != nil {
		return m.Err
	}
	if m.PutRelationshipErr != nil {
		return m.PutRelationshipErr
	}
	if m.FailPutRelationshipAt >= 0 && m.putRelationshipCalls == m.FailPutRelationshipAt {
		m.putRelationshipCalls++
		return errInjected
	}
	m.putRelationshipCalls++
	cp := copyRelationship(rel)
	m.Relationships[rel.ID] = &cp
	return nil
}

// DeleteRelationship removes a relationship by id.
func (m *GraphStore) DeleteRelationship(_ context.Context, project, id string) error {
	if m.Err != nil {
		return m.Err
	}
	r, ok := m.Relationships[id]
	if !ok || r.Project != project {
		return &entities.NotFoundError{Kind: "relationship", Project: project, ID: id}
	}
	delete(m.Relationships, id)
	return nil
}

// GetRelationshipsByEntity returns relationships incident to an entity.
func (m *GraphStore) GetRelationshipsByEntity(_ context.Context, project, entityID string, dir ports.Direction) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.Relationship
	for _, r := range m.Relationships {
		if r.Project != project {
			continue
		}
		matchOut := r.FromEntityID == entityID
		matchIn := r.ToEntityID == entityID
		switch dir {
		case ports.DirectionOut:
			if !matchOut {
				continue
			}
		case ports.DirectionIn:
			if !matchIn {
				continue
			}
		case ports.DirectionBoth:
			if !matchOut && !matchIn {
				continue
			}
		}
		result = append(result, copyRelationship(r))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// LogAction appends an entry to the project's audit log.
func (m *GraphStore) LogAction(_ context.Context, project, action string, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.Audit = append(m.Audit, entities.AuditEntry{
		ID:        int64(len(m.Audit) + 1),
		Project:   project,
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

// ListAuditLog returns the most recent audit entries for a project.
func (m *GraphStore) ListAuditLog(_ context.Context, project string, limit int) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var result []entities.AuditEntry
	for i := len(m.Audit) - 1; i >= 0 && len(result) < limit; i-- {
		if m.Audit[i].Project == project {
			result = append(result, m.Audit[i])
		}
	}
	return result, nil
}

func copyEntity(e *entities.Entity) entities.Entity {
	cp := *e
	cp.Properties = copyProps(e.Properties)
	return cp
}

func copyRelationship(r *entities.Relationship) entities.Relationship {
	cp := *r
	cp.Properties = copyProps(r.Properties)
	return cp
}

func copyProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	cp := make(map[string]any, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return cp
}

func sortEntities(list []entities.Entity) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
