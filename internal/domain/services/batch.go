package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/calder-ai/mindgraph/internal/domain/ports"
	"github.com/google/uuid"
)

const (
	// MaxBatchEntities is the maximum number of entity specs in one batch.
	MaxBatchEntities = 100
	// MaxBatchRelationships is the maximum number of relationship specs in one batch.
	MaxBatchRelationships = 500
)

// timeNow returns the current time (can be overridden in tests).
var timeNow = time.Now

// generateID returns a new globally unique identifier. Identifiers are never
// reused after deletion.
func generateID() string {
	return uuid.New().String()
}

// EntitySpec describes one entity to create in a batch. Ref is an optional
// batch-local token other specs may use to reference this entity.
type EntitySpec struct {
	Name        string
	Type        string
	Description string
	Properties  map[string]any
	Ref         string
}

// RelationshipSpec describes one relationship to create in a batch. From and
// To are either batch refs or identifiers of existing entities.
type RelationshipSpec struct {
	From       string
	To         string
	Type       string
	Properties map[string]any
}

// ResolvedRelationship echoes a created relationship with refs resolved to
// real entity identifiers.
type ResolvedRelationship struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// BatchCreateResult lists everything a batch created, in input order.
type BatchCreateResult struct {
	EntityIDs       []string               `json:"entityIds"`
	RelationshipIDs []string               `json:"relationshipIds"`
	Relationships   []ResolvedRelationship `json:"relationships,omitempty"`
}

// BatchDeleteResult lists the entities a batch delete removed.
type BatchDeleteResult struct {
	DeletedIDs []string `json:"deletedIds"`
}

// BatchService creates and deletes sets of entities and relationships as
// all-or-nothing units. The store only offers single-item writes, so the
// service validates and resolves everything up front, then applies buffered
// writes and compensates with deletes if a later write fails. Readers never
// observe a partial batch.
type BatchService struct {
	store ports.GraphStore
	locks *ProjectLocker
}

// NewBatchService creates a new BatchService.
func NewBatchService(store ports.GraphStore, locks *ProjectLocker) *BatchService {
	return &BatchService{store: store, locks: locks}
}

// Create atomically creates a set of entities and relationships in one
// project. Relationship endpoints may reference batch entities by ref or
// existing entities by identifier. Any validation or resolution failure
// aborts the whole batch with no writes.
func (s *BatchService) Create(ctx context.Context, project string, entitySpecs []EntitySpec, relSpecs []RelationshipSpec) (*BatchCreateResult, error) {
	if len(entitySpecs) > MaxBatchEntities {
		return nil, &entities.ValidationError{
			Field:  "entities",
			Reason: fmt.Sprintf("batch holds %d entity specs, limit is %d", len(entitySpecs), MaxBatchEntities),
		}
	}
	if len(relSpecs) > MaxBatchRelationships {
		return nil, &entities.ValidationError{
			Field:  "relationships",
			Reason: fmt.Sprintf("batch holds %d relationship specs, limit is %d", len(relSpecs), MaxBatchRelationships),
		}
	}

	release, err := s.locks.Acquire(ctx, project)
	if err != nil {
		return nil, err
	}
	defer release()

	// Assign identifiers in input order and register refs before touching
	// relationship specs, so a ref can point at any entity in the batch.
	resolver := NewRefResolver(project, s.store)
	now := timeNow()
	pendingEntities := make([]entities.Entity, 0, len(entitySpecs))
	for i, spec := range entitySpecs {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, &entities.ValidationError{
				Field:  fmt.Sprintf("entities[%d].name", i),
				Reason: "name must not be empty",
			}
		}
		if strings.TrimSpace(spec.Type) == "" {
			return nil, &entities.ValidationError{
				Field:  fmt.Sprintf("entities[%d].type", i),
				Reason: "type must not be empty",
			}
		}

		entity := entities.Entity{
			ID:          generateID(),
			Project:     project,
			Name:        spec.Name,
			Type:        spec.Type,
			Description: spec.Description,
			Properties:  spec.Properties,
			CreatedAt:   now,
		}
		if spec.Ref != "" {
			if err := resolver.Register(spec.Ref, entity.ID); err != nil {
				return nil, err
			}
		}
		pendingEntities = append(pendingEntities, entity)
	}

	pendingRels := make([]entities.Relationship, 0, len(relSpecs))
	for i, spec := range relSpecs {
		if strings.TrimSpace(spec.Type) == "" {
			return nil, &entities.ValidationError{
				Field:  fmt.Sprintf("relationships[%d].type", i),
				Reason: "type must not be empty",
			}
		}
		from, err := resolver.Resolve(ctx, spec.From, i)
		if err != nil {
			return nil, err
		}
		to, err := resolver.Resolve(ctx, spec.To, i)
		if err != nil {
			return nil, err
		}

		pendingRels = append(pendingRels, entities.Relationship{
			ID:           generateID(),
			Project:      project,
			FromEntityID: from,
			ToEntityID:   to,
			Type:         spec.Type,
			Properties:   spec.Properties,
			CreatedAt:    now,
		})
	}

	// Everything validated and resolved; apply the buffered writes. On any
	// failure, undo what was written so no partial batch survives.
	written := &writtenSet{project: project, store: s.store}
	for i := range pendingEntities {
		if err := s.store.PutEntity(ctx, &pendingEntities[i]); err != nil {
			written.undo(ctx)
			return nil, fmt.Errorf("writing entity %q: %w", pendingEntities[i].Name, err)
		}
		written.entityIDs = append(written.entityIDs, pendingEntities[i].ID)
	}
	for i := range pendingRels {
		if err := s.store.PutRelationship(ctx, &pendingRels[i]); err != nil {
			written.undo(ctx)
			return nil, fmt.Errorf("writing relationship %s: %w", pendingRels[i].Type, err)
		}
		written.relationshipIDs = append(written.relationshipIDs, pendingRels[i].ID)
	}

	result := &BatchCreateResult{
		EntityIDs:       make([]string, 0, len(pendingEntities)),
		RelationshipIDs: make([]string, 0, len(pendingRels)),
		Relationships:   make([]ResolvedRelationship, 0, len(pendingRels)),
	}
	for i := range pendingEntities {
		result.EntityIDs = append(result.EntityIDs, pendingEntities[i].ID)
	}
	for i := range pendingRels {
		result.RelationshipIDs = append(result.RelationshipIDs, pendingRels[i].ID)
		result.Relationships = append(result.Relationships, ResolvedRelationship{
			ID:   pendingRels[i].ID,
			From: pendingRels[i].FromEntityID,
			To:   pendingRels[i].ToEntityID,
			Type: pendingRels[i].Type,
		})
	}

	// Audit is best-effort; the batch already committed.
	_ = s.store.LogAction(ctx, project, "batch_create", map[string]any{
		"entities":      len(pendingEntities),
		"relationships": len(pendingRels),
	})

	return result, nil
}

// Delete removes entities and cascades deletion of their incident
// relationships. All target entities are verified to exist before the first
// write, so a missing identifier leaves the store untouched.
func (s *BatchService) Delete(ctx context.Context, project string, entityIDs []string) (*BatchDeleteResult, error) {
	if len(entityIDs) == 0 {
		return nil, &entities.ValidationError{Field: "entityIds", Reason: "at least one entity id is required"}
	}

	release, err := s.locks.Acquire(ctx, project)
	if err != nil {
		return nil, err
	}
	defer release()

	// Drop duplicate ids while preserving order.
	seen := make(map[string]bool, len(entityIDs))
	targets := make([]string, 0, len(entityIDs))
	for _, id := range entityIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, id)
	}

	for _, id := range targets {
		entity, err := s.store.GetEntity(ctx, project, id)
		if err != nil {
			return nil, fmt.Errorf("looking up entity %q: %w", id, err)
		}
		if entity == nil {
			return nil, &entities.NotFoundError{Kind: "entity", Project: project, ID: id}
		}
	}

	deletedRels := make(map[string]bool)
	for _, id := range targets {
		rels, err := s.store.GetRelationshipsByEntity(ctx, project, id, ports.DirectionBoth)
		if err != nil {
			return nil, fmt.Errorf("listing relationships of %q: %w", id, err)
		}
		// Relationships go first so no dangling endpoint is ever visible. A
		// relationship between two targets shows up twice; delete it once.
		for i := range rels {
			if deletedRels[rels[i].ID] {
				continue
			}
			if err := s.store.DeleteRelationship(ctx, project, rels[i].ID); err != nil {
				return nil, fmt.Errorf("deleting relationship %q: %w", rels[i].ID, err)
			}
			deletedRels[rels[i].ID] = true
		}
		if err := s.store.DeleteEntity(ctx, project, id); err != nil {
			return nil, fmt.Errorf("deleting entity %q: %w", id, err)
		}
	}

	_ = s.store.LogAction(ctx, project, "batch_delete", map[string]any{
		"entities": len(targets),
	})

	return &BatchDeleteResult{DeletedIDs: targets}, nil
}

// writtenSet tracks writes applied so far so a failed batch can be undone.
type writtenSet struct {
	project         string
	store           ports.GraphStore
	entityIDs       []string
	relationshipIDs []string
}

// undo best-effort deletes everything the batch wrote, relationships first.
func (w *writtenSet) undo(ctx context.Context) {
	for i := len(w.relationshipIDs) - 1; i >= 0; i-- {
		_ = w.store.DeleteRelationship(ctx, w.project, w.relationshipIDs[i])
	}
	for i := len(w.entityIDs) - 1; i >= 0; i-- {
		_ = w.store.DeleteEntity(ctx, w.project, w.entityIDs[i])
	}
}
