package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/calder-ai/mindgraph/internal/domain/ports"
)

// UpsertResult reports the entity an upsert landed on and whether the call
// created it.
type UpsertResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// UpsertService finds an entity by identity key or creates one, merging
// properties on update. Relationships are never touched by upsert.
type UpsertService struct {
	store ports.GraphStore
	locks *ProjectLocker
}

// NewUpsertService creates a new UpsertService.
func NewUpsertService(store ports.GraphStore, locks *ProjectLocker) *UpsertService {
	return &UpsertService{store: store, locks: locks}
}

// Upsert creates or updates the entity identified by (project, type,
// normalized name). On update, a non-empty description replaces the existing
// one and properties merge key-by-key with new values winning; keys present
// only on the existing entity are preserved.
func (s *UpsertService) Upsert(ctx context.Context, project, name, entityType, description string, properties map[string]any) (*UpsertResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &entities.ValidationError{Field: "name", Reason: "name must not be empty"}
	}
	if strings.TrimSpace(entityType) == "" {
		return nil, &entities.ValidationError{Field: "type", Reason: "type must not be empty"}
	}

	release, err := s.locks.Acquire(ctx, project)
	if err != nil {
		return nil, err
	}
	defer release()

	matches, err := s.store.FindEntitiesByIdentity(ctx, project, entityType, entities.NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("looking up entity by identity: %w", err)
	}

	if len(matches) == 0 {
		entity := entities.Entity{
			ID:          generateID(),
			Project:     project,
			Name:        name,
			Type:        entityType,
			Description: description,
			Properties:  properties,
			CreatedAt:   timeNow(),
		}
		if err := s.store.PutEntity(ctx, &entity); err != nil {
			return nil, fmt.Errorf("creating entity %q: %w", name, err)
		}

		_ = s.store.LogAction(ctx, project, "upsert", map[string]any{
			"entity":  entity.ID,
			"created": true,
		})

		return &UpsertResult{ID: entity.ID, Created: true}, nil
	}

	// A race may have left more than one entity with this identity. Update
	// the one with the earliest creation time (ties by id) and leave the rest
	// for deduplication.
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	entity := matches[0]

	if description != "" {
		entity.Description = description
	}
	entity.Properties = entities.MergeProperties(entity.Properties, properties)

	if err := s.store.PutEntity(ctx, &entity); err != nil {
		return nil, fmt.Errorf("updating entity %q: %w", name, err)
	}

	_ = s.store.LogAction(ctx, project, "upsert", map[string]any{
		"entity":  entity.ID,
		"created": false,
	})

	return &UpsertResult{ID: entity.ID, Created: false}, nil
}
