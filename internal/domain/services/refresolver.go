package services

import (
	"context"
	"fmt"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/calder-ai/mindgraph/internal/domain/ports"
)

// RefResolver resolves batch-local ref tokens to concrete entity identifiers.
// Within one batch, callers may refer to not-yet-committed entities by a
// caller-chosen token instead of a real identifier.
type RefResolver struct {
	project string
	store   ports.GraphStore
	refs    map[string]string
}

// NewRefResolver creates a RefResolver scoped to one project and batch.
func NewRefResolver(project string, store ports.GraphStore) *RefResolver {
	return &RefResolver{
		project: project,
		store:   store,
		refs:    make(map[string]string),
	}
}

// Register binds a ref token to a provisional entity identifier. Tokens must
// be unique within the batch.
func (r *RefResolver) Register(ref, id string) error {
	if _, exists := r.refs[ref]; exists {
		return &entities.ValidationError{
			Field:  "entities",
			Reason: fmt.Sprintf("duplicate ref %q in batch", ref),
		}
	}
	r.refs[ref] = id
	return nil
}

// Resolve maps a from/to value to an entity identifier. The value is first
// tested against the batch's ref table; if no ref matches it is treated as a
// literal identifier of an entity that must already exist in the same project.
// Position is the index of the relationship spec, reported on failure.
func (r *RefResolver) Resolve(ctx context.Context, value string, position int) (string, error) {
	if id, ok := r.refs[value]; ok {
		return id, nil
	}

	entity, err := r.store.GetEntity(ctx, r.project, value)
	if err != nil {
		return "", fmt.Errorf("looking up entity %q: %w", value, err)
	}
	if entity == nil {
		return "", &entities.ReferenceError{Value: value, Position: position}
	}
	return entity.ID, nil
}
