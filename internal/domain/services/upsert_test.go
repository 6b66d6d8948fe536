package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/calder-ai/mindgraph/internal/domain/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpsertService(store *mocks.GraphStore) *UpsertService {
	return NewUpsertService(store, NewProjectLocker(time.Second))
}

func TestUpsertService_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("creates then updates", func(t *testing.T) {
		store := mocks.NewGraphStore()
		svc := newUpsertService(store)

		first, err := svc.Upsert(ctx, "docs", "Auth Service", "Component", "handles auth", nil)
		require.NoError(t, err)
		assert.True(t, first.Created)

		second, err := svc.Upsert(ctx, "docs", "Auth Service", "Component", "", nil)
		require.NoError(t, err)
		assert.False(t, second.Created)
		assert.Equal(t, first.ID, second.ID)

		// Idempotence: still exactly one entity for the identity key.
		matches, err := store.FindEntitiesByIdentity(ctx, "docs", "Component", "auth service")
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		store := mocks.NewGraphStore()
		svc := newUpsertService(store)

		first, err := svc.Upsert(ctx, "docs", "Auth Service", "Component", "", nil)
		require.NoError(t, err)

		second, err := svc.Upsert(ctx, "docs", "  AUTH SERVICE ", "Component", "", nil)
		require.NoError(t, err)
		assert.False(t, second.Created)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("new property values override, existing keys preserved", func(t *testing.T) {
		store := mocks.NewGraphStore()
		svc := newUpsertService(store)

		_, err := svc.Upsert(ctx, "docs", "Auth Service", "Component", "", map[string]any{"a": 0, "b": 2})
		require.NoError(t, err)

		result, err := svc.Upsert(ctx, "docs", "Auth Service", "Component", "", map[string]any{"a": 1})
		require.NoError(t, err)

		entity := store.Entities[result.ID]
		require.NotNil(t, entity)
		assert.Equal(t, map[string]any{"a": 1, "b": 2}, entity.Properties)
	})

	t.Run("description replaced only when non-empty", func(t *testing.T) {
		store := mocks.NewGraphStore()
		svc := newUpsertService(store)

		result, err := svc.Upsert(ctx, "docs", "Auth Service", "Component", "original", nil)
		require.NoError(t, err)

		_, err = svc.Upsert(ctx, "docs", "Auth Service", "Component", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "original", store.Entities[result.ID].Description)

		_, err = svc.Upsert(ctx, "docs", "Auth Service", "Component", "replaced", nil)
		require.NoError(t, err)
		assert.Equal(t, "replaced", store.Entities[result.ID].Description)
	})

	t.Run("picks earliest of racy duplicates and ignores the rest", func(t *testing.T) {
		store := mocks.NewGraphStore()
		older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := older.Add(time.Hour)
		store.Entities["dup-new"] = &entities.Entity{ID: "dup-new", Project: "docs", Name: "Cache", Type: "Component", CreatedAt: newer}
		store.Entities["dup-old"] = &entities.Entity{ID: "dup-old", Project: "docs", Name: "cache", Type: "Component", CreatedAt: older}
		svc := newUpsertService(store)

		result, err := svc.Upsert(ctx, "docs", "Cache", "Component", "", map[string]any{"x": 1})
		require.NoError(t, err)
		assert.False(t, result.Created)
		assert.Equal(t, "dup-old", result.ID)

		// The newer duplicate stays untouched; dedup handles it, not upsert.
		assert.Nil(t, store.Entities["dup-new"].Properties)
	})

	t.Run("same created time breaks tie by id", func(t *testing.T) {
		store := mocks.NewGraphStore()
		at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		store.Entities["b-id"] = &entities.Entity{ID: "b-id", Project: "docs", Name: "Cache", Type: "Component", CreatedAt: at}
		store.Entities["a-id"] = &entities.Entity{ID: "a-id", Project: "docs", Name: "Cache", Type: "Component", CreatedAt: at}
		svc := newUpsertService(store)

		result, err := svc.Upsert(ctx, "docs", "Cache", "Component", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "a-id", result.ID)
	})

	t.Run("projects are independent namespaces", func(t *testing.T) {
		store := mocks.NewGraphStore()
		svc := newUpsertService(store)

		first, err := svc.Upsert(ctx, "docs", "Cache", "Component", "", nil)
		require.NoError(t, err)
		second, err := svc.Upsert(ctx, "other", "Cache", "Component", "", nil)
		require.NoError(t, err)

		assert.True(t, first.Created)
		assert.True(t, second.Created)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("validation", func(t *testing.T) {
		svc := newUpsertService(mocks.NewGraphStore())

		_, err := svc.Upsert(ctx, "docs", "", "Component", "", nil)
		var ve *entities.ValidationError
		require.True(t, errors.As(err, &ve))

		_, err = svc.Upsert(ctx, "docs", "Cache", " ", "", nil)
		require.True(t, errors.As(err, &ve))
	})
}
