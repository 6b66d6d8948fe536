package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/calder-ai/mindgraph/internal/domain/mocks"
	"github.com/calder-ai/mindgraph/internal/domain/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(store *mocks.GraphStore) *Dispatcher {
	locks := services.NewProjectLocker(time.Second)
	handler := NewMutationHandler(
		services.NewBatchService(store, locks),
		services.NewUpsertService(store, locks),
		services.NewDedupeService(store, locks),
	)
	return NewDispatcher(handler)
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("registers all commands", func(t *testing.T) {
		d := newTestDispatcher(mocks.NewGraphStore())
		assert.Equal(t, []Command{
			CommandBatchCreate,
			CommandBatchDelete,
			CommandDeduplicate,
			CommandUpsert,
		}, d.Commands())
	})

	t.Run("unknown command", func(t *testing.T) {
		d := newTestDispatcher(mocks.NewGraphStore())

		_, err := d.Dispatch(ctx, Command("graph_unknown"), json.RawMessage(`{}`))
		var ve *entities.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "command", ve.Field)
	})

	t.Run("malformed payload", func(t *testing.T) {
		d := newTestDispatcher(mocks.NewGraphStore())

		_, err := d.Dispatch(ctx, CommandUpsert, json.RawMessage(`{"project":`))
		var ve *entities.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "arguments", ve.Field)
	})

	t.Run("batch create end to end", func(t *testing.T) {
		store := mocks.NewGraphStore()
		d := newTestDispatcher(store)

		payload := json.RawMessage(`{
			"project": "docs",
			"entities": [
				{"name": "Auth Service", "type": "Component", "ref": "e0"},
				{"name": "Token Store", "type": "Component", "ref": "e1"}
			],
			"relationships": [
				{"from": "e0", "to": "e1", "type": "DEPENDS_ON"}
			]
		}`)

		result, err := d.Dispatch(ctx, CommandBatchCreate, payload)
		require.NoError(t, err)

		created, ok := result.(*services.BatchCreateResult)
		require.True(t, ok)
		assert.Len(t, created.EntityIDs, 2)
		assert.Len(t, created.RelationshipIDs, 1)
		assert.Len(t, store.Entities, 2)
	})

	t.Run("upsert then delete round trip", func(t *testing.T) {
		store := mocks.NewGraphStore()
		d := newTestDispatcher(store)

		result, err := d.Dispatch(ctx, CommandUpsert, json.RawMessage(`{"project":"docs","name":"Cache","type":"Component"}`))
		require.NoError(t, err)
		upserted, ok := result.(*services.UpsertResult)
		require.True(t, ok)
		assert.True(t, upserted.Created)

		payload, err := json.Marshal(BatchDeleteRequest{Project: "docs", EntityIDs: []string{upserted.ID}})
		require.NoError(t, err)

		result, err = d.Dispatch(ctx, CommandBatchDelete, payload)
		require.NoError(t, err)
		deleted, ok := result.(*services.BatchDeleteResult)
		require.True(t, ok)
		assert.Equal(t, []string{upserted.ID}, deleted.DeletedIDs)
		assert.Empty(t, store.Entities)
	})

	t.Run("deduplicate defaults to dry run", func(t *testing.T) {
		store := mocks.NewGraphStore()
		at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		store.Entities["a"] = &entities.Entity{ID: "a", Project: "docs", Name: "Dup", Type: "Concept", CreatedAt: at}
		store.Entities["b"] = &entities.Entity{ID: "b", Project: "docs", Name: "Dup", Type: "Concept", CreatedAt: at.Add(time.Hour)}
		d := newTestDispatcher(store)

		result, err := d.Dispatch(ctx, CommandDeduplicate, json.RawMessage(`{"project":"docs"}`))
		require.NoError(t, err)

		report, ok := result.(*services.DedupeResult)
		require.True(t, ok)
		assert.True(t, report.DryRun)
		require.Len(t, report.Groups, 1)
		assert.Len(t, store.Entities, 2, "dry run must not write")
	})
}

func TestMutationHandler_NormalizesExternalIDs(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewGraphStore()
	store.Entities["tgt"] = &entities.Entity{ID: "tgt", Project: "docs", Name: "T", Type: "Concept", CreatedAt: time.Now()}

	locks := services.NewProjectLocker(time.Second)
	handler := NewMutationHandler(
		services.NewBatchService(store, locks),
		services.NewUpsertService(store, locks),
		services.NewDedupeService(store, locks),
	)

	result, err := handler.HandleBatchDelete(ctx, &BatchDeleteRequest{
		Project:   "docs",
		EntityIDs: []string{"  tgt "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tgt"}, result.DeletedIDs)
}
