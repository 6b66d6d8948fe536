// Package integration exercises the full mutation stack, dispatcher down to
// the SQLite store, the way a transport would drive it.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/calder-ai/mindgraph/internal/application/handlers"
	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/calder-ai/mindgraph/internal/domain/ports"
	"github.com/calder-ai/mindgraph/internal/domain/services"
	"github.com/calder-ai/mindgraph/internal/infrastructure/config"
	"github.com/calder-ai/mindgraph/internal/infrastructure/graphstore/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStack(t *testing.T) (*handlers.Dispatcher, *sqlite.Repository) {
	t.Helper()

	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))

	locks := services.NewProjectLocker(time.Second)
	handler := handlers.NewMutationHandler(
		services.NewBatchService(repo, locks),
		services.NewUpsertService(repo, locks),
		services.NewDedupeService(repo, locks),
	)
	return handlers.NewDispatcher(handler), repo
}

func dispatch[T any](t *testing.T, d *handlers.Dispatcher, cmd handlers.Command, payload string) T {
	t.Helper()
	result, err := d.Dispatch(context.Background(), cmd, json.RawMessage(payload))
	require.NoError(t, err)
	typed, ok := result.(T)
	require.True(t, ok, "unexpected result type %T", result)
	return typed
}

func TestMutationLifecycle(t *testing.T) {
	ctx := context.Background()
	d, repo := setupStack(t)

	// Batch-create a small component graph using batch-local refs.
	created := dispatch[*services.BatchCreateResult](t, d, handlers.CommandBatchCreate, `{
		"project": "docs",
		"entities": [
			{"name": "Auth Service", "type": "Component", "ref": "e0", "properties": {"lang": "go"}},
			{"name": "Token Store", "type": "Component", "ref": "e1"},
			{"name": "Session Handling", "type": "Concept", "ref": "e2"}
		],
		"relationships": [
			{"from": "e0", "to": "e1", "type": "DEPENDS_ON"},
			{"from": "e0", "to": "e2", "type": "IMPLEMENTS"}
		]
	}`)
	require.Len(t, created.EntityIDs, 3)
	require.Len(t, created.RelationshipIDs, 2)

	authID := created.EntityIDs[0]

	// Upsert onto the existing identity: no new entity, properties merge.
	upserted := dispatch[*services.UpsertResult](t, d, handlers.CommandUpsert, `{
		"project": "docs",
		"name": "auth service",
		"type": "Component",
		"description": "handles login",
		"properties": {"replicas": 3}
	}`)
	assert.False(t, upserted.Created)
	assert.Equal(t, authID, upserted.ID)

	got, err := repo.GetEntity(ctx, "docs", authID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "handles login", got.Description)
	assert.Equal(t, map[string]any{"lang": "go", "replicas": float64(3)}, got.Properties)

	// Introduce a duplicate of the auth service, wired to the token store.
	dup := dispatch[*services.BatchCreateResult](t, d, handlers.CommandBatchCreate, `{
		"project": "docs",
		"entities": [{"name": "AUTH SERVICE", "type": "Component", "ref": "d0", "properties": {"owner": "platform"}}],
		"relationships": [{"from": "d0", "to": "`+created.EntityIDs[1]+`", "type": "CALLS"}]
	}`)
	dupID := dup.EntityIDs[0]

	// Dry-run first: the plan names the merge but nothing changes.
	plan := dispatch[*services.DedupeResult](t, d, handlers.CommandDeduplicate, `{"project": "docs"}`)
	assert.True(t, plan.DryRun)
	require.Len(t, plan.Groups, 1)
	assert.Equal(t, authID, plan.Groups[0].SurvivorID)
	assert.Equal(t, []string{dupID}, plan.Groups[0].MergedLoserIDs)

	stillThere, err := repo.GetEntity(ctx, "docs", dupID)
	require.NoError(t, err)
	assert.NotNil(t, stillThere)

	// Apply: duplicate folds into the survivor, its relationship follows.
	applied := dispatch[*services.DedupeResult](t, d, handlers.CommandDeduplicate, `{"project": "docs", "dryRun": false}`)
	assert.False(t, applied.DryRun)
	require.Len(t, applied.Groups, 1)

	goneDup, err := repo.GetEntity(ctx, "docs", dupID)
	require.NoError(t, err)
	assert.Nil(t, goneDup)

	survivor, err := repo.GetEntity(ctx, "docs", authID)
	require.NoError(t, err)
	require.NotNil(t, survivor)
	assert.Equal(t, "platform", survivor.Properties["owner"], "loser property merged in")
	assert.Equal(t, "go", survivor.Properties["lang"], "survivor property kept")

	rels, err := repo.GetRelationshipsByEntity(ctx, "docs", authID, ports.DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, rels, 3, "the duplicate's CALLS edge now hangs off the survivor")
	for _, rel := range rels {
		assert.NotEqual(t, dupID, rel.FromEntityID)
		assert.NotEqual(t, dupID, rel.ToEntityID)
	}

	// Delete the survivor: its relationships cascade.
	deleted := dispatch[*services.BatchDeleteResult](t, d, handlers.CommandBatchDelete,
		`{"project": "docs", "entityIds": ["`+authID+`"]}`)
	assert.Equal(t, []string{authID}, deleted.DeletedIDs)

	remaining, err := repo.GetRelationshipsByEntity(ctx, "docs", authID, ports.DirectionBoth)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	left, err := repo.ListEntities(ctx, "docs", "")
	require.NoError(t, err)
	assert.Len(t, left, 2, "token store and concept survive")

	// Every applied mutation left an audit entry; the dry run did not.
	audit, err := repo.ListAuditLog(ctx, "docs", 20)
	require.NoError(t, err)
	actions := make([]string, 0, len(audit))
	for _, entry := range audit {
		actions = append(actions, entry.Action)
	}
	assert.Equal(t, []string{"batch_delete", "deduplicate", "batch_create", "upsert", "batch_create"}, actions)
}

func TestBatchAtomicityAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	d, repo := setupStack(t)

	_, err := d.Dispatch(ctx, handlers.CommandBatchCreate, json.RawMessage(`{
		"project": "docs",
		"entities": [{"name": "Lonely", "type": "Concept", "ref": "e0"}],
		"relationships": [{"from": "e0", "to": "nonexistent-id", "type": "LINKS"}]
	}`))

	var re *entities.ReferenceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "nonexistent-id", re.Value)

	left, err := repo.ListEntities(ctx, "docs", "")
	require.NoError(t, err)
	assert.Empty(t, left, "failed batch must leave no entities behind")
}

func TestBatchDeleteMissingTarget(t *testing.T) {
	ctx := context.Background()
	d, repo := setupStack(t)

	created := dispatch[*services.BatchCreateResult](t, d, handlers.CommandBatchCreate, `{
		"project": "docs",
		"entities": [{"name": "Keeper", "type": "Concept"}]
	}`)

	_, err := d.Dispatch(ctx, handlers.CommandBatchDelete, json.RawMessage(
		`{"project": "docs", "entityIds": ["`+created.EntityIDs[0]+`", "missing"]}`))

	var nfe *entities.NotFoundError
	require.True(t, errors.As(err, &nfe))
	assert.Equal(t, "missing", nfe.ID)

	still, err := repo.GetEntity(ctx, "docs", created.EntityIDs[0])
	require.NoError(t, err)
	assert.NotNil(t, still, "verified-before-write: nothing deleted")
}
