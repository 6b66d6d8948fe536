package handlers

import (
	"context"

	"github.com/calder-ai/mindgraph/internal/domain/services"
)

// MutationHandler executes the graph mutation operations against the
// services. It is the single entry point shared by every transport (MCP
// tools, CLI).
type MutationHandler struct {
	batch  *services.BatchService
	upsert *services.UpsertService
	dedupe *services.DedupeService
}

// NewMutationHandler creates a new MutationHandler.
func NewMutationHandler(batch *services.BatchService, upsert *services.UpsertService, dedupe *services.DedupeService) *MutationHandler {
	return &MutationHandler{
		batch:  batch,
		upsert: upsert,
		dedupe: dedupe,
	}
}

// HandleBatchCreate atomically creates the request's entities and
// relationships.
func (h *MutationHandler) HandleBatchCreate(ctx context.Context, req *BatchCreateRequest) (*services.BatchCreateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entitySpecs := make([]services.EntitySpec, 0, len(req.Entities))
	for _, in := range req.Entities {
		entitySpecs = append(entitySpecs, services.EntitySpec{
			Name:        in.Name,
			Type:        in.Type,
			Description: in.Description,
			Properties:  in.Properties,
			Ref:         in.Ref,
		})
	}

	relSpecs := make([]services.RelationshipSpec, 0, len(req.Relationships))
	for _, in := range req.Relationships {
		relSpecs = append(relSpecs, services.RelationshipSpec{
			From:       NormalizeExternalID(in.From),
			To:         NormalizeExternalID(in.To),
			Type:       in.Type,
			Properties: in.Properties,
		})
	}

	return h.batch.Create(ctx, req.Project, entitySpecs, relSpecs)
}

// HandleUpsert creates or updates one entity matched by identity key.
func (h *MutationHandler) HandleUpsert(ctx context.Context, req *UpsertRequest) (*services.UpsertResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return h.upsert.Upsert(ctx, req.Project, req.Name, req.Type, req.Description, req.Properties)
}

// HandleDeduplicate computes (and unless dry-run, applies) the merge plan for
// identity-key duplicates.
func (h *MutationHandler) HandleDeduplicate(ctx context.Context, req *DeduplicateRequest) (*services.DedupeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return h.dedupe.Deduplicate(ctx, req.Project, req.Type, req.IsDryRun())
}

// HandleBatchDelete deletes the request's entities with relationship cascade.
func (h *MutationHandler) HandleBatchDelete(ctx context.Context, req *BatchDeleteRequest) (*services.BatchDeleteResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.EntityIDs))
	for _, id := range req.EntityIDs {
		ids = append(ids, NormalizeExternalID(id))
	}

	return h.batch.Delete(ctx, req.Project, ids)
}
