package handlers

import (
	"strings"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
)

// Request structs are the stable wire contract of the mutation operations.
// They are constructed and validated once at the transport boundary; the
// services below never inspect untyped data.

// EntityInput describes one entity in a batch-create request. Ref is an
// optional batch-local token relationships may use before the entity has a
// real identifier.
type EntityInput struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Ref         string         `json:"ref,omitempty"`
}

// RelationshipInput describes one relationship in a batch-create request.
// From and To are batch refs or existing entity identifiers.
type RelationshipInput struct {
	From       string         `json:"from"`
	To         string         `json:"to"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// BatchCreateRequest creates up to 100 entities and 500 relationships in one
// project as an all-or-nothing unit.
type BatchCreateRequest struct {
	Project       string              `json:"project"`
	Entities      []EntityInput       `json:"entities"`
	Relationships []RelationshipInput `json:"relationships,omitempty"`
}

// Validate checks boundary-level requirements. Per-item field validation and
// cap enforcement happen inside the batch service.
func (r *BatchCreateRequest) Validate() error {
	if strings.TrimSpace(r.Project) == "" {
		return &entities.ValidationError{Field: "project", Reason: "project must not be empty"}
	}
	if len(r.Entities) == 0 && len(r.Relationships) == 0 {
		return &entities.ValidationError{Field: "entities", Reason: "batch must contain at least one entity or relationship"}
	}
	return nil
}

// UpsertRequest creates or updates one entity matched by its identity key.
type UpsertRequest struct {
	Project     string         `json:"project"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// Validate checks boundary-level requirements.
func (r *UpsertRequest) Validate() error {
	if strings.TrimSpace(r.Project) == "" {
		return &entities.ValidationError{Field: "project", Reason: "project must not be empty"}
	}
	return nil
}

// DeduplicateRequest merges identity-key duplicates in a project. DryRun
// defaults to true when omitted.
type DeduplicateRequest struct {
	Project string `json:"project"`
	Type    string `json:"type,omitempty"`
	DryRun  *bool  `json:"dryRun,omitempty"`
}

// Validate checks boundary-level requirements.
func (r *DeduplicateRequest) Validate() error {
	if strings.TrimSpace(r.Project) == "" {
		return &entities.ValidationError{Field: "project", Reason: "project must not be empty"}
	}
	return nil
}

// IsDryRun resolves the DryRun flag with its default of true.
func (r *DeduplicateRequest) IsDryRun() bool {
	if r.DryRun == nil {
		return true
	}
	return *r.DryRun
}

// BatchDeleteRequest deletes entities and cascades deletion of their
// incident relationships.
type BatchDeleteRequest struct {
	Project   string   `json:"project"`
	EntityIDs []string `json:"entityIds"`
}

// Validate checks boundary-level requirements.
func (r *BatchDeleteRequest) Validate() error {
	if strings.TrimSpace(r.Project) == "" {
		return &entities.ValidationError{Field: "project", Reason: "project must not be empty"}
	}
	if len(r.EntityIDs) == 0 {
		return &entities.ValidationError{Field: "entityIds", Reason: "at least one entity id is required"}
	}
	return nil
}
