package entities

import "fmt"

// ValidationError reports input that was rejected before any write: a batch
// cap exceeded or a required field missing. The caller can retry with
// corrected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ReferenceError reports a relationship endpoint that matched neither a
// batch-local ref nor an existing entity identifier. Position is the index of
// the offending relationship spec in the submitted batch.
type ReferenceError struct {
	Value    string
	Position int
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("relationships[%d]: %q is neither a batch ref nor an existing entity id", e.Position, e.Value)
}

// NotFoundError reports an operation targeting a nonexistent entity or
// relationship.
type NotFoundError struct {
	Kind    string // "entity" or "relationship"
	Project string
	ID      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found in project %q: %s", e.Kind, e.Project, e.ID)
}

// ConflictError reports that a project stayed under mutation by another
// operation past the wait budget. The caller should retry the whole operation.
type ConflictError struct {
	Project string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("project %q is locked by a concurrent operation", e.Project)
}
