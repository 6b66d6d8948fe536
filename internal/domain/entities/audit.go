package entities

import "time"

// AuditEntry represents one logged mutation operation for a project.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Project   string         `json:"project"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
