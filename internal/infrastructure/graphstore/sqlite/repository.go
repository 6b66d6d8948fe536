// Package sqlite provides a SQLite implementation of the GraphStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calder-ai/mindgraph/internal/domain/entities"
	"github.com/calder-ai/mindgraph/internal/domain/ports"
	"github.com/calder-ai/mindgraph/internal/infrastructure/config"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Repository implements ports.GraphStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
//
// Identity (project, type, normalized_name) is indexed but deliberately not
// unique: only the upsert and deduplication paths reason about it.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Entities (named, typed nodes scoped to a project)
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		project TEXT NOT NULL,
		name TEXT NOT NULL,
		normalized_name TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		properties TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entities_project ON entities(project);
	CREATE INDEX IF NOT EXISTS idx_entities_identity ON entities(project, type, normalized_name);

	-- Relationships (typed, directed edges between two entities)
	CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		project TEXT NOT NULL,
		from_entity_id TEXT NOT NULL,
		to_entity_id TEXT NOT NULL,
		type TEXT NOT NULL,
		properties TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(project, from_entity_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(project, to_entity_id);

	-- Audit log (one entry per applied mutation operation)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_project ON audit_log(project);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// GetEntity returns the entity with the given id in the project, or nil.
func (r *Repository) GetEntity(ctx context.Context, project, id string) (*entities.Entity, error) {
	query := `
		SELECT id, project, name, type, description, properties, created_at
		FROM entities
		WHERE project = ? AND id = ?
	`
	row := r.db.QueryRowContext(ctx, query, project, id)
	return scanEntityRow(row)
}

// PutEntity inserts or fully replaces an entity.
func (r *Repository) PutEntity(ctx context.Context, entity *entities.Entity) error {
	props, err := marshalProps(entity.Properties)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}

	query := `
		INSERT INTO entities (id, project, name, normalized_name, type, description, properties, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			type = excluded.type,
			description = excluded.description,
			properties = excluded.properties
	`
	_, err = r.db.ExecContext(ctx, query,
		entity.ID,
		entity.Project,
		entity.Name,
		entities.NormalizeName(entity.Name),
		entity.Type,
		entity.Description,
		props,
		entity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving entity: %w", err)
	}
	return nil
}

// DeleteEntity removes an entity. Incident relationships are not touched.
func (r *Repository) DeleteEntity(ctx context.Context, project, id string) error {
	query := `DELETE FROM entities WHERE project = ? AND id = ?`
	result, err := r.db.ExecContext(ctx, query, project, id)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &entities.NotFoundError{Kind: "entity", Project: project, ID: id}
	}
	return nil
}

// ListEntities returns all entities in a project, optionally filtered by type.
func (r *Repository) ListEntities(ctx context.Context, project, entityType string) ([]entities.Entity, error) {
	query := `
		SELECT id, project, name, type, description, properties, created_at
		FROM entities
		WHERE project = ?
	`
	args := []any{project}
	if entityType != "" {
		query += ` AND type = ?`
		args = append(args, entityType)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	return r.queryEntities(ctx, query, args...)
}

// FindEntitiesByIdentity returns all entities sharing an identity key.
func (r *Repository) FindEntitiesByIdentity(ctx context.Context, project, entityType, normalizedName string) ([]entities.Entity, error) {
	query := `
		SELECT id, project, name, type, description, properties, created_at
		FROM entities
		WHERE project = ? AND type = ? AND normalized_name = ?
		ORDER BY created_at ASC, id ASC
	`
	return r.queryEntities(ctx, query, project, entityType, normalizedName)
}

// GetRelationship returns the relationship with the given id, or nil.
func (r *Repository) GetRelationship(ctx context.Context, project, id string) (*entities.Relationship, error) {
	query := `
		SELECT id, project, from_entity_id, to_entity_id, type, properties, created_at
		FROM relationships
		WHERE project = ? AND id = ?
	`
	row := r.db.QueryRowContext(ctx, query, project, id)

	var rel entities.Relationship
	var props string
	err := row.Scan(
		&rel.ID,
		&rel.Project,
		&rel.FromEntityID,
		&rel.ToEntityID,
		&rel.Type,
		&props,
		&rel.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning relationship: %w", err)
	}
	if rel.Properties, err = unmarshalProps(props); err != nil {
		return nil, fmt.Errorf("decoding properties: %w", err)
	}
	return &rel, nil
}

// PutRelationship inserts or fully replaces a relationship.
func (r *Repository) PutRelationship(ctx context.Context, rel *entities.Relationship) error {
	props, err := marshalProps(rel.Properties)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}

	query := `
		INSERT INTO relationships (id, project, from_entity_id, to_entity_id, type, properties, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			from_entity_id = excluded.from_entity_id,
			to_entity_id = excluded.to_entity_id,
			type = excluded.type,
			properties = excluded.properties
	`
	_, err = r.db.ExecContext(ctx, query,
		rel.ID,
		rel.Project,
		rel.FromEntityID,
		rel.ToEntityID,
		rel.Type,
		props,
		rel.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving relationship: %w", err)
	}
	return nil
}

// DeleteRelationship removes a relationship by id.
func (r *Repository) DeleteRelationship(ctx context.Context, project, id string) error {
	query := `DELETE FROM relationships WHERE project = ? AND id = ?`
	result, err := r.db.ExecContext(ctx, query, project, id)
	if err != nil {
		return fmt.Errorf("deleting relationship: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return &entities.NotFoundError{Kind: "relationship", Project: project, ID: id}
	}
	return nil
}

// GetRelationshipsByEntity returns relationships incident to an entity in the
// given direction.
func (r *Repository) GetRelationshipsByEntity(ctx context.Context, project, entityID string, dir ports.Direction) ([]entities.Relationship, error) {
	var where string
	args := []any{project}
	switch dir {
	case ports.DirectionOut:
		where = `from_entity_id = ?`
		args = append(args, entityID)
	case ports.DirectionIn:
		where = `to_entity_id = ?`
		args = append(args, entityID)
	default:
		where = `(from_entity_id = ? OR to_entity_id = ?)`
		args = append(args, entityID, entityID)
	}

	query := `
		SELECT id, project, from_entity_id, to_entity_id, type, properties, created_at
		FROM relationships
		WHERE project = ? AND ` + where + `
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	var result []entities.Relationship
	for rows.Next() {
		var rel entities.Relationship
		var props string
		if err := rows.Scan(
			&rel.ID,
			&rel.Project,
			&rel.FromEntityID,
			&rel.ToEntityID,
			&rel.Type,
			&props,
			&rel.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		if rel.Properties, err = unmarshalProps(props); err != nil {
			return nil, fmt.Errorf("decoding properties: %w", err)
		}
		result = append(result, rel)
	}
	return result, rows.Err()
}

// LogAction appends an entry to the project's audit log.
func (r *Repository) LogAction(ctx context.Context, project, action string, details map[string]any) error {
	var detailsJSON *string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encoding details: %w", err)
		}
		s := string(data)
		detailsJSON = &s
	}

	query := `INSERT INTO audit_log (project, action, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, project, action, detailsJSON, time.Now())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// ListAuditLog returns the most recent audit entries for a project.
func (r *Repository) ListAuditLog(ctx context.Context, project string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, project, action, details, created_at
		FROM audit_log
		WHERE project = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, project, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var result []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var details sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.Project,
			&entry.Action,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("decoding details: %w", err)
			}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// queryEntities runs an entity query and scans all rows.
func (r *Repository) queryEntities(ctx context.Context, query string, args ...any) ([]entities.Entity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var result []entities.Entity
	for rows.Next() {
		var entity entities.Entity
		var props string
		if err := rows.Scan(
			&entity.ID,
			&entity.Project,
			&entity.Name,
			&entity.Type,
			&entity.Description,
			&props,
			&entity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		if entity.Properties, err = unmarshalProps(props); err != nil {
			return nil, fmt.Errorf("decoding properties: %w", err)
		}
		result = append(result, entity)
	}
	return result, rows.Err()
}

// scanEntityRow scans a single entity row, mapping no-rows to nil.
func scanEntityRow(row *sql.Row) (*entities.Entity, error) {
	var entity entities.Entity
	var props string
	err := row.Scan(
		&entity.ID,
		&entity.Project,
		&entity.Name,
		&entity.Type,
		&entity.Description,
		&props,
		&entity.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning entity: %w", err)
	}
	if entity.Properties, err = unmarshalProps(props); err != nil {
		return nil, fmt.Errorf("decoding properties: %w", err)
	}
	return &entity, nil
}

// marshalProps encodes a property map as JSON, treating nil as empty.
func marshalProps(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalProps decodes a JSON property map, mapping empty to nil.
func unmarshalProps(raw string) (map[string]any, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, err
	}
	return props, nil
}
