// Package memory provides persistence backends for Content Studio.
//
// This file implements the PostgreSQL-backed store.
package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveProject(p Project) error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	brandJSON, err := json.Marshal(p.Brand)
	if err != nil {
		return fmt.Errorf("failed to marshal brand for project %s: %w", p.ID, err)
	}
	_, err = s.db.Exec(`INSERT INTO projects (id, name, brand_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, brand_json = EXCLUDED.brand_json, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, string(brandJSON), p.CreatedAt, now)
	if err != nil {
		slog.Error("PostgresStore SaveProject failed", "error", err, "id", p.ID)
		return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
	}
	slog.Debug("PostgresStore SaveProject succeeded", "id", p.ID, "name", p.Name)
	return nil
}

func (s *PostgresStore) GetProject(id string) (*Project, error) {
	row := s.db.QueryRow(`SELECT id, name, brand_json, created_at, updated_at FROM projects WHERE id = $1`, id)
	p, err := scanProjectRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetProject failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT id, name, brand_json, created_at, updated_at FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		slog.Error("PostgresStore ListProjects query failed", "error", err)
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			slog.Error("PostgresStore ListProjects scan failed", "error", err)
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListProjects rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate project rows: %w", err)
	}
	slog.Debug("PostgresStore ListProjects succeeded", "count", len(projects))
	return projects, nil
}

func (s *PostgresStore) SaveProfile(p Profile) error {
	if p.Username == "" {
		return fmt.Errorf("profile username is required")
	}
	brandJSON, err := json.Marshal(p.Brand)
	if err != nil {
		return fmt.Errorf("failed to marshal brand for profile %s: %w", p.Username, err)
	}
	_, err = s.db.Exec(`INSERT INTO profiles (username, brand_json, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET brand_json = EXCLUDED.brand_json, updated_at = EXCLUDED.updated_at`,
		p.Username, string(brandJSON), time.Now().UTC())
	if err != nil {
		slog.Error("PostgresStore SaveProfile failed", "error", err, "username", p.Username)
		return fmt.Errorf("failed to upsert profile %s: %w", p.Username, err)
	}
	slog.Debug("PostgresStore SaveProfile succeeded", "username", p.Username)
	return nil
}

func (s *PostgresStore) GetProfile(username string) (*Profile, error) {
	row := s.db.QueryRow(`SELECT username, brand_json, updated_at FROM profiles WHERE username = $1`, username)
	var p Profile
	var brandJSON sql.NullString
	err := row.Scan(&p.Username, &brandJSON, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetProfile failed", "error", err, "username", username)
		return nil, fmt.Errorf("failed to get profile %s: %w", username, err)
	}
	if brandJSON.Valid && brandJSON.String != "" {
		if err := json.Unmarshal([]byte(brandJSON.String), &p.Brand); err != nil {
			return nil, fmt.Errorf("failed to unmarshal brand for profile %s: %w", username, err)
		}
	}
	return &p, nil
}

// SaveGeneratedContent inserts the content row and touches the owning
// project's updated_at inside one transaction.
func (s *PostgresStore) SaveGeneratedContent(c GeneratedContent) error {
	if c.Kind == "" {
		return fmt.Errorf("content kind is required")
	}
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO generated_content (id, project_id, session_id, kind, path, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, nilIfEmpty(c.ProjectID), nilIfEmpty(c.SessionID), c.Kind, nilIfEmpty(c.Path), nilIfEmpty(c.Text), c.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveGeneratedContent insert failed", "error", err, "kind", c.Kind)
		return fmt.Errorf("failed to insert generated content: %w", err)
	}
	if c.ProjectID != "" {
		if _, err := tx.Exec(`UPDATE projects SET updated_at = $1 WHERE id = $2`, now, c.ProjectID); err != nil {
			slog.Error("PostgresStore SaveGeneratedContent project touch failed", "error", err, "project_id", c.ProjectID)
			return fmt.Errorf("failed to touch project %s: %w", c.ProjectID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit generated content: %w", err)
	}
	slog.Debug("PostgresStore SaveGeneratedContent succeeded", "id", c.ID, "kind", c.Kind)
	return nil
}

func (s *PostgresStore) GetRecentContent(limit int) ([]GeneratedContent, error) {
	return s.queryContent(`SELECT id, project_id, session_id, kind, path, content, created_at
		FROM generated_content ORDER BY created_at DESC, id DESC`, limit)
}

func (s *PostgresStore) GetProjectContent(projectID string, limit int) ([]GeneratedContent, error) {
	return s.queryContent(`SELECT id, project_id, session_id, kind, path, content, created_at
		FROM generated_content WHERE project_id = $1 ORDER BY created_at DESC, id DESC`, limit, projectID)
}

func (s *PostgresStore) queryContent(query string, limit int, args ...interface{}) ([]GeneratedContent, error) {
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore content query failed", "error", err)
		return nil, fmt.Errorf("failed to query generated content: %w", err)
	}
	defer rows.Close()

	var entries []GeneratedContent
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			slog.Error("PostgresStore content scan failed", "error", err)
			return nil, err
		}
		entries = append(entries, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore content rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate content rows: %w", err)
	}
	slog.Debug("PostgresStore content query succeeded", "count", len(entries))
	return entries, nil
}

func (s *PostgresStore) SetSessionContext(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO session_context (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		slog.Error("PostgresStore SetSessionContext failed", "error", err, "key", key)
		return fmt.Errorf("failed to set session context %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) GetSessionContext(key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRow(`SELECT value FROM session_context WHERE key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSessionContext failed", "error", err, "key", key)
		return "", fmt.Errorf("failed to get session context %s: %w", key, err)
	}
	return value.String, nil
}

// ContextSummary never fails; read errors degrade to NoContextSummary.
func (s *PostgresStore) ContextSummary() string {
	var projectCount, contentCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&projectCount); err != nil {
		slog.Error("PostgresStore ContextSummary project count failed", "error", err)
		return NoContextSummary
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM generated_content`).Scan(&contentCount); err != nil {
		slog.Error("PostgresStore ContextSummary content count failed", "error", err)
		return NoContextSummary
	}

	var latest *Project
	row := s.db.QueryRow(`SELECT id, name, brand_json, created_at, updated_at FROM projects ORDER BY updated_at DESC LIMIT 1`)
	p, err := scanProjectRow(row)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("PostgresStore ContextSummary latest project failed", "error", err)
		return NoContextSummary
	}
	if err == nil {
		latest = p
	}

	var lastKind string
	err = s.db.QueryRow(`SELECT kind FROM generated_content ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&lastKind)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("PostgresStore ContextSummary last kind failed", "error", err)
		return NoContextSummary
	}

	return buildContextSummary(projectCount, latest, contentCount, lastKind)
}

// Clear deletes all records (for tests).
func (s *PostgresStore) Clear() error {
	for _, table := range []string{"projects", "profiles", "generated_content", "session_context"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			slog.Error("PostgresStore Clear failed", "error", err, "table", table)
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	slog.Debug("PostgresStore Clear succeeded")
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
