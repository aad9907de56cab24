// Package memory provides persistence backends for Content Studio.
//
// This file implements the SQLite-backed store.
package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveProject(p Project) error {
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
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, brand_json = excluded.brand_json, updated_at = excluded.updated_at`,
		p.ID, p.Name, string(brandJSON), p.CreatedAt, now)
	if err != nil {
		slog.Error("SQLiteStore SaveProject failed", "error", err, "id", p.ID)
		return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
	}
	slog.Debug("SQLiteStore SaveProject succeeded", "id", p.ID, "name", p.Name)
	return nil
}

func (s *SQLiteStore) GetProject(id string) (*Project, error) {
	row := s.db.QueryRow(`SELECT id, name, brand_json, created_at, updated_at FROM projects WHERE id = ?`, id)
	p, err := scanProjectRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetProject failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT id, name, brand_json, created_at, updated_at FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		slog.Error("SQLiteStore ListProjects query failed", "error", err)
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			slog.Error("SQLiteStore ListProjects scan failed", "error", err)
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListProjects rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate project rows: %w", err)
	}
	slog.Debug("SQLiteStore ListProjects succeeded", "count", len(projects))
	return projects, nil
}

func (s *SQLiteStore) SaveProfile(p Profile) error {
	if p.Username == "" {
		return fmt.Errorf("profile username is required")
	}
	brandJSON, err := json.Marshal(p.Brand)
	if err != nil {
		return fmt.Errorf("failed to marshal brand for profile %s: %w", p.Username, err)
	}
	_, err = s.db.Exec(`INSERT INTO profiles (username, brand_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET brand_json = excluded.brand_json, updated_at = excluded.updated_at`,
		p.Username, string(brandJSON), time.Now().UTC())
	if err != nil {
		slog.Error("SQLiteStore SaveProfile failed", "error", err, "username", p.Username)
		return fmt.Errorf("failed to upsert profile %s: %w", p.Username, err)
	}
	slog.Debug("SQLiteStore SaveProfile succeeded", "username", p.Username)
	return nil
}

func (s *SQLiteStore) GetProfile(username string) (*Profile, error) {
	row := s.db.QueryRow(`SELECT username, brand_json, updated_at FROM profiles WHERE username = ?`, username)
	var p Profile
	var brandJSON sql.NullString
	err := row.Scan(&p.Username, &brandJSON, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetProfile failed", "error", err, "username", username)
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
func (s *SQLiteStore) SaveGeneratedContent(c GeneratedContent) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nilIfEmpty(c.ProjectID), nilIfEmpty(c.SessionID), c.Kind, nilIfEmpty(c.Path), nilIfEmpty(c.Text), c.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveGeneratedContent insert failed", "error", err, "kind", c.Kind)
		return fmt.Errorf("failed to insert generated content: %w", err)
	}
	if c.ProjectID != "" {
		if _, err := tx.Exec(`UPDATE projects SET updated_at = ? WHERE id = ?`, now, c.ProjectID); err != nil {
			slog.Error("SQLiteStore SaveGeneratedContent project touch failed", "error", err, "project_id", c.ProjectID)
			return fmt.Errorf("failed to touch project %s: %w", c.ProjectID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit generated content: %w", err)
	}
	slog.Debug("SQLiteStore SaveGeneratedContent succeeded", "id", c.ID, "kind", c.Kind)
	return nil
}

func (s *SQLiteStore) GetRecentContent(limit int) ([]GeneratedContent, error) {
	return s.queryContent(`SELECT id, project_id, session_id, kind, path, content, created_at
		FROM generated_content ORDER BY created_at DESC, id DESC`, limit)
}

func (s *SQLiteStore) GetProjectContent(projectID string, limit int) ([]GeneratedContent, error) {
	return s.queryContent(`SELECT id, project_id, session_id, kind, path, content, created_at
		FROM generated_content WHERE project_id = ? ORDER BY created_at DESC, id DESC`, limit, projectID)
}

func (s *SQLiteStore) queryContent(query string, limit int, args ...interface{}) ([]GeneratedContent, error) {
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore content query failed", "error", err)
		return nil, fmt.Errorf("failed to query generated content: %w", err)
	}
	defer rows.Close()

	var entries []GeneratedContent
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			slog.Error("SQLiteStore content scan failed", "error", err)
			return nil, err
		}
		entries = append(entries, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore content rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate content rows: %w", err)
	}
	slog.Debug("SQLiteStore content query succeeded", "count", len(entries))
	return entries, nil
}

func (s *SQLiteStore) SetSessionContext(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO session_context (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		slog.Error("SQLiteStore SetSessionContext failed", "error", err, "key", key)
		return fmt.Errorf("failed to set session context %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) GetSessionContext(key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRow(`SELECT value FROM session_context WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSessionContext failed", "error", err, "key", key)
		return "", fmt.Errorf("failed to get session context %s: %w", key, err)
	}
	return value.String, nil
}

// ContextSummary never fails; read errors degrade to NoContextSummary.
func (s *SQLiteStore) ContextSummary() string {
	var projectCount, contentCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&projectCount); err != nil {
		slog.Error("SQLiteStore ContextSummary project count failed", "error", err)
		return NoContextSummary
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM generated_content`).Scan(&contentCount); err != nil {
		slog.Error("SQLiteStore ContextSummary content count failed", "error", err)
		return NoContextSummary
	}

	var latest *Project
	row := s.db.QueryRow(`SELECT id, name, brand_json, created_at, updated_at FROM projects ORDER BY updated_at DESC LIMIT 1`)
	p, err := scanProjectRow(row)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("SQLiteStore ContextSummary latest project failed", "error", err)
		return NoContextSummary
	}
	if err == nil {
		latest = p
	}

	var lastKind string
	err = s.db.QueryRow(`SELECT kind FROM generated_content ORDER BY created_at DESC, id DESC LIMIT 1`).Scan(&lastKind)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("SQLiteStore ContextSummary last kind failed", "error", err)
		return NoContextSummary
	}

	return buildContextSummary(projectCount, latest, contentCount, lastKind)
}

// Clear deletes all records (for tests).
func (s *SQLiteStore) Clear() error {
	for _, table := range []string{"projects", "profiles", "generated_content", "session_context"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			slog.Error("SQLiteStore Clear failed", "error", err, "table", table)
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	slog.Debug("SQLiteStore Clear succeeded")
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
