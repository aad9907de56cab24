package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanProject scans a Project from sql.Rows.
func scanProject(rows *sql.Rows) (Project, error) {
	var p Project
	var brandJSON sql.NullString
	if err := rows.Scan(&p.ID, &p.Name, &brandJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, fmt.Errorf("scan project failed: %w", err)
	}
	if brandJSON.Valid && brandJSON.String != "" {
		if err := json.Unmarshal([]byte(brandJSON.String), &p.Brand); err != nil {
			return p, fmt.Errorf("unmarshal brand for project %s failed: %w", p.ID, err)
		}
	}
	return p, nil
}

// scanProjectRow scans a Project from a single sql.Row.
// Propagates sql.ErrNoRows unwrapped so callers can map it to (nil, nil).
func scanProjectRow(row *sql.Row) (*Project, error) {
	var p Project
	var brandJSON sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &brandJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if brandJSON.Valid && brandJSON.String != "" {
		if err := json.Unmarshal([]byte(brandJSON.String), &p.Brand); err != nil {
			return nil, fmt.Errorf("unmarshal brand for project %s failed: %w", p.ID, err)
		}
	}
	return &p, nil
}

// scanContent scans a GeneratedContent from sql.Rows.
func scanContent(rows *sql.Rows) (GeneratedContent, error) {
	var c GeneratedContent
	var projectID, sessionID, path, text sql.NullString
	if err := rows.Scan(&c.ID, &projectID, &sessionID, &c.Kind, &path, &text, &c.CreatedAt); err != nil {
		return c, fmt.Errorf("scan generated content failed: %w", err)
	}
	c.ProjectID = projectID.String
	c.SessionID = sessionID.String
	c.Path = path.String
	c.Text = text.String
	return c, nil
}
