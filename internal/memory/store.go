// Package memory provides persistence backends for Content Studio.
//
// It records projects, brand profiles and generated content so the
// assistant can recall prior work across sessions. An in-memory store
// backs tests and ephemeral deployments; SQLite and PostgreSQL stores
// provide durable storage.
package memory

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
	"github.com/google/uuid"
)

// Project is a named body of work with its brand settings and timestamps.
type Project struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Brand     models.BrandContext `json:"brand"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Profile stores a user's saved brand settings keyed by username.
type Profile struct {
	Username  string              `json:"username"`
	Brand     models.BrandContext `json:"brand"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// GeneratedContent is one produced artifact: an image, video, caption,
// hashtag set or carousel, with either a file path or text payload.
type GeneratedContent struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path,omitempty"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Content kinds recorded in the generation log.
const (
	ContentKindImage    = "image"
	ContentKindVideo    = "video"
	ContentKindCaption  = "caption"
	ContentKindHashtags = "hashtags"
	ContentKindCarousel = "carousel"
)

// NoContextSummary is returned by ContextSummary when nothing has been
// recorded yet, or when the backend cannot be read.
const NoContextSummary = "No previous context."

// Store defines the persistence operations used by the flow engine and API.
//
// Lookup methods return (nil, nil) when the record does not exist.
// SaveGeneratedContent appends to the content log and, when the entry
// carries a project ID, touches that project's UpdatedAt in the same
// operation.
type Store interface {
	SaveProject(p Project) error
	GetProject(id string) (*Project, error)
	ListProjects() ([]Project, error)

	SaveProfile(p Profile) error
	GetProfile(username string) (*Profile, error)

	SaveGeneratedContent(c GeneratedContent) error
	GetRecentContent(limit int) ([]GeneratedContent, error)
	GetProjectContent(projectID string, limit int) ([]GeneratedContent, error)

	SetSessionContext(key, value string) error
	GetSessionContext(key string) (string, error)

	ContextSummary() string

	Clear() error
	Close() error
}

// InMemoryStore keeps all records in process memory. Safe for concurrent use.
type InMemoryStore struct {
	mu       sync.RWMutex
	projects map[string]Project
	profiles map[string]Profile
	content  []GeneratedContent
	context  map[string]string
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		projects: make(map[string]Project),
		profiles: make(map[string]Profile),
		context:  make(map[string]string),
	}
}

func (s *InMemoryStore) SaveProject(p Project) error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if existing, ok := s.projects[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.projects[p.ID] = p
	slog.Debug("InMemoryStore SaveProject succeeded", "id", p.ID, "name", p.Name)
	return nil
}

func (s *InMemoryStore) GetProject(id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *InMemoryStore) ListProjects() ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (s *InMemoryStore) SaveProfile(p Profile) error {
	if p.Username == "" {
		return fmt.Errorf("profile username is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	s.profiles[p.Username] = p
	slog.Debug("InMemoryStore SaveProfile succeeded", "username", p.Username)
	return nil
}

func (s *InMemoryStore) GetProfile(username string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[username]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SaveGeneratedContent appends to the content log and touches the owning
// project under the same lock, so readers never observe one without the other.
func (s *InMemoryStore) SaveGeneratedContent(c GeneratedContent) error {
	if c.Kind == "" {
		return fmt.Errorf("content kind is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	s.content = append(s.content, c)
	if c.ProjectID != "" {
		if p, ok := s.projects[c.ProjectID]; ok {
			p.UpdatedAt = now
			s.projects[c.ProjectID] = p
		}
	}
	slog.Debug("InMemoryStore SaveGeneratedContent succeeded", "id", c.ID, "kind", c.Kind)
	return nil
}

func (s *InMemoryStore) GetRecentContent(limit int) ([]GeneratedContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return recentContent(s.content, limit), nil
}

func (s *InMemoryStore) GetProjectContent(projectID string, limit int) ([]GeneratedContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []GeneratedContent
	for _, c := range s.content {
		if c.ProjectID == projectID {
			matched = append(matched, c)
		}
	}
	return recentContent(matched, limit), nil
}

func (s *InMemoryStore) SetSessionContext(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context[key] = value
	return nil
}

func (s *InMemoryStore) GetSessionContext(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context[key], nil
}

// ContextSummary describes stored work in one line for prompt grounding.
// It never fails; an empty store yields NoContextSummary.
func (s *InMemoryStore) ContextSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *Project
	for id := range s.projects {
		p := s.projects[id]
		if latest == nil || p.UpdatedAt.After(latest.UpdatedAt) {
			latest = &p
		}
	}
	var lastKind string
	if len(s.content) > 0 {
		lastKind = s.content[len(s.content)-1].Kind
	}
	return buildContextSummary(len(s.projects), latest, len(s.content), lastKind)
}

func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make(map[string]Project)
	s.profiles = make(map[string]Profile)
	s.content = nil
	s.context = make(map[string]string)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

// recentContent returns up to limit entries, most recent first.
// A non-positive limit returns everything.
func recentContent(entries []GeneratedContent, limit int) []GeneratedContent {
	out := make([]GeneratedContent, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func buildContextSummary(projectCount int, latest *Project, contentCount int, lastKind string) string {
	var parts []string
	if projectCount > 0 {
		parts = append(parts, fmt.Sprintf("Active projects: %d", projectCount))
	}
	if latest != nil {
		parts = append(parts, fmt.Sprintf("Last project: %s", latest.Name))
	}
	if contentCount > 0 {
		parts = append(parts, fmt.Sprintf("Generated items: %d", contentCount))
	}
	if lastKind != "" {
		parts = append(parts, fmt.Sprintf("Last generated: %s", lastKind))
	}
	if len(parts) == 0 {
		return NoContextSummary
	}
	return strings.Join(parts, " | ")
}
