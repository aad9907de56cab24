// Package session manages in-flight conversation sessions.
//
// Sessions live in an expiring cache and are owned by a user. Each session
// carries a workflow state machine; the manager serializes turns so two
// requests never mutate the same session concurrently.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Defaults for session lifetime.
const (
	DefaultSessionTimeout  = 24 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// Opts holds configuration options for the session manager.
type Opts struct {
	Timeout         time.Duration
	CleanupInterval time.Duration
}

// Option defines a configuration option for the session manager.
type Option func(*Opts)

// WithTimeout sets how long an idle session survives before eviction.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithCleanupInterval sets how often expired sessions are purged.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *Opts) { o.CleanupInterval = d }
}

// Manager creates, looks up and expires sessions, and serializes turns
// per session.
type Manager struct {
	sessions *cache.Cache

	mu    sync.Mutex
	turns map[string]*sync.Mutex
}

// NewManager creates a session manager with the given options.
func NewManager(opts ...Option) *Manager {
	cfg := Opts{
		Timeout:         DefaultSessionTimeout,
		CleanupInterval: DefaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewManager invoked", "timeout", cfg.Timeout, "cleanup_interval", cfg.CleanupInterval)

	m := &Manager{
		sessions: cache.New(cfg.Timeout, cfg.CleanupInterval),
		turns:    make(map[string]*sync.Mutex),
	}
	m.sessions.OnEvicted(func(sessionID string, _ interface{}) {
		// A held turn lock belongs to an in-flight turn; that turn
		// discards it itself once it sees the session is gone.
		m.mu.Lock()
		if lock, ok := m.turns[sessionID]; ok && lock.TryLock() {
			lock.Unlock()
			delete(m.turns, sessionID)
		}
		m.mu.Unlock()
		slog.Debug("Session evicted", "session_id", sessionID)
	})
	return m
}

// Create starts a new session for the user.
func (m *Manager) Create(userID string) (*models.SessionState, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	state := models.NewSessionState(uuid.NewString(), userID)
	m.sessions.SetDefault(state.SessionID, state)
	slog.Debug("Session created", "session_id", state.SessionID, "user_id", userID)
	return state, nil
}

// Get returns the session by ID, or ErrSessionNotFound when it does not
// exist or has expired.
func (m *Manager) Get(sessionID string) (*models.SessionState, error) {
	v, ok := m.sessions.Get(sessionID)
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return v.(*models.SessionState), nil
}

// ListByUser returns all live sessions owned by the user.
func (m *Manager) ListByUser(userID string) []*models.SessionState {
	var out []*models.SessionState
	for _, item := range m.sessions.Items() {
		state := item.Object.(*models.SessionState)
		if state.UserID == userID {
			out = append(out, state)
		}
	}
	return out
}

// Delete removes the user's session. ErrSessionNotFound is returned when the
// session does not exist or belongs to a different user.
func (m *Manager) Delete(userID, sessionID string) error {
	state, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	if state.UserID != userID {
		return models.ErrSessionNotFound
	}
	m.sessions.Delete(sessionID)
	slog.Debug("Session deleted", "session_id", sessionID, "user_id", userID)
	return nil
}

// Touch refreshes the session's expiry after activity.
func (m *Manager) Touch(state *models.SessionState) {
	state.UpdatedAt = time.Now().UTC()
	m.sessions.SetDefault(state.SessionID, state)
}

// Do runs fn holding the session's turn lock. A second turn arriving while
// one is in flight gets ErrTurnInProgress instead of queueing behind it.
func (m *Manager) Do(sessionID string, fn func(*models.SessionState) error) error {
	state, err := m.Get(sessionID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	lock, ok := m.turns[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.turns[sessionID] = lock
	}
	m.mu.Unlock()

	if !lock.TryLock() {
		return models.ErrTurnInProgress
	}
	defer lock.Unlock()

	err = fn(state)

	// Refresh expiry only while the session still exists; a session
	// deleted or evicted mid-turn must not be re-inserted.
	m.mu.Lock()
	if _, live := m.sessions.Get(sessionID); live {
		if err == nil {
			state.UpdatedAt = time.Now().UTC()
			m.sessions.SetDefault(sessionID, state)
		}
	} else {
		delete(m.turns, sessionID)
	}
	m.mu.Unlock()
	return err
}
