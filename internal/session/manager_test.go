package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

func TestManager_CreateAndGet(t *testing.T) {
	m := NewManager()

	state, err := m.Create("user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if state.SessionID == "" {
		t.Fatal("Expected session ID to be assigned")
	}
	if state.WorkflowState != models.StateStart {
		t.Errorf("Expected new session in %q, got %q", models.StateStart, state.WorkflowState)
	}

	got, err := m.Get(state.SessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != state {
		t.Error("Expected Get to return the same session instance")
	}
}

func TestManager_CreateRejectsEmptyUser(t *testing.T) {
	m := NewManager()
	if _, err := m.Create(""); !errors.Is(err, models.ErrEmptyUserID) {
		t.Errorf("Expected ErrEmptyUserID, got %v", err)
	}
}

func TestManager_GetMissingSession(t *testing.T) {
	m := NewManager()
	if _, err := m.Get("nope"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ListByUser(t *testing.T) {
	m := NewManager()
	s1, _ := m.Create("alice")
	s2, _ := m.Create("alice")
	m.Create("bob")

	sessions := m.ListByUser("alice")
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions for alice, got %d", len(sessions))
	}
	ids := map[string]bool{s1.SessionID: true, s2.SessionID: true}
	for _, s := range sessions {
		if !ids[s.SessionID] {
			t.Errorf("Unexpected session %s in list", s.SessionID)
		}
	}
}

func TestManager_DeleteEnforcesOwnership(t *testing.T) {
	m := NewManager()
	state, _ := m.Create("alice")

	if err := m.Delete("bob", state.SessionID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound for wrong owner, got %v", err)
	}
	if _, err := m.Get(state.SessionID); err != nil {
		t.Fatalf("Session should survive a rejected delete: %v", err)
	}

	if err := m.Delete("alice", state.SessionID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(state.SessionID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestManager_SessionExpires(t *testing.T) {
	m := NewManager(WithTimeout(20*time.Millisecond), WithCleanupInterval(10*time.Millisecond))
	state, _ := m.Create("alice")

	time.Sleep(50 * time.Millisecond)

	if _, err := m.Get(state.SessionID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Expected expired session to be gone, got %v", err)
	}
}

func TestManager_DoSerializesTurns(t *testing.T) {
	m := NewManager()
	state, _ := m.Create("alice")

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Do(state.SessionID, func(s *models.SessionState) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	err := m.Do(state.SessionID, func(s *models.SessionState) error { return nil })
	if !errors.Is(err, models.ErrTurnInProgress) {
		t.Errorf("Expected ErrTurnInProgress for concurrent turn, got %v", err)
	}

	close(release)
	wg.Wait()

	if err := m.Do(state.SessionID, func(s *models.SessionState) error { return nil }); err != nil {
		t.Errorf("Expected turn to succeed after lock released, got %v", err)
	}
}

func TestManager_DoDoesNotResurrectDeletedSession(t *testing.T) {
	m := NewManager()
	state, _ := m.Create("alice")

	err := m.Do(state.SessionID, func(s *models.SessionState) error {
		return m.Delete("alice", s.SessionID)
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if _, err := m.Get(state.SessionID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("Expected deleted session to stay gone, got %v", err)
	}
	m.mu.Lock()
	_, ok := m.turns[state.SessionID]
	m.mu.Unlock()
	if ok {
		t.Error("Expected turn lock to be discarded with the session")
	}
}

func TestManager_EvictionKeepsInFlightTurnLock(t *testing.T) {
	m := NewManager()
	state, _ := m.Create("alice")

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- m.Do(state.SessionID, func(s *models.SessionState) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := m.Delete("alice", state.SessionID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	m.mu.Lock()
	lock, ok := m.turns[state.SessionID]
	m.mu.Unlock()
	if !ok {
		t.Fatal("Turn lock discarded while a turn held it")
	}
	if lock.TryLock() {
		lock.Unlock()
		t.Fatal("Turn lock not held during the in-flight turn")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	m.mu.Lock()
	_, ok = m.turns[state.SessionID]
	m.mu.Unlock()
	if ok {
		t.Error("Expected turn lock to be cleaned up once the turn finished")
	}
}

func TestManager_DoRefreshesUpdatedAt(t *testing.T) {
	m := NewManager()
	state, _ := m.Create("alice")
	before := state.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	err := m.Do(state.SessionID, func(s *models.SessionState) error {
		s.Brand.Name = "Chai & Co"
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	got, _ := m.Get(state.SessionID)
	if !got.UpdatedAt.After(before) {
		t.Errorf("Expected UpdatedAt to advance, got %v (was %v)", got.UpdatedAt, before)
	}
	if got.Brand.Name != "Chai & Co" {
		t.Errorf("Expected mutation to persist, got %q", got.Brand.Name)
	}
}
