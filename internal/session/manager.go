package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/classmark/session-gateway/internal/kv"
	"github.com/classmark/session-gateway/internal/testapi"
	"github.com/rs/zerolog"
)

// Manager is the registry of mounted sessions, keyed by (student, test).
// Remounting while a session is live (a reload, or a second tab) attaches
// to the same controller: continued countdown, retained answers, and the
// shared at-most-once submit guard makes concurrent submitters last-wins with
// a single terminal call.
type Manager struct {
	log   zerolog.Logger
	api   testapi.API
	store kv.Store

	mu       sync.Mutex
	sessions map[string]*Controller
}

// NewManager creates an empty session registry.
func NewManager(api testapi.API, store kv.Store, log zerolog.Logger) *Manager {
	return &Manager{
		log:      log.With().Str("component", "session_manager").Logger(),
		api:      api,
		store:    store,
		sessions: make(map[string]*Controller),
	}
}

func sessionKey(identity testapi.Identity, testID string) string {
	return fmt.Sprintf("%s|%s", identity.UserID, testID)
}

// Mount returns the live controller for this attempt, creating and
// initializing one if none is mounted. Initialization runs once even under
// concurrent mounts; if it fails the controller is discarded so the next
// mount starts fresh from the begin screen.
func (m *Manager) Mount(ctx context.Context, identity testapi.Identity, testID string) (*Controller, error) {
	key := sessionKey(identity, testID)

	m.mu.Lock()
	ctrl, ok := m.sessions[key]
	if !ok {
		ctrl = NewController(m.api, m.store, identity, testID, m.log)
		ctrl.onTerminal = func() { m.remove(key) }
		m.sessions[key] = ctrl
	}
	m.mu.Unlock()

	if err := ctrl.Initialize(ctx); err != nil {
		m.remove(key)
		return nil, err
	}
	return ctrl, nil
}

// Get returns the mounted controller for this attempt, if any.
func (m *Manager) Get(identity testapi.Identity, testID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.sessions[sessionKey(identity, testID)]
	return ctrl, ok
}

// Unmount abandons the in-memory session without submitting. The persisted
// deadline and started marker stay: returning to the test resumes the same
// countdown with a blank ledger.
func (m *Manager) Unmount(identity testapi.Identity, testID string) bool {
	key := sessionKey(identity, testID)

	m.mu.Lock()
	ctrl, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	if ok {
		ctrl.stop()
		m.log.Info().Str("session", key).Msg("Session abandoned")
	}
	return ok
}

// ReapIdle evicts sessions untouched for longer than ttl and reports how many
// were dropped. Evicted sessions keep their persisted deadline and started
// marker — eviction is abandonment, not submission.
func (m *Manager) ReapIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	var stale []string
	for key, ctrl := range m.sessions {
		if ctrl.IdleSince().Before(cutoff) {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		m.sessions[key].stop()
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	return len(stale)
}

// Count reports the number of mounted sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) remove(key string) {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
}
