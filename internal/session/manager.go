package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"convrev/internal/catalog"
	"convrev/internal/store"
)

// Manager tracks live sessions for the HTTP API. Each reviewer gets an
// independent session; the store is the only resource they share. The store
// is read once when the manager is built and new sessions are seeded from
// that snapshot plus whatever their own submissions add.
type Manager struct {
	cat    *catalog.Catalog
	store  store.Store
	logger *zap.Logger

	mu       sync.RWMutex
	seed     []store.Rating
	sessions map[string]*Session
}

// NewManager loads the ratings snapshot and returns an empty session registry.
func NewManager(ctx context.Context, cat *catalog.Catalog, st store.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	seed, err := st.LoadAll(ctx)
	if err != nil {
		logger.Warn("could not load existing reviews, sessions start with empty completed sets", zap.Error(err))
		seed = nil
	}

	return &Manager{
		cat:      cat,
		store:    st,
		logger:   logger,
		seed:     seed,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session, optionally with a reviewer name already set,
// and returns its id.
func (m *Manager) Create(reviewer string) (string, *Session, error) {
	m.mu.Lock()
	seed := m.seed
	m.mu.Unlock()

	s := NewSeeded(m.cat, m.store, m.logger, seed)
	if strings.TrimSpace(reviewer) != "" {
		if _, err := s.SetReviewer(reviewer); err != nil {
			return "", nil, err
		}
	}

	id := uuid.New().String()
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return id, s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete drops a finished session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Seed returns the ratings snapshot loaded at startup.
func (m *Manager) Seed() []store.Rating {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seed
}
