// Package store provides storage backends for CampScout conversation state.
//
// It includes an in-memory store for tests and single-process deployments,
// plus SQLite and PostgreSQL backends for durable sessions.
package store

import (
	"strings"
	"sync"

	"github.com/campscout/campscout/internal/models"
)

// Store persists conversation state keyed by session ID.
//
// GetConversation returns (nil, nil) when the session does not exist; a
// non-nil error means the backend itself failed.
type Store interface {
	GetConversation(sessionID string) (*models.ConversationState, error)
	SaveConversation(state *models.ConversationState) error
	DeleteConversation(sessionID string) error
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports which driver a DSN belongs to: "postgres" for
// URL-style or key=value connection strings, "sqlite3" for file paths.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}

// InMemoryStore keeps conversation state in a map guarded by a RWMutex.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]string
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string]string)}
}

// GetConversation returns the stored state for a session, or (nil, nil).
func (s *InMemoryStore) GetConversation(sessionID string) (*models.ConversationState, error) {
	s.mu.RLock()
	raw, ok := s.conversations[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return models.ConversationStateFromJSON(raw)
}

// SaveConversation stores the state, replacing any previous value.
func (s *InMemoryStore) SaveConversation(state *models.ConversationState) error {
	raw, err := state.ToJSON()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conversations[state.SessionID] = raw
	s.mu.Unlock()
	return nil
}

// DeleteConversation removes a session. Deleting a missing session is a no-op.
func (s *InMemoryStore) DeleteConversation(sessionID string) error {
	s.mu.Lock()
	delete(s.conversations, sessionID)
	s.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
