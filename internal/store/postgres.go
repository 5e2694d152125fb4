// Package store provides storage backends for CampScout conversation state.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/campscout/campscout/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
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
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

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

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetConversation retrieves the stored state for a session, or (nil, nil)
// when the session does not exist.
func (s *PostgresStore) GetConversation(sessionID string) (*models.ConversationState, error) {
	var raw string
	err := s.db.QueryRow(`SELECT state FROM conversations WHERE session_id = $1`, sessionID).Scan(&raw)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetConversation not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetConversation failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query conversation %s: %w", sessionID, err)
	}
	return models.ConversationStateFromJSON(raw)
}

// SaveConversation stores or replaces the state for a session.
func (s *PostgresStore) SaveConversation(state *models.ConversationState) error {
	raw, err := state.ToJSON()
	if err != nil {
		slog.Error("PostgresStore SaveConversation serialization failed", "error", err, "sessionID", state.SessionID)
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO conversations (session_id, state, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		state.SessionID, raw, time.Now())
	if err != nil {
		slog.Error("PostgresStore SaveConversation failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to save conversation %s: %w", state.SessionID, err)
	}
	slog.Debug("PostgresStore SaveConversation succeeded", "sessionID", state.SessionID)
	return nil
}

// DeleteConversation removes a session. Deleting a missing session is a no-op.
func (s *PostgresStore) DeleteConversation(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM conversations WHERE session_id = $1`, sessionID)
	if err != nil {
		slog.Error("PostgresStore DeleteConversation failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to delete conversation %s: %w", sessionID, err)
	}
	slog.Debug("PostgresStore DeleteConversation succeeded", "sessionID", sessionID)
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
