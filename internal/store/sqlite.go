// Package store provides storage backends for CampScout conversation state.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/campscout/campscout/internal/models"
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

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetConversation retrieves the stored state for a session, or (nil, nil)
// when the session does not exist.
func (s *SQLiteStore) GetConversation(sessionID string) (*models.ConversationState, error) {
	var raw string
	err := s.db.QueryRow(`SELECT state FROM conversations WHERE session_id = ?`, sessionID).Scan(&raw)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetConversation not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetConversation failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query conversation %s: %w", sessionID, err)
	}
	return models.ConversationStateFromJSON(raw)
}

// SaveConversation stores or replaces the state for a session.
func (s *SQLiteStore) SaveConversation(state *models.ConversationState) error {
	raw, err := state.ToJSON()
	if err != nil {
		slog.Error("SQLiteStore SaveConversation serialization failed", "error", err, "sessionID", state.SessionID)
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO conversations (session_id, state, updated_at) VALUES (?, ?, ?)`,
		state.SessionID, raw, time.Now())
	if err != nil {
		slog.Error("SQLiteStore SaveConversation failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to save conversation %s: %w", state.SessionID, err)
	}
	slog.Debug("SQLiteStore SaveConversation succeeded", "sessionID", state.SessionID)
	return nil
}

// DeleteConversation removes a session. Deleting a missing session is a no-op.
func (s *SQLiteStore) DeleteConversation(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM conversations WHERE session_id = ?`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore DeleteConversation failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to delete conversation %s: %w", sessionID, err)
	}
	slog.Debug("SQLiteStore DeleteConversation succeeded", "sessionID", sessionID)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
