// Package api provides the HTTP server and chat endpoints for CampScout.
//
// It exposes the conversational chat endpoint plus supporting catalog
// endpoints, and wires the store, genai, campdb and flow modules together.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/campscout/campscout/internal/campdb"
	"github.com/campscout/campscout/internal/flow"
	"github.com/campscout/campscout/internal/genai"
	"github.com/campscout/campscout/internal/store"
)

// Chat mode constants select which orchestrator drives the chat endpoint.
const (
	// ChatModeProfile runs the guided profile-collection pipeline.
	ChatModeProfile = "profile"
	// ChatModeIntent runs the free-form intent-routed conversation.
	ChatModeIntent = "intent"
)

const (
	// DefaultAddr is the default API server listen address.
	DefaultAddr = ":8080"
	// DefaultRequestTimeout bounds one chat turn, LLM and database calls included.
	DefaultRequestTimeout = 60 * time.Second
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr           string
	ChatMode       string
	RequestTimeout time.Duration
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the API server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithChatMode selects the chat orchestrator ("profile" or "intent").
func WithChatMode(mode string) Option {
	return func(o *Opts) { o.ChatMode = mode }
}

// WithRequestTimeout sets the per-request timeout for chat turns and catalog
// lookups.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Opts) { o.RequestTimeout = d }
}

// Server handles chat requests. Turns for the same session are serialized
// with per-session locks; different sessions proceed concurrently.
type Server struct {
	st             store.Store
	chatFlow       flow.Flow
	catalog        *campdb.Client
	requestTimeout time.Duration

	sessionLocks sync.Map
}

// NewServer creates a server from already-constructed modules. catalog may be
// nil; the catalog endpoints then serve empty defaults.
func NewServer(st store.Store, chatFlow flow.Flow, catalog *campdb.Client) *Server {
	return &Server{st: st, chatFlow: chatFlow, catalog: catalog, requestTimeout: DefaultRequestTimeout}
}

// Run builds all modules from their options and serves HTTP until the
// listener fails.
func Run(storeOpts []store.Option, genaiOpts []genai.Option, campdbOpts []campdb.Option, apiOpts []Option) error {
	var cfg Opts
	for _, opt := range apiOpts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ChatMode == "" {
		cfg.ChatMode = ChatModeProfile
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	slog.Debug("api.Run: configuration resolved", "addr", cfg.Addr, "chatMode", cfg.ChatMode, "requestTimeout", cfg.RequestTimeout)

	st, err := buildStore(storeOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer st.Close()

	catalog := buildCatalog(campdbOpts)
	if catalog != nil {
		defer catalog.Close()
	}

	chatFlow, err := buildFlow(cfg.ChatMode, genaiOpts, catalog)
	if err != nil {
		return err
	}

	server := NewServer(st, chatFlow, catalog)
	server.requestTimeout = cfg.RequestTimeout

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", server.chatHandler)
	mux.HandleFunc("/api/chat/health", server.healthHandler)
	mux.HandleFunc("/api/categories", server.categoriesHandler)
	mux.HandleFunc("/api/locations", server.locationsHandler)
	mux.HandleFunc("/api/grade-range", server.gradeRangeHandler)

	slog.Info("api.Run: CampScout API listening", "addr", cfg.Addr, "chatMode", cfg.ChatMode)
	return http.ListenAndServe(cfg.Addr, mux)
}

// buildStore selects a backend from the configured DSN: Postgres for
// connection strings, SQLite for file paths, in-memory when none is set.
func buildStore(storeOpts []store.Option) (store.Store, error) {
	var cfg store.Opts
	for _, opt := range storeOpts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Info("api.buildStore: no DSN configured, using in-memory session store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(cfg.DSN) == "postgres" {
		slog.Info("api.buildStore: using PostgreSQL session store")
		return store.NewPostgresStore(storeOpts...)
	}
	slog.Info("api.buildStore: using SQLite session store", "path", cfg.DSN)
	return store.NewSQLiteStore(storeOpts...)
}

// buildCatalog creates the camp catalog client. A missing or unreachable
// catalog is survivable; searches then return no results.
func buildCatalog(campdbOpts []campdb.Option) *campdb.Client {
	catalog, err := campdb.NewClient(campdbOpts...)
	if err != nil {
		slog.Warn("api.buildCatalog: camp catalog unavailable, searches will return no results", "error", err)
		return nil
	}
	return catalog
}

func buildFlow(chatMode string, genaiOpts []genai.Option, catalog *campdb.Client) (flow.Flow, error) {
	var searcher flow.CampSearcher
	var categories flow.CategorySource
	if catalog != nil {
		searcher = catalog
		categories = catalog
	}

	switch chatMode {
	case ChatModeProfile:
		collector := flow.NewProfileCollector(categories)
		return flow.NewProfileFlow(collector, searcher), nil
	case ChatModeIntent:
		gaClient, err := genai.NewClient(genaiOpts...)
		if err != nil {
			return nil, fmt.Errorf("intent chat mode requires a genai client: %w", err)
		}
		classifier := flow.NewIntentClassifier(gaClient)
		responder := flow.NewResponder(gaClient)
		return flow.NewIntentFlow(classifier, responder, searcher), nil
	default:
		return nil, fmt.Errorf("unknown chat mode %q", chatMode)
	}
}

// sessionLock returns the mutex serializing turns for one session.
func (s *Server) sessionLock(sessionID string) *sync.Mutex {
	lock, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
