package api

import (
	"testing"
	"time"

	"github.com/campscout/campscout/internal/store"
)

func TestOptions(t *testing.T) {
	var cfg Opts
	for _, opt := range []Option{WithAddr(":9000"), WithChatMode(ChatModeIntent), WithRequestTimeout(30 * time.Second)} {
		opt(&cfg)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("expected addr :9000, got %q", cfg.Addr)
	}
	if cfg.ChatMode != ChatModeIntent {
		t.Errorf("expected intent chat mode, got %q", cfg.ChatMode)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("expected 30s request timeout, got %v", cfg.RequestTimeout)
	}
}

func TestNewServer_DefaultRequestTimeout(t *testing.T) {
	server := NewServer(store.NewInMemoryStore(), nil, nil)
	if server.requestTimeout != DefaultRequestTimeout {
		t.Errorf("expected default request timeout %v, got %v", DefaultRequestTimeout, server.requestTimeout)
	}
}

func TestBuildStore_DefaultsToInMemory(t *testing.T) {
	st, err := buildStore(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*store.InMemoryStore); !ok {
		t.Errorf("expected in-memory store, got %T", st)
	}
}

func TestBuildFlow_ProfileModeWithoutCatalog(t *testing.T) {
	chatFlow, err := buildFlow(ChatModeProfile, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chatFlow == nil {
		t.Error("expected a flow")
	}
}

func TestBuildFlow_UnknownMode(t *testing.T) {
	if _, err := buildFlow("pipeline", nil, nil); err == nil {
		t.Error("expected error for unknown chat mode, got nil")
	}
}

func TestBuildFlow_IntentModeRequiresGenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := buildFlow(ChatModeIntent, nil, nil); err == nil {
		t.Error("expected error without an API key, got nil")
	}
}
