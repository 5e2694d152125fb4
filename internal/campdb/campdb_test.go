package campdb

import (
	"testing"

	"github.com/campscout/campscout/internal/flow"
	"github.com/campscout/campscout/internal/models"
)

// The catalog client must plug into both flow dependency points.
var (
	_ flow.CampSearcher   = (*Client)(nil)
	_ flow.CategorySource = (*Client)(nil)
)

func TestNewClient_RequiresDSN(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Error("expected error for missing DSN, got nil")
	}
}

func TestFilterByCategory(t *testing.T) {
	camps := []models.Camp{
		{CampName: "Soccer Stars", Categories: []models.CategoryRef{{Name: "Soccer"}}},
		{CampName: "Multi Sport", Categories: []models.CategoryRef{{Name: "Basketball"}, {Name: "Indoor Soccer"}}},
		{CampName: "Art Works", Categories: []models.CategoryRef{{Name: "Arts"}}},
		{CampName: "No Categories"},
	}

	got := filterByCategory(camps, "soccer")
	if len(got) != 2 {
		t.Fatalf("expected 2 soccer camps, got %d", len(got))
	}
	if got[0].CampName != "Soccer Stars" || got[1].CampName != "Multi Sport" {
		t.Errorf("unexpected camps: %v", got)
	}

	// Category filtering only consults category associations, not names.
	got = filterByCategory(camps, "art works")
	if len(got) != 0 {
		t.Errorf("camp name must not satisfy the category filter, got %v", got)
	}
}
