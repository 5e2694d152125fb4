package flow

import (
	"testing"

	"github.com/campscout/campscout/internal/models"
)

func TestFilterCachedResults_EmptyFiltersReturnInput(t *testing.T) {
	camps := []models.Camp{
		testCamp("Soccer Stars", "", nil, nil, "Austin", "TX"),
		testCamp("Art Works", "", nil, nil, "Dallas", "TX"),
	}

	got := FilterCachedResults(camps, &models.SearchFilters{})
	if len(got) != len(camps) {
		t.Fatalf("empty filters must return full set, got %d of %d", len(got), len(camps))
	}

	got = FilterCachedResults(camps, nil)
	if len(got) != len(camps) {
		t.Fatalf("nil filters must return full set, got %d of %d", len(got), len(camps))
	}
}

func TestFilterCachedResults_CategoryMatchesNameDescriptionOrCategory(t *testing.T) {
	camps := []models.Camp{
		testCamp("Soccer Stars", "kick the ball", nil, nil, "", ""),
		testCamp("Summer Fun", "includes soccer drills", nil, nil, "", ""),
		testCamp("Ball Camp", "sports all day", nil, nil, "", "", "Soccer"),
		testCamp("Art Works", "painting", nil, nil, "", "", "Arts"),
	}

	got := FilterCachedResults(camps, &models.SearchFilters{Category: "SOCCER"})
	if len(got) != 3 {
		t.Fatalf("expected 3 soccer matches, got %d", len(got))
	}
	for _, camp := range got {
		if camp.CampName == "Art Works" {
			t.Error("art camp must not match soccer filter")
		}
	}
}

func TestFilterCachedResults_LocationMatchesAnySession(t *testing.T) {
	multiSession := models.Camp{
		CampName: "Traveling Camp",
		Sessions: []models.CampSession{
			{Location: &models.Location{City: "Dallas", State: "TX"}},
			{Location: &models.Location{City: "Austin", State: "TX"}},
		},
	}
	camps := []models.Camp{
		multiSession,
		testCamp("Local Camp", "", nil, nil, "Houston", "TX"),
	}

	got := FilterCachedResults(camps, &models.SearchFilters{City: "Austin"})
	if len(got) != 1 || got[0].CampName != "Traveling Camp" {
		t.Fatalf("expected only the camp with an Austin session, got %v", got)
	}
}

func TestFilterCachedResults_ZeroSessionsNeverMatchLocation(t *testing.T) {
	camps := []models.Camp{
		{CampName: "No Sessions Yet"},
	}

	got := FilterCachedResults(camps, &models.SearchFilters{City: "Austin"})
	if len(got) != 0 {
		t.Errorf("camp without sessions must not match a location filter, got %v", got)
	}

	// Without a location filter the same camp passes.
	got = FilterCachedResults(camps, &models.SearchFilters{Category: "sessions"})
	if len(got) != 1 {
		t.Errorf("camp without sessions must still match non-location filters, got %v", got)
	}
}

func TestFilterCachedResults_NilSessionLocationSkipped(t *testing.T) {
	camps := []models.Camp{
		{CampName: "Venue TBD", Sessions: []models.CampSession{{Location: nil}}},
	}

	got := FilterCachedResults(camps, &models.SearchFilters{City: "Austin"})
	if len(got) != 0 {
		t.Errorf("session without location must not match, got %v", got)
	}
}

func TestFilterCachedResults_GradeOverlap(t *testing.T) {
	camps := []models.Camp{
		testCamp("Lower", "", intPtr(3), intPtr(5), "", ""),
		testCamp("Exact", "", intPtr(5), intPtr(5), "", ""),
		testCamp("Upper", "", intPtr(6), intPtr(8), "", ""),
	}

	// min_grade 6: camps whose max grade is below 6 drop out.
	got := FilterCachedResults(camps, &models.SearchFilters{MinGrade: intPtr(6)})
	if len(got) != 1 || got[0].CampName != "Upper" {
		t.Fatalf("min grade 6: expected only Upper, got %v", got)
	}

	// Range 5-5: inclusive overlap keeps Lower and Exact.
	got = FilterCachedResults(camps, &models.SearchFilters{MinGrade: intPtr(5), MaxGrade: intPtr(5)})
	if len(got) != 2 {
		t.Fatalf("range 5-5: expected Lower and Exact, got %v", got)
	}
}

func TestFilterCachedResults_MissingGradeBoundsNeverExclude(t *testing.T) {
	camps := []models.Camp{
		testCamp("No Grades", "", nil, nil, "", ""),
		testCamp("Min Only", "", intPtr(8), nil, "", ""),
	}

	got := FilterCachedResults(camps, &models.SearchFilters{MinGrade: intPtr(2), MaxGrade: intPtr(4)})
	if len(got) != 2 {
		t.Errorf("camps with incomplete grade data must pass the grade axis, got %v", got)
	}
}

func TestFilterCachedResults_AxesCombineWithAND(t *testing.T) {
	camps := []models.Camp{
		testCamp("Soccer Austin", "soccer", intPtr(4), intPtr(6), "Austin", "TX"),
		testCamp("Soccer Dallas", "soccer", intPtr(4), intPtr(6), "Dallas", "TX"),
		testCamp("Art Austin", "painting", intPtr(4), intPtr(6), "Austin", "TX"),
	}

	got := FilterCachedResults(camps, &models.SearchFilters{Category: "soccer", City: "Austin"})
	if len(got) != 1 || got[0].CampName != "Soccer Austin" {
		t.Fatalf("expected only Soccer Austin, got %v", got)
	}
}

func TestFilterCachedResults_CanNarrowToEmpty(t *testing.T) {
	camps := []models.Camp{
		testCamp("Soccer Stars", "soccer", nil, nil, "Austin", "TX"),
	}

	got := FilterCachedResults(camps, &models.SearchFilters{Category: "chess"})
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}

func TestFilterCachedResults_InputNotMutated(t *testing.T) {
	camps := []models.Camp{
		testCamp("Soccer Stars", "soccer", nil, nil, "Austin", "TX"),
		testCamp("Art Works", "painting", nil, nil, "Austin", "TX"),
	}

	FilterCachedResults(camps, &models.SearchFilters{Category: "soccer"})
	if len(camps) != 2 {
		t.Errorf("input slice must not be mutated, got %d camps", len(camps))
	}
	if camps[1].CampName != "Art Works" {
		t.Errorf("input order must be preserved, got %q", camps[1].CampName)
	}
}
