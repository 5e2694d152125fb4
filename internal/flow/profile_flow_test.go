package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campscout/campscout/internal/models"
)

func completedProfileState() *models.ConversationState {
	state := newTestState()
	state.Profile = &models.Profile{
		Name:             "Alex",
		ChildName:        "Sam",
		ChildAge:         10,
		ChildGrade:       5,
		Interests:        []string{"soccer", "art"},
		Address:          "1 Main St, Austin, TX",
		MaxDistanceMiles: 25.0,
	}
	state.ProfileStep = models.StepComplete
	return state
}

func TestProfileFlow_CollectStageAdvancesOnCompletion(t *testing.T) {
	searcher := &mockSearcher{}
	f := NewProfileFlow(NewProfileCollector(nil), searcher)

	state := completedProfileState()
	state.ProfileStep = models.StepDistance
	state.Profile.MaxDistanceMiles = 0
	state.Stage = models.StageCollectProfile

	f.ProcessMessage(context.Background(), state, "25")
	if state.ProfileStep != models.StepComplete {
		t.Fatalf("expected collection to finish, got step %q", state.ProfileStep)
	}
	if state.Stage != models.StageDeriveFilters {
		t.Errorf("completed profile must advance stage to derive_filters, got %q", state.Stage)
	}
	if searcher.calls != 0 {
		t.Errorf("collect stage must not search, got %d calls", searcher.calls)
	}
	if !strings.Contains(state.FinalResponse, "Now I'll search for camps that match Sam's profile...") {
		t.Errorf("expected profile summary this turn, got %q", state.FinalResponse)
	}
}

func TestProfileFlow_DeriveFiltersStage(t *testing.T) {
	searcher := &mockSearcher{}
	f := NewProfileFlow(NewProfileCollector(nil), searcher)

	state := completedProfileState()
	state.Stage = models.StageDeriveFilters

	f.ProcessMessage(context.Background(), state, "ok")
	if state.Stage != models.StageSearch {
		t.Fatalf("expected stage search, got %q", state.Stage)
	}
	filters := state.SearchFilters
	if filters == nil {
		t.Fatal("expected derived filters")
	}
	if filters.MinGrade == nil || *filters.MinGrade != 5 || filters.MaxGrade == nil || *filters.MaxGrade != 5 {
		t.Errorf("expected grade bounds pinned to 5, got %+v", filters)
	}
	if filters.Address != "1 Main St, Austin, TX" {
		t.Errorf("expected profile address, got %q", filters.Address)
	}
	if filters.MaxDrivingDistanceMiles == nil || *filters.MaxDrivingDistanceMiles != 25.0 {
		t.Errorf("expected max driving distance 25, got %+v", filters.MaxDrivingDistanceMiles)
	}
	want := "Perfect! I'm preparing a search for camps that match Sam's profile. Searching for camps within 25 miles of 1 Main St, Austin, TX..."
	if state.FinalResponse != want {
		t.Errorf("expected %q, got %q", want, state.FinalResponse)
	}
	if searcher.calls != 0 {
		t.Errorf("derive stage must not search yet, got %d calls", searcher.calls)
	}
}

func TestProfileFlow_DeriveFiltersWithoutProfileRestartsCollection(t *testing.T) {
	f := NewProfileFlow(NewProfileCollector(nil), &mockSearcher{})

	state := newTestState()
	state.Stage = models.StageDeriveFilters

	f.ProcessMessage(context.Background(), state, "ok")
	if state.Stage != models.StageCollectProfile {
		t.Errorf("expected stage reset to collection, got %q", state.Stage)
	}
	if !strings.Contains(state.FinalResponse, "No profile found") {
		t.Errorf("expected no-profile message, got %q", state.FinalResponse)
	}
}

func TestProfileFlow_SearchStage(t *testing.T) {
	searcher := &mockSearcher{result: models.SearchResult{Camps: []models.Camp{
		testCamp("Soccer Stars", "", nil, nil, "Austin", "TX"),
	}}}
	f := NewProfileFlow(NewProfileCollector(nil), searcher)

	state := completedProfileState()
	state.Stage = models.StageSearch
	grade := 5
	distance := 25.0
	state.SearchFilters = &models.SearchFilters{
		MinGrade:                &grade,
		MaxGrade:                &grade,
		Address:                 state.Profile.Address,
		MaxDrivingDistanceMiles: &distance,
	}

	f.ProcessMessage(context.Background(), state, "ok")
	if searcher.calls != 1 {
		t.Fatalf("expected one search call, got %d", searcher.calls)
	}
	if searcher.lastFilters.Address != state.Profile.Address {
		t.Errorf("expected derived filters passed to searcher, got %+v", searcher.lastFilters)
	}
	if state.Stage != models.StageFormat {
		t.Errorf("expected stage format, got %q", state.Stage)
	}
	want := "Great! I found 1 camps that match Sam's profile. Let me format the results for you..."
	if state.FinalResponse != want {
		t.Errorf("expected %q, got %q", want, state.FinalResponse)
	}
}

func TestProfileFlow_SearchErrorKeepsStageForRetry(t *testing.T) {
	searcher := &mockSearcher{err: errors.New("database down")}
	f := NewProfileFlow(NewProfileCollector(nil), searcher)

	state := completedProfileState()
	state.Stage = models.StageSearch

	f.ProcessMessage(context.Background(), state, "ok")
	if state.Stage != models.StageSearch {
		t.Errorf("search failure must keep the stage for retry, got %q", state.Stage)
	}
	want := "I'm having trouble searching the database. Please try again."
	if state.FinalResponse != want {
		t.Errorf("expected %q, got %q", want, state.FinalResponse)
	}

	// Retry succeeds.
	searcher.err = nil
	searcher.result = models.SearchResult{Camps: []models.Camp{testCamp("Soccer Stars", "", nil, nil, "", "")}}
	f.ProcessMessage(context.Background(), state, "try again")
	if state.Stage != models.StageFormat {
		t.Errorf("expected stage format after retry, got %q", state.Stage)
	}
}

func TestProfileFlow_FormatStageRendersTable(t *testing.T) {
	f := NewProfileFlow(NewProfileCollector(nil), &mockSearcher{})

	state := completedProfileState()
	state.Stage = models.StageFormat
	state.LastSearchResults = []models.Camp{testCamp("Soccer Stars", "", nil, nil, "Austin", "TX")}

	f.ProcessMessage(context.Background(), state, "ok")
	if state.Stage != models.StageDone {
		t.Fatalf("expected stage done, got %q", state.Stage)
	}
	if !strings.Contains(state.FinalResponse, "| Camp Name | Organization |") {
		t.Errorf("expected result table, got %q", state.FinalResponse)
	}
}

func TestProfileFlow_DoneStageShortCircuits(t *testing.T) {
	searcher := &mockSearcher{}
	f := NewProfileFlow(NewProfileCollector(nil), searcher)

	state := completedProfileState()
	state.Stage = models.StageDone
	state.FinalResponse = "final table"
	historyLen := len(state.Messages)

	f.ProcessMessage(context.Background(), state, "thanks")
	if state.FinalResponse != "final table" {
		t.Errorf("terminal stage must repeat the last response, got %q", state.FinalResponse)
	}
	if len(state.Messages) != historyLen {
		t.Errorf("terminal stage must not record the turn, history grew to %d", len(state.Messages))
	}
	if searcher.calls != 0 {
		t.Errorf("terminal stage must not search, got %d calls", searcher.calls)
	}
}

func TestProfileFlow_EmptyStageDefaultsToCollection(t *testing.T) {
	f := NewProfileFlow(NewProfileCollector(nil), &mockSearcher{})

	state := newTestState()
	f.ProcessMessage(context.Background(), state, "Hi")
	if state.Stage != models.StageCollectProfile {
		t.Errorf("expected collection stage, got %q", state.Stage)
	}
	if state.Profile == nil || state.ProfileStep != models.StepName {
		t.Errorf("expected profile initialization, got step %q", state.ProfileStep)
	}
}

func TestProfileFlow_OneStagePerTurn(t *testing.T) {
	searcher := &mockSearcher{result: models.SearchResult{Camps: []models.Camp{
		testCamp("Soccer Stars", "", nil, nil, "Austin", "TX"),
	}}}
	f := NewProfileFlow(NewProfileCollector(nil), searcher)
	ctx := context.Background()

	state := completedProfileState()
	state.Stage = models.StageDeriveFilters

	f.ProcessMessage(ctx, state, "ok")
	if state.Stage != models.StageSearch || searcher.calls != 0 {
		t.Fatalf("derive turn ran past its stage: stage=%q calls=%d", state.Stage, searcher.calls)
	}
	f.ProcessMessage(ctx, state, "ok")
	if state.Stage != models.StageFormat || searcher.calls != 1 {
		t.Fatalf("search turn ran past its stage: stage=%q calls=%d", state.Stage, searcher.calls)
	}
	f.ProcessMessage(ctx, state, "ok")
	if state.Stage != models.StageDone {
		t.Fatalf("format turn did not finish: stage=%q", state.Stage)
	}
}
