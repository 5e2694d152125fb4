package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campscout/campscout/internal/models"
)

// ProfileFlow is the guided pipeline orchestrator: collect a complete family
// profile, derive search filters from it, search once, format a result table,
// then stop. The pipeline position is an explicit stage marker on the state;
// each turn runs exactly one stage so every transition produces a visible
// response.
type ProfileFlow struct {
	collector *ProfileCollector
	searcher  CampSearcher
}

// NewProfileFlow creates a profile-driven flow.
func NewProfileFlow(collector *ProfileCollector, searcher CampSearcher) *ProfileFlow {
	return &ProfileFlow{
		collector: collector,
		searcher:  searcher,
	}
}

// ProcessMessage runs the stage the conversation is currently in. The done
// stage is terminal: it repeats the last response without recording the turn.
func (f *ProfileFlow) ProcessMessage(ctx context.Context, state *models.ConversationState, message string) {
	if state.Stage == "" {
		state.Stage = models.StageCollectProfile
	}

	slog.Debug("ProfileFlow.ProcessMessage: processing turn",
		"sessionID", state.SessionID, "stage", state.Stage, "messageLength", len(message))

	if state.Stage == models.StageDone {
		slog.Debug("ProfileFlow.ProcessMessage: pipeline already complete", "sessionID", state.SessionID)
		return
	}

	state.AppendUserMessage(message)

	switch state.Stage {
	case models.StageCollectProfile:
		f.runCollect(ctx, state, message)
	case models.StageDeriveFilters:
		f.runDeriveFilters(state)
	case models.StageSearch:
		f.runSearch(ctx, state)
	case models.StageFormat:
		f.runFormat(state)
	default:
		slog.Error("ProfileFlow.ProcessMessage: unknown stage, restarting collection",
			"sessionID", state.SessionID, "stage", state.Stage)
		state.Stage = models.StageCollectProfile
		state.FinalResponse = restartMessage
	}

	if state.FinalResponse != "" {
		state.AppendAssistantMessage(state.FinalResponse)
	}
	state.UpdatedAt = time.Now()

	slog.Info("ProfileFlow.ProcessMessage: turn complete",
		"sessionID", state.SessionID, "stage", state.Stage)
}

func (f *ProfileFlow) runCollect(ctx context.Context, state *models.ConversationState, message string) {
	f.collector.Advance(ctx, state, message)
	if state.IsProfileComplete() {
		state.Stage = models.StageDeriveFilters
		slog.Info("ProfileFlow.runCollect: profile complete, advancing to filter derivation",
			"sessionID", state.SessionID)
	}
}

// runDeriveFilters translates the collected profile into search filters. The
// grade filter is pinned to the child's exact grade; range widening is the
// database's job.
func (f *ProfileFlow) runDeriveFilters(state *models.ConversationState) {
	profile := state.Profile
	if profile == nil {
		slog.Error("ProfileFlow.runDeriveFilters: profile missing, restarting collection",
			"sessionID", state.SessionID)
		state.Stage = models.StageCollectProfile
		state.FinalResponse = "No profile found. Let's start by collecting your information. What's your name?"
		return
	}

	grade := profile.ChildGrade
	distance := profile.MaxDistanceMiles
	state.SearchFilters = &models.SearchFilters{
		MinGrade:                &grade,
		MaxGrade:                &grade,
		Address:                 profile.Address,
		MaxDrivingDistanceMiles: &distance,
	}
	state.Stage = models.StageSearch
	state.FinalResponse = fmt.Sprintf("Perfect! I'm preparing a search for camps that match %s's profile. "+
		"Searching for camps within %g miles of %s...", profile.ChildName, distance, profile.Address)

	slog.Info("ProfileFlow.runDeriveFilters: filters derived", "sessionID", state.SessionID,
		"grade", grade, "maxDistanceMiles", distance)
}

func (f *ProfileFlow) runSearch(ctx context.Context, state *models.ConversationState) {
	var filters models.SearchFilters
	if state.SearchFilters != nil {
		filters = *state.SearchFilters
	}

	childName := ""
	if state.Profile != nil {
		childName = state.Profile.ChildName
	}

	if f.searcher == nil {
		slog.Warn("ProfileFlow.runSearch: no searcher configured", "sessionID", state.SessionID)
		state.LastSearchResults = nil
		state.Stage = models.StageFormat
		state.FinalResponse = fmt.Sprintf("I couldn't find any camps matching %s's profile right now. Let me show you what I have...", childName)
		return
	}

	result, err := f.searcher.SearchCamps(ctx, filters)
	if err != nil {
		// Stage is kept so the next message retries the search.
		slog.Error("ProfileFlow.runSearch: search failed", "error", err, "sessionID", state.SessionID)
		state.FinalResponse = "I'm having trouble searching the database. Please try again."
		return
	}

	state.LastSearchResults = result.Camps
	state.Stage = models.StageFormat
	if len(result.Camps) > 0 {
		state.FinalResponse = fmt.Sprintf("Great! I found %d camps that match %s's profile. Let me format the results for you...",
			len(result.Camps), childName)
	} else {
		state.FinalResponse = fmt.Sprintf("I couldn't find any camps matching %s's profile right now. Let me show you what I have...", childName)
	}

	slog.Info("ProfileFlow.runSearch: search complete", "sessionID", state.SessionID, "count", len(result.Camps))
}

func (f *ProfileFlow) runFormat(state *models.ConversationState) {
	state.FinalResponse = FormatTable(state)
	state.Stage = models.StageDone
	slog.Info("ProfileFlow.runFormat: pipeline complete", "sessionID", state.SessionID,
		"results", len(state.LastSearchResults))
}
