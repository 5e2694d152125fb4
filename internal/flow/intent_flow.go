package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/campscout/campscout/internal/models"
)

// IntentFlow is the free-form conversation orchestrator: every turn runs
// classify, then optionally search or filter, then respond. No profile is
// required; the turn is driven entirely by the classified intent.
type IntentFlow struct {
	classifier *IntentClassifier
	responder  *Responder
	searcher   CampSearcher
}

// NewIntentFlow creates an intent-routed flow. searcher may be nil in tests;
// a nil searcher behaves like a search that returned nothing.
func NewIntentFlow(classifier *IntentClassifier, responder *Responder, searcher CampSearcher) *IntentFlow {
	return &IntentFlow{
		classifier: classifier,
		responder:  responder,
		searcher:   searcher,
	}
}

// ProcessMessage runs one classify-route-respond turn. Search replaces the
// cached result set wholesale; filter narrows the cache destructively so
// follow-up filters compose; general touches neither cache nor filters.
func (f *IntentFlow) ProcessMessage(ctx context.Context, state *models.ConversationState, message string) {
	slog.Debug("IntentFlow.ProcessMessage: processing turn", "sessionID", state.SessionID, "messageLength", len(message))

	state.AppendUserMessage(message)
	state.CurrentIntent = ""
	state.FinalResponse = ""

	intent, filters := f.classifier.Classify(ctx, message, len(state.LastSearchResults))
	state.CurrentIntent = intent
	state.SearchFilters = filters

	switch intent {
	case models.IntentSearch:
		f.runSearch(ctx, state)
	case models.IntentFilter:
		f.runFilter(state)
	default:
		// General conversation needs no camp data.
	}

	state.FinalResponse = f.responder.Respond(ctx, state)
	state.AppendAssistantMessage(state.FinalResponse)
	state.UpdatedAt = time.Now()

	slog.Info("IntentFlow.ProcessMessage: turn complete", "sessionID", state.SessionID,
		"intent", state.CurrentIntent, "cachedResults", len(state.LastSearchResults))
}

func (f *IntentFlow) runSearch(ctx context.Context, state *models.ConversationState) {
	var filters models.SearchFilters
	if state.SearchFilters != nil {
		filters = *state.SearchFilters
	}

	if f.searcher == nil {
		slog.Warn("IntentFlow.runSearch: no searcher configured", "sessionID", state.SessionID)
		state.LastSearchResults = nil
		return
	}

	result, err := f.searcher.SearchCamps(ctx, filters)
	if err != nil {
		slog.Error("IntentFlow.runSearch: search failed, treating as empty",
			"error", err, "sessionID", state.SessionID)
		state.LastSearchResults = nil
		return
	}

	state.LastSearchResults = result.Camps
	slog.Info("IntentFlow.runSearch: search complete", "sessionID", state.SessionID, "count", len(result.Camps))
}

func (f *IntentFlow) runFilter(state *models.ConversationState) {
	before := len(state.LastSearchResults)
	state.LastSearchResults = FilterCachedResults(state.LastSearchResults, state.SearchFilters)
	slog.Info("IntentFlow.runFilter: cache narrowed", "sessionID", state.SessionID,
		"before", before, "after", len(state.LastSearchResults))
}
