// Package flow implements the conversation state machine for CampScout: the
// profile collector, the intent classifier, the cached-result filter engine
// and the two workflow orchestrators that sequence them.
package flow

import (
	"context"

	"github.com/campscout/campscout/internal/models"
)

// FallbackResponse is the reply used whenever a turn cannot produce anything
// better. Errors never terminate a conversation; they degrade to this.
const FallbackResponse = "I'm here to help you find great summer camps! What are you looking for?"

// Flow processes one inbound message against a conversation state. A turn
// always mutates the state in place and always leaves a usable state behind:
// recoverable failures surface as response text, never as panics or lost
// history. Callers must serialize calls per session.
type Flow interface {
	ProcessMessage(ctx context.Context, state *models.ConversationState, message string)
}

// CampSearcher executes a camp database search. Implementations must return
// an empty result rather than failing past the boundary whenever possible;
// the orchestrators treat any error as an empty result anyway.
type CampSearcher interface {
	SearchCamps(ctx context.Context, filters models.SearchFilters) (models.SearchResult, error)
}

// CategorySource provides the distinct camp category names used to build the
// interests-step menu. An empty list is a valid degenerate response.
type CategorySource interface {
	GetUniqueCategories(ctx context.Context) ([]string, error)
}
