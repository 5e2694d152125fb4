// Package models defines conversation state structures for CampScout flows.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConversationMessage represents a single message in the conversation history.
type ConversationMessage struct {
	Role      string    `json:"role"`    // "user" or "assistant"
	Content   string    `json:"content"` // message content
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState owns everything the flows know about one session: the
// append-only message history, the profile under collection, the routing
// decision of the latest turn, the active filter set, the cached result set
// and the last rendered response.
//
// LastProcessedKey records the (cursor, message) pair most recently consumed
// by the profile collector, guarding against at-least-once redelivery of the
// same user input.
type ConversationState struct {
	SessionID         string                `json:"session_id"`
	Messages          []ConversationMessage `json:"messages"`
	Profile           *Profile              `json:"profile,omitempty"`
	ProfileStep       ProfileStep           `json:"profile_step,omitempty"`
	InterestsPrompted bool                  `json:"interests_prompted,omitempty"`
	Stage             Stage                 `json:"stage,omitempty"`
	CurrentIntent     Intent                `json:"current_intent,omitempty"`
	SearchFilters     *SearchFilters        `json:"search_filters,omitempty"`
	LastSearchResults []Camp                `json:"last_search_results,omitempty"`
	FinalResponse     string                `json:"final_response,omitempty"`
	LastProcessedKey  string                `json:"last_processed_key,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// NewConversationState creates the initial state for a session.
func NewConversationState(sessionID string) *ConversationState {
	now := time.Now()
	return &ConversationState{
		SessionID: sessionID,
		Messages:  []ConversationMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendUserMessage records an inbound message in the history.
func (s *ConversationState) AppendUserMessage(content string) {
	s.Messages = append(s.Messages, ConversationMessage{
		Role:      "user",
		Content:   content,
		Timestamp: time.Now(),
	})
}

// AppendAssistantMessage records an outbound response in the history.
func (s *ConversationState) AppendAssistantMessage(content string) {
	s.Messages = append(s.Messages, ConversationMessage{
		Role:      "assistant",
		Content:   content,
		Timestamp: time.Now(),
	})
}

// LastUserMessage returns the most recent user message content, or "" when
// the history holds none.
func (s *ConversationState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == "user" {
			return s.Messages[i].Content
		}
	}
	return ""
}

// DedupKey builds the replay-protection token for a (cursor, message) pair.
func DedupKey(step ProfileStep, message string) string {
	return fmt.Sprintf("%s:%s", step, message)
}

// HasCachedResults reports whether a previous search left results to filter.
func (s *ConversationState) HasCachedResults() bool {
	return len(s.LastSearchResults) > 0
}

// IsProfileComplete reports whether the profile collection finished. The
// cursor is the authoritative signal: all fields filled with the cursor still
// mid-flow is NOT complete, because a field can be legitimately re-entered.
func (s *ConversationState) IsProfileComplete() bool {
	if s.Profile == nil {
		return false
	}
	return s.ProfileStep == StepComplete && s.Profile.FieldsValid()
}

// ToJSON serializes the state for storage.
func (s *ConversationState) ToJSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversation state: %w", err)
	}
	return string(data), nil
}

// ConversationStateFromJSON deserializes a stored state. A failure here is
// the one condition treated as unrecoverable for the session (state reset).
func ConversationStateFromJSON(data string) (*ConversationState, error) {
	var s ConversationState
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation state: %w", err)
	}
	return &s, nil
}
