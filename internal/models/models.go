// Package models defines the core data structures for CampScout.
//
// It includes chat API payloads and the standard API response envelope, which
// are shared across modules.
package models

// ChatRequest is the inbound payload of a chat turn.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatContext carries diagnostic context alongside a chat response.
type ChatContext struct {
	Intent             Intent         `json:"intent,omitempty"`
	SearchCount        int            `json:"search_count"`
	FiltersUsed        *SearchFilters `json:"filters_used,omitempty"`
	ConversationLength int            `json:"conversation_length"`
	HasCachedResults   bool           `json:"has_cached_results"`
	ProfileStep        ProfileStep    `json:"profile_step,omitempty"`
	Stage              Stage          `json:"stage,omitempty"`
}

// ChatResponse is the outbound payload of a chat turn.
type ChatResponse struct {
	Response  string       `json:"response"`
	SessionID string       `json:"session_id"`
	Context   *ChatContext `json:"context,omitempty"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
