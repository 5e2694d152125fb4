// Package api provides HTTP handlers for CampScout endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/campscout/campscout/internal/campdb"
	"github.com/campscout/campscout/internal/models"
	"github.com/google/uuid"
)

// chatHandler processes one conversational turn. Turns for the same session
// are serialized; a fresh session ID is minted when the request omits one.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		slog.Warn("Server.chatHandler: empty message")
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: message"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
		slog.Debug("Server.chatHandler: minted new session", "sessionID", sessionID)
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state := s.loadOrCreateState(sessionID)

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	s.chatFlow.ProcessMessage(ctx, state, req.Message)

	if err := s.st.SaveConversation(state); err != nil {
		slog.Error("Server.chatHandler: failed to persist conversation", "error", err, "sessionID", sessionID)
	}

	resp := models.ChatResponse{
		Response:  state.FinalResponse,
		SessionID: sessionID,
		Context: &models.ChatContext{
			Intent:             state.CurrentIntent,
			SearchCount:        len(state.LastSearchResults),
			FiltersUsed:        state.SearchFilters,
			ConversationLength: len(state.Messages),
			HasCachedResults:   state.HasCachedResults(),
			ProfileStep:        state.ProfileStep,
			Stage:              state.Stage,
		},
	}
	slog.Info("Server.chatHandler: turn complete", "sessionID", sessionID,
		"intent", state.CurrentIntent, "stage", state.Stage, "step", state.ProfileStep)
	writeJSONResponse(w, http.StatusOK, resp)
}

// loadOrCreateState fetches the session's conversation state. A state that no
// longer deserializes is discarded so the session restarts cleanly instead of
// failing every turn.
func (s *Server) loadOrCreateState(sessionID string) *models.ConversationState {
	state, err := s.st.GetConversation(sessionID)
	if err != nil {
		slog.Error("Server.loadOrCreateState: failed to load conversation, resetting session",
			"error", err, "sessionID", sessionID)
		if delErr := s.st.DeleteConversation(sessionID); delErr != nil {
			slog.Error("Server.loadOrCreateState: failed to delete corrupt conversation",
				"error", delErr, "sessionID", sessionID)
		}
		state = nil
	}
	if state == nil {
		state = models.NewConversationState(sessionID)
	}
	return state
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "healthy"}))
}

// categoriesHandler serves the distinct catalog categories. Without a catalog
// the list is empty rather than an error.
func (s *Server) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.categoriesHandler: processing categories request", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	categories := []string{}
	if s.catalog != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		fetched, err := s.catalog.GetUniqueCategories(ctx)
		if err != nil {
			slog.Error("Server.categoriesHandler: failed to fetch categories", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch categories"))
			return
		}
		if fetched != nil {
			categories = fetched
		}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(categories))
}

// locationsHandler serves the distinct city/state pairs hosting camp
// sessions. Without a catalog the list is empty rather than an error.
func (s *Server) locationsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.locationsHandler: processing locations request", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	locations := []campdb.CityState{}
	if s.catalog != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		fetched, err := s.catalog.GetUniqueLocations(ctx)
		if err != nil {
			slog.Error("Server.locationsHandler: failed to fetch locations", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch locations"))
			return
		}
		if fetched != nil {
			locations = fetched
		}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(locations))
}

// gradeRangeHandler serves the grade span covered by the catalog, defaulting
// to kindergarten through 12 without a catalog.
func (s *Server) gradeRangeHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.gradeRangeHandler: processing grade range request", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	gradeRange := models.GradeRange{Min: models.MinChildGrade, Max: models.MaxChildGrade}
	if s.catalog != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		fetched, err := s.catalog.GetGradeRange(ctx)
		if err != nil {
			slog.Error("Server.gradeRangeHandler: failed to fetch grade range", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch grade range"))
			return
		}
		gradeRange = fetched
	}
	writeJSONResponse(w, http.StatusOK, models.Success(gradeRange))
}
