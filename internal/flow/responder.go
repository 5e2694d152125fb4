package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/campscout/campscout/internal/genai"
	"github.com/campscout/campscout/internal/models"
	"github.com/openai/openai-go"
)

// Limits on how much result detail gets rendered per response.
const (
	maxNarrativeCamps   = 5
	maxTableRows        = 10
	narrativeDescLimit  = 150
	tableDescriptionCap = 50
)

// Responder renders the final response text for a turn: an LLM-generated
// narrative for the intent-routed flow, or a markdown table for the
// profile-driven pipeline.
type Responder struct {
	genaiClient genai.ClientInterface
}

// NewResponder creates a new responder.
func NewResponder(genaiClient genai.ClientInterface) *Responder {
	return &Responder{genaiClient: genaiClient}
}

// Respond generates the narrative reply for the current turn based on the
// classified intent and the (possibly narrowed) cached results. LLM failure
// degrades to the static fallback line.
func (r *Responder) Respond(ctx context.Context, state *models.ConversationState) string {
	lastMessage := state.LastUserMessage()
	resultCount := len(state.LastSearchResults)
	slog.Debug("Responder.Respond: generating response", "sessionID", state.SessionID,
		"intent", state.CurrentIntent, "resultCount", resultCount)

	var prompt string
	switch state.CurrentIntent {
	case models.IntentSearch, models.IntentFilter:
		if resultCount > 0 {
			prompt = r.resultsPrompt(state, lastMessage)
		} else {
			prompt = r.emptyResultsPrompt(state, lastMessage)
		}
	default:
		prompt = fmt.Sprintf("The user said: '%s'\n\nYou are a helpful summer camp assistant. Respond naturally and helpfully. "+
			"You can mention that users can search for camps by activity, location, or age group.", lastMessage)
	}

	response, err := r.genaiClient.GenerateWithMessages(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(prompt),
	})
	if err != nil {
		slog.Error("Responder.Respond: LLM call failed, using fallback", "error", err, "sessionID", state.SessionID)
		return FallbackResponse
	}
	return response
}

func (r *Responder) resultsPrompt(state *models.ConversationState, lastMessage string) string {
	actionText := "searched our database"
	if state.CurrentIntent == models.IntentFilter {
		actionText = "filtered your previous search results"
	}

	lower := strings.ToLower(lastMessage)
	if strings.Contains(lower, "how many") || strings.Contains(lower, "count") {
		return fmt.Sprintf("The user asked: '%s'\n\nI %s and found %d camps matching the criteria.\n\n"+
			"Generate a helpful response about the total count and offer to show some examples or help them search for specific types.",
			lastMessage, actionText, len(state.LastSearchResults))
	}

	var summaries []string
	for i, camp := range state.LastSearchResults {
		if i >= maxNarrativeCamps {
			break
		}
		summaries = append(summaries, campSummary(camp))
	}
	return fmt.Sprintf("The user asked: '%s'\n\nI %s and found %d camps. Here are the top results:\n\n%s\n\n"+
		"Generate an enthusiastic, helpful response about these camps. Be conversational and highlight key details.",
		lastMessage, actionText, len(state.LastSearchResults), strings.Join(summaries, "\n\n"))
}

func (r *Responder) emptyResultsPrompt(state *models.ConversationState, lastMessage string) string {
	actionText := "searched our database"
	if state.CurrentIntent == models.IntentFilter {
		actionText = "filtered your previous results"
	}

	var filterParts []string
	if f := state.SearchFilters; f != nil {
		if f.Category != "" {
			filterParts = append(filterParts, fmt.Sprintf("category: %s", f.Category))
		}
		if f.City != "" {
			filterParts = append(filterParts, fmt.Sprintf("city: %s", f.City))
		}
		if f.State != "" {
			filterParts = append(filterParts, fmt.Sprintf("state: %s", f.State))
		}
		if f.Location != "" {
			filterParts = append(filterParts, fmt.Sprintf("location: %s", f.Location))
		}
		if f.MinGrade != nil {
			filterParts = append(filterParts, fmt.Sprintf("min_grade: %d", *f.MinGrade))
		}
		if f.MaxGrade != nil {
			filterParts = append(filterParts, fmt.Sprintf("max_grade: %d", *f.MaxGrade))
		}
	}

	return fmt.Sprintf("The user asked: '%s'\nFilters applied: %s\n\nI %s but couldn't find any camps matching these criteria. "+
		"Generate a helpful response suggesting they try different search terms or ask about available camp types. Be encouraging and helpful.",
		lastMessage, strings.Join(filterParts, ", "), actionText)
}

// campSummary renders one camp for inclusion in an LLM prompt.
func campSummary(camp models.Camp) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", camp.CampName)
	if camp.Organization != nil && camp.Organization.Name != "" {
		fmt.Fprintf(&b, " by %s", camp.Organization.Name)
	}
	b.WriteString("\n")
	if camp.Price != nil {
		fmt.Fprintf(&b, "Price: $%g/week\n", *camp.Price)
	}
	if camp.MinGrade != nil && camp.MaxGrade != nil {
		fmt.Fprintf(&b, "Grades: %d-%d\n", *camp.MinGrade, *camp.MaxGrade)
	}
	if loc := firstSessionLocation(camp); loc != nil && (loc.City != "" || loc.State != "") {
		fmt.Fprintf(&b, "Location: %s, %s\n", loc.City, loc.State)
	}
	if camp.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", truncate(camp.Description, narrativeDescLimit))
	}
	return b.String()
}

// FormatTable renders the profile pipeline's final result table.
func FormatTable(state *models.ConversationState) string {
	results := state.LastSearchResults
	childName := ""
	if state.Profile != nil {
		childName = state.Profile.ChildName
	}

	if len(results) == 0 {
		return fmt.Sprintf("I couldn't find any camps matching %s's profile. Would you like to try different search criteria?", childName)
	}

	var table strings.Builder
	table.WriteString("| Camp Name | Organization | Location | Grades | Price | Distance | Description |\n")
	table.WriteString("|-----------|--------------|----------|--------|-------|----------|-------------|\n")

	for i, camp := range results {
		if i >= maxTableRows {
			break
		}
		orgName := "Unknown"
		if camp.Organization != nil && camp.Organization.Name != "" {
			orgName = camp.Organization.Name
		}

		location := "Unknown"
		if loc := firstSessionLocation(camp); loc != nil && (loc.City != "" || loc.State != "") {
			location = strings.Trim(fmt.Sprintf("%s, %s", loc.City, loc.State), ", ")
		}

		grades := "Unknown"
		if camp.MinGrade != nil && camp.MaxGrade != nil {
			grades = fmt.Sprintf("%d-%d", *camp.MinGrade, *camp.MaxGrade)
		}

		price := "Unknown"
		if camp.Price != nil {
			price = fmt.Sprintf("$%g/week", *camp.Price)
		}

		distance := "Unknown"
		if camp.DistanceMiles != nil {
			distance = fmt.Sprintf("%.1f miles", *camp.DistanceMiles)
		}

		description := truncate(camp.Description, tableDescriptionCap)

		fmt.Fprintf(&table, "| %s | %s | %s | %s | %s | %s | %s |\n",
			camp.CampName, orgName, location, grades, price, distance, description)
	}

	return fmt.Sprintf("I found %d camps that match %s's profile!\n\nHere are the top results:\n\n%s\nWould you like me to:\n"+
		"1. Show more details about any specific camp?\n"+
		"2. Filter the results further?\n"+
		"3. Search with different criteria?", len(results), childName, table.String())
}

func firstSessionLocation(camp models.Camp) *models.Location {
	if len(camp.Sessions) == 0 {
		return nil
	}
	return camp.Sessions[0].Location
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
