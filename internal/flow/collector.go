package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/campscout/campscout/internal/models"
)

const (
	welcomeMessage = "Welcome! I'm your personal camp search assistant. I'll help you find the perfect summer camp for your child.\n\n" +
		"Let's start by getting to know you and your child better. What's your name?"
	restartMessage = "I'm having trouble collecting your profile information. Let's start over."
)

// ProfileCollector is a step-indexed state machine that asks one profile
// question per turn, validates the answer and advances the cursor. It never
// asks a completed field twice and suppresses duplicate processing of a
// repeated message at the same step.
type ProfileCollector struct {
	categories CategorySource
}

// NewProfileCollector creates a new profile collector. categories may be nil;
// the interests step then falls back to a free-text prompt.
func NewProfileCollector(categories CategorySource) *ProfileCollector {
	return &ProfileCollector{categories: categories}
}

// Advance processes one user message against the collection cursor. The
// state is mutated in place; validation failures re-prompt without advancing
// and structural problems degrade to a restart message. History is never
// discarded.
func (pc *ProfileCollector) Advance(ctx context.Context, state *models.ConversationState, message string) {
	slog.Debug("ProfileCollector.Advance: processing message",
		"sessionID", state.SessionID, "step", state.ProfileStep, "messageLength", len(message))

	// Lazy profile creation. The message that triggered session creation is
	// the trigger, not the first answer.
	if state.Profile == nil && state.ProfileStep == "" {
		state.Profile = models.NewProfile()
		state.ProfileStep = models.StepName
		state.FinalResponse = welcomeMessage
		slog.Info("ProfileCollector.Advance: initialized new profile", "sessionID", state.SessionID)
		return
	}

	// A cursor without a profile means the state lost its profile mid-flow.
	// Restart collection but keep the conversation history.
	if state.Profile == nil {
		slog.Error("ProfileCollector.Advance: cursor set but profile missing, restarting",
			"sessionID", state.SessionID, "step", state.ProfileStep)
		state.ProfileStep = ""
		state.InterestsPrompted = false
		state.FinalResponse = restartMessage
		return
	}

	if state.ProfileStep == models.StepComplete {
		slog.Debug("ProfileCollector.Advance: profile already complete", "sessionID", state.SessionID)
		return
	}

	// Replay protection: the same message at the same step is processed once.
	key := models.DedupKey(state.ProfileStep, message)
	if state.LastProcessedKey == key {
		slog.Debug("ProfileCollector.Advance: duplicate message suppressed",
			"sessionID", state.SessionID, "step", state.ProfileStep)
		return
	}
	state.LastProcessedKey = key

	switch state.ProfileStep {
	case models.StepName:
		pc.handleName(state, message)
	case models.StepChildName:
		pc.handleChildName(state, message)
	case models.StepChildAge:
		pc.handleChildAge(state, message)
	case models.StepChildGrade:
		pc.handleChildGrade(ctx, state, message)
	case models.StepInterests:
		pc.handleInterests(ctx, state, message)
	case models.StepAddress:
		pc.handleAddress(state, message)
	case models.StepDistance:
		pc.handleDistance(state, message)
	default:
		slog.Error("ProfileCollector.Advance: unknown step, restarting",
			"sessionID", state.SessionID, "step", state.ProfileStep)
		state.Profile = nil
		state.ProfileStep = ""
		state.InterestsPrompted = false
		state.FinalResponse = restartMessage
	}

	slog.Debug("ProfileCollector.Advance: step handled",
		"sessionID", state.SessionID, "step", state.ProfileStep)
}

func (pc *ProfileCollector) handleName(state *models.ConversationState, message string) {
	name := strings.TrimSpace(message)
	if name == "" {
		state.FinalResponse = "What's your name?"
		return
	}
	state.Profile.Name = name
	state.ProfileStep = models.StepChildName
	state.FinalResponse = fmt.Sprintf("Nice to meet you, %s! What's your child's name?", name)
}

func (pc *ProfileCollector) handleChildName(state *models.ConversationState, message string) {
	childName := strings.TrimSpace(message)
	if childName == "" {
		state.FinalResponse = "What's your child's name?"
		return
	}
	state.Profile.ChildName = childName
	state.ProfileStep = models.StepChildAge
	state.FinalResponse = fmt.Sprintf("How old is %s? (Please enter a number between 4 and 18)", childName)
}

func (pc *ProfileCollector) handleChildAge(state *models.ConversationState, message string) {
	age, err := strconv.Atoi(strings.TrimSpace(message))
	if err != nil {
		state.FinalResponse = "Please enter a valid number for the age."
		return
	}
	if !models.IsValidAge(age) {
		state.FinalResponse = "Please enter a valid age between 4 and 18."
		return
	}
	state.Profile.ChildAge = age
	state.ProfileStep = models.StepChildGrade
	state.FinalResponse = fmt.Sprintf("What grade is %s in? (Please enter a number between 0 and 12)", state.Profile.ChildName)
}

func (pc *ProfileCollector) handleChildGrade(ctx context.Context, state *models.ConversationState, message string) {
	grade, err := strconv.Atoi(strings.TrimSpace(message))
	if err != nil {
		state.FinalResponse = "Please enter a valid number for the grade."
		return
	}
	if !models.IsValidGrade(grade) {
		state.FinalResponse = "Please enter a valid grade between 0 and 12."
		return
	}
	state.Profile.ChildGrade = grade
	state.ProfileStep = models.StepInterests
	// Show the category menu immediately so the next message can be consumed
	// as the interests answer.
	state.FinalResponse = pc.interestsPrompt(ctx, state)
	state.InterestsPrompted = true
}

// handleInterests implements the two-phase interests interaction: the menu
// phase is tracked by an explicit flag, never inferred from message content.
func (pc *ProfileCollector) handleInterests(ctx context.Context, state *models.ConversationState, message string) {
	if !state.InterestsPrompted {
		// Cold entry (e.g. resumed session): show the menu first, do not
		// consume this message as an answer.
		state.FinalResponse = pc.interestsPrompt(ctx, state)
		state.InterestsPrompted = true
		return
	}

	if strings.TrimSpace(message) == "" {
		// Still waiting for a selection; stay silent.
		state.FinalResponse = ""
		return
	}

	interests := pc.parseInterests(ctx, message)
	state.Profile.Interests = interests
	state.ProfileStep = models.StepAddress
	state.InterestsPrompted = false
	state.FinalResponse = "Where are you located? Please enter your home address."
	slog.Debug("ProfileCollector.handleInterests: interests recorded",
		"sessionID", state.SessionID, "count", len(interests))
}

func (pc *ProfileCollector) handleAddress(state *models.ConversationState, message string) {
	address := strings.TrimSpace(message)
	if address == "" {
		state.FinalResponse = "Where are you located? Please enter your home address."
		return
	}
	state.Profile.Address = address
	state.ProfileStep = models.StepDistance
	state.FinalResponse = "What's the maximum driving distance you're willing to travel for camps? (Enter a number in miles)"
}

func (pc *ProfileCollector) handleDistance(state *models.ConversationState, message string) {
	distance, err := strconv.ParseFloat(strings.TrimSpace(message), 64)
	if err != nil {
		state.FinalResponse = "Please enter a valid number for the distance."
		return
	}
	if distance <= 0 {
		state.FinalResponse = "Please enter a valid distance greater than 0."
		return
	}
	state.Profile.MaxDistanceMiles = distance
	state.ProfileStep = models.StepComplete
	state.FinalResponse = state.Profile.Summary()
	slog.Info("ProfileCollector.handleDistance: profile collection complete",
		"sessionID", state.SessionID, "child", state.Profile.ChildName)
}

// interestsPrompt builds the numbered category menu, falling back to a
// free-text prompt when no categories are available.
func (pc *ProfileCollector) interestsPrompt(ctx context.Context, state *models.ConversationState) string {
	childName := state.Profile.ChildName
	fallback := fmt.Sprintf("What are %s's interests? (Enter interests separated by commas, e.g., soccer, basketball, art)", childName)

	categories := pc.fetchCategories(ctx)
	if len(categories) == 0 {
		return fallback
	}

	var list strings.Builder
	for i, cat := range categories {
		fmt.Fprintf(&list, "%d. %s\n", i+1, cat)
	}
	return fmt.Sprintf("What are %s's interests?\n\nHere are some popular camp categories to choose from:\n%s\nYou can:\n"+
		"• Select numbers from the list above (e.g., '1, 3, 5')\n"+
		"• Type your own interests separated by commas (e.g., 'soccer, art, science')\n"+
		"• Or combine both (e.g., '1, 3, robotics, swimming')\n\nWhat interests %s?", childName, list.String(), childName)
}

// parseInterests splits a comma-separated answer, mapping pure-integer tokens
// to the Nth menu category (1-indexed) and keeping everything else verbatim.
func (pc *ProfileCollector) parseInterests(ctx context.Context, message string) []string {
	var tokens []string
	for _, part := range strings.Split(message, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}

	categories := pc.fetchCategories(ctx)
	if len(categories) == 0 {
		return tokens
	}

	interests := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if n, err := strconv.Atoi(token); err == nil && n >= 1 && n <= len(categories) {
			interests = append(interests, categories[n-1])
		} else {
			interests = append(interests, token)
		}
	}
	return interests
}

func (pc *ProfileCollector) fetchCategories(ctx context.Context) []string {
	if pc.categories == nil {
		return nil
	}
	categories, err := pc.categories.GetUniqueCategories(ctx)
	if err != nil {
		slog.Error("ProfileCollector.fetchCategories: failed to fetch categories", "error", err)
		return nil
	}
	return categories
}
