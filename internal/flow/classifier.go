package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/campscout/campscout/internal/genai"
	"github.com/campscout/campscout/internal/models"
)

// IntentClassifier decides, for each turn, whether a new database query, a
// filter over cached results, or a plain conversational reply is required.
// It never calls the database itself; it only routes and extracts criteria.
type IntentClassifier struct {
	genaiClient genai.ClientInterface
}

// NewIntentClassifier creates a new intent classifier.
func NewIntentClassifier(genaiClient genai.ClientInterface) *IntentClassifier {
	return &IntentClassifier{genaiClient: genaiClient}
}

// intentPayload is the strict JSON shape expected back from the LLM.
type intentPayload struct {
	Intent         string `json:"intent"`
	SearchCriteria struct {
		Activity string `json:"activity"`
		Location string `json:"location"`
		Age      any    `json:"age"`
		Budget   any    `json:"budget"`
	} `json:"search_criteria"`
}

// Classify routes a message to one of the three intents and extracts coarse
// search criteria. Any failure (LLM unavailable, malformed output) defaults
// to the general intent with no criteria; a filter intent without cached
// results is downgraded to search, since filtering nothing is meaningless.
func (ic *IntentClassifier) Classify(ctx context.Context, lastMessage string, cachedCount int) (models.Intent, *models.SearchFilters) {
	slog.Debug("IntentClassifier.Classify: classifying message", "messageLength", len(lastMessage), "cachedCount", cachedCount)

	raw, err := ic.genaiClient.GeneratePrompt(ctx, ic.systemPrompt(cachedCount),
		fmt.Sprintf("User message: %s", lastMessage))
	if err != nil {
		slog.Error("IntentClassifier.Classify: LLM call failed, defaulting to general", "error", err)
		return models.IntentGeneral, nil
	}

	payload, err := parseIntentPayload(raw)
	if err != nil {
		slog.Warn("IntentClassifier.Classify: JSON parsing failed, defaulting to general", "error", err)
		return models.IntentGeneral, nil
	}

	intent := models.Intent(payload.Intent)
	if !models.IsValidIntent(intent) {
		intent = models.IntentGeneral
	}

	if intent == models.IntentFilter && cachedCount == 0 {
		slog.Info("IntentClassifier.Classify: converted filter to search, no cached results")
		intent = models.IntentSearch
	}

	if intent == models.IntentGeneral {
		slog.Debug("IntentClassifier.Classify: classified as general")
		return intent, nil
	}

	filters := criteriaToFilters(payload)
	slog.Info("IntentClassifier.Classify: classified", "intent", intent,
		"category", filters.Category, "city", filters.City, "state", filters.State, "location", filters.Location)
	return intent, filters
}

// parseIntentPayload strips optional markdown code fences and decodes the
// classifier response.
func parseIntentPayload(raw string) (*intentPayload, error) {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var payload intentPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse intent response: %w", err)
	}
	return &payload, nil
}

// criteriaToFilters maps extracted criteria into a filter set. The budget
// field is extracted by the prompt but deliberately unconsumed, and the
// age-to-grade conversion is a loose heuristic, not exact school-grade
// arithmetic.
func criteriaToFilters(payload *intentPayload) *models.SearchFilters {
	filters := &models.SearchFilters{}

	if payload.SearchCriteria.Activity != "" {
		filters.Category = payload.SearchCriteria.Activity
	}

	if location := payload.SearchCriteria.Location; location != "" {
		if strings.Contains(location, ",") {
			parts := strings.SplitN(location, ",", 2)
			filters.City = strings.TrimSpace(parts[0])
			if len(parts) > 1 {
				filters.State = strings.TrimSpace(parts[1])
			}
		} else {
			filters.Location = strings.TrimSpace(location)
		}
	}

	if age, ok := criteriaAge(payload.SearchCriteria.Age); ok {
		grade := max(0, age-5)
		maxGrade := grade + 2
		filters.MinGrade = &grade
		filters.MaxGrade = &maxGrade
	}

	return filters
}

// criteriaAge tolerates the age arriving as either a JSON string or number.
// Unparseable values are ignored silently.
func criteriaAge(v any) (int, bool) {
	switch age := v.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(age))
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		return int(age), true
	default:
		return 0, false
	}
}

func (ic *IntentClassifier) systemPrompt(cachedCount int) string {
	hasCached := cachedCount > 0
	return fmt.Sprintf(`You are an intent classifier for a summer camp search system.

The user currently has %d cached search results from previous queries.

Analyze the user's message and classify into one of these intents:

1. **"search"** - Get NEW camps from database (requires database query)
   - Finding camps with new/different criteria
   - Asking for camp count without existing results
   - Completely new search requests

2. **"filter"** - Filter/analyze EXISTING cached results (no database needed)
   - Questions about already-found camps
   - Filtering cached results by criteria
   - Asking about specific camps from previous search
   - Only use if user has cached results (%t)

3. **"general"** - General conversation (no camp data needed)
   - Greetings, how-to questions, general chat

Return JSON format:
{
    "intent": "search|filter|general",
    "search_criteria": {
        "activity": "activity type from user request",
        "location": "city, state, or general area",
        "age": "age mentioned",
        "budget": "price range if mentioned"
    }
}

Examples:
- "how many camps do you have" -> {"intent": "search", "search_criteria": {}}
- "find soccer camps" -> {"intent": "search", "search_criteria": {"activity": "soccer"}}
- "are there camps related to minecraft" (with cached results) -> {"intent": "filter", "search_criteria": {"activity": "minecraft"}}
- "show me the first 3" (with cached results) -> {"intent": "filter", "search_criteria": {}}
- "what about art camps instead" -> {"intent": "search", "search_criteria": {"activity": "art"}}
- "hello" -> {"intent": "general"}`, cachedCount, hasCached)
}
