package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campscout/campscout/internal/models"
)

func TestIntentClassifier_FencedJSON(t *testing.T) {
	genai := &mockGenAI{response: "```json\n{\"intent\": \"search\", \"search_criteria\": {\"activity\": \"soccer\"}}\n```"}
	ic := NewIntentClassifier(genai)

	intent, filters := ic.Classify(context.Background(), "find soccer camps", 0)
	if intent != models.IntentSearch {
		t.Fatalf("expected search intent, got %q", intent)
	}
	if filters == nil || filters.Category != "soccer" {
		t.Errorf("expected category soccer, got %+v", filters)
	}
}

func TestIntentClassifier_PromptCarriesCacheState(t *testing.T) {
	genai := &mockGenAI{response: `{"intent": "general"}`}
	ic := NewIntentClassifier(genai)

	ic.Classify(context.Background(), "hello", 7)
	if !strings.Contains(genai.lastSystemPrompt, "has 7 cached search results") {
		t.Errorf("expected system prompt to carry the cached count, got %q", genai.lastSystemPrompt)
	}
	if genai.lastUserPrompt != "User message: hello" {
		t.Errorf("expected wrapped user message, got %q", genai.lastUserPrompt)
	}
}

func TestIntentClassifier_BareJSON(t *testing.T) {
	genai := &mockGenAI{response: `{"intent": "general"}`}
	ic := NewIntentClassifier(genai)

	intent, filters := ic.Classify(context.Background(), "hello", 0)
	if intent != models.IntentGeneral {
		t.Fatalf("expected general intent, got %q", intent)
	}
	if filters != nil {
		t.Errorf("general intent must carry no filters, got %+v", filters)
	}
}

func TestIntentClassifier_MalformedOutputDefaultsToGeneral(t *testing.T) {
	genai := &mockGenAI{response: "I think the user wants to search for camps."}
	ic := NewIntentClassifier(genai)

	intent, filters := ic.Classify(context.Background(), "find camps", 5)
	if intent != models.IntentGeneral {
		t.Errorf("expected general on parse failure, got %q", intent)
	}
	if filters != nil {
		t.Errorf("expected nil filters on parse failure, got %+v", filters)
	}
}

func TestIntentClassifier_LLMErrorDefaultsToGeneral(t *testing.T) {
	genai := &mockGenAI{err: errors.New("service unavailable")}
	ic := NewIntentClassifier(genai)

	intent, filters := ic.Classify(context.Background(), "find camps", 5)
	if intent != models.IntentGeneral {
		t.Errorf("expected general on LLM failure, got %q", intent)
	}
	if filters != nil {
		t.Errorf("expected nil filters on LLM failure, got %+v", filters)
	}
}

func TestIntentClassifier_UnknownIntentDefaultsToGeneral(t *testing.T) {
	genai := &mockGenAI{response: `{"intent": "browse"}`}
	ic := NewIntentClassifier(genai)

	intent, _ := ic.Classify(context.Background(), "browse camps", 0)
	if intent != models.IntentGeneral {
		t.Errorf("expected general for unknown intent value, got %q", intent)
	}
}

func TestIntentClassifier_FilterWithoutCacheBecomesSearch(t *testing.T) {
	genai := &mockGenAI{response: `{"intent": "filter", "search_criteria": {"activity": "art"}}`}
	ic := NewIntentClassifier(genai)

	intent, filters := ic.Classify(context.Background(), "what about art camps", 0)
	if intent != models.IntentSearch {
		t.Fatalf("filter with empty cache must downgrade to search, got %q", intent)
	}
	if filters == nil || filters.Category != "art" {
		t.Errorf("expected category art, got %+v", filters)
	}
}

func TestIntentClassifier_FilterWithCacheStaysFilter(t *testing.T) {
	genai := &mockGenAI{response: `{"intent": "filter", "search_criteria": {"activity": "art"}}`}
	ic := NewIntentClassifier(genai)

	intent, _ := ic.Classify(context.Background(), "which of these are art camps", 12)
	if intent != models.IntentFilter {
		t.Errorf("expected filter with cached results, got %q", intent)
	}
}

func TestIntentClassifier_LocationCommaSplit(t *testing.T) {
	genai := &mockGenAI{response: `{"intent": "search", "search_criteria": {"location": "Austin, TX"}}`}
	ic := NewIntentClassifier(genai)

	_, filters := ic.Classify(context.Background(), "camps in Austin, TX", 0)
	if filters == nil {
		t.Fatal("expected filters")
	}
	if filters.City != "Austin" || filters.State != "TX" {
		t.Errorf("expected city Austin state TX, got city=%q state=%q", filters.City, filters.State)
	}
	if filters.Location != "" {
		t.Errorf("comma location must not set the general location field, got %q", filters.Location)
	}
}

func TestIntentClassifier_LocationWithoutComma(t *testing.T) {
	genai := &mockGenAI{response: `{"intent": "search", "search_criteria": {"location": "downtown"}}`}
	ic := NewIntentClassifier(genai)

	_, filters := ic.Classify(context.Background(), "camps downtown", 0)
	if filters == nil {
		t.Fatal("expected filters")
	}
	if filters.Location != "downtown" || filters.City != "" || filters.State != "" {
		t.Errorf("expected general location only, got %+v", filters)
	}
}

func TestIntentClassifier_AgeToGradeHeuristic(t *testing.T) {
	tests := []struct {
		name    string
		ageJSON string
		wantMin int
		wantMax int
	}{
		{"string age", `"9"`, 4, 6},
		{"numeric age", `9`, 4, 6},
		{"young age clamps to zero", `"4"`, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			genai := &mockGenAI{response: `{"intent": "search", "search_criteria": {"age": ` + tt.ageJSON + `}}`}
			ic := NewIntentClassifier(genai)

			_, filters := ic.Classify(context.Background(), "camps for my kid", 0)
			if filters == nil || filters.MinGrade == nil || filters.MaxGrade == nil {
				t.Fatalf("expected grade bounds, got %+v", filters)
			}
			if *filters.MinGrade != tt.wantMin || *filters.MaxGrade != tt.wantMax {
				t.Errorf("expected grades %d-%d, got %d-%d", tt.wantMin, tt.wantMax, *filters.MinGrade, *filters.MaxGrade)
			}
		})
	}
}

func TestIntentClassifier_UnparseableAgeIgnored(t *testing.T) {
	genai := &mockGenAI{response: `{"intent": "search", "search_criteria": {"age": "around nine"}}`}
	ic := NewIntentClassifier(genai)

	_, filters := ic.Classify(context.Background(), "camps for my kid", 0)
	if filters == nil {
		t.Fatal("expected filters")
	}
	if filters.MinGrade != nil || filters.MaxGrade != nil {
		t.Errorf("unparseable age must not set grade bounds, got %+v", filters)
	}
}
