package flow

import (
	"context"

	"github.com/campscout/campscout/internal/models"
	"github.com/openai/openai-go"
)

// mockGenAI returns a canned response or error for every completion call and
// records the last prompt pair it was handed.
type mockGenAI struct {
	response         string
	err              error
	calls            int
	lastSystemPrompt string
	lastUserPrompt   string
}

func (m *mockGenAI) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.lastSystemPrompt = systemPrompt
	m.lastUserPrompt = userPrompt
	return m.GenerateWithMessages(ctx, nil)
}

func (m *mockGenAI) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// mockSearcher records the filters it was called with and returns a fixed
// result or error.
type mockSearcher struct {
	result      models.SearchResult
	err         error
	calls       int
	lastFilters models.SearchFilters
}

func (m *mockSearcher) SearchCamps(ctx context.Context, filters models.SearchFilters) (models.SearchResult, error) {
	m.calls++
	m.lastFilters = filters
	if m.err != nil {
		return models.SearchResult{}, m.err
	}
	return m.result, nil
}

// mockCategories serves a fixed category list.
type mockCategories struct {
	categories []string
	err        error
}

func (m *mockCategories) GetUniqueCategories(ctx context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// testCamp builds a minimal camp record for filter tests.
func testCamp(name, description string, minGrade, maxGrade *int, city, state string, categories ...string) models.Camp {
	camp := models.Camp{
		CampName:    name,
		Description: description,
		MinGrade:    minGrade,
		MaxGrade:    maxGrade,
	}
	if city != "" || state != "" {
		camp.Sessions = []models.CampSession{
			{Location: &models.Location{City: city, State: state}},
		}
	}
	for _, cat := range categories {
		camp.Categories = append(camp.Categories, models.CategoryRef{Name: cat})
	}
	return camp
}
