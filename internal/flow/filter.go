package flow

import (
	"log/slog"
	"strings"

	"github.com/campscout/campscout/internal/models"
)

// FilterCachedResults narrows a cached result set by the active filter axes
// without any external query. The three axes (category, location, grade
// range) are independent and AND-combined. The input slice is never mutated;
// with no filters set it is returned unchanged.
func FilterCachedResults(camps []models.Camp, filters *models.SearchFilters) []models.Camp {
	if filters.IsEmpty() {
		slog.Debug("flow.FilterCachedResults: no filters, returning cached set unchanged", "count", len(camps))
		return camps
	}

	filtered := make([]models.Camp, 0, len(camps))
	for _, camp := range camps {
		if !matchesCategory(camp, filters.Category) {
			continue
		}
		if !matchesLocation(camp, filters) {
			continue
		}
		if !matchesGradeRange(camp, filters.MinGrade, filters.MaxGrade) {
			continue
		}
		filtered = append(filtered, camp)
	}

	slog.Info("flow.FilterCachedResults: filtered cached results", "before", len(camps), "after", len(filtered))
	return filtered
}

// matchesCategory keeps a camp when the filter is a case-insensitive
// substring of its name or description, falling back to its category
// association names.
func matchesCategory(camp models.Camp, category string) bool {
	if category == "" {
		return true
	}
	needle := strings.ToLower(category)

	if strings.Contains(strings.ToLower(camp.CampName), needle) ||
		strings.Contains(strings.ToLower(camp.Description), needle) {
		return true
	}
	for _, ref := range camp.Categories {
		if strings.Contains(strings.ToLower(ref.Name), needle) {
			return true
		}
	}
	return false
}

// matchesLocation keeps a camp when the combined filter location string is a
// substring of any session's combined city+state string. A camp with zero
// sessions never matches a location filter.
func matchesLocation(camp models.Camp, filters *models.SearchFilters) bool {
	if filters.City == "" && filters.State == "" && filters.Location == "" {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(filters.City + " " + filters.State + " " + filters.Location))

	for _, session := range camp.Sessions {
		if session.Location == nil {
			continue
		}
		haystack := strings.ToLower(strings.TrimSpace(session.Location.City + " " + session.Location.State))
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// matchesGradeRange applies an inclusive-range overlap test. The axis only
// applies when the camp carries both grade bounds; absent data never
// excludes.
func matchesGradeRange(camp models.Camp, minGrade, maxGrade *int) bool {
	if minGrade == nil && maxGrade == nil {
		return true
	}
	if camp.MinGrade == nil || camp.MaxGrade == nil {
		return true
	}
	if minGrade != nil && *camp.MaxGrade < *minGrade {
		return false
	}
	if maxGrade != nil && *camp.MinGrade > *maxGrade {
		return false
	}
	return true
}
