// Package models defines the core data structures for CampScout.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validation bounds for profile fields.
const (
	MinChildAge   = 4
	MaxChildAge   = 18
	MinChildGrade = 0
	MaxChildGrade = 12
)

// Profile holds a family's camp search requirements, collected one field per
// conversation turn by the profile collector.
type Profile struct {
	Name                string   `json:"name"`
	ChildName           string   `json:"child_name"`
	ChildAge            int      `json:"child_age"`
	ChildGrade          int      `json:"child_grade"`
	Interests           []string `json:"interests"`
	Address             string   `json:"address"`
	MaxDistanceMiles    float64  `json:"max_distance_miles"`
	SpecialNeeds        string   `json:"special_needs,omitempty"`
	PreferredCategories []string `json:"preferred_categories,omitempty"`
}

// NewProfile creates a profile with the collector's default values.
func NewProfile() *Profile {
	return &Profile{
		ChildAge:         5,
		ChildGrade:       0,
		Interests:        []string{},
		MaxDistanceMiles: 25.0,
	}
}

// IsValidAge reports whether age is within the accepted child age range.
func IsValidAge(age int) bool {
	return age >= MinChildAge && age <= MaxChildAge
}

// IsValidGrade reports whether grade is within the accepted grade range.
func IsValidGrade(grade int) bool {
	return grade >= MinChildGrade && grade <= MaxChildGrade
}

// FieldsValid reports whether every required field holds a domain-valid value.
// This is necessary but not sufficient for completion; the collection cursor
// is the authoritative signal (see ConversationState.IsProfileComplete).
func (p *Profile) FieldsValid() bool {
	return p.Name != "" &&
		p.ChildName != "" &&
		IsValidAge(p.ChildAge) &&
		IsValidGrade(p.ChildGrade) &&
		len(p.Interests) > 0 &&
		p.Address != "" &&
		p.MaxDistanceMiles > 0
}

// Summary renders the profile recap shown when collection finishes.
func (p *Profile) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for providing your information! I'll use this to find the perfect camps for %s.\n\n", p.ChildName)
	b.WriteString("Here's what I know:\n")
	fmt.Fprintf(&b, "- Parent/Guardian: %s\n", p.Name)
	fmt.Fprintf(&b, "- Child: %s (Age: %d, Grade: %d)\n", p.ChildName, p.ChildAge, p.ChildGrade)
	fmt.Fprintf(&b, "- Interests: %s\n", strings.Join(p.Interests, ", "))
	fmt.Fprintf(&b, "- Location: %s\n", p.Address)
	fmt.Fprintf(&b, "- Maximum Distance: %g miles\n", p.MaxDistanceMiles)
	if p.SpecialNeeds != "" {
		fmt.Fprintf(&b, "- Special Needs: %s\n", p.SpecialNeeds)
	}
	fmt.Fprintf(&b, "\nNow I'll search for camps that match %s's profile...", p.ChildName)
	return b.String()
}

// ToJSON serializes the profile for state storage.
func (p *Profile) ToJSON() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}
	return string(data), nil
}

// FromJSON deserializes a profile from state storage.
func (p *Profile) FromJSON(data string) error {
	if err := json.Unmarshal([]byte(data), p); err != nil {
		return fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return nil
}
