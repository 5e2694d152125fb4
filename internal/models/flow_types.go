// Package models defines flow type definitions to avoid circular imports.
package models

// ProfileStep identifies the active step of the profile-collection dialogue.
// Transitions are strictly forward; a failed validation re-prompts the same
// step. StepComplete is the terminal marker and the authoritative completion
// signal for the profile.
type ProfileStep string

// Profile collection step constants, in collection order.
const (
	StepName       ProfileStep = "name"
	StepChildName  ProfileStep = "child_name"
	StepChildAge   ProfileStep = "child_age"
	StepChildGrade ProfileStep = "child_grade"
	StepInterests  ProfileStep = "interests"
	StepAddress    ProfileStep = "address"
	StepDistance   ProfileStep = "distance"
	StepComplete   ProfileStep = "complete"
)

// StepOrder is the fixed forward order of collection steps.
var StepOrder = []ProfileStep{
	StepName,
	StepChildName,
	StepChildAge,
	StepChildGrade,
	StepInterests,
	StepAddress,
	StepDistance,
	StepComplete,
}

// Intent is the routing decision for a conversation turn.
type Intent string

// Intent constants.
const (
	// IntentSearch requires a new database query.
	IntentSearch Intent = "search"
	// IntentFilter narrows the cached result set without a database query.
	IntentFilter Intent = "filter"
	// IntentGeneral needs no camp data at all.
	IntentGeneral Intent = "general"
)

// IsValidIntent checks if the given intent is one of the three known values.
func IsValidIntent(i Intent) bool {
	switch i {
	case IntentSearch, IntentFilter, IntentGeneral:
		return true
	default:
		return false
	}
}

// Stage identifies the next incomplete stage of the profile-driven pipeline.
// Stage determination never depends on parsing previously generated prose;
// the orchestrator advances it explicitly.
type Stage string

// Pipeline stage constants, in execution order.
const (
	StageCollectProfile Stage = "collect_profile"
	StageDeriveFilters  Stage = "derive_filters"
	StageSearch         Stage = "search"
	StageFormat         Stage = "format"
	StageDone           Stage = "done"
)
