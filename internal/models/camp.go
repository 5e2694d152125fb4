// Package models defines camp database record structures.
//
// Camp records are external data: the core only filters and selects subsets,
// it never mutates them.
package models

// Organization is the provider running one or more camps.
type Organization struct {
	ID      int    `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Location is a physical camp session site.
type Location struct {
	ID               int      `json:"id,omitempty"`
	Name             string   `json:"name,omitempty"`
	Address          string   `json:"address,omitempty"`
	City             string   `json:"city,omitempty"`
	State            string   `json:"state,omitempty"`
	Zip              string   `json:"zip,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
}

// CampSession is a scheduled run of a camp at a location.
type CampSession struct {
	ID        int       `json:"id,omitempty"`
	CampID    int       `json:"camp_id,omitempty"`
	StartDate string    `json:"start_date,omitempty"`
	EndDate   string    `json:"end_date,omitempty"`
	Days      string    `json:"days,omitempty"`
	StartTime string    `json:"start_time,omitempty"`
	EndTime   string    `json:"end_time,omitempty"`
	Location  *Location `json:"location,omitempty"`
}

// CategoryRef is a camp's association to a named category.
type CategoryRef struct {
	Name string `json:"name"`
}

// Camp is one camp record with its related organization, sessions and
// category associations.
type Camp struct {
	ID            int           `json:"id,omitempty"`
	CampName      string        `json:"camp_name"`
	Description   string        `json:"description,omitempty"`
	Price         *float64      `json:"price,omitempty"`
	MinGrade      *int          `json:"min_grade,omitempty"`
	MaxGrade      *int          `json:"max_grade,omitempty"`
	Organization  *Organization `json:"organization,omitempty"`
	Sessions      []CampSession `json:"sessions,omitempty"`
	Categories    []CategoryRef `json:"categories,omitempty"`
	DistanceMiles *float64      `json:"distance_miles,omitempty"`
}

// SearchFilters is the normalized criteria passed to (or substituted for) a
// database query. Nil numeric fields mean "no bound on this axis".
type SearchFilters struct {
	Location                string   `json:"location,omitempty"`
	City                    string   `json:"city,omitempty"`
	State                   string   `json:"state,omitempty"`
	Category                string   `json:"category,omitempty"`
	MinGrade                *int     `json:"min_grade,omitempty"`
	MaxGrade                *int     `json:"max_grade,omitempty"`
	MinPrice                *float64 `json:"min_price,omitempty"`
	MaxPrice                *float64 `json:"max_price,omitempty"`
	Address                 string   `json:"address,omitempty"`
	MaxDrivingDistanceMiles *float64 `json:"max_driving_distance_miles,omitempty"`
}

// IsEmpty reports whether no filter axis is set.
func (f *SearchFilters) IsEmpty() bool {
	if f == nil {
		return true
	}
	return f.Location == "" && f.City == "" && f.State == "" && f.Category == "" &&
		f.MinGrade == nil && f.MaxGrade == nil && f.MinPrice == nil && f.MaxPrice == nil &&
		f.Address == "" && f.MaxDrivingDistanceMiles == nil
}

// SearchResult is a camp search response. SelectedLocation carries the
// geocoded formatted address when distance filtering was applied.
type SearchResult struct {
	Camps            []Camp `json:"camps"`
	SelectedLocation string `json:"selected_location,omitempty"`
}

// GradeRange is the min/max grade span present in the camp database.
type GradeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}
