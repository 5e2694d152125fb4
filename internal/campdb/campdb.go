// Package campdb provides read access to the camp catalog database.
//
// The catalog is external data maintained by a separate ingestion process;
// this client only queries it. Search failures degrade to empty results so a
// conversation never dies on a database error.
package campdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/campscout/campscout/internal/geo"
	"github.com/campscout/campscout/internal/models"
	"github.com/lib/pq"
)

// Connection pool configuration constants.
const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
)

// Opts holds configuration options for the camp database client.
type Opts struct {
	DSN string
	Geo geo.Calculator
}

// Option defines a configuration option for the camp database client.
type Option func(*Opts)

// WithDSN sets the PostgreSQL connection string for the camp catalog.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithGeoCalculator sets the distance calculator used for driving-distance
// filtering. Without one, distance filters are ignored.
func WithGeoCalculator(calc geo.Calculator) Option {
	return func(o *Opts) { o.Geo = calc }
}

// Client queries the camp catalog.
type Client struct {
	db  *sql.DB
	geo geo.Calculator
}

// NewClient creates a camp database client based on provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("campdb.NewClient: creating client", "DSN_set", cfg.DSN != "", "geo_set", cfg.Geo != nil)

	if cfg.DSN == "" {
		slog.Error("campdb DSN not set")
		return nil, fmt.Errorf("camp database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("campdb.NewClient: failed to open connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("campdb.NewClient: ping failed", "error", err)
		return nil, err
	}

	return &Client{db: db, geo: cfg.Geo}, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// SearchCamps runs a catalog query with grade and price bounds applied in
// SQL, then applies driving-distance and category filtering on the result.
// When an address filter cannot be geocoded the result is empty; every other
// failure also degrades to an empty result rather than an error reaching the
// conversation.
func (c *Client) SearchCamps(ctx context.Context, filters models.SearchFilters) (models.SearchResult, error) {
	slog.Debug("campdb.SearchCamps: query starting",
		"category", filters.Category, "address", filters.Address,
		"hasGradeBounds", filters.MinGrade != nil || filters.MaxGrade != nil)

	camps, err := c.queryCamps(ctx, filters)
	if err != nil {
		slog.Error("campdb.SearchCamps: query failed", "error", err)
		return models.SearchResult{Camps: []models.Camp{}}, nil
	}

	selectedLocation := ""
	if filters.Address != "" && filters.MaxDrivingDistanceMiles != nil {
		camps, selectedLocation, err = c.filterByDistance(ctx, camps, filters.Address, *filters.MaxDrivingDistanceMiles)
		if err != nil {
			slog.Error("campdb.SearchCamps: distance filtering failed", "error", err, "address", filters.Address)
			return models.SearchResult{Camps: []models.Camp{}}, nil
		}
	}

	if filters.Category != "" {
		camps = filterByCategory(camps, filters.Category)
	}

	slog.Info("campdb.SearchCamps: query complete", "count", len(camps), "selectedLocation", selectedLocation)
	return models.SearchResult{Camps: camps, SelectedLocation: selectedLocation}, nil
}

// queryCamps loads camps matching the SQL-level bounds along with their
// organization, sessions, locations and category associations.
func (c *Client) queryCamps(ctx context.Context, filters models.SearchFilters) ([]models.Camp, error) {
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.MinGrade != nil {
		conditions = append(conditions, "c.min_grade >= "+arg(*filters.MinGrade))
	}
	if filters.MaxGrade != nil {
		conditions = append(conditions, "c.max_grade <= "+arg(*filters.MaxGrade))
	}
	if filters.MinPrice != nil {
		conditions = append(conditions, "c.price >= "+arg(*filters.MinPrice))
	}
	if filters.MaxPrice != nil {
		conditions = append(conditions, "c.price <= "+arg(*filters.MaxPrice))
	}

	query := `
		SELECT c.id, c.camp_name, c.description, c.price, c.min_grade, c.max_grade,
		       o.id, o.name, o.email, o.contact
		FROM camps c
		LEFT JOIN organizations o ON o.id = c.organization_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.id"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query camps: %w", err)
	}
	defer rows.Close()

	var camps []models.Camp
	var campIDs []int64
	index := make(map[int]*models.Camp)
	for rows.Next() {
		var camp models.Camp
		var description sql.NullString
		var price sql.NullFloat64
		var minGrade, maxGrade sql.NullInt64
		var orgID sql.NullInt64
		var orgName, orgEmail, orgContact sql.NullString

		if err := rows.Scan(&camp.ID, &camp.CampName, &description, &price, &minGrade, &maxGrade,
			&orgID, &orgName, &orgEmail, &orgContact); err != nil {
			return nil, fmt.Errorf("failed to scan camp row: %w", err)
		}

		camp.Description = description.String
		if price.Valid {
			camp.Price = &price.Float64
		}
		if minGrade.Valid {
			v := int(minGrade.Int64)
			camp.MinGrade = &v
		}
		if maxGrade.Valid {
			v := int(maxGrade.Int64)
			camp.MaxGrade = &v
		}
		if orgID.Valid {
			camp.Organization = &models.Organization{
				ID:      int(orgID.Int64),
				Name:    orgName.String,
				Email:   orgEmail.String,
				Contact: orgContact.String,
			}
		}

		camps = append(camps, camp)
		campIDs = append(campIDs, int64(camp.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate camp rows: %w", err)
	}
	for i := range camps {
		index[camps[i].ID] = &camps[i]
	}

	if len(camps) == 0 {
		return []models.Camp{}, nil
	}

	if err := c.loadSessions(ctx, campIDs, index); err != nil {
		return nil, err
	}
	if err := c.loadCategories(ctx, campIDs, index); err != nil {
		return nil, err
	}
	return camps, nil
}

func (c *Client) loadSessions(ctx context.Context, campIDs []int64, index map[int]*models.Camp) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT s.id, s.camp_id, s.start_date, s.end_date, s.days, s.start_time, s.end_time,
		       l.id, l.name, l.address, l.city, l.state, l.zip, l.latitude, l.longitude, l.formatted_address
		FROM camp_sessions s
		LEFT JOIN locations l ON l.id = s.location_id
		WHERE s.camp_id = ANY($1)
		ORDER BY s.id`, pq.Array(campIDs))
	if err != nil {
		return fmt.Errorf("failed to query camp sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var session models.CampSession
		var startDate, endDate, days, startTime, endTime sql.NullString
		var locID sql.NullInt64
		var locName, locAddress, locCity, locState, locZip, locFormatted sql.NullString
		var locLat, locLng sql.NullFloat64

		if err := rows.Scan(&session.ID, &session.CampID, &startDate, &endDate, &days, &startTime, &endTime,
			&locID, &locName, &locAddress, &locCity, &locState, &locZip, &locLat, &locLng, &locFormatted); err != nil {
			return fmt.Errorf("failed to scan session row: %w", err)
		}

		session.StartDate = startDate.String
		session.EndDate = endDate.String
		session.Days = days.String
		session.StartTime = startTime.String
		session.EndTime = endTime.String

		if locID.Valid {
			loc := &models.Location{
				ID:               int(locID.Int64),
				Name:             locName.String,
				Address:          locAddress.String,
				City:             locCity.String,
				State:            locState.String,
				Zip:              locZip.String,
				FormattedAddress: locFormatted.String,
			}
			if locLat.Valid {
				loc.Latitude = &locLat.Float64
			}
			if locLng.Valid {
				loc.Longitude = &locLng.Float64
			}
			session.Location = loc
		}

		if camp, ok := index[session.CampID]; ok {
			camp.Sessions = append(camp.Sessions, session)
		}
	}
	return rows.Err()
}

func (c *Client) loadCategories(ctx context.Context, campIDs []int64, index map[int]*models.Camp) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT cc.camp_id, cat.name
		FROM camp_categories cc
		JOIN categories cat ON cat.id = cc.category_id
		WHERE cc.camp_id = ANY($1)
		ORDER BY cat.name`, pq.Array(campIDs))
	if err != nil {
		return fmt.Errorf("failed to query camp categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var campID int
		var name string
		if err := rows.Scan(&campID, &name); err != nil {
			return fmt.Errorf("failed to scan category row: %w", err)
		}
		if camp, ok := index[campID]; ok {
			camp.Categories = append(camp.Categories, models.CategoryRef{Name: name})
		}
	}
	return rows.Err()
}

// filterByDistance keeps camps with at least one session within maxMiles
// driving distance of the given address. An address that geocodes to nothing
// yields an empty result; the kept camp carries the qualifying session's
// distance.
func (c *Client) filterByDistance(ctx context.Context, camps []models.Camp, address string, maxMiles float64) ([]models.Camp, string, error) {
	if c.geo == nil {
		slog.Warn("campdb.filterByDistance: no geo calculator configured, skipping distance filter")
		return camps, "", nil
	}

	place, err := c.geo.Geocode(ctx, address)
	if err != nil {
		return nil, "", fmt.Errorf("failed to geocode address: %w", err)
	}
	if place == nil {
		slog.Error("campdb.filterByDistance: could not find coordinates for address", "address", address)
		return []models.Camp{}, "", nil
	}
	slog.Info("campdb.filterByDistance: address geocoded",
		"address", address, "lat", place.Latitude, "lng", place.Longitude)

	filtered := make([]models.Camp, 0, len(camps))
	for _, camp := range camps {
		for _, session := range camp.Sessions {
			loc := session.Location
			if loc == nil || loc.Latitude == nil || loc.Longitude == nil {
				continue
			}
			distance, err := c.geo.DrivingDistanceMiles(ctx, place.Latitude, place.Longitude, *loc.Latitude, *loc.Longitude)
			if err != nil {
				slog.Warn("campdb.filterByDistance: distance lookup failed", "error", err, "campID", camp.ID)
				continue
			}
			if distance <= maxMiles {
				camp.DistanceMiles = &distance
				filtered = append(filtered, camp)
				break
			}
		}
	}
	return filtered, place.FormattedAddress, nil
}

// filterByCategory keeps camps with at least one category association whose
// name contains the filter, case-insensitively.
func filterByCategory(camps []models.Camp, category string) []models.Camp {
	needle := strings.ToLower(category)
	filtered := make([]models.Camp, 0, len(camps))
	for _, camp := range camps {
		for _, ref := range camp.Categories {
			if strings.Contains(strings.ToLower(ref.Name), needle) {
				filtered = append(filtered, camp)
				break
			}
		}
	}
	return filtered
}

// GetUniqueCategories returns the sorted distinct category names that have at
// least one camp association.
func (c *Client) GetUniqueCategories(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT cat.name
		FROM camp_categories cc
		JOIN categories cat ON cat.id = cc.category_id
		ORDER BY cat.name`)
	if err != nil {
		slog.Error("campdb.GetUniqueCategories: query failed", "error", err)
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category name: %w", err)
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}
	slog.Debug("campdb.GetUniqueCategories: fetched categories", "count", len(categories))
	return categories, nil
}

// CityState is one distinct session location.
type CityState struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// GetUniqueLocations returns the distinct city/state pairs that host at least
// one camp session, sorted by city then state.
func (c *Client) GetUniqueLocations(ctx context.Context) ([]CityState, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT l.city, l.state
		FROM camp_sessions s
		JOIN locations l ON l.id = s.location_id
		WHERE l.city <> '' AND l.state <> ''`)
	if err != nil {
		slog.Error("campdb.GetUniqueLocations: query failed", "error", err)
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []CityState
	for rows.Next() {
		var loc CityState
		if err := rows.Scan(&loc.City, &loc.State); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate location rows: %w", err)
	}
	sort.Slice(locations, func(i, j int) bool {
		if locations[i].City != locations[j].City {
			return locations[i].City < locations[j].City
		}
		return locations[i].State < locations[j].State
	})
	return locations, nil
}

// GetGradeRange returns the grade span covered by the catalog, defaulting to
// 0 through 12 when the catalog is empty.
func (c *Client) GetGradeRange(ctx context.Context) (models.GradeRange, error) {
	var minGrade, maxGrade sql.NullInt64
	err := c.db.QueryRowContext(ctx, `SELECT MIN(min_grade), MAX(max_grade) FROM camps`).Scan(&minGrade, &maxGrade)
	if err != nil {
		slog.Error("campdb.GetGradeRange: query failed", "error", err)
		return models.GradeRange{Min: 0, Max: 12}, fmt.Errorf("failed to query grade range: %w", err)
	}

	result := models.GradeRange{Min: 0, Max: 12}
	if minGrade.Valid {
		result.Min = int(minGrade.Int64)
	}
	if maxGrade.Valid {
		result.Max = int(maxGrade.Int64)
	}
	return result, nil
}
