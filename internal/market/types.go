package market

import "time"

type MakeEntry struct {
	Make       string  `json:"make"`
	Count      int     `json:"count"`
	AvgPrice   float64 `json:"avg_price"`
	Percentage float64 `json:"percentage"`
}

type ModelEntry struct {
	Model    string  `json:"model"`
	Make     string  `json:"make"`
	Count    int     `json:"count"`
	AvgPrice float64 `json:"avg_price"`
}

// CategoryEntry is one row of the body type or fuel type tables.
type CategoryEntry struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	AvgPrice   float64 `json:"avg_price"`
}

type YearTrend struct {
	Year       int     `json:"year"`
	Count      int     `json:"count"`
	AvgPrice   float64 `json:"avg_price"`
	AvgMileage int     `json:"avg_mileage"`
}

// Snapshot is the combined statistics view served by the overview endpoint.
type Snapshot struct {
	PopularMakes  []MakeEntry       `json:"popular_makes"`
	PopularModels []ModelEntry      `json:"popular_models"`
	BodyTypes     []CategoryEntry   `json:"body_types"`
	FuelTypes     []CategoryEntry   `json:"fuel_types"`
	YearTrends    []YearTrend       `json:"year_trends"`
	LastUpdated   time.Time         `json:"last_updated"`
	DataSources   []string          `json:"data_sources"`
	SourceStatus  map[string]string `json:"source_status,omitempty"`
	Degraded      bool              `json:"degraded"`
	Error         string            `json:"error,omitempty"`
}

type DataSource struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	URL             string `json:"url,omitempty"`
	Type            string `json:"type"`
	Coverage        string `json:"coverage"`
	UpdateFrequency string `json:"update_frequency"`
}

type DataQuality struct {
	AccuracyRate       float64 `json:"accuracy_rate"`
	CoveragePercentage float64 `json:"coverage_percentage"`
	FreshnessScore     float64 `json:"freshness_score"`
	TotalRecords       int     `json:"total_records"`
}

type DataCatalogue struct {
	Sources        []DataSource      `json:"sources"`
	Quality        DataQuality       `json:"data_quality"`
	LastUpdated    time.Time         `json:"last_updated"`
	UpdateSchedule map[string]string `json:"update_schedule"`
}
