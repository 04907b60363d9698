package model

import (
	"fmt"
	"math"
	"time"
)

// CaseRecord is one reported (country, date) row from the raw dataset.
// Immutable once parsed.
type CaseRecord struct {
	Country   string    `json:"country"` // lowercased display name, underscores replaced
	GeoID     string    `json:"geoid"`   // lowercased two-letter code from the provider
	Date      time.Time `json:"date"`
	NewCases  int       `json:"new_cases"`
	NewDeaths int       `json:"new_deaths"`
}

// CumulativeRecord extends CaseRecord with running totals and per-100k
// variants. Per-capita fields hold NaN until Normalize matches the country
// against the population table.
type CumulativeRecord struct {
	CaseRecord

	SumCases  int `json:"sum_cases"`
	SumDeaths int `json:"sum_deaths"`

	NewCasesPerCapita  float64 `json:"new_cases_per_capita"`
	NewDeathsPerCapita float64 `json:"new_deaths_per_capita"`
	SumCasesPerCapita  float64 `json:"sum_cases_per_capita"`
	SumDeathsPerCapita float64 `json:"sum_deaths_per_capita"`
}

// PopulationEntry is one row of the population reference table.
// Population is stored in thousands of inhabitants, as published upstream.
type PopulationEntry struct {
	Region     string  `csv:"Region" json:"region"`
	Population float64 `csv:"Population_2020" json:"population_2020"`
}

// Inhabitants returns the absolute population count.
func (p PopulationEntry) Inhabitants() float64 {
	return p.Population * 1000
}

// Columns that a map may visualize, in the order they are documented.
const (
	ColumnNewCases           = "new_cases"
	ColumnNewDeaths          = "new_deaths"
	ColumnSumCases           = "sum_cases"
	ColumnSumDeaths          = "sum_deaths"
	ColumnNewCasesPerCapita  = "new_cases_per_capita"
	ColumnNewDeathsPerCapita = "new_deaths_per_capita"
	ColumnSumCasesPerCapita  = "sum_cases_per_capita"
	ColumnSumDeathsPerCapita = "sum_deaths_per_capita"
)

// Value returns the metric stored under the given column name.
func (r CumulativeRecord) Value(column string) (float64, error) {
	switch column {
	case ColumnNewCases:
		return float64(r.NewCases), nil
	case ColumnNewDeaths:
		return float64(r.NewDeaths), nil
	case ColumnSumCases:
		return float64(r.SumCases), nil
	case ColumnSumDeaths:
		return float64(r.SumDeaths), nil
	case ColumnNewCasesPerCapita:
		return r.NewCasesPerCapita, nil
	case ColumnNewDeathsPerCapita:
		return r.NewDeathsPerCapita, nil
	case ColumnSumCasesPerCapita:
		return r.SumCasesPerCapita, nil
	case ColumnSumDeathsPerCapita:
		return r.SumDeathsPerCapita, nil
	}
	return math.NaN(), fmt.Errorf("%w: unknown column %q", ErrConfig, column)
}

// KnownColumn reports whether column names a metric Value understands.
func KnownColumn(column string) bool {
	_, err := CumulativeRecord{}.Value(column)
	return err == nil
}
