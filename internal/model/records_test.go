package model

import (
	"errors"
	"math"
	"testing"
)

func TestCumulativeRecord_Value(t *testing.T) {
	r := CumulativeRecord{
		CaseRecord:        CaseRecord{NewCases: 5, NewDeaths: 1},
		SumCases:          12,
		SumDeaths:         3,
		SumCasesPerCapita: 2.5,
	}

	tests := []struct {
		column string
		want   float64
	}{
		{ColumnNewCases, 5},
		{ColumnNewDeaths, 1},
		{ColumnSumCases, 12},
		{ColumnSumDeaths, 3},
		{ColumnSumCasesPerCapita, 2.5},
	}
	for _, tt := range tests {
		got, err := r.Value(tt.column)
		if err != nil {
			t.Errorf("Value(%q) error: %v", tt.column, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Value(%q) = %v, want %v", tt.column, got, tt.want)
		}
	}
}

func TestCumulativeRecord_UnknownColumn(t *testing.T) {
	v, err := CumulativeRecord{}.Value("bogus")
	if !errors.Is(err, ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
	if !math.IsNaN(v) {
		t.Errorf("Expected NaN for unknown column, got %v", v)
	}
}

func TestKnownColumn(t *testing.T) {
	if !KnownColumn(ColumnSumCasesPerCapita) {
		t.Error("Expected sum_cases_per_capita to be known")
	}
	if KnownColumn("bogus") {
		t.Error("Expected bogus to be unknown")
	}
}

func TestPopulationEntry_Inhabitants(t *testing.T) {
	entry := PopulationEntry{Region: "norway", Population: 5421}
	if got := entry.Inhabitants(); got != 5_421_000 {
		t.Errorf("Inhabitants() = %v, want 5421000", got)
	}
}

func TestMapSettings_Validate(t *testing.T) {
	good := DefaultMapSettings()
	if err := good.Validate(); err != nil {
		t.Fatalf("Default settings must validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*MapSettings)
	}{
		{"unknown column", func(s *MapSettings) { s.Column = "bogus" }},
		{"zoom out of range", func(s *MapSettings) { s.Zoom = 99 }},
		{"latitude out of range", func(s *MapSettings) { s.Center[0] = 95 }},
		{"longitude out of range", func(s *MapSettings) { s.Center[1] = -200 }},
		{"missing out_file", func(s *MapSettings) { s.OutFile = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultMapSettings()
			tt.mutate(&s)
			err := s.Validate()
			if !errors.Is(err, ErrConfig) {
				t.Errorf("Expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Data.MinPopulation != 200_000 {
		t.Errorf("Unexpected population threshold: %v", cfg.Data.MinPopulation)
	}
	if len(cfg.Maps) == 0 {
		t.Fatal("Expected default maps")
	}
	for _, settings := range cfg.Maps {
		if err := settings.Validate(); err != nil {
			t.Errorf("Default map %q invalid: %v", settings.OutFile, err)
		}
	}
}
