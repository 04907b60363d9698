package model

import "fmt"

// MapSettings configures one rendered map.
type MapSettings struct {
	Title      string     `yaml:"title" mapstructure:"title"`
	Column     string     `yaml:"column" mapstructure:"column"`
	ColumnName string     `yaml:"column_name" mapstructure:"column_name"`
	ColorMap   string     `yaml:"color_map" mapstructure:"color_map"`
	Zoom       int        `yaml:"zoom" mapstructure:"zoom"`
	Center     [2]float64 `yaml:"center" mapstructure:"center"` // [lat, lon]
	Logscale   bool       `yaml:"logscale" mapstructure:"logscale"`

	// Optional overrides. Nil means "derive from the data".
	Threshold *float64 `yaml:"threshold,omitempty" mapstructure:"threshold"`
	MinValue  *float64 `yaml:"min_value,omitempty" mapstructure:"min_value"`
	MaxValue  *float64 `yaml:"max_value,omitempty" mapstructure:"max_value"`

	// Snapshot renders a single-frame map of the last date with tooltips
	// instead of the time slider.
	Snapshot bool `yaml:"snapshot,omitempty" mapstructure:"snapshot"`

	// OutFile is the artifact name relative to the output directory.
	OutFile string `yaml:"out_file" mapstructure:"out_file"`
}

// DefaultMapSettings returns the baseline worldwide map.
func DefaultMapSettings() MapSettings {
	return MapSettings{
		Title:      "COVID-19, cumulative cases per 100 000 inhabitants",
		Column:     ColumnSumCasesPerCapita,
		ColumnName: "Cases per 100k",
		ColorMap:   "Reds_09",
		Zoom:       2,
		Center:     [2]float64{30.0, 10.0},
		Logscale:   true,
		OutFile:    "map_sum_cases_per_capita.html",
	}
}

// Validate checks the settings that would otherwise fail deep inside the
// renderer. Palette names are checked by the renderer, which owns the
// registry.
func (s MapSettings) Validate() error {
	if !KnownColumn(s.Column) {
		return fmt.Errorf("%w: unknown column %q", ErrConfig, s.Column)
	}
	if s.Zoom < 0 || s.Zoom > 18 {
		return fmt.Errorf("%w: zoom %d out of range", ErrConfig, s.Zoom)
	}
	if lat := s.Center[0]; lat < -90 || lat > 90 {
		return fmt.Errorf("%w: center latitude %v out of range", ErrConfig, lat)
	}
	if lon := s.Center[1]; lon < -180 || lon > 180 {
		return fmt.Errorf("%w: center longitude %v out of range", ErrConfig, lon)
	}
	if s.OutFile == "" {
		return fmt.Errorf("%w: map has no out_file", ErrConfig)
	}
	return nil
}
