package render

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vliden/coronamap/internal/geo"
	"github.com/vliden/coronamap/internal/model"
)

const testWorld = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": "NOR",
      "properties": {"name": "Norway"},
      "geometry": {"type": "Polygon", "coordinates": [[[5,58],[11,58],[11,71],[5,71],[5,58]]]}
    },
    {
      "type": "Feature",
      "id": "SWE",
      "properties": {"name": "Sweden"},
      "geometry": {"type": "Polygon", "coordinates": [[[11,55],[24,55],[24,69],[11,69],[11,55]]]}
    }
  ]
}`

func testFeatures(t *testing.T) *geo.FeatureSet {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.geo.json")
	require.NoError(t, os.WriteFile(path, []byte(testWorld), 0o644))
	set, err := geo.LoadCountries(path)
	require.NoError(t, err)
	return set
}

func record(country string, date string, sumCases int, perCapita float64) model.CumulativeRecord {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return model.CumulativeRecord{
		CaseRecord:         model.CaseRecord{Country: country, Date: d.UTC()},
		SumCases:           sumCases,
		SumCasesPerCapita:  perCapita,
		NewCasesPerCapita:  math.NaN(),
		NewDeathsPerCapita: math.NaN(),
		SumDeathsPerCapita: math.NaN(),
	}
}

func testSettings() model.MapSettings {
	s := model.DefaultMapSettings()
	s.Column = model.ColumnSumCases
	s.ColumnName = "Cases"
	s.Logscale = false
	return s
}

func TestCreateStyles_PerCountryPerDate(t *testing.T) {
	features := testFeatures(t)
	records := []model.CumulativeRecord{
		record("norway", "2020-03-01", 10, 0),
		record("norway", "2020-03-02", 30, 0),
		record("sweden", "2020-03-01", 5, 0),
		record("sweden", "2020-03-02", 50, 0),
	}

	styles, colormap, err := CreateStyles(records, features, testSettings())
	require.NoError(t, err)
	require.NotNil(t, colormap)

	require.Contains(t, styles, "NOR")
	require.Contains(t, styles, "SWE")
	assert.Len(t, styles["NOR"], 2)

	for _, perDate := range styles {
		for _, style := range perDate {
			assert.Equal(t, fillOpacity, style.Opacity)
			assert.True(t, strings.HasPrefix(style.Color, "#"))
		}
	}
}

func TestCreateStyles_NaNRendersBlank(t *testing.T) {
	features := testFeatures(t)
	settings := testSettings()
	settings.Column = model.ColumnSumCasesPerCapita

	records := []model.CumulativeRecord{
		record("norway", "2020-03-01", 10, 2.5),
		record("sweden", "2020-03-01", 5, math.NaN()), // no population match
	}

	styles, _, err := CreateStyles(records, features, settings)
	require.NoError(t, err)

	blank := styles["SWE"]["1583020800"]
	assert.Equal(t, blankFill, blank.Color)
	assert.Equal(t, 0.0, blank.Opacity)

	colored := styles["NOR"]["1583020800"]
	assert.Equal(t, fillOpacity, colored.Opacity)
}

func TestCreateStyles_ThresholdBlanksLowValues(t *testing.T) {
	features := testFeatures(t)
	settings := testSettings()
	threshold := 20.0
	settings.Threshold = &threshold

	records := []model.CumulativeRecord{
		record("norway", "2020-03-01", 10, 0), // below threshold
		record("sweden", "2020-03-01", 50, 0),
	}

	styles, _, err := CreateStyles(records, features, settings)
	require.NoError(t, err)

	assert.Equal(t, 0.0, styles["NOR"]["1583020800"].Opacity)
	assert.Equal(t, fillOpacity, styles["SWE"]["1583020800"].Opacity)
}

func TestCreateStyles_MissingGeometrySkipped(t *testing.T) {
	features := testFeatures(t)
	records := []model.CumulativeRecord{
		record("norway", "2020-03-01", 10, 0),
		record("atlantis", "2020-03-01", 99, 0),
	}

	styles, _, err := CreateStyles(records, features, testSettings())
	require.NoError(t, err)
	assert.Contains(t, styles, "NOR")
	assert.Len(t, styles, 1)
}

func TestCreateStyles_UnknownColumn(t *testing.T) {
	features := testFeatures(t)
	settings := testSettings()
	settings.Column = "nonsense"

	_, _, err := CreateStyles([]model.CumulativeRecord{record("norway", "2020-03-01", 1, 0)}, features, settings)
	assert.Error(t, err)
}

func TestMinMax_AnchorsAtZero(t *testing.T) {
	records := []model.CumulativeRecord{
		record("norway", "2020-03-01", 10, 0),
		record("norway", "2020-03-02", 500, 0),
	}
	minV, maxV, err := MinMax(records, model.ColumnSumCases, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, minV)
	assert.Equal(t, 500.0, maxV)
}

func TestRenderTimeSlider_WritesStandaloneHTML(t *testing.T) {
	features := testFeatures(t)
	records := []model.CumulativeRecord{
		record("norway", "2020-03-01", 10, 0),
		record("norway", "2020-03-02", 30, 0),
		// Sweden has geometry but no records: default fill, no crash.
	}

	outPath := filepath.Join(t.TempDir(), "map.html")
	settings := testSettings()
	require.NoError(t, RenderTimeSlider(features, records, settings, outPath))

	html, err := os.ReadFile(outPath)
	require.NoError(t, err)
	page := string(html)

	assert.Contains(t, page, "time-slider")
	assert.Contains(t, page, settings.Title)
	assert.Contains(t, page, "NOR")
	assert.Contains(t, page, "SWE")
	assert.Contains(t, page, "1583020800") // 2020-03-01 frame key
	assert.Contains(t, page, missingFill)
}

func TestRenderTimeSlider_EmptyRecords(t *testing.T) {
	features := testFeatures(t)
	outPath := filepath.Join(t.TempDir(), "empty.html")

	// An empty value set produces a flat map, not an error.
	require.NoError(t, RenderTimeSlider(features, nil, testSettings(), outPath))

	html, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "NOR")
}

func TestRenderTimeSlider_InvalidSettings(t *testing.T) {
	features := testFeatures(t)
	outPath := filepath.Join(t.TempDir(), "map.html")

	bad := testSettings()
	bad.ColorMap = "NotAPalette"
	err := RenderTimeSlider(features, []model.CumulativeRecord{record("norway", "2020-03-01", 1, 0)}, bad, outPath)
	assert.Error(t, err)
	// Failing before rendering means no artifact.
	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderSnapshot_TooltipsAndLastDate(t *testing.T) {
	features := testFeatures(t)
	records := []model.CumulativeRecord{
		record("norway", "2020-03-01", 10, 0),
		record("norway", "2020-03-02", 30, 0),
		record("sweden", "2020-03-01", 5, 0),
		record("sweden", "2020-03-02", 50, 0),
	}

	outPath := filepath.Join(t.TempDir(), "snapshot.html")
	settings := testSettings()
	settings.Snapshot = true
	require.NoError(t, RenderSnapshot(features, records, settings, outPath))

	html, err := os.ReadFile(outPath)
	require.NoError(t, err)
	page := string(html)

	assert.Contains(t, page, "2020-03-02")
	assert.Contains(t, page, "bindTooltip")
	assert.Contains(t, page, `"30"`) // Norway's value at the last date
	assert.NotContains(t, page, "time-slider")
}
