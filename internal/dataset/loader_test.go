package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())
	return path
}

func TestLoadRaw_Workbook(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"DateRep", "Day", "Month", "Year", "Cases", "Deaths", "Countries and territories", "GeoId"},
		{"2020-03-02", "2", "3", "2020", "5", "1", "Norway", "NO"},
		{"2020-03-01", "1", "3", "2020", "3", "0", "Norway", "NO"},
		{"2020-03-01", "1", "3", "2020", "10", "2", "San_Marino", "SM"},
	})

	records, dates, err := LoadRaw(path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "norway", records[0].Country)
	assert.Equal(t, "no", records[0].GeoID)
	assert.Equal(t, 5, records[0].NewCases)
	assert.Equal(t, 1, records[0].NewDeaths)

	// Underscores in country names become spaces.
	assert.Equal(t, "san marino", records[2].Country)

	// Dates are distinct and ascending.
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Before(dates[1]))
	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), dates[0])
}

func TestLoadRaw_SkipsMalformedRows(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"DateRep", "Cases", "Deaths", "Countries and territories", "GeoId"},
		{"2020-03-01", "3", "0", "Norway", "NO"},
		{"not-a-date", "3", "0", "Norway", "NO"},
		{"2020-03-02", "oops", "0", "Norway", "NO"},
		{"2020-03-02", "2", "0", "", "NO"},
	})

	records, dates, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, dates, 1)
}

func TestLoadRaw_MissingColumnFatal(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"DateRep", "Deaths", "Countries and territories"},
		{"2020-03-01", "0", "Norway"},
	})

	_, _, err := LoadRaw(path)
	assert.Error(t, err)
}

func TestLoadRaw_ModernHeaderNames(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"dateRep", "cases", "deaths", "countriesAndTerritories", "geoId"},
		{"2020-04-06", "100", "4", "United_Kingdom", "UK"},
	})

	records, _, err := LoadRaw(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "united kingdom", records[0].Country)
	assert.Equal(t, 100, records[0].NewCases)
}

func TestLoadRaw_CSV(t *testing.T) {
	csv := "dateRep,cases,deaths,countriesAndTerritories,geoId\n" +
		"2020-03-01,3,0,Norway,NO\n" +
		"2020-03-02,5,1,Norway,NO\n"
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	records, dates, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Len(t, dates, 2)
	assert.Equal(t, "norway", records[0].Country)
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, value := range []string{"2020-03-01", "01/03/2020", "1/3/2020"} {
		got, err := parseDate(value)
		require.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}

	_, err := parseDate("")
	assert.Error(t, err)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"12", 12, false},
		{"12.0", 12, false},
		{"", 0, false},
		{"-3", -3, false},
		{"twelve", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCount(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
