// Package dataset loads the raw case data and derives the cumulative and
// per-capita working set used by the renderer.
package dataset

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/vliden/coronamap/internal/model"
)

var log = logrus.WithField("component", "dataset")

// Header names the provider has used over time, normalized by headerKey.
var headerAliases = map[string]string{
	"daterep":                 "date",
	"cases":                   "cases",
	"newcases":                "cases",
	"deaths":                  "deaths",
	"newdeaths":               "deaths",
	"countriesandterritories": "country",
	"geoid":                   "geoid",
}

// dateLayouts covers the formats seen in the provider's exports.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"01-02-06",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// LoadRaw parses the downloaded dataset into per-country, per-date records
// and the sorted distinct dates present. Malformed rows are skipped with a
// warning; an unusable header is fatal.
func LoadRaw(filename string) ([]model.CaseRecord, []time.Time, error) {
	var (
		records []model.CaseRecord
		err     error
	)
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		records, err = loadCSV(filename)
	} else {
		records, err = loadWorkbook(filename)
	}
	if err != nil {
		return nil, nil, err
	}
	return records, distinctDates(records), nil
}

// loadWorkbook reads the first sheet of an xlsx workbook.
func loadWorkbook(filename string) ([]model.CaseRecord, error) {
	book, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook %s: %v", model.ErrParse, filename, err)
	}
	defer func() { _ = book.Close() }()

	rows, err := book.GetRows(book.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet: %v", model.ErrParse, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty workbook %s", model.ErrParse, filename)
	}

	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]model.CaseRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := parseRow(row, columns)
		if err != nil {
			log.WithField("row", i+2).WithError(err).Warn("skipping malformed row")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// ecdcRow mirrors the provider's CSV export headers.
type ecdcRow struct {
	DateRep string `csv:"dateRep"`
	Cases   string `csv:"cases"`
	Deaths  string `csv:"deaths"`
	Country string `csv:"countriesAndTerritories"`
	GeoID   string `csv:"geoId"`
}

// loadCSV reads the CSV flavour of the dataset.
func loadCSV(filename string) ([]model.CaseRecord, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrParse, filename, err)
	}
	defer func() { _ = f.Close() }()

	var rows []*ecdcRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", model.ErrParse, filename, err)
	}

	records := make([]model.CaseRecord, 0, len(rows))
	for i, row := range rows {
		record, err := buildRecord(row.Country, row.GeoID, row.DateRep, row.Cases, row.Deaths)
		if err != nil {
			log.WithField("row", i+2).WithError(err).Warn("skipping malformed row")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// mapHeader locates the required columns, tolerating the provider's header
// renames across releases.
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(headerAliases))
	for idx, name := range header {
		if canonical, ok := headerAliases[headerKey(name)]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = idx
			}
		}
	}
	for _, required := range []string{"date", "cases", "deaths", "country"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q in header %v", model.ErrParse, required, header)
		}
	}
	return columns, nil
}

func headerKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "_", "")
	return key
}

func parseRow(row []string, columns map[string]int) (model.CaseRecord, error) {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	return buildRecord(cell("country"), cell("geoid"), cell("date"), cell("cases"), cell("deaths"))
}

// buildRecord normalizes one raw row: lowercased keys, underscores in the
// country name replaced by spaces, counts parsed as integers.
func buildRecord(country, geoID, date, cases, deaths string) (model.CaseRecord, error) {
	if country == "" {
		return model.CaseRecord{}, fmt.Errorf("empty country")
	}

	parsedDate, err := parseDate(date)
	if err != nil {
		return model.CaseRecord{}, err
	}
	newCases, err := parseCount(cases)
	if err != nil {
		return model.CaseRecord{}, fmt.Errorf("cases: %w", err)
	}
	newDeaths, err := parseCount(deaths)
	if err != nil {
		return model.CaseRecord{}, fmt.Errorf("deaths: %w", err)
	}

	name := strings.ToLower(country)
	name = strings.ReplaceAll(name, "_", " ")

	return model.CaseRecord{
		Country:   name,
		GeoID:     strings.ToLower(geoID),
		Date:      parsedDate,
		NewCases:  newCases,
		NewDeaths: newDeaths,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

func parseCount(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	// Some exports format counts as floats.
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable count %q", value)
	}
	return int(f), nil
}

// distinctDates returns the sorted unique dates across all records. This is
// the timeline axis for the slider.
func distinctDates(records []model.CaseRecord) []time.Time {
	seen := make(map[int64]time.Time)
	for _, r := range records {
		seen[r.Date.Unix()] = r.Date
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
