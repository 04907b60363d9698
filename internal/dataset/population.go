package dataset

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/vliden/coronamap/internal/model"
)

// LoadPopulation reads the population reference table. Region names are
// lowercased to match the case data's country field.
func LoadPopulation(filename string) ([]model.PopulationEntry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrParse, filename, err)
	}
	defer func() { _ = f.Close() }()

	var entries []model.PopulationEntry
	if err := gocsv.UnmarshalFile(f, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", model.ErrParse, filename, err)
	}

	for i := range entries {
		entries[i].Region = strings.ToLower(strings.TrimSpace(entries[i].Region))
	}
	return entries, nil
}

// Normalize fills the per-100k fields of every record whose country has
// exactly one population match. Countries without a unique match keep their
// NaN sentinels; the sorted set of such countries is returned for auditing.
// Exclusion of too-small countries is a separate step (FilterSmall).
func Normalize(records []model.CumulativeRecord, population []model.PopulationEntry) []string {
	matches := make(map[string]int)
	inhabitants := make(map[string]float64)
	for _, entry := range population {
		matches[entry.Region]++
		inhabitants[entry.Region] = entry.Inhabitants()
	}

	unmatchedSet := make(map[string]struct{})
	for i := range records {
		country := records[i].Country
		if matches[country] != 1 {
			unmatchedSet[country] = struct{}{}
			continue
		}
		pop := inhabitants[country]
		if pop <= 0 {
			unmatchedSet[country] = struct{}{}
			continue
		}
		records[i].NewCasesPerCapita = perCapita(float64(records[i].NewCases), pop)
		records[i].NewDeathsPerCapita = perCapita(float64(records[i].NewDeaths), pop)
		records[i].SumCasesPerCapita = perCapita(float64(records[i].SumCases), pop)
		records[i].SumDeathsPerCapita = perCapita(float64(records[i].SumDeaths), pop)
	}

	unmatched := make([]string, 0, len(unmatchedSet))
	for country := range unmatchedSet {
		unmatched = append(unmatched, country)
	}
	sort.Strings(unmatched)
	if len(unmatched) > 0 {
		log.WithField("countries", unmatched).Warn("no population match, per-capita left undefined")
	}
	return unmatched
}

// perCapita scales a count to cases per 100 000 inhabitants.
func perCapita(value, population float64) float64 {
	return value * 100_000 / population
}
