package dataset

import (
	"sort"

	"github.com/vliden/coronamap/internal/model"
)

// FilterSmall removes every record of a country whose reference population
// is strictly below minPopulation inhabitants, and returns the surviving
// records together with the sorted removed key set. Per-capita metrics on
// tiny populations produce extreme outliers on a shared color scale.
func FilterSmall(records []model.CumulativeRecord, population []model.PopulationEntry, minPopulation float64) ([]model.CumulativeRecord, []string) {
	tooSmall := make(map[string]struct{})
	for _, entry := range population {
		if entry.Inhabitants() < minPopulation {
			tooSmall[entry.Region] = struct{}{}
		}
	}

	kept := make([]model.CumulativeRecord, 0, len(records))
	removedSet := make(map[string]struct{})
	for _, r := range records {
		if _, small := tooSmall[r.Country]; small {
			removedSet[r.Country] = struct{}{}
			continue
		}
		kept = append(kept, r)
	}

	removed := make([]string, 0, len(removedSet))
	for country := range removedSet {
		removed = append(removed, country)
	}
	sort.Strings(removed)
	if len(removed) > 0 {
		log.WithField("countries", removed).Info("excluded below population threshold")
	}
	return kept, removed
}
