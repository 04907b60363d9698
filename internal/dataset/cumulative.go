package dataset

import (
	"math"
	"sort"
	"time"

	"github.com/vliden/coronamap/internal/model"
)

// AddCumulative computes running totals per country across the timeline.
// Every country gets exactly one row per date: dates with no raw record are
// zero-filled, duplicate (country, date) rows are summed. The result is
// ordered by country, then date. Per-capita fields start as NaN and are set
// by Normalize.
func AddCumulative(records []model.CaseRecord, dates []time.Time) []model.CumulativeRecord {
	type delta struct {
		cases  int
		deaths int
	}

	perCountry := make(map[string]map[int64]delta)
	geoIDs := make(map[string]string)
	for _, r := range records {
		byDate, ok := perCountry[r.Country]
		if !ok {
			byDate = make(map[int64]delta)
			perCountry[r.Country] = byDate
		}
		d := byDate[r.Date.Unix()]
		d.cases += r.NewCases
		d.deaths += r.NewDeaths
		byDate[r.Date.Unix()] = d

		if r.GeoID != "" {
			geoIDs[r.Country] = r.GeoID
		}
	}

	countries := make([]string, 0, len(perCountry))
	for country := range perCountry {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	out := make([]model.CumulativeRecord, 0, len(countries)*len(dates))
	for _, country := range countries {
		byDate := perCountry[country]
		sumCases, sumDeaths := 0, 0
		for _, date := range dates {
			d := byDate[date.Unix()] // zero delta when the date is missing
			sumCases += d.cases
			sumDeaths += d.deaths
			out = append(out, model.CumulativeRecord{
				CaseRecord: model.CaseRecord{
					Country:   country,
					GeoID:     geoIDs[country],
					Date:      date,
					NewCases:  d.cases,
					NewDeaths: d.deaths,
				},
				SumCases:           sumCases,
				SumDeaths:          sumDeaths,
				NewCasesPerCapita:  math.NaN(),
				NewDeathsPerCapita: math.NaN(),
				SumCasesPerCapita:  math.NaN(),
				SumDeathsPerCapita: math.NaN(),
			})
		}
	}
	return out
}
