package render

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vliden/coronamap/internal/geo"
	"github.com/vliden/coronamap/internal/model"
)

var log = logrus.WithField("component", "render")

// Fill styling shared by every map.
const (
	fillOpacity = 0.7
	borderColor = "#262626"
	borderWidth = 0.5

	// blankFill hides NaN and below-threshold values.
	blankFill = "#ffffff"
	// missingFill marks geometry with no data at all.
	missingFill = "#d7e3f4"
)

// Style is one feature's fill for one frame.
type Style struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// StyleDict maps feature id to per-timestamp styles. Timestamps are unix
// seconds rendered as decimal strings, the shape the slider frontend reads.
type StyleDict map[string]map[string]Style

// MinMax scans the column over all records, in log space when requested.
// NaN values are skipped. The zero starting points mirror a scale that
// always anchors at zero.
func MinMax(records []model.CumulativeRecord, column string, logscale bool) (float64, float64, error) {
	minValue, maxValue := 0.0, 0.0
	for _, r := range records {
		v, err := r.Value(column)
		if err != nil {
			return 0, 0, err
		}
		if logscale {
			v = LogValue(v)
		}
		if math.IsNaN(v) {
			continue
		}
		minValue = math.Min(minValue, v)
		maxValue = math.Max(maxValue, v)
	}
	return minValue, maxValue, nil
}

// CreateStyles builds the per-feature, per-date styles for the configured
// column. Countries without geometry are skipped and logged; missing or
// non-finite values render blank rather than failing.
func CreateStyles(records []model.CumulativeRecord, features *geo.FeatureSet, settings model.MapSettings) (StyleDict, *LinearColormap, error) {
	minValue, maxValue, err := MinMax(records, settings.Column, settings.Logscale)
	if err != nil {
		return nil, nil, err
	}
	if settings.MinValue != nil {
		minValue = *settings.MinValue
	}
	if settings.MaxValue != nil {
		maxValue = *settings.MaxValue
	}

	colormap, err := NewLinearColormap(settings.ColorMap, minValue, maxValue)
	if err != nil {
		return nil, nil, err
	}
	colormap.Caption = settings.ColumnName
	if settings.Logscale {
		colormap.Caption += " (log scale)"
	}

	dict := make(StyleDict)
	var skipped []string
	for _, r := range records {
		id, ok := features.IDForCountry(r.Country)
		if !ok {
			skipped = append(skipped, r.Country)
			continue
		}

		v, _ := r.Value(settings.Column) // column validated by MinMax above
		if settings.Logscale {
			v = LogValue(v)
		}

		style := Style{Color: blankFill, Opacity: 0}
		if !math.IsNaN(v) && (settings.Threshold == nil || v >= *settings.Threshold) {
			style = Style{Color: colormap.Color(v), Opacity: fillOpacity}
		}

		if dict[id] == nil {
			dict[id] = make(map[string]Style)
		}
		dict[id][timestampKey(r.Date)] = style
	}

	if len(skipped) > 0 {
		log.WithField("countries", dedupeSorted(skipped)).Warn("no geometry for countries, dropped from map")
	}
	return dict, colormap, nil
}

// Timeline returns the sorted distinct record dates as slider timestamps.
func Timeline(records []model.CumulativeRecord) []string {
	seen := make(map[int64]struct{})
	var stamps []int64
	for _, r := range records {
		ts := r.Date.Unix()
		if _, ok := seen[ts]; !ok {
			seen[ts] = struct{}{}
			stamps = append(stamps, ts)
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	out := make([]string, len(stamps))
	for i, ts := range stamps {
		out[i] = strconv.FormatInt(ts, 10)
	}
	return out
}

func timestampKey(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
