package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vliden/coronamap/internal/geo"
	"github.com/vliden/coronamap/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// pageData feeds the embedded Leaflet templates. The JSON payloads are
// marshaled in Go and injected verbatim.
type pageData struct {
	Title      string
	Caption    string
	ColumnName string
	CenterLat  float64
	CenterLon  float64
	Zoom       int

	GeoJSON    template.JS
	StyleDict  template.JS
	Timestamps template.JS
	Values     template.JS // snapshot tooltips: feature id -> display value
	MaxIndex   int

	Gradient    template.CSS
	MinLabel    string
	MaxLabel    string
	MissingFill string
	BorderColor string
	BorderWidth float64
	DateLabel   string
}

// RenderTimeSlider writes a standalone HTML map with a client-side time
// slider: one frame per date, swapped without refetching data.
func RenderTimeSlider(features *geo.FeatureSet, records []model.CumulativeRecord, settings model.MapSettings, outPath string) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	styles, colormap, err := CreateStyles(records, features, settings)
	if err != nil {
		return err
	}

	timestamps := Timeline(records)
	data, err := basePageData(features, settings, styles, colormap)
	if err != nil {
		return err
	}

	tsJSON, err := json.Marshal(timestamps)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	data.Timestamps = template.JS(tsJSON)
	data.MaxIndex = len(timestamps) - 1
	if data.MaxIndex < 0 {
		data.MaxIndex = 0
	}

	return writePage("timeslider.html.tmpl", data, outPath)
}

// RenderSnapshot writes a single-frame map of the last date in the record
// set, with hover tooltips instead of a slider.
func RenderSnapshot(features *geo.FeatureSet, records []model.CumulativeRecord, settings model.MapSettings, outPath string) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	styles, colormap, err := CreateStyles(records, features, settings)
	if err != nil {
		return err
	}

	timestamps := Timeline(records)
	last := ""
	if len(timestamps) > 0 {
		last = timestamps[len(timestamps)-1]
	}

	// Collapse to one style per feature and collect tooltip values.
	frame := make(map[string]Style, len(styles))
	for id, perDate := range styles {
		if style, ok := perDate[last]; ok {
			frame[id] = style
		}
	}
	values := make(map[string]string)
	for _, r := range records {
		if timestampKey(r.Date) != last {
			continue
		}
		id, ok := features.IDForCountry(r.Country)
		if !ok {
			continue
		}
		v, _ := r.Value(settings.Column)
		values[id] = formatValue(v)
	}

	data, err := basePageData(features, settings, StyleDict{}, colormap)
	if err != nil {
		return err
	}

	frameJSON, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal styles: %w", err)
	}
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal values: %w", err)
	}
	data.StyleDict = template.JS(frameJSON)
	data.Values = template.JS(valuesJSON)
	if last != "" {
		ts, _ := strconv.ParseInt(last, 10, 64)
		data.DateLabel = time.Unix(ts, 0).UTC().Format("2006-01-02")
	}

	return writePage("snapshot.html.tmpl", data, outPath)
}

func basePageData(features *geo.FeatureSet, settings model.MapSettings, styles StyleDict, colormap *LinearColormap) (*pageData, error) {
	gjJSON, err := json.Marshal(features.Collection)
	if err != nil {
		return nil, fmt.Errorf("marshal geojson: %w", err)
	}
	sdJSON, err := json.Marshal(styles)
	if err != nil {
		return nil, fmt.Errorf("marshal styles: %w", err)
	}

	minLabel, maxLabel := colormap.Min(), colormap.Max()
	if settings.Logscale {
		// The colormap works in log space; label the legend with the
		// original values.
		minLabel, maxLabel = math.Exp(minLabel), math.Exp(maxLabel)
	}

	return &pageData{
		Title:       settings.Title,
		Caption:     colormap.Caption,
		ColumnName:  settings.ColumnName,
		CenterLat:   settings.Center[0],
		CenterLon:   settings.Center[1],
		Zoom:        settings.Zoom,
		GeoJSON:     template.JS(gjJSON),
		StyleDict:   template.JS(sdJSON),
		Gradient:    template.CSS("linear-gradient(to right, " + strings.Join(colormap.Hexes(), ", ") + ")"),
		MinLabel:    formatValue(minLabel),
		MaxLabel:    formatValue(maxLabel),
		MissingFill: missingFill,
		BorderColor: borderColor,
		BorderWidth: borderWidth,
	}, nil
}

func writePage(name string, data *pageData, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}

	execErr := pageTemplates.ExecuteTemplate(out, name, data)
	closeErr := out.Close()
	if execErr != nil {
		return fmt.Errorf("render %s: %w", outPath, execErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", outPath, closeErr)
	}

	log.WithField("file", outPath).Info("wrote map")
	return nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "–"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}
