// Package geo loads the world boundary polygons and prepares them for
// joining with the case data by country name.
package geo

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/vliden/coronamap/internal/model"
)

var log = logrus.WithField("component", "geo")

// FeatureSet holds the merged boundary features and the name lookup used to
// join them with the case data.
type FeatureSet struct {
	Collection *geojson.FeatureCollection

	nameToID map[string]string
}

// LoadCountries reads a (optionally gzipped) GeoJSON feature collection and
// merges multi-part territories into one feature per display name.
func LoadCountries(path string) (*FeatureSet, error) {
	raw, err := readMaybeGzip(path)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode geojson %s: %v", model.ErrParse, path, err)
	}

	merged := mergeByName(fc)

	nameToID := make(map[string]string, len(merged.Features))
	for _, f := range merged.Features {
		name := featureName(f)
		if name == "" {
			continue
		}
		nameToID[strings.ToLower(name)] = FeatureID(f)
	}

	log.WithFields(map[string]interface{}{
		"features": len(fc.Features),
		"merged":   len(merged.Features),
	}).Info("loaded country boundaries")

	return &FeatureSet{Collection: merged, nameToID: nameToID}, nil
}

func readMaybeGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", model.ErrParse, path, err)
	}
	defer func() { _ = f.Close() }()

	var reader io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: gunzip %s: %v", model.ErrParse, path, err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrParse, path, err)
	}
	return raw, nil
}

// mergeByName collapses features sharing a display name (overseas
// territories exported as separate sub-units) into a single MultiPolygon
// feature so the one-row-per-country case data joins cleanly.
func mergeByName(fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	grouped := make(map[string][]*geojson.Feature)
	var order []string
	for _, f := range fc.Features {
		name := featureName(f)
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], f)
	}

	out := geojson.NewFeatureCollection()
	for _, name := range order {
		parts := grouped[name]
		if len(parts) == 1 {
			out.Append(parts[0])
			continue
		}

		var multi orb.MultiPolygon
		for _, part := range parts {
			switch g := part.Geometry.(type) {
			case orb.Polygon:
				multi = append(multi, g)
			case orb.MultiPolygon:
				multi = append(multi, g...)
			default:
				log.WithFields(map[string]interface{}{
					"name": name,
					"type": part.Geometry.GeoJSONType(),
				}).Warn("skipping non-polygon geometry part")
			}
		}

		combined := geojson.NewFeature(multi)
		combined.ID = parts[0].ID
		combined.Properties = parts[0].Properties.Clone()
		out.Append(combined)

		log.WithFields(map[string]interface{}{
			"name":  name,
			"parts": len(parts),
		}).Debug("merged territory parts")
	}
	return out
}

// FeatureID returns the feature id as a string, falling back to the display
// name when the source has no id.
func FeatureID(f *geojson.Feature) string {
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return strings.ToLower(featureName(f))
}

func featureName(f *geojson.Feature) string {
	name, _ := f.Properties["name"].(string)
	return name
}

// IDForCountry looks up the feature id for a lowercased country name.
func (s *FeatureSet) IDForCountry(country string) (string, bool) {
	id, ok := s.nameToID[country]
	return id, ok
}

// NameIndex returns the lowercased-name to feature-id map.
func (s *FeatureSet) NameIndex() map[string]string {
	return s.nameToID
}

// MissingCountries returns the sorted case-data countries that have no
// boundary polygon. They are excluded from the map, not fatal; the list
// makes the silent data loss auditable.
func (s *FeatureSet) MissingCountries(records []model.CumulativeRecord) []string {
	missingSet := make(map[string]struct{})
	for _, r := range records {
		if _, ok := s.nameToID[r.Country]; !ok {
			missingSet[r.Country] = struct{}{}
		}
	}
	missing := make([]string, 0, len(missingSet))
	for country := range missingSet {
		missing = append(missing, country)
	}
	sort.Strings(missing)
	return missing
}
