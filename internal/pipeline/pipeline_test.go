package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vliden/coronamap/internal/model"
)

const pipelineWorld = `{
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
      "id": "SMR",
      "properties": {"name": "San Marino"},
      "geometry": {"type": "Polygon", "coordinates": [[[12.4,43.9],[12.5,43.9],[12.5,44],[12.4,44],[12.4,43.9]]]}
    }
  ]
}`

const pipelineCases = "dateRep,cases,deaths,countriesAndTerritories,geoId\n" +
	"2020-03-01,3,0,Norway,NO\n" +
	"2020-03-02,5,1,Norway,NO\n" +
	"2020-03-02,10,0,San_Marino,SM\n"

const pipelinePopulation = "Region,Population_2020\n" +
	"Norway,5421\n" +
	"San Marino,34\n"

func offlineConfig(t *testing.T) *model.Config {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Data.DataFile = write("cases.csv", pipelineCases)
	cfg.Data.PopulationFile = write("population.csv", pipelinePopulation)
	cfg.Data.GeoJSONFile = write("world.geo.json", pipelineWorld)
	cfg.Output.Dir = filepath.Join(dir, "maps")

	slider := model.DefaultMapSettings()
	snapshot := model.DefaultMapSettings()
	snapshot.Snapshot = true
	snapshot.OutFile = "latest.html"
	cfg.Maps = []model.MapSettings{slider, snapshot}
	return cfg
}

func TestRun_OfflineEndToEnd(t *testing.T) {
	cfg := offlineConfig(t)
	p := New(cfg)

	if err := p.Run(context.Background(), RunOptions{Offline: true}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, settings := range cfg.Maps {
		path := filepath.Join(cfg.Output.Dir, settings.OutFile)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected artifact %s: %v", path, err)
		}
	}
}

func TestRun_OverwritesArtifacts(t *testing.T) {
	cfg := offlineConfig(t)
	p := New(cfg)

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cfg.Output.Dir, cfg.Maps[0].OutFile)
	if err := os.WriteFile(stale, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := p.Run(context.Background(), RunOptions{Offline: true}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	content, err := os.ReadFile(stale)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) == "stale" {
		t.Error("Expected re-run to overwrite the artifact")
	}
}

func TestRun_OfflineWithoutDataFile(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Data.DataFile = ""
	p := New(cfg)

	err := p.Run(context.Background(), RunOptions{Offline: true})
	if !errors.Is(err, model.ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
}

func TestRun_OfflineMissingDataFile(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Data.DataFile = filepath.Join(t.TempDir(), "nope.csv")
	p := New(cfg)

	err := p.Run(context.Background(), RunOptions{Offline: true})
	if !errors.Is(err, model.ErrFetch) {
		t.Errorf("Expected ErrFetch, got %v", err)
	}
}

func TestRun_UnknownPaletteFailsBeforeRendering(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Maps[0].ColorMap = "NotAPalette"
	p := New(cfg)

	err := p.Run(context.Background(), RunOptions{Offline: true})
	if !errors.Is(err, model.ErrConfig) {
		t.Errorf("Expected ErrConfig, got %v", err)
	}
}
