// Package pipeline drives the batch run: fetch, parse, aggregate,
// normalize, filter, join geometry, render. Strictly sequential; the
// working set is owned by the driver and handed from stage to stage.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vliden/coronamap/internal/cache"
	"github.com/vliden/coronamap/internal/dataset"
	"github.com/vliden/coronamap/internal/fetch"
	"github.com/vliden/coronamap/internal/geo"
	"github.com/vliden/coronamap/internal/model"
	"github.com/vliden/coronamap/internal/render"
)

// Pipeline holds the pieces of one run.
type Pipeline struct {
	cfg    *model.Config
	client *fetch.Client
	log    *logrus.Entry
}

// New creates a pipeline for the given configuration.
func New(cfg *model.Config) *Pipeline {
	var pages cache.Cache
	if cfg.Cache.Enabled {
		pages = cache.NewLayeredCache(30*time.Minute, cfg.Cache.Dir, cfg.Cache.PageTTL)
	}
	return &Pipeline{
		cfg:    cfg,
		client: fetch.NewClient(cfg.HTTP, pages),
		log:    logrus.WithField("component", "pipeline"),
	}
}

// RunOptions selects which stages execute.
type RunOptions struct {
	// Offline skips URL resolution and download; the data file must
	// already exist.
	Offline bool
	// Force re-downloads even when the data file is cached.
	Force bool
	// FetchOnly stops after the download stage.
	FetchOnly bool
}

// Run executes the pipeline.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) error {
	// 1. Resolve the source and make sure the dataset is on disk.
	dataFile, err := p.ensureData(ctx, opts)
	if err != nil {
		return err
	}
	if opts.FetchOnly {
		return nil
	}

	// 2. Parse the raw table and the timeline.
	records, dates, err := dataset.LoadRaw(dataFile)
	if err != nil {
		return fmt.Errorf("load raw data: %w", err)
	}
	if len(dates) == 0 {
		return fmt.Errorf("%w: dataset %s contains no usable rows", model.ErrParse, dataFile)
	}
	p.log.WithFields(map[string]interface{}{
		"records": len(records),
		"dates":   len(dates),
	}).Info("parsed raw data")

	// 3. Running totals, one row per (country, date).
	working := dataset.AddCumulative(records, dates)

	// 4. Join population and compute per-100k metrics.
	population, err := dataset.LoadPopulation(p.cfg.Data.PopulationFile)
	if err != nil {
		return fmt.Errorf("load population: %w", err)
	}
	unmatched := dataset.Normalize(working, population)
	if len(unmatched) > 0 {
		p.log.WithField("count", len(unmatched)).Warn("countries without population data")
	}

	// 5. Drop countries below the population threshold.
	working, removed := dataset.FilterSmall(working, population, p.cfg.Data.MinPopulation)
	if len(removed) > 0 {
		p.log.WithField("count", len(removed)).Info("countries below population threshold removed")
	}

	// 6. Load boundaries and audit the geometry join.
	features, err := geo.LoadCountries(p.cfg.Data.GeoJSONFile)
	if err != nil {
		return fmt.Errorf("load geometries: %w", err)
	}
	if missing := features.MissingCountries(working); len(missing) > 0 {
		p.log.WithField("countries", missing).Warn("countries without boundary polygons")
	}

	// 7. Render every configured map.
	if err := os.MkdirAll(p.cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, settings := range p.cfg.Maps {
		outPath := filepath.Join(p.cfg.Output.Dir, settings.OutFile)
		if settings.Snapshot {
			err = render.RenderSnapshot(features, working, settings, outPath)
		} else {
			err = render.RenderTimeSlider(features, working, settings, outPath)
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", settings.OutFile, err)
		}
	}
	return nil
}

// ensureData returns the path of the local dataset, downloading it first
// when the run is not offline.
func (p *Pipeline) ensureData(ctx context.Context, opts RunOptions) (string, error) {
	if opts.Offline {
		dataFile := p.cfg.Data.DataFile
		if dataFile == "" {
			return "", fmt.Errorf("%w: offline run needs data.data_file", model.ErrConfig)
		}
		if _, err := os.Stat(dataFile); err != nil {
			return "", fmt.Errorf("%w: offline run but %s is missing", model.ErrFetch, dataFile)
		}
		return dataFile, nil
	}

	url, filename, err := p.client.ResolveSource(ctx, p.cfg.Data.SourcePage)
	if err != nil {
		return "", fmt.Errorf("resolve source: %w", err)
	}
	dataFile := p.cfg.Data.DataFile
	if dataFile == "" {
		dataFile = filename
	}
	if err := p.client.EnsureDownloaded(ctx, url, dataFile, opts.Force); err != nil {
		return "", fmt.Errorf("download dataset: %w", err)
	}
	return dataFile, nil
}
