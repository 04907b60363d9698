package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vliden/coronamap/internal/model"
	"github.com/vliden/coronamap/internal/pipeline"
)

var (
	outDir         string
	dataFile       string
	populationFile string
	geoJSONFile    string
	mapsFile       string
	timeout        time.Duration
	userAgent      string
	minPopulation  float64
	offline        bool
	force          bool
	noCache        bool
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Run the full pipeline and write the HTML maps",
	Long: `Render downloads the dataset (unless cached or --offline), joins it with
population and boundary data, and writes one standalone HTML map per
configured map.

Example:
  coronamap render
  coronamap render --out maps/ --maps maps.yaml
  coronamap render --offline --data covid.xlsx`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&outDir, "out", "", "output directory for map artifacts")
	renderCmd.Flags().StringVar(&dataFile, "data", "", "local dataset file (default: derived from the download link)")
	renderCmd.Flags().StringVar(&populationFile, "population", "", "population reference CSV")
	renderCmd.Flags().StringVar(&geoJSONFile, "geojson", "", "world boundary GeoJSON (optionally .gz)")
	renderCmd.Flags().StringVar(&mapsFile, "maps", "", "YAML file listing the maps to render")
	renderCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall fetch timeout")
	renderCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent override")
	renderCmd.Flags().Float64Var(&minPopulation, "min-population", 0, "population threshold for excluding small countries")
	renderCmd.Flags().BoolVar(&offline, "offline", false, "skip the download, use the local dataset file")
	renderCmd.Flags().BoolVar(&force, "force", false, "re-download even when the dataset file exists")
	renderCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the landing-page cache")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Source page: %s\n", cfg.Data.SourcePage)
		fmt.Fprintf(os.Stderr, "Output dir:  %s\n", cfg.Output.Dir)
		fmt.Fprintf(os.Stderr, "Maps:        %d\n", len(cfg.Maps))
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.New(cfg)
	if err := p.Run(ctx, pipeline.RunOptions{Offline: offline, Force: force}); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	fmt.Printf("✓ Wrote %d map(s) to %s\n", len(cfg.Maps), cfg.Output.Dir)
	return nil
}

// buildConfig layers flag overrides on top of the loaded configuration.
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if dataFile != "" {
		cfg.Data.DataFile = dataFile
	}
	if populationFile != "" {
		cfg.Data.PopulationFile = populationFile
	}
	if geoJSONFile != "" {
		cfg.Data.GeoJSONFile = geoJSONFile
	}
	if minPopulation > 0 {
		cfg.Data.MinPopulation = minPopulation
	}

	if mapsFile != "" {
		maps, err := loadMapsFile(mapsFile)
		if err != nil {
			return nil, err
		}
		cfg.Maps = maps
	}

	for _, settings := range cfg.Maps {
		if err := settings.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadMapsFile reads a YAML list of map settings.
func loadMapsFile(path string) ([]model.MapSettings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrConfig, path, err)
	}

	var maps []model.MapSettings
	if err := yaml.Unmarshal(raw, &maps); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", model.ErrConfig, path, err)
	}
	if len(maps) == 0 {
		return nil, fmt.Errorf("%w: %s lists no maps", model.ErrConfig, path)
	}
	return maps, nil
}
