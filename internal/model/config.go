package model

import "time"

// Config is the complete runtime configuration.
type Config struct {
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`

	// Maps lists the artifacts to render, one MapSettings per map.
	Maps []MapSettings `yaml:"maps" mapstructure:"maps"`
}

// HTTPConfig controls the fetch stage.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxPageBytes int64         `yaml:"max_page_bytes" mapstructure:"max_page_bytes"`
	RateLimit    float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
}

// CacheConfig controls the landing-page cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	PageTTL time.Duration `yaml:"page_ttl" mapstructure:"page_ttl"`
}

// DataConfig names the input and reference files.
type DataConfig struct {
	// SourcePage is the provider page that links to the current dataset.
	SourcePage string `yaml:"source_page" mapstructure:"source_page"`

	// DataFile, when set, overrides the filename derived from the link.
	DataFile       string `yaml:"data_file" mapstructure:"data_file"`
	PopulationFile string `yaml:"population_file" mapstructure:"population_file"`
	GeoJSONFile    string `yaml:"geojson_file" mapstructure:"geojson_file"`

	// MinPopulation excludes countries below this many inhabitants from
	// per-capita maps. Tiny populations swamp a shared color scale.
	MinPopulation float64 `yaml:"min_population" mapstructure:"min_population"`
}

// OutputConfig controls where artifacts land.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultSourcePage is the ECDC page publishing the daily worldwide dataset.
const DefaultSourcePage = "https://www.ecdc.europa.eu/en/publications-data/" +
	"download-todays-data-geographic-distribution-covid-19-cases-worldwide"

// DefaultConfig returns the built-in defaults, the lowest layer of the
// configuration hierarchy.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.HTTP.Timeout = 2 * time.Minute
	cfg.HTTP.UserAgent = "coronamap/0.2 (+https://github.com/vliden/coronamap)"
	cfg.HTTP.MaxPageBytes = 2_000_000
	cfg.HTTP.RateLimit = 1.0

	cfg.Cache.Enabled = true
	cfg.Cache.Dir = ".coronamap-cache"
	cfg.Cache.PageTTL = 6 * time.Hour

	cfg.Data.SourcePage = DefaultSourcePage
	cfg.Data.PopulationFile = "population.csv"
	cfg.Data.GeoJSONFile = "countries/50m/world.geo.json.gz"
	cfg.Data.MinPopulation = 200_000

	cfg.Output.Dir = "maps"

	sum := DefaultMapSettings()

	new100k := sum
	new100k.Title = "COVID-19, new cases per 100 000 inhabitants"
	new100k.Column = ColumnNewCasesPerCapita
	new100k.ColumnName = "New cases per 100k"
	new100k.OutFile = "map_new_cases_per_capita.html"

	deaths100k := sum
	deaths100k.Title = "COVID-19, cumulative deaths per 100 000 inhabitants"
	deaths100k.Column = ColumnSumDeathsPerCapita
	deaths100k.ColumnName = "Deaths per 100k"
	deaths100k.ColorMap = "PuRd_09"
	deaths100k.OutFile = "map_sum_deaths_per_capita.html"

	latest := sum
	latest.Title = "COVID-19, cumulative cases per 100 000 inhabitants (latest)"
	latest.Snapshot = true
	latest.OutFile = "map_latest.html"

	cfg.Maps = []MapSettings{sum, new100k, deaths100k, latest}

	return cfg
}
