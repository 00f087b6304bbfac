package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "FUELPLAN_CONFIG"

	defaultCachePath       = "sheet_cache.csv"
	defaultOutputDir       = "."
	defaultTargetRegion    = "central"
	defaultAllowedStatuses = "ON-AIR,IN PROGRESS"
	defaultTimezone        = "UTC"
	defaultKafkaTopic      = "site-fuel-plan"
	defaultMapboxCacheSize = 1000
)

// Config holds all run settings. Values come from built-in defaults, then
// the optional YAML file named by FUELPLAN_CONFIG, then environment
// variables.
type Config struct {
	// Source. An empty SheetURL disables the remote fetch.
	SheetURL       string
	SheetCachePath string
	RefreshCache   bool
	SourceTimeout  time.Duration

	OutputDir       string
	MetricsTextfile string

	// Filtering. Empty TargetRegion or AllowedStatuses disables that check.
	TargetRegion    string
	AllowedStatuses []string

	// DateFormats overrides the built-in date layouts when non-empty.
	DateFormats []string
	Location    *time.Location

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	GeocodeCountry  string

	// Feed publishing. No brokers means publishing is off.
	KafkaBrokers []string
	KafkaTopic   string
}

// RemoteEnabled reports whether a remote sheet URL is configured.
func (c *Config) RemoteEnabled() bool { return c.SheetURL != "" }

// PublishEnabled reports whether the feed should be published to Kafka.
func (c *Config) PublishEnabled() bool { return len(c.KafkaBrokers) > 0 }

// fileConfig mirrors the YAML file layout. Pointers distinguish "unset" from
// an explicit zero value.
type fileConfig struct {
	Sheet struct {
		URL          string `yaml:"url"`
		CachePath    string `yaml:"cachePath"`
		RefreshCache *bool  `yaml:"refreshCache"`
		Timeout      string `yaml:"timeout"`
	} `yaml:"sheet"`
	Output struct {
		Dir             string `yaml:"dir"`
		MetricsTextfile string `yaml:"metricsTextfile"`
	} `yaml:"output"`
	Filter struct {
		TargetRegion    *string  `yaml:"targetRegion"`
		AllowedStatuses []string `yaml:"allowedStatuses"`
	} `yaml:"filter"`
	Dates struct {
		Formats  []string `yaml:"formats"`
		Timezone string   `yaml:"timezone"`
	} `yaml:"dates"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Mapbox struct {
		Token     string `yaml:"token"`
		Enabled   *bool  `yaml:"enabled"`
		Timeout   string `yaml:"timeout"`
		CacheSize int    `yaml:"cacheSize"`
		Country   string `yaml:"country"`
	} `yaml:"mapbox"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
}

// Load reads configuration, applying defaults where unset.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv(configPathEnv))
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := parseDuration("SOURCE_TIMEOUT", orDefault(file.Sheet.Timeout, "5s"))
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", orDefault(file.Mapbox.Timeout, "5s"))
	if err != nil {
		return nil, err
	}

	refreshCache, err := parseBool("SOURCE_REFRESH_CACHE", boolOr(file.Sheet.RefreshCache, true))
	if err != nil {
		return nil, err
	}

	loc, err := loadLocation(sharedcfg.EnvOrDefault("TIMEZONE", orDefault(file.Dates.Timezone, defaultTimezone)))
	if err != nil {
		return nil, err
	}

	mapboxToken := sharedcfg.EnvOrDefault("MAPBOX_TOKEN", file.Mapbox.Token)
	mapboxEnabled, err := parseBool("MAPBOX_ENABLED", boolOr(file.Mapbox.Enabled, mapboxToken != ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SheetURL:        sharedcfg.EnvOrDefault("SHEET_URL", file.Sheet.URL),
		SheetCachePath:  sharedcfg.EnvOrDefault("SHEET_CACHE_PATH", orDefault(file.Sheet.CachePath, defaultCachePath)),
		RefreshCache:    refreshCache,
		SourceTimeout:   sourceTimeout,
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", orDefault(file.Output.Dir, defaultOutputDir)),
		MetricsTextfile: sharedcfg.EnvOrDefault("METRICS_TEXTFILE", file.Output.MetricsTextfile),
		TargetRegion:    strings.TrimSpace(targetRegion(file)),
		AllowedStatuses: allowedStatuses(file),
		DateFormats:     dateFormats(file),
		Location:        loc,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", orDefault(file.Log.Level, "info")),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", orDefault(file.Log.Format, "json")),
		ShutdownTimeout: shutdownTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(file.Mapbox.CacheSize),
		GeocodeCountry:  sharedcfg.EnvOrDefault("GEOCODE_COUNTRY", file.Mapbox.Country),

		KafkaBrokers: brokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", strings.Join(file.Kafka.Brokers, ","))),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", orDefault(file.Kafka.Topic, defaultKafkaTopic)),
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.PublishEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("%s: read %s: %w", configPathEnv, path, err)
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("%s: parse %s: %w", configPathEnv, path, err)
	}
	return fc, nil
}

// targetRegion honours an explicitly empty TARGET_REGION, which disables
// the region check.
func targetRegion(fc fileConfig) string {
	if v, ok := os.LookupEnv("TARGET_REGION"); ok {
		return v
	}
	if fc.Filter.TargetRegion != nil {
		return *fc.Filter.TargetRegion
	}
	return defaultTargetRegion
}

func allowedStatuses(fc fileConfig) []string {
	if v, ok := os.LookupEnv("ALLOWED_STATUSES"); ok {
		return splitList(v, ",")
	}
	if fc.Filter.AllowedStatuses != nil {
		return splitList(strings.Join(fc.Filter.AllowedStatuses, ","), ",")
	}
	return splitList(defaultAllowedStatuses, ",")
}

// dateFormats reads DATE_FORMATS as a ';'-separated list, since Go layouts
// may contain commas.
func dateFormats(fc fileConfig) []string {
	if v := os.Getenv("DATE_FORMATS"); v != "" {
		return splitList(v, ";")
	}
	if len(fc.Dates.Formats) > 0 {
		return fc.Dates.Formats
	}
	return nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, s)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be true or false", key, s)
	}
	return b, nil
}

func loadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func parseMapboxCacheSize(fromFile int) int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	if fromFile > 0 {
		return fromFile
	}
	return defaultMapboxCacheSize
}

func brokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}
