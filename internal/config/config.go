// Package config provides configuration management for the coffee analysis pipeline
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/paveg/coffeetrends/internal/logging"
)

// Config represents the configuration of one pipeline run
type Config struct {
	// Input and output locations
	Input     string `json:"input" yaml:"input" validate:"required"`           // Source CSV path
	OutputDir string `json:"output_dir" yaml:"output_dir" validate:"required"` // Directory the result CSVs are written to
	ChartDir  string `json:"chart_dir" yaml:"chart_dir" validate:"required"`   // Directory the PNG charts are written to

	// Store configuration
	Driver string `json:"driver" yaml:"driver" validate:"oneof=sqlite3 duckdb"` // In-memory SQL engine
	Table  string `json:"table" yaml:"table" validate:"required"`               // Name the dataset is materialized under

	// Query parameters
	RecentYear   int `json:"recent_year" yaml:"recent_year" validate:"min=1"`     // Lower bound for the trend queries
	SnapshotYear int `json:"snapshot_year" yaml:"snapshot_year" validate:"min=1"` // Year of the top-countries snapshot
	TopN         int `json:"top_n" yaml:"top_n" validate:"min=1"`                 // Number of top countries

	// Rendering configuration
	RenderCharts   bool `json:"render_charts" yaml:"render_charts"`                         // Write the six PNG charts
	HexbinGridSize int  `json:"hexbin_grid_size" yaml:"hexbin_grid_size" validate:"min=1"` // Hexagons across the x axis
	ChartWidth     int  `json:"chart_width" yaml:"chart_width" validate:"min=100"`         // Chart width in pixels
	ChartHeight    int  `json:"chart_height" yaml:"chart_height" validate:"min=100"`       // Chart height in pixels
	PreviewRows    int  `json:"preview_rows" yaml:"preview_rows" validate:"min=0"`         // Rows shown in the dataset preview

	// Export configuration
	ExportParquet      bool   `json:"export_parquet" yaml:"export_parquet"`                                                  // Also write Parquet copies
	ParquetCompression string `json:"parquet_compression" yaml:"parquet_compression" validate:"oneof=snappy gzip zstd none"` // Parquet codec

	// Debugging configuration
	Verify            bool   `json:"verify" yaml:"verify"`                                       // Cross-check results after export
	LogLevel          string `json:"log_level" yaml:"log_level" validate:"loglevel"`             // Minimum log level
	LogFormat         string `json:"log_format" yaml:"log_format" validate:"oneof=console json"` // Log output format
	MetricsCollection bool   `json:"metrics_collection" yaml:"metrics_collection"`               // Log per-step timings
}

// Default configuration values
const (
	DefaultInput              = "worldwide_coffee_habits.csv"
	DefaultOutputDir          = "."
	DefaultChartDir           = "charts"
	DefaultDriver             = "sqlite3"
	DefaultTable              = "coffee_habits"
	DefaultRecentYear         = 2015
	DefaultSnapshotYear       = 2023
	DefaultTopN               = 5
	DefaultHexbinGridSize     = 30
	DefaultChartWidth         = 1200
	DefaultChartHeight        = 600
	DefaultPreviewRows        = 5
	DefaultParquetCompression = "snappy"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "console"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COFFEE_"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		Input:     DefaultInput,
		OutputDir: DefaultOutputDir,
		ChartDir:  DefaultChartDir,

		Driver: DefaultDriver,
		Table:  DefaultTable,

		RecentYear:   DefaultRecentYear,
		SnapshotYear: DefaultSnapshotYear,
		TopN:         DefaultTopN,

		RenderCharts:   true,
		HexbinGridSize: DefaultHexbinGridSize,
		ChartWidth:     DefaultChartWidth,
		ChartHeight:    DefaultChartHeight,
		PreviewRows:    DefaultPreviewRows,

		ExportParquet:      false,
		ParquetCompression: DefaultParquetCompression,

		Verify:            false,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
		MetricsCollection: false,
	}
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
			return logging.ValidLevel(fl.Field().String())
		})
	})
	return validate
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	err := validatorInstance().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating configuration: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "loglevel":
		return fmt.Sprintf("%s must be a log level (trace, debug, info, warn, error, disabled), got %q", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.Input == "" {
		c.Input = defaults.Input
	}
	if c.OutputDir == "" {
		c.OutputDir = defaults.OutputDir
	}
	if c.ChartDir == "" {
		c.ChartDir = defaults.ChartDir
	}
	if c.Driver == "" {
		c.Driver = defaults.Driver
	}
	if c.Table == "" {
		c.Table = defaults.Table
	}
	if c.RecentYear == 0 {
		c.RecentYear = defaults.RecentYear
	}
	if c.SnapshotYear == 0 {
		c.SnapshotYear = defaults.SnapshotYear
	}
	if c.TopN == 0 {
		c.TopN = defaults.TopN
	}
	if c.HexbinGridSize == 0 {
		c.HexbinGridSize = defaults.HexbinGridSize
	}
	if c.ChartWidth == 0 {
		c.ChartWidth = defaults.ChartWidth
	}
	if c.ChartHeight == 0 {
		c.ChartHeight = defaults.ChartHeight
	}
	if c.ParquetCompression == "" {
		c.ParquetCompression = defaults.ParquetCompression
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}

	// Booleans and PreviewRows keep their zero values: false and 0 are
	// meaningful settings. Start from NewConfig() for the boolean defaults.

	return c
}

// LoadFromJSON loads configuration from JSON data, on top of the defaults
func LoadFromJSON(data []byte) (Config, error) {
	config := NewConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromYAML loads configuration from YAML data, on top of the defaults
func LoadFromYAML(data []byte) (Config, error) {
	config := NewConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a file (supports JSON and YAML).
// Keys missing from the file keep their default values.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		config, err = LoadFromJSON(data)
	case ".yaml", ".yml":
		config, err = LoadFromYAML(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config, nil
}

// ApplyEnv overrides fields from COFFEE_* environment variables.
// Values that fail to parse are reported; unset variables leave fields as they are.
func (c Config) ApplyEnv() (Config, error) {
	return c.applyEnv(os.LookupEnv)
}

func (c Config) applyEnv(lookup func(string) (string, bool)) (Config, error) {
	var errs []string

	str := func(key string, dst *string) {
		if val, ok := lookup(EnvPrefix + key); ok && val != "" {
			*dst = val
		}
	}
	integer := func(key string, dst *int) {
		if val, ok := lookup(EnvPrefix + key); ok && val != "" {
			parsed, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = parsed
		}
	}
	boolean := func(key string, dst *bool) {
		if val, ok := lookup(EnvPrefix + key); ok && val != "" {
			parsed, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = parsed
		}
	}

	str("INPUT", &c.Input)
	str("OUTPUT_DIR", &c.OutputDir)
	str("CHART_DIR", &c.ChartDir)
	str("DRIVER", &c.Driver)
	integer("RECENT_YEAR", &c.RecentYear)
	integer("SNAPSHOT_YEAR", &c.SnapshotYear)
	integer("TOP_N", &c.TopN)
	boolean("VERIFY", &c.Verify)
	boolean("RENDER_CHARTS", &c.RenderCharts)
	boolean("EXPORT_PARQUET", &c.ExportParquet)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	boolean("METRICS", &c.MetricsCollection)

	if len(errs) > 0 {
		return c, fmt.Errorf("invalid environment overrides: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// Load builds the configuration from the defaults, an optional file and the
// environment, in that order of precedence. The result is not validated:
// callers apply their own overrides first and then call Validate.
func Load(filename string) (Config, error) {
	config := NewConfig()
	if filename != "" {
		var err error
		if config, err = LoadFromFile(filename); err != nil {
			return Config{}, err
		}
	}

	return config.ApplyEnv()
}
