package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/coffeetrends/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, "worldwide_coffee_habits.csv", cfg.Input)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "charts", cfg.ChartDir)
	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, "coffee_habits", cfg.Table)
	assert.Equal(t, 2015, cfg.RecentYear)
	assert.Equal(t, 2023, cfg.SnapshotYear)
	assert.Equal(t, 5, cfg.TopN)
	assert.True(t, cfg.RenderCharts)
	assert.Equal(t, 30, cfg.HexbinGridSize)
	assert.Equal(t, 1200, cfg.ChartWidth)
	assert.Equal(t, 600, cfg.ChartHeight)
	assert.Equal(t, 5, cfg.PreviewRows)
	assert.False(t, cfg.ExportParquet)
	assert.Equal(t, "snappy", cfg.ParquetCompression)
	assert.False(t, cfg.Verify)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.False(t, cfg.MetricsCollection)

	require.NoError(t, cfg.Validate())
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(*config.Config)
		expectedError string
	}{
		{
			name:   "valid config",
			modify: func(*config.Config) {},
		},
		{
			name:          "unknown driver",
			modify:        func(c *config.Config) { c.Driver = "postgres" },
			expectedError: `Driver must be one of [sqlite3 duckdb], got "postgres"`,
		},
		{
			name:          "empty input",
			modify:        func(c *config.Config) { c.Input = "" },
			expectedError: "Input is required",
		},
		{
			name:          "zero top n",
			modify:        func(c *config.Config) { c.TopN = 0 },
			expectedError: "TopN must be at least 1, got 0",
		},
		{
			name:          "negative preview rows",
			modify:        func(c *config.Config) { c.PreviewRows = -1 },
			expectedError: "PreviewRows must be at least 0, got -1",
		},
		{
			name:          "tiny chart",
			modify:        func(c *config.Config) { c.ChartWidth = 10 },
			expectedError: "ChartWidth must be at least 100, got 10",
		},
		{
			name:          "bad compression",
			modify:        func(c *config.Config) { c.ParquetCompression = "lz4" },
			expectedError: "ParquetCompression must be one of",
		},
		{
			name:          "unknown log level",
			modify:        func(c *config.Config) { c.LogLevel = "verbose" },
			expectedError: `LogLevel must be a log level (trace, debug, info, warn, error, disabled), got "verbose"`,
		},
		{
			name:   "log level alias",
			modify: func(c *config.Config) { c.LogLevel = "WARNING" },
		},
		{
			name:          "bad log format",
			modify:        func(c *config.Config) { c.LogFormat = "xml" },
			expectedError: "LogFormat must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	partial := config.Config{
		Input:       "data.csv",
		TopN:        10,
		PreviewRows: 0,
	}

	cfg := partial.WithDefaults()

	assert.Equal(t, "data.csv", cfg.Input)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, "sqlite3", cfg.Driver)
	assert.Equal(t, 2015, cfg.RecentYear)
	assert.Equal(t, "charts", cfg.ChartDir)
	assert.Equal(t, 0, cfg.PreviewRows)
	assert.False(t, cfg.RenderCharts)
}

func TestConfig_LoadFromFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		check    func(t *testing.T, cfg config.Config)
	}{
		{
			name:     "yaml",
			filename: "coffee.yaml",
			content: `input: data/habits.csv
driver: duckdb
top_n: 3
render_charts: false
export_parquet: true
`,
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "data/habits.csv", cfg.Input)
				assert.Equal(t, "duckdb", cfg.Driver)
				assert.Equal(t, 3, cfg.TopN)
				assert.False(t, cfg.RenderCharts)
				assert.True(t, cfg.ExportParquet)
				assert.Equal(t, 2023, cfg.SnapshotYear)
			},
		},
		{
			name:     "json",
			filename: "coffee.json",
			content:  `{"recent_year": 2010, "snapshot_year": 2020, "verify": true}`,
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, 2010, cfg.RecentYear)
				assert.Equal(t, 2020, cfg.SnapshotYear)
				assert.True(t, cfg.Verify)
				assert.True(t, cfg.RenderCharts)
				assert.Equal(t, 5, cfg.PreviewRows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.filename)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			cfg, err := config.LoadFromFile(path)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestConfig_LoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.LoadFromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")

	toml := filepath.Join(dir, "coffee.toml")
	require.NoError(t, os.WriteFile(toml, []byte("top_n = 3"), 0o600))
	_, err = config.LoadFromFile(toml)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file format: .toml")

	broken := filepath.Join(dir, "coffee.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o600))
	_, err = config.LoadFromFile(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("COFFEE_INPUT", "env.csv")
	t.Setenv("COFFEE_DRIVER", "duckdb")
	t.Setenv("COFFEE_TOP_N", "7")
	t.Setenv("COFFEE_RENDER_CHARTS", "false")
	t.Setenv("COFFEE_METRICS", "true")
	t.Setenv("COFFEE_LOG_LEVEL", "debug")

	cfg, err := config.NewConfig().ApplyEnv()
	require.NoError(t, err)

	assert.Equal(t, "env.csv", cfg.Input)
	assert.Equal(t, "duckdb", cfg.Driver)
	assert.Equal(t, 7, cfg.TopN)
	assert.False(t, cfg.RenderCharts)
	assert.True(t, cfg.MetricsCollection)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "charts", cfg.ChartDir)
}

func TestConfig_ApplyEnv_InvalidValues(t *testing.T) {
	t.Setenv("COFFEE_TOP_N", "many")
	t.Setenv("COFFEE_VERIFY", "sometimes")

	_, err := config.NewConfig().ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COFFEE_TOP_N")
	assert.Contains(t, err.Error(), "COFFEE_VERIFY")
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coffee.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_n: 3\nchart_dir: file-charts\n"), 0o600))
	t.Setenv("COFFEE_TOP_N", "8")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.TopN)
	assert.Equal(t, "file-charts", cfg.ChartDir)
	assert.Equal(t, "sqlite3", cfg.Driver)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.NewConfig().Input, cfg.Input)
}
