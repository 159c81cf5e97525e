package pipeline_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/coffeetrends/internal/chart"
	"github.com/paveg/coffeetrends/internal/config"
	"github.com/paveg/coffeetrends/internal/errors"
	dataio "github.com/paveg/coffeetrends/internal/io"
	"github.com/paveg/coffeetrends/internal/pipeline"
	"github.com/paveg/coffeetrends/internal/testutil"
)

func testConfig(t *testing.T, input string) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.NewConfig()
	cfg.Input = input
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.ChartDir = filepath.Join(dir, "charts")
	cfg.ChartWidth = 480
	cfg.ChartHeight = 320
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testConfig(t, testutil.WriteCoffeeCSV(t, testutil.DefaultCoffeeRecords()))
	cfg.Verify = true
	cfg.ExportParquet = true
	cfg.MetricsCollection = true

	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	var out bytes.Buffer
	report, err := pipeline.New(cfg, pipeline.WithOutput(&out), pipeline.WithAllocator(mem.Allocator)).
		Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.RunID, 8)
	assert.Equal(t, len(testutil.DefaultCoffeeRecords()), report.Rows)
	assert.Len(t, report.Charts, 6)
	for _, p := range report.Charts {
		assert.FileExists(t, p)
	}

	assert.Equal(t, []string{
		filepath.Join(cfg.OutputDir, "trends_by_year.csv"),
		filepath.Join(cfg.OutputDir, "trends_by_year.parquet"),
		filepath.Join(cfg.OutputDir, "top_countries_2023.csv"),
		filepath.Join(cfg.OutputDir, "top_countries_2023.parquet"),
		filepath.Join(cfg.OutputDir, "coffee_type_trends.csv"),
		filepath.Join(cfg.OutputDir, "coffee_type_trends.parquet"),
	}, report.Exports)

	var steps []string
	for _, s := range report.Steps {
		steps = append(steps, s.Step)
		assert.False(t, s.Failed)
	}
	assert.Equal(t, []string{
		pipeline.StepLoad, pipeline.StepMaterialize, pipeline.StepQuery,
		pipeline.StepRender, pipeline.StepExport, pipeline.StepVerify,
	}, steps)

	console := out.String()
	preview := strings.Index(console, "Dataset Preview:")
	info := strings.Index(console, "Dataset Info:")
	thoughts := strings.Index(console, "Analysis Thoughts:")
	assert.True(t, preview >= 0 && preview < info && info < thoughts, console)
	for _, line := range pipeline.Commentary {
		assert.Contains(t, console, line)
	}
	assert.Contains(t, console, "Finland")
	assert.Contains(t, console, "Coffee Consumption (kg per capita per year)")
}

func TestRun_ExportedTables(t *testing.T) {
	cfg := testConfig(t, testutil.WriteCoffeeCSV(t, testutil.DefaultCoffeeRecords()))
	cfg.RenderCharts = false
	cfg.ExportParquet = true

	_, err := pipeline.New(cfg, pipeline.WithOutput(&bytes.Buffer{})).Run(context.Background())
	require.NoError(t, err)

	// the final coffee type table is the unfiltered query without a Count column
	raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, "coffee_type_trends.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, "Year,CoffeeType,AvgConsumption", lines[0])
	assert.Len(t, lines, 10)

	raw, err = os.ReadFile(filepath.Join(cfg.OutputDir, "top_countries_2023.csv"))
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, "Country,Consumption,Population", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Finland,13,"), lines[1])
	assert.Len(t, lines, 6)

	df, err := dataio.ReadParquetFile(filepath.Join(cfg.OutputDir, "trends_by_year.parquet"), memory.NewGoAllocator())
	require.NoError(t, err)
	defer df.Release()
	assert.Equal(t, 3, df.Len())
	assert.Equal(t, []string{"Year", "AvgConsumption", "AvgPrice"}, df.Columns())
}

func TestRun_NoChartsNoMetrics(t *testing.T) {
	cfg := testConfig(t, testutil.WriteCoffeeCSV(t, testutil.DefaultCoffeeRecords()))
	cfg.RenderCharts = false

	report, err := pipeline.New(cfg, pipeline.WithOutput(&bytes.Buffer{})).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Charts)
	assert.Empty(t, report.Steps)
	assert.Len(t, report.Exports, 3)
	assert.NoDirExists(t, cfg.ChartDir)
}

func TestRun_HeaderOnly(t *testing.T) {
	cfg := testConfig(t, testutil.WriteCoffeeCSV(t, nil))

	var out bytes.Buffer
	report, err := pipeline.New(cfg, pipeline.WithOutput(&out)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Rows)
	assert.Empty(t, report.Charts)
	assert.Len(t, report.Exports, 3)
	assert.Contains(t, out.String(), "Analysis Thoughts:")
	assert.NoFileExists(t, filepath.Join(cfg.ChartDir, chart.TrendsFile))
}

func TestRun_MissingInput(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.csv"))

	_, err := pipeline.New(cfg, pipeline.WithOutput(&bytes.Buffer{})).Run(context.Background())
	require.Error(t, err)

	var pe *errors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "ReadCSV", pe.Op)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_UnexpectedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coffee.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o600))
	cfg := testConfig(t, path)

	_, err := pipeline.New(cfg, pipeline.WithOutput(&bytes.Buffer{})).Run(context.Background())
	require.Error(t, err)

	var pe *errors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Query", pe.Op)
	assert.Equal(t, "trends_by_year", pe.Table)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "trends_by_year.csv"))
}

func TestRun_RenamedSourceColumn(t *testing.T) {
	csv := testutil.CoffeeCSV(testutil.DefaultCoffeeRecords())
	csv = strings.Replace(csv, `"Coffee Consumption (kg per capita per year)"`, `"Coffee Consumption"`, 1)
	path := filepath.Join(t.TempDir(), "coffee.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	cfg := testConfig(t, path)
	cfg.RenderCharts = false

	_, err := pipeline.New(cfg, pipeline.WithOutput(&bytes.Buffer{})).Run(context.Background())
	require.Error(t, err)

	var pe *errors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Query", pe.Op)
	assert.Equal(t, "trends_by_year", pe.Table)
	assert.Contains(t, err.Error(), "Coffee Consumption (kg per capita per year)")
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_BlankConsumptionCell(t *testing.T) {
	records := testutil.DefaultCoffeeRecords()
	csv := testutil.CoffeeCSV(records)
	csv = strings.Replace(csv, "2015,Brazil,6,4,", "2015,Brazil,,4,", 1)
	path := filepath.Join(t.TempDir(), "coffee.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	cfg := testConfig(t, path)
	cfg.RenderCharts = false
	cfg.Verify = true

	var out bytes.Buffer
	_, err := pipeline.New(cfg, pipeline.WithOutput(&out)).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), fmt.Sprintf("%d non-null", len(records)-1))

	// the blank cell is left out of the 2015 average instead of counting as zero
	raw, err := os.ReadFile(filepath.Join(cfg.OutputDir, "trends_by_year.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "2015,10.75,"), lines[1])
}
