// Package pipeline runs the coffee habits analysis end to end: load, preview,
// materialize, query, chart, comment, export, verify.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"

	"github.com/paveg/coffeetrends/internal/analysis"
	"github.com/paveg/coffeetrends/internal/chart"
	"github.com/paveg/coffeetrends/internal/config"
	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/errors"
	dataio "github.com/paveg/coffeetrends/internal/io"
	"github.com/paveg/coffeetrends/internal/logging"
	"github.com/paveg/coffeetrends/internal/monitoring"
	"github.com/paveg/coffeetrends/internal/schema"
	"github.com/paveg/coffeetrends/internal/store"
)

// Step names, as they appear in metrics.
const (
	StepLoad        = "load"
	StepMaterialize = "materialize"
	StepQuery       = "query"
	StepRender      = "render"
	StepExport      = "export"
	StepVerify      = "verify"
)

// Export file names.
const (
	TrendsExport     = "trends_by_year"
	TypeTrendsExport = "coffee_type_trends"
)

// TopCountriesExport returns the export name of the snapshot table.
func TopCountriesExport(snapshotYear int) string {
	return fmt.Sprintf("top_countries_%d", snapshotYear)
}

// Report summarizes a finished run.
type Report struct {
	RunID   string
	Rows    int
	Charts  []string
	Exports []string
	Steps   []monitoring.StepMetrics
}

// Pipeline runs one analysis with a fixed configuration.
type Pipeline struct {
	cfg     config.Config
	out     io.Writer
	mem     memory.Allocator
	metrics *monitoring.StepCollector
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOutput sets where the preview, info and commentary are printed.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

// WithAllocator sets the allocator for every Arrow buffer of the run.
func WithAllocator(mem memory.Allocator) Option {
	return func(p *Pipeline) { p.mem = mem }
}

// New creates a pipeline. cfg is expected to be validated.
func New(cfg config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		out:     os.Stdout,
		mem:     memory.NewGoAllocator(),
		metrics: monitoring.NewStepCollector(cfg.MetricsCollection),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes every step once, in order. The first failure stops the run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	runID := logging.NewRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	log := logging.Ctx(ctx)
	report := &Report{RunID: runID}

	log.Info().Str("input", p.cfg.Input).Str("driver", p.cfg.Driver).Msg("analysis started")

	var source *dataframe.DataFrame
	err := p.metrics.Record(StepLoad, func() (int, error) {
		var err error
		source, err = dataio.ReadCSVFile(p.cfg.Input, p.mem)
		if err != nil {
			return 0, err
		}
		return source.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	defer source.Release()
	report.Rows = source.Len()
	log.Info().Int("rows", source.Len()).Int("columns", source.Width()).Msg("dataset loaded")

	printPreview(p.out, source, p.cfg.PreviewRows)
	printInfo(p.out, source)

	db, err := store.Open(ctx, p.cfg.Driver)
	if err != nil {
		return nil, err
	}
	closed := false
	defer func() {
		if !closed {
			_ = db.Close()
		}
	}()

	err = p.metrics.Record(StepMaterialize, func() (int, error) {
		return source.Len(), db.Materialize(ctx, p.cfg.Table, source)
	})
	if err != nil {
		return nil, err
	}

	params := p.params()
	var res *analysis.Results
	err = p.metrics.Record(StepQuery, func() (int, error) {
		var err error
		res, err = analysis.NewEngine(db, params).Run(ctx)
		if err != nil {
			return 0, err
		}
		return res.TrendsByYear.Len() + res.TopCountries.Len() + res.CoffeeTypeTrends.Len() +
			res.PriceDemand.Len() + res.PopulationVsConsumption.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	defer res.Release()

	if p.cfg.RenderCharts {
		err = p.metrics.Record(StepRender, func() (int, error) {
			var err error
			report.Charts, err = chart.NewRenderer(p.chartOptions()).RenderAll(res)
			return len(report.Charts), err
		})
		if err != nil {
			return nil, err
		}
	} else {
		log.Debug().Msg("chart rendering disabled")
	}

	printCommentary(p.out)

	exports := p.exports(res)
	err = p.metrics.Record(StepExport, func() (int, error) {
		var err error
		report.Exports, err = p.export(log, exports)
		return len(report.Exports), err
	})
	if err != nil {
		return nil, err
	}

	if p.cfg.Verify {
		err = p.metrics.Record(StepVerify, func() (int, error) {
			if err := analysis.Verify(source, res, params); err != nil {
				return 0, err
			}
			return len(exports), analysis.VerifyExports(exportChecks(exports), p.mem)
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("results verified")
	}

	closed = true
	if err := db.Close(); err != nil {
		return nil, err
	}

	p.metrics.Log(log)
	report.Steps = p.metrics.Steps()
	log.Info().Int("charts", len(report.Charts)).Int("exports", len(report.Exports)).Msg("analysis finished")
	return report, nil
}

func (p *Pipeline) params() analysis.Params {
	return analysis.Params{
		Table:        p.cfg.Table,
		RecentYear:   p.cfg.RecentYear,
		SnapshotYear: p.cfg.SnapshotYear,
		TopN:         p.cfg.TopN,
	}
}

func (p *Pipeline) chartOptions() chart.Options {
	opts := chart.DefaultOptions()
	opts.Dir = p.cfg.ChartDir
	opts.Width = p.cfg.ChartWidth
	opts.Height = p.cfg.ChartHeight
	opts.GridSize = p.cfg.HexbinGridSize
	opts.TopN = p.cfg.TopN
	opts.SnapshotYear = p.cfg.SnapshotYear
	return opts
}

// exportTable is one result table written to the output directory.
type exportTable struct {
	name string
	df   *dataframe.DataFrame
	keys []string
	path string
}

func (p *Pipeline) exports(res *analysis.Results) []*exportTable {
	return []*exportTable{
		{name: TrendsExport, df: res.TrendsByYear, keys: []string{schema.AliasYear}},
		{name: TopCountriesExport(p.cfg.SnapshotYear), df: res.TopCountries},
		{name: TypeTrendsExport, df: res.CoffeeTypeTrends, keys: []string{schema.AliasYear, schema.AliasCoffeeType}},
	}
}

// exportFormat is one file encoding of the result tables.
type exportFormat struct {
	op     string
	ext    string
	writer func(io.Writer) dataio.DataWriter
}

func (p *Pipeline) exportFormats() []exportFormat {
	formats := []exportFormat{
		{op: "WriteCSV", ext: ".csv", writer: dataio.CSVWriterFactory(dataio.DefaultCSVOptions())},
	}
	if p.cfg.ExportParquet {
		opts := dataio.DefaultParquetOptions()
		opts.Compression = p.cfg.ParquetCompression
		formats = append(formats, exportFormat{op: "WriteParquet", ext: ".parquet", writer: dataio.ParquetWriterFactory(opts)})
	}
	return formats
}

// export writes every table as CSV, and as Parquet when enabled, and returns
// the paths written. A table's CSV path is the one verification reads back.
func (p *Pipeline) export(log *zerolog.Logger, tables []*exportTable) ([]string, error) {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, errors.NewIOError("Export", p.cfg.OutputDir, err)
	}

	formats := p.exportFormats()
	var written []string
	for _, t := range tables {
		for i, f := range formats {
			path := filepath.Join(p.cfg.OutputDir, t.name+f.ext)
			if err := dataio.WriteFile(f.op, path, t.df, f.writer); err != nil {
				return written, err
			}
			if i == 0 {
				t.path = path
			}
			written = append(written, path)
			log.Info().Str("table", t.name).Int("rows", t.df.Len()).Str("path", path).Msg("table exported")
		}
	}
	return written, nil
}

func exportChecks(tables []*exportTable) []analysis.ExportCheck {
	checks := make([]analysis.ExportCheck, 0, len(tables))
	for _, t := range tables {
		checks = append(checks, analysis.ExportCheck{Path: t.path, Table: t.df, Keys: t.keys})
	}
	return checks
}
