// Package chart renders the analysis result tables as PNG images.
//
// Each render is a pure function of one result table. Line and bar charts are
// built with go-chart; the grouped bars and the hexagonal density plots are
// drawn by custom series on a go-chart canvas.
package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/paveg/coffeetrends/internal/analysis"
	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/errors"
	"github.com/paveg/coffeetrends/internal/logging"
)

// Options controls chart size, output location and binning.
type Options struct {
	Dir          string
	Width        int
	Height       int
	GridSize     int
	MinCount     int
	TopN         int
	SnapshotYear int
}

// DefaultOptions returns the options of the standard report.
func DefaultOptions() Options {
	return Options{
		Dir:          "charts",
		Width:        1200,
		Height:       600,
		GridSize:     30,
		MinCount:     1,
		TopN:         5,
		SnapshotYear: 2023,
	}
}

// Output file names, in render order.
const (
	TrendsFile          = "01_consumption_price_trends.png"
	TopCountriesFile    = "02_top_countries.png"
	TypePreferencesFile = "03_coffee_type_preferences.png"
	PriceDemandFile     = "04_price_elasticity.png"
	TypeTrendsFile      = "05_coffee_type_trends.png"
	PopulationFile      = "06_population_vs_consumption.png"
)

// pngRenderer is satisfied by both gochart.Chart and gochart.BarChart.
type pngRenderer interface {
	Render(rp gochart.RendererProvider, w io.Writer) error
}

// Renderer writes the six report charts.
type Renderer struct {
	opts Options
	log  zerolog.Logger
}

// NewRenderer creates a renderer writing into opts.Dir.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		opts: opts,
		log:  logging.With().Str("component", "chart").Logger(),
	}
}

// RenderAll renders every chart whose table has rows and returns the paths
// written. Charts over empty tables are skipped with a warning.
func (r *Renderer) RenderAll(res *analysis.Results) ([]string, error) {
	jobs := []struct {
		file  string
		table string
		df    *dataframe.DataFrame
		build func(*dataframe.DataFrame, Options) (pngRenderer, error)
	}{
		{TrendsFile, analysis.TrendsByYear, res.TrendsByYear, asRenderer(TrendsChart)},
		{TopCountriesFile, analysis.TopCountries, res.TopCountries, asRenderer(TopCountriesChart)},
		{TypePreferencesFile, analysis.CoffeeTypeTrends, res.CoffeeTypeTrends, asRenderer(TypePreferencesChart)},
		{PriceDemandFile, analysis.PriceDemand, res.PriceDemand, asRenderer(PriceDemandChart)},
		{TypeTrendsFile, analysis.CoffeeTypeTrends, res.CoffeeTypeTrends, asRenderer(TypeTrendsChart)},
		{PopulationFile, analysis.PopulationVsConsumption, res.PopulationVsConsumption, asRenderer(PopulationChart)},
	}

	if err := os.MkdirAll(r.opts.Dir, 0o755); err != nil {
		return nil, errors.NewIOError("RenderChart", r.opts.Dir, err)
	}

	var written []string
	for _, job := range jobs {
		if job.df == nil || job.df.Len() == 0 {
			r.log.Warn().Str("table", job.table).Str("chart", job.file).Msg("no rows to plot, chart skipped")
			continue
		}

		c, err := job.build(job.df, r.opts)
		if err != nil {
			return written, errors.NewRenderError(job.table, err)
		}

		path := filepath.Join(r.opts.Dir, job.file)
		if err := writePNG(path, c); err != nil {
			return written, err
		}
		r.log.Info().Str("table", job.table).Str("path", path).Msg("chart written")
		written = append(written, path)
	}
	return written, nil
}

func asRenderer[C pngRenderer](build func(*dataframe.DataFrame, Options) (C, error)) func(*dataframe.DataFrame, Options) (pngRenderer, error) {
	return func(df *dataframe.DataFrame, opts Options) (pngRenderer, error) {
		c, err := build(df, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// writePNG renders c to path, replacing any existing file.
func writePNG(path string, c pngRenderer) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError("RenderChart", path, err)
	}

	if err := c.Render(gochart.PNG, f); err != nil {
		f.Close()
		return errors.NewRenderError(filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return errors.NewIOError("RenderChart", path, err)
	}
	return nil
}

func yearSpan(years []float64) string {
	lo, hi := extent(years)
	if lo == hi {
		return fmt.Sprintf("%.0f", lo)
	}
	return fmt.Sprintf("%.0f-%.0f", lo, hi)
}
