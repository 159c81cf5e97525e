package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/paveg/coffeetrends/internal/config"
	"github.com/paveg/coffeetrends/internal/logging"
	"github.com/paveg/coffeetrends/internal/pipeline"
	"github.com/paveg/coffeetrends/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintf(w, "coffeetrends: worldwide coffee habits analysis (version %s)\n\n", version.Version)
	fmt.Fprintf(w, "Usage: coffeetrends [options]\n\n")
	fmt.Fprintf(w, "Options:\n")
	fmt.Fprintf(w, "  -config FILE\n\t\tLoad settings from a YAML or JSON file\n")
	fmt.Fprintf(w, "  -input FILE\n\t\tSource CSV (default: %s)\n", config.DefaultInput)
	fmt.Fprintf(w, "  -out DIR\n\t\tDirectory for the exported tables (default: %s)\n", config.DefaultOutputDir)
	fmt.Fprintf(w, "  -charts DIR\n\t\tDirectory for the PNG charts (default: %s)\n", config.DefaultChartDir)
	fmt.Fprintf(w, "  -driver NAME\n\t\tIn-memory SQL engine, sqlite3 or duckdb (default: %s)\n", config.DefaultDriver)
	fmt.Fprintf(w, "  -verify\n\t\tCross-check query results and exported files\n")
	fmt.Fprintf(w, "  -no-charts\n\t\tSkip chart rendering\n")
	fmt.Fprintf(w, "  -v, -version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(w, "  -h, -help\n\t\tShow this help message and exit\n\n")
	fmt.Fprintf(w, "Settings are applied in order: defaults, config file, %s* environment, flags.\n", config.EnvPrefix)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("coffeetrends", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }

	configFile := fs.String("config", "", "YAML or JSON config file")
	input := fs.String("input", "", "source CSV")
	out := fs.String("out", "", "output directory for the exported tables")
	charts := fs.String("charts", "", "output directory for the charts")
	driver := fs.String("driver", "", "in-memory SQL engine")
	verify := fs.Bool("verify", false, "cross-check results")
	noCharts := fs.Bool("no-charts", false, "skip chart rendering")
	versionFlag := fs.Bool("v", false, "print version and exit")
	fs.BoolVar(versionFlag, "version", false, "print version and exit") // alias

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *versionFlag {
		fmt.Fprint(stdout, version.Info().String())
		return 0
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "coffeetrends: %v\n", err)
		return 1
	}

	// only flags given on the command line override file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *input
		case "out":
			cfg.OutputDir = *out
		case "charts":
			cfg.ChartDir = *charts
		case "driver":
			cfg.Driver = *driver
		case "verify":
			cfg.Verify = *verify
		case "no-charts":
			cfg.RenderCharts = !*noCharts
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "coffeetrends: %v\n", err)
		return 1
	}

	logging.Init(logging.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Timestamp: true,
		Output:    stderr,
	})

	if _, err := pipeline.New(cfg, pipeline.WithOutput(stdout)).Run(context.Background()); err != nil {
		logging.Err(err).Msg("analysis failed")
		return 1
	}
	return 0
}
