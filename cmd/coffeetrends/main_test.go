package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/coffeetrends/internal/testutil"
)

func TestRun_Version(t *testing.T) {
	for _, flag := range []string{"-v", "-version"} {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 0, run([]string{flag}, &stdout, &stderr))
		assert.Contains(t, stdout.String(), "coffeetrends")
		assert.Contains(t, stdout.String(), "Go Version:")
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: coffeetrends [options]")
	assert.Contains(t, stderr.String(), "-no-charts")
}

func TestRun_Analysis(t *testing.T) {
	input := testutil.WriteCoffeeCSV(t, testutil.DefaultCoffeeRecords())
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-input", input, "-out", out, "-no-charts", "-verify"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), "Analysis Thoughts:")
	for _, name := range []string{"trends_by_year.csv", "top_countries_2023.csv", "coffee_type_trends.csv"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
}

func TestRun_Precedence(t *testing.T) {
	input := testutil.WriteCoffeeCSV(t, testutil.DefaultCoffeeRecords())
	dir := t.TempDir()

	cfgFile := filepath.Join(dir, "coffee.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"top_n: 2\noutput_dir: "+filepath.Join(dir, "from-file")+"\nrender_charts: false\n"), 0o600))
	t.Setenv("COFFEE_OUTPUT_DIR", filepath.Join(dir, "from-env"))
	t.Setenv("COFFEE_LOG_LEVEL", "disabled")

	out := filepath.Join(dir, "from-flag")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfgFile, "-input", input, "-out", out}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	raw, err := os.ReadFile(filepath.Join(out, "top_countries_2023.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(raw)), "\n"), 3)
	assert.NoDirExists(t, filepath.Join(dir, "from-file"))
	assert.NoDirExists(t, filepath.Join(dir, "from-env"))
	assert.NoDirExists(t, filepath.Join(dir, "charts"))
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"unknown flag", []string{"-bogus"}, "flag provided but not defined"},
		{"missing config", []string{"-config", filepath.Join(dir, "none.yaml")}, "reading config file"},
		{"invalid driver", []string{"-driver", "postgres"}, "Driver must be one of"},
		{"missing input", []string{"-input", filepath.Join(dir, "none.csv"), "-out", dir}, "analysis failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 1, run(tt.args, &stdout, &stderr))
			assert.Contains(t, stderr.String(), tt.message)
		})
	}
}
