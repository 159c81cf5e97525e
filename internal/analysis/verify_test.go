package analysis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/coffeetrends/internal/analysis"
	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/errors"
	dataio "github.com/paveg/coffeetrends/internal/io"
	"github.com/paveg/coffeetrends/internal/series"
	"github.com/paveg/coffeetrends/internal/store"
)

func TestVerify_Passes(t *testing.T) {
	eachDriver(t, func(t *testing.T, driver string) {
		source, res := runFixture(t, driver)
		assert.NoError(t, analysis.Verify(source, res, analysis.DefaultParams()))
	})
}

func TestVerify_DetectsWrongAverage(t *testing.T) {
	source, res := runFixture(t, store.DriverSQLite)

	mem := memory.NewGoAllocator()
	tampered := dataframe.New(
		series.New("Year", []int64{2015, 2016, 2023}, mem),
		series.New("AvgConsumption", []float64{9.0, 11.25, 62.2 / 7}, mem),
		series.New("AvgPrice", []float64{15.5 / 3, 6.0, 47.7 / 7}, mem),
	)
	res.TrendsByYear.Release()
	res.TrendsByYear = tampered

	err := analysis.Verify(source, res, analysis.DefaultParams())
	require.Error(t, err)

	var pe *errors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Verify", pe.Op)
	assert.Equal(t, analysis.TrendsByYear, pe.Table)
	assert.Equal(t, "AvgConsumption", pe.Column)
	assert.Contains(t, err.Error(), "group (2015)")
}

func TestVerify_DetectsMissingGroup(t *testing.T) {
	source, res := runFixture(t, store.DriverSQLite)

	trimmed := res.PriceDemand.Head(3)
	res.PriceDemand.Release()
	res.PriceDemand = trimmed

	err := analysis.Verify(source, res, analysis.DefaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 11 groups, got 3 rows")
}

func TestVerify_DetectsShortRanking(t *testing.T) {
	source, res := runFixture(t, store.DriverSQLite)

	trimmed := res.TopCountries.Head(2)
	res.TopCountries.Release()
	res.TopCountries = trimmed

	err := analysis.Verify(source, res, analysis.DefaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 5 rows, got 2")
}

func TestVerifyExports(t *testing.T) {
	_, res := runFixture(t, store.DriverSQLite)
	dir := t.TempDir()

	trends := filepath.Join(dir, "trends_by_year.csv")
	types := filepath.Join(dir, "coffee_type_trends.csv")
	top := filepath.Join(dir, "top_countries_2023.csv")
	require.NoError(t, dataio.WriteCSVFile(trends, res.TrendsByYear))
	require.NoError(t, dataio.WriteCSVFile(types, res.CoffeeTypeTrends))
	require.NoError(t, dataio.WriteCSVFile(top, res.TopCountries))

	checks := []analysis.ExportCheck{
		{Path: trends, Table: res.TrendsByYear, Keys: []string{"Year"}},
		{Path: top, Table: res.TopCountries},
		{Path: types, Table: res.CoffeeTypeTrends, Keys: []string{"Year", "CoffeeType"}},
	}
	assert.NoError(t, analysis.VerifyExports(checks, memory.NewGoAllocator()))
}

func TestVerifyExports_DetectsEditedFile(t *testing.T) {
	_, res := runFixture(t, store.DriverSQLite)
	path := filepath.Join(t.TempDir(), "trends_by_year.csv")

	content := "Year,AvgConsumption,AvgPrice\n2015,1,2\n2016,11.25,6\n2023,3,4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	err := analysis.VerifyExports([]analysis.ExportCheck{
		{Path: path, Table: res.TrendsByYear, Keys: []string{"Year"}},
	}, memory.NewGoAllocator())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")
}

func TestVerifyExports_MissingFile(t *testing.T) {
	_, res := runFixture(t, store.DriverSQLite)

	err := analysis.VerifyExports([]analysis.ExportCheck{
		{Path: filepath.Join(t.TempDir(), "nope.csv"), Table: res.TrendsByYear},
	}, memory.NewGoAllocator())
	require.Error(t, err)
}
