package analysis_test

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/coffeetrends/internal/analysis"
	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/schema"
	"github.com/paveg/coffeetrends/internal/series"
	"github.com/paveg/coffeetrends/internal/store"
	"github.com/paveg/coffeetrends/internal/testutil"
)

var drivers = []string{store.DriverSQLite, store.DriverDuckDB}

// eachDriver runs fn as a subtest per store driver.
func eachDriver(t *testing.T, fn func(t *testing.T, driver string)) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) { fn(t, driver) })
	}
}

func runFixture(t *testing.T, driver string, records ...testutil.CoffeeRecord) (*dataframe.DataFrame, *analysis.Results) {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, driver)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	source := testutil.CreateCoffeeDataFrame(memory.NewGoAllocator(), records...)
	t.Cleanup(source.Release)
	require.NoError(t, s.Materialize(ctx, schema.DefaultTable, source))

	res, err := analysis.NewEngine(s, analysis.DefaultParams()).Run(ctx)
	require.NoError(t, err)
	t.Cleanup(res.Release)
	return source, res
}

func TestRun_TrendsByYear(t *testing.T) {
	eachDriver(t, func(t *testing.T, driver string) {
		_, res := runFixture(t, driver)

		df := res.TrendsByYear
		testutil.AssertDataFrameHasColumns(t, df, []string{"Year", "AvgConsumption", "AvgPrice"})

		years, err := df.Int64Values("Year")
		require.NoError(t, err)
		assert.Equal(t, []int64{2015, 2016, 2023}, years)

		consumption, err := df.Float64Values("AvgConsumption")
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{27.5 / 3, 11.25, 62.2 / 7}, consumption, 1e-9)

		price, err := df.Float64Values("AvgPrice")
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{15.5 / 3, 6.0, 47.7 / 7}, price, 1e-9)
	})
}

func TestRun_TopCountries(t *testing.T) {
	eachDriver(t, func(t *testing.T, driver string) {
		_, res := runFixture(t, driver)

		df := res.TopCountries
		testutil.AssertDataFrameHasColumns(t, df, []string{"Country", "Consumption", "Population"})

		countries, err := df.StringValues("Country")
		require.NoError(t, err)
		assert.Equal(t, []string{"Finland", "Norway", "Iceland", "Denmark", "Sweden"}, countries)

		consumption, err := df.Float64Values("Consumption")
		require.NoError(t, err)
		assert.Equal(t, []float64{13.0, 10.5, 9.2, 8.7, 8.2}, consumption)

		population, err := df.Float64Values("Population")
		require.NoError(t, err)
		assert.Equal(t, []float64{5.6, 5.5, 0.4, 5.9, 10.5}, population)
	})
}

func TestRun_TopCountriesHonoursParams(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, store.DriverSQLite)
	require.NoError(t, err)
	defer s.Close()

	source := testutil.CreateCoffeeDataFrame(memory.NewGoAllocator())
	defer source.Release()
	require.NoError(t, s.Materialize(ctx, schema.DefaultTable, source))

	params := analysis.DefaultParams()
	params.SnapshotYear = 2015
	params.TopN = 10

	res, err := analysis.NewEngine(s, params).Run(ctx)
	require.NoError(t, err)
	defer res.Release()

	countries, err := res.TopCountries.StringValues("Country")
	require.NoError(t, err)
	assert.Equal(t, []string{"Finland", "Norway", "Brazil"}, countries)
}

func TestRun_CoffeeTypeTrendsIsUnfilteredVariant(t *testing.T) {
	eachDriver(t, func(t *testing.T, driver string) {
		_, res := runFixture(t, driver)

		df := res.CoffeeTypeTrends
		testutil.AssertDataFrameHasColumns(t, df, []string{"Year", "CoffeeType", "AvgConsumption"})
		require.Equal(t, 9, df.Len())

		years, err := df.Int64Values("Year")
		require.NoError(t, err)
		assert.Equal(t, []int64{2014, 2014, 2015, 2015, 2016, 2023, 2023, 2023, 2023}, years)

		types, err := df.StringValues("CoffeeType")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"Espresso", "Latte", "Espresso", "Latte", "Latte",
			"Americano", "Cappuccino", "Espresso", "Latte",
		}, types)

		avg, err := df.Float64Values("AvgConsumption")
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{11, 9, 9, 9.5, 11.25, 9.2, 6.3, 10.6, 9.6}, avg, 1e-9)
	})
}

func TestRun_PriceAndPopulation(t *testing.T) {
	eachDriver(t, func(t *testing.T, driver string) {
		_, res := runFixture(t, driver)

		testutil.AssertDataFrameHasColumns(t, res.PriceDemand, []string{schema.Price, "AvgConsumption"})
		assert.Equal(t, 11, res.PriceDemand.Len())

		prices, err := res.PriceDemand.Float64Values(schema.Price)
		require.NoError(t, err)
		assert.IsNonDecreasing(t, prices)
		assert.Equal(t, 4.0, prices[0])

		testutil.AssertDataFrameHasColumns(t, res.PopulationVsConsumption, []string{schema.Population, "AvgConsumption"})
		assert.Equal(t, 9, res.PopulationVsConsumption.Len())

		population, err := res.PopulationVsConsumption.Float64Values(schema.Population)
		require.NoError(t, err)
		assert.IsNonDecreasing(t, population)

		avg, err := res.PopulationVsConsumption.Float64Values("AvgConsumption")
		require.NoError(t, err)
		// 5.4 million: Norway in 2014, 2015 and 2016
		assert.InDelta(t, (9.0+9.5+10.0)/3, avg[1], 1e-9)
	})
}

func TestRun_EmptySource(t *testing.T) {
	eachDriver(t, func(t *testing.T, driver string) {
		source, res := runFixture(t, driver, []testutil.CoffeeRecord{}...)

		for _, df := range []*dataframe.DataFrame{
			res.TrendsByYear, res.TopCountries, res.CoffeeTypeTrends, res.PriceDemand, res.PopulationVsConsumption,
		} {
			require.NotNil(t, df)
			assert.Equal(t, 0, df.Len())
		}
		testutil.AssertDataFrameHasColumns(t, res.CoffeeTypeTrends, []string{"Year", "CoffeeType", "AvgConsumption"})

		assert.NoError(t, analysis.Verify(source, res, analysis.DefaultParams()))
	})
}

func TestRun_QueryError(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, store.DriverSQLite)
	require.NoError(t, err)
	defer s.Close()

	res, err := analysis.NewEngine(s, analysis.DefaultParams()).Run(ctx)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "Query failed on table 'trends_by_year'")
}

// recordingQuerier answers every query with a one-row frame and records the
// order of the calls.
type recordingQuerier struct {
	mem   memory.Allocator
	calls []string
}

func (q *recordingQuerier) QuoteIdent(name string) string {
	return `"` + name + `"`
}

func (q *recordingQuerier) Query(_ context.Context, table, _ string, _ ...any) (*dataframe.DataFrame, error) {
	q.calls = append(q.calls, table)
	return dataframe.New(series.New("n", []int64{int64(len(q.calls))}, q.mem)), nil
}

func TestRun_OrderAndReplacement(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	q := &recordingQuerier{mem: mem.Allocator}
	res, err := analysis.NewEngine(q, analysis.DefaultParams()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		analysis.TrendsByYear,
		analysis.TopCountries,
		analysis.CoffeeTypeTrends,
		analysis.PriceDemand,
		analysis.CoffeeTypeTrends,
		analysis.PopulationVsConsumption,
	}, q.calls)

	// the fifth query's frame replaced the third's
	n, err := res.CoffeeTypeTrends.Int64Values("n")
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, n)

	// releasing the results frees everything, including the replaced frame
	res.Release()
}

func TestDefaultParams(t *testing.T) {
	p := analysis.DefaultParams()
	assert.Equal(t, "coffee_habits", p.Table)
	assert.Equal(t, 2015, p.RecentYear)
	assert.Equal(t, 2023, p.SnapshotYear)
	assert.Equal(t, 5, p.TopN)
}

func TestRun_MissingSourceColumn(t *testing.T) {
	eachDriver(t, func(t *testing.T, driver string) {
		ctx := context.Background()
		s, err := store.Open(ctx, driver)
		require.NoError(t, err)
		defer s.Close()

		mem := memory.NewGoAllocator()
		source := dataframe.New(
			series.New(schema.Year, []int64{2015, 2023}, mem),
			series.New(schema.Country, []string{"Finland", "Norway"}, mem),
			series.New("Coffee Consumption", []float64{12, 10.5}, mem),
			series.New(schema.Price, []float64{5.5, 7}, mem),
			series.New(schema.CoffeeType, []string{"Espresso", "Latte"}, mem),
			series.New(schema.Population, []float64{5.5, 5.4}, mem),
		)
		defer source.Release()
		require.NoError(t, s.Materialize(ctx, schema.DefaultTable, source))

		res, err := analysis.NewEngine(s, analysis.DefaultParams()).Run(ctx)
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Contains(t, err.Error(), "Query failed on table 'trends_by_year'")
		assert.Contains(t, err.Error(), schema.Consumption)
	})
}
