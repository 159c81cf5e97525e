// Package testutil provides the fixtures shared by the pipeline's tests:
// an allocator context, a small coffee habits dataset with known aggregates,
// and DataFrame assertions.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/schema"
	"github.com/paveg/coffeetrends/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a checked allocator and asserts on Release that
// every Arrow buffer allocated through it was freed.
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewCheckedAllocator(memory.NewGoAllocator())

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			allocator.AssertSize(tb, 0)
		},
	}
}

// CoffeeRecord is one row of the source dataset.
type CoffeeRecord struct {
	Year        int64
	Country     string
	Consumption float64
	Price       float64
	CoffeeType  string
	Population  float64
}

// DefaultCoffeeRecords returns a fixture spanning 2014-2023.
//
// Known aggregates:
//   - years >= 2015: 2015, 2016, 2023
//   - 2023 has seven rows; the top five by consumption are Finland, Norway,
//     Iceland, Denmark, Sweden
//   - nine (Year, type) groups overall, seven from 2015 on
//   - eleven distinct prices, nine distinct populations
func DefaultCoffeeRecords() []CoffeeRecord {
	return []CoffeeRecord{
		{2014, "Finland", 11.0, 5.0, "Espresso", 5.5},
		{2014, "Norway", 9.0, 6.0, "Latte", 5.4},
		{2015, "Finland", 12.0, 5.5, "Espresso", 5.5},
		{2015, "Norway", 9.5, 6.0, "Latte", 5.4},
		{2015, "Brazil", 6.0, 4.0, "Espresso", 212.6},
		{2016, "Finland", 12.5, 5.5, "Latte", 5.5},
		{2016, "Norway", 10.0, 6.5, "Latte", 5.4},
		{2023, "Finland", 13.0, 7.0, "Espresso", 5.6},
		{2023, "Norway", 10.5, 7.5, "Latte", 5.5},
		{2023, "Brazil", 6.5, 5.0, "Cappuccino", 216.4},
		{2023, "Iceland", 9.2, 8.0, "Americano", 0.4},
		{2023, "Denmark", 8.7, 7.2, "Latte", 5.9},
		{2023, "Sweden", 8.2, 6.8, "Espresso", 10.5},
		{2023, "Germany", 6.1, 6.2, "Cappuccino", 84.1},
	}
}

// CreateCoffeeDataFrame builds a source DataFrame from records, or from
// DefaultCoffeeRecords when none are given.
func CreateCoffeeDataFrame(allocator memory.Allocator, records ...CoffeeRecord) *dataframe.DataFrame {
	if records == nil {
		records = DefaultCoffeeRecords()
	}

	n := len(records)
	years := make([]int64, n)
	countries := make([]string, n)
	consumption := make([]float64, n)
	prices := make([]float64, n)
	types := make([]string, n)
	population := make([]float64, n)

	for i, r := range records {
		years[i] = r.Year
		countries[i] = r.Country
		consumption[i] = r.Consumption
		prices[i] = r.Price
		types[i] = r.CoffeeType
		population[i] = r.Population
	}

	return dataframe.New(
		series.New(schema.Year, years, allocator),
		series.New(schema.Country, countries, allocator),
		series.New(schema.Consumption, consumption, allocator),
		series.New(schema.Price, prices, allocator),
		series.New(schema.CoffeeType, types, allocator),
		series.New(schema.Population, population, allocator),
	)
}

// CoffeeCSV renders records as the CSV text of the source dataset.
func CoffeeCSV(records []CoffeeRecord) string {
	var sb strings.Builder
	header := make([]string, 0, len(schema.Columns()))
	for _, c := range schema.Columns() {
		header = append(header, fmt.Sprintf("%q", c))
	}
	sb.WriteString(strings.Join(header, ","))
	sb.WriteString("\n")

	for _, r := range records {
		fmt.Fprintf(&sb, "%d,%s,%s,%s,%s,%s\n",
			r.Year, r.Country,
			strconv.FormatFloat(r.Consumption, 'g', -1, 64),
			strconv.FormatFloat(r.Price, 'g', -1, 64),
			r.CoffeeType,
			strconv.FormatFloat(r.Population, 'g', -1, 64),
		)
	}
	return sb.String()
}

// WriteCoffeeCSV writes records to worldwide_coffee_habits.csv in a fresh
// temporary directory and returns the file path.
func WriteCoffeeCSV(tb testing.TB, records []CoffeeRecord) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "worldwide_coffee_habits.csv")
	require.NoError(tb, os.WriteFile(path, []byte(CoffeeCSV(records)), 0o600))
	return path
}

// AssertDataFrameEqual compares column names and the string form of every cell.
func AssertDataFrameEqual(t *testing.T, expected, actual *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, expected, "expected DataFrame should not be nil")
	require.NotNil(t, actual, "actual DataFrame should not be nil")

	assert.Equal(t, expected.Len(), actual.Len(), "DataFrame lengths should match")
	require.Equal(t, expected.Columns(), actual.Columns(), "DataFrame columns should match")

	for _, name := range expected.Columns() {
		want, err := expected.StringValues(name)
		require.NoError(t, err)
		got, err := actual.StringValues(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, "column %s data should match", name)
	}
}

// AssertDataFrameHasColumns verifies that a DataFrame has exactly the expected columns.
func AssertDataFrameHasColumns(t *testing.T, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Equal(t, expectedColumns, df.Columns())
}
