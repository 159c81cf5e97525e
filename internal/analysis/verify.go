package analysis

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/errors"
	dataio "github.com/paveg/coffeetrends/internal/io"
	"github.com/paveg/coffeetrends/internal/schema"
)

// relativeTolerance bounds the difference between a store average and the
// same average recomputed in memory.
const relativeTolerance = 1e-9

// groupCheck compares a result table with means recomputed by grouping a
// DataFrame on the corresponding key columns.
type groupCheck struct {
	table      string
	result     *dataframe.DataFrame
	source     *dataframe.DataFrame
	sourceKeys []string
	resultKeys []string
	// values maps result column to the source column it averages
	values    map[string]string
	tolerance float64
}

// Verify recomputes the grouped averages of res from the source DataFrame
// and reports the first group whose value differs.
func Verify(source *dataframe.DataFrame, res *Results, params Params) error {
	if source.Len() == 0 {
		for name, df := range res.tables() {
			if df.Len() != 0 {
				return errors.NewVerificationError(name, "", fmt.Sprintf("expected no rows for an empty source, got %d", df.Len()))
			}
		}
		return nil
	}

	years, err := source.Int64Values(schema.Year)
	if err != nil {
		return err
	}
	recent := source.Filter(func(row int) bool { return years[row] >= int64(params.RecentYear) })
	defer recent.Release()

	checks := []groupCheck{
		{
			table:      TrendsByYear,
			result:     res.TrendsByYear,
			source:     recent,
			sourceKeys: []string{schema.Year},
			resultKeys: []string{schema.AliasYear},
			values: map[string]string{
				schema.AliasAvgConsumption: schema.Consumption,
				schema.AliasAvgPrice:       schema.Price,
			},
		},
		{
			table:      CoffeeTypeTrends,
			result:     res.CoffeeTypeTrends,
			source:     source,
			sourceKeys: []string{schema.Year, schema.CoffeeType},
			resultKeys: []string{schema.AliasYear, schema.AliasCoffeeType},
			values:     map[string]string{schema.AliasAvgConsumption: schema.Consumption},
		},
		{
			table:      PriceDemand,
			result:     res.PriceDemand,
			source:     source,
			sourceKeys: []string{schema.Price},
			resultKeys: []string{schema.Price},
			values:     map[string]string{schema.AliasAvgConsumption: schema.Consumption},
		},
		{
			table:      PopulationVsConsumption,
			result:     res.PopulationVsConsumption,
			source:     source,
			sourceKeys: []string{schema.Population},
			resultKeys: []string{schema.Population},
			values:     map[string]string{schema.AliasAvgConsumption: schema.Consumption},
		},
	}

	for _, c := range checks {
		c.tolerance = relativeTolerance
		if err := c.run(); err != nil {
			return err
		}
	}

	return verifyTopCountries(source, res.TopCountries, params)
}

// verifyTopCountries checks the snapshot ranking: row count, descending
// order, and that no country left out consumed more than the last one kept.
func verifyTopCountries(source, top *dataframe.DataFrame, params Params) error {
	years, err := source.Int64Values(schema.Year)
	if err != nil {
		return err
	}
	consumption, err := source.Float64Values(schema.Consumption)
	if err != nil {
		return err
	}

	var snapshot []float64
	for i, y := range years {
		if y == int64(params.SnapshotYear) {
			snapshot = append(snapshot, consumption[i])
		}
	}

	if want := min(params.TopN, len(snapshot)); top.Len() != want {
		return errors.NewVerificationError(TopCountries, "", fmt.Sprintf("expected %d rows, got %d", want, top.Len()))
	}
	if top.Len() == 0 {
		return nil
	}

	got, err := top.Float64Values(schema.AliasConsumption)
	if err != nil {
		return err
	}
	for i := 1; i < len(got); i++ {
		if got[i] > got[i-1] {
			return errors.NewVerificationError(TopCountries, schema.AliasConsumption,
				fmt.Sprintf("row %d (%v) ranks above row %d (%v)", i, got[i], i-1, got[i-1]))
		}
	}

	floor := got[len(got)-1]
	above := 0
	for _, v := range snapshot {
		if v > floor {
			above++
		}
	}
	if above >= len(got) {
		return errors.NewVerificationError(TopCountries, schema.AliasConsumption,
			fmt.Sprintf("%d rows exceed the lowest kept value %v", above, floor))
	}
	return nil
}

func (c groupCheck) run() error {
	if c.result == nil {
		return errors.NewVerificationError(c.table, "", "result table is missing")
	}

	gb, err := c.source.GroupBy(c.sourceKeys...)
	if err != nil {
		return err
	}
	if gb.NumGroups() != c.result.Len() {
		return errors.NewVerificationError(c.table, "",
			fmt.Sprintf("expected %d groups, got %d rows", gb.NumGroups(), c.result.Len()))
	}

	resultKeys, err := joinedKeys(c.result, c.resultKeys)
	if err != nil {
		return err
	}

	for resultCol, sourceCol := range c.values {
		expected, err := gb.Mean(sourceCol, resultCol)
		if err != nil {
			return err
		}
		err = c.compare(expected, resultKeys, resultCol)
		expected.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c groupCheck) compare(expected *dataframe.DataFrame, resultKeys []string, column string) error {
	expectedKeys, err := joinedKeys(expected, c.sourceKeys)
	if err != nil {
		return err
	}
	expectedValues, err := expected.Float64Values(column)
	if err != nil {
		return err
	}
	want := make(map[string]float64, len(expectedKeys))
	for i, k := range expectedKeys {
		want[k] = expectedValues[i]
	}

	got, err := c.result.Float64Values(column)
	if err != nil {
		return err
	}
	for i, k := range resultKeys {
		w, ok := want[k]
		if !ok {
			return errors.NewVerificationError(c.table, column, fmt.Sprintf("unexpected group %s", displayKey(k)))
		}
		if !within(w, got[i], c.tolerance) {
			return errors.NewVerificationError(c.table, column,
				fmt.Sprintf("group %s: expected %v, got %v", displayKey(k), w, got[i]))
		}
	}
	return nil
}

func joinedKeys(df *dataframe.DataFrame, columns []string) ([]string, error) {
	parts := make([][]string, len(columns))
	for i, name := range columns {
		values, err := df.StringValues(name)
		if err != nil {
			return nil, err
		}
		parts[i] = values
	}

	keys := make([]string, df.Len())
	row := make([]string, len(columns))
	for i := range keys {
		for j := range parts {
			row[j] = parts[j][i]
		}
		keys[i] = strings.Join(row, "\x1f")
	}
	return keys, nil
}

func displayKey(k string) string {
	return "(" + strings.ReplaceAll(k, "\x1f", ", ") + ")"
}

// within compares two values, treating a pair of NaNs (null averages) as equal.
func within(want, got, tolerance float64) bool {
	if want == got || (math.IsNaN(want) && math.IsNaN(got)) {
		return true
	}
	scale := math.Max(1, math.Max(math.Abs(want), math.Abs(got)))
	return math.Abs(want-got) <= tolerance*scale
}

func (r *Results) tables() map[string]*dataframe.DataFrame {
	return map[string]*dataframe.DataFrame{
		TrendsByYear:            r.TrendsByYear,
		TopCountries:            r.TopCountries,
		CoffeeTypeTrends:        r.CoffeeTypeTrends,
		PriceDemand:             r.PriceDemand,
		PopulationVsConsumption: r.PopulationVsConsumption,
	}
}

// ExportCheck describes one exported table to read back.
type ExportCheck struct {
	Path  string
	Table *dataframe.DataFrame
	// Keys, when set, must identify rows uniquely; the re-read file is
	// regrouped on them and must reproduce every other column exactly.
	Keys []string
}

// VerifyExports re-reads each exported CSV and compares it with the table it
// was written from.
func VerifyExports(checks []ExportCheck, mem memory.Allocator) error {
	for _, c := range checks {
		if err := verifyExport(c, mem); err != nil {
			return err
		}
	}
	return nil
}

func verifyExport(c ExportCheck, mem memory.Allocator) error {
	reread, err := dataio.ReadCSVFile(c.Path, mem)
	if err != nil {
		return err
	}
	defer reread.Release()

	if c.Table.Len() == 0 {
		// a header-only file reads back as zero rows of strings
		if reread.Len() != 0 {
			return errors.NewVerificationError(c.Path, "", fmt.Sprintf("expected no rows, got %d", reread.Len()))
		}
		return nil
	}

	if got, want := reread.Columns(), c.Table.Columns(); strings.Join(got, ",") != strings.Join(want, ",") {
		return errors.NewVerificationError(c.Path, "", fmt.Sprintf("columns %v, expected %v", got, want))
	}
	if reread.Len() != c.Table.Len() {
		return errors.NewVerificationError(c.Path, "", fmt.Sprintf("%d rows, expected %d", reread.Len(), c.Table.Len()))
	}

	for _, name := range c.Table.Columns() {
		if err := compareColumn(c.Path, name, c.Table, reread); err != nil {
			return err
		}
	}

	if len(c.Keys) == 0 {
		return nil
	}

	values := make(map[string]string)
	for _, name := range c.Table.Columns() {
		col, _ := c.Table.Column(name)
		if !slices.Contains(c.Keys, name) && col.DataType().ID() != arrow.STRING {
			values[name] = name
		}
	}
	return groupCheck{
		table:      c.Path,
		result:     c.Table,
		source:     reread,
		sourceKeys: c.Keys,
		resultKeys: c.Keys,
		values:     values,
	}.run()
}

func compareColumn(path, name string, want, got *dataframe.DataFrame) error {
	col, _ := want.Column(name)
	if col.DataType().ID() == arrow.STRING {
		w, _ := want.StringValues(name)
		g, err := got.StringValues(name)
		if err != nil {
			return err
		}
		for i := range w {
			if w[i] != g[i] {
				return errors.NewVerificationError(path, name, fmt.Sprintf("row %d: expected %q, got %q", i, w[i], g[i]))
			}
		}
		return nil
	}

	w, err := want.Float64Values(name)
	if err != nil {
		return err
	}
	g, err := got.Float64Values(name)
	if err != nil {
		return errors.NewVerificationError(path, name, "column did not read back as numeric")
	}
	for i := range w {
		if !within(w[i], g[i], 0) {
			return errors.NewVerificationError(path, name, fmt.Sprintf("row %d: expected %v, got %v", i, w[i], g[i]))
		}
	}
	return nil
}
