package dataframe

import (
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/coffeetrends/internal/errors"
	"github.com/paveg/coffeetrends/internal/series"
	"golang.org/x/exp/constraints"
)

// keySeparator joins the string forms of multi-column keys.
const keySeparator = "\x1f"

// GroupBy holds the rows of a DataFrame partitioned by the values of key columns
type GroupBy struct {
	df          *DataFrame
	groupByCols []string
	index       *groupIndex
	firstRows   []int
}

// GroupBy partitions rows by the exact string form of the given columns.
// Groups are reported in order of first appearance. A numeric key is therefore
// grouped by its exact value, like a SQL GROUP BY on that column.
func (df *DataFrame) GroupBy(columns ...string) (*GroupBy, error) {
	if len(columns) == 0 {
		return nil, errors.NewInvalidInputError("GroupBy", "at least one key column is required")
	}

	keyCols := make([]ISeries, len(columns))
	for i, name := range columns {
		s, ok := df.columns[name]
		if !ok {
			return nil, errors.NewColumnNotFoundError("GroupBy", name)
		}
		keyCols[i] = s
	}

	gb := &GroupBy{
		df:          df,
		groupByCols: append([]string{}, columns...),
		index:       newGroupIndex(df.Len()),
	}

	parts := make([]string, len(keyCols))
	for row := 0; row < df.Len(); row++ {
		for i, s := range keyCols {
			parts[i] = s.GetAsString(row)
		}
		key := strings.Join(parts, keySeparator)
		if _, seen := gb.index.get(key); !seen {
			gb.firstRows = append(gb.firstRows, row)
		}
		gb.index.put(key, row)
	}

	return gb, nil
}

// NumGroups returns the number of distinct keys
func (gb *GroupBy) NumGroups() int {
	return len(gb.index.keys)
}

// Mean returns the key columns followed by the per-group mean of column, named as.
func (gb *GroupBy) Mean(column, as string) (*DataFrame, error) {
	values, err := gb.df.Float64Values(column)
	if err != nil {
		return nil, err
	}

	means := make([]float64, 0, gb.NumGroups())
	for _, key := range gb.index.keys {
		rows, _ := gb.index.get(key)
		group := make([]float64, len(rows))
		for i, r := range rows {
			group[i] = values[r]
		}
		means = append(means, Mean(group))
	}

	return gb.result(series.New(as, means, memory.NewGoAllocator())), nil
}

// Count returns the key columns followed by the per-group row count, named as.
func (gb *GroupBy) Count(as string) *DataFrame {
	counts := make([]int64, 0, gb.NumGroups())
	for _, key := range gb.index.keys {
		rows, _ := gb.index.get(key)
		counts = append(counts, int64(len(rows)))
	}
	return gb.result(series.New(as, counts, memory.NewGoAllocator()))
}

func (gb *GroupBy) result(agg ISeries) *DataFrame {
	keys := gb.df.Select(gb.groupByCols...).Take(gb.firstRows)
	cols := make([]ISeries, 0, keys.Width()+1)
	for _, name := range keys.Columns() {
		s, _ := keys.Column(name)
		cols = append(cols, s)
	}
	return New(append(cols, agg)...)
}

// Mean returns the arithmetic mean of values, skipping NaN the way SQL AVG
// skips NULL. It returns 0 for an empty slice and NaN when every value is NaN.
func Mean[T constraints.Integer | constraints.Float](values []T) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	n := 0
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
