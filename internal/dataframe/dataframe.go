// Package dataframe provides the in-memory table the pipeline loads CSV data
// into and receives query results as.
//
// A DataFrame is an ordered set of named, Arrow-backed columns of equal length.
// Operations that derive a new DataFrame (Head, Take, Filter, GroupBy) copy the
// selected values into fresh arrays, so the result can be released
// independently of its source.
package dataframe

import (
	"fmt"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/coffeetrends/internal/errors"
	"github.com/paveg/coffeetrends/internal/series"
	"golang.org/x/exp/constraints"
)

// DataFrame represents a table of data with typed columns
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// ColumnInfo describes one column for schema listings
type ColumnInfo struct {
	Name    string
	NonNull int
	Dtype   string
}

// New creates a new DataFrame from a slice of ISeries
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		columns[name] = s
		order = append(order, name)
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	return append([]string{}, df.order...)
}

// Len returns the number of rows
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	s, exists := df.columns[name]
	return s, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Select returns a new DataFrame with only the specified columns.
// The returned frame shares column memory with df; release only one of them.
func (df *DataFrame) Select(names ...string) *DataFrame {
	selected := make([]ISeries, 0, len(names))
	for _, name := range names {
		if s, exists := df.columns[name]; exists {
			selected = append(selected, s)
		}
	}
	return New(selected...)
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}
	for _, name := range df.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, df.columns[name].DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Info lists every column with its non-null count and Arrow type name
func (df *DataFrame) Info() []ColumnInfo {
	infos := make([]ColumnInfo, 0, len(df.order))
	for _, name := range df.order {
		arr := df.columns[name].Array()
		infos = append(infos, ColumnInfo{
			Name:    name,
			NonNull: arr.Len() - arr.NullN(),
			Dtype:   arr.DataType().Name(),
		})
		arr.Release()
	}
	return infos
}

// Head returns a copy of the first n rows (fewer if the frame is shorter)
func (df *DataFrame) Head(n int) *DataFrame {
	n = min(max(n, 0), df.Len())
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return df.Take(indices)
}

// Filter returns a copy holding the rows for which keep returns true
func (df *DataFrame) Filter(keep func(row int) bool) *DataFrame {
	var indices []int
	for i := 0; i < df.Len(); i++ {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	return df.Take(indices)
}

// Take returns a copy holding the given rows in the given order
func (df *DataFrame) Take(indices []int) *DataFrame {
	mem := memory.NewGoAllocator()

	taken := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		taken = append(taken, takeSeries(df.columns[name], indices, mem))
	}
	return New(taken...)
}

func takeSeries(s ISeries, indices []int, mem memory.Allocator) ISeries {
	arr := s.Array()
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.String:
		return takeTyped(s.Name(), typed, indices, mem, typed.Value)
	case *array.Int64:
		return takeTyped(s.Name(), typed, indices, mem, typed.Value)
	case *array.Int32:
		return takeTyped(s.Name(), typed, indices, mem, typed.Value)
	case *array.Float64:
		return takeTyped(s.Name(), typed, indices, mem, typed.Value)
	case *array.Float32:
		return takeTyped(s.Name(), typed, indices, mem, typed.Value)
	case *array.Boolean:
		return takeTyped(s.Name(), typed, indices, mem, typed.Value)
	default:
		return series.New(s.Name(), make([]string, len(indices)), mem)
	}
}

// takeTyped copies the selected rows. Nulls and out-of-range indices yield nulls.
func takeTyped[T any](
	name string, arr arrow.Array, indices []int, mem memory.Allocator, value func(int) T,
) ISeries {
	values := make([]T, len(indices))
	valid := make([]bool, len(indices))
	for i, idx := range indices {
		if idx >= 0 && idx < arr.Len() && !arr.IsNull(idx) {
			values[i] = value(idx)
			valid[i] = true
		}
	}
	s, err := series.NewNullable(name, values, valid, mem)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// Float64Values returns a numeric column as float64, widening integer columns.
// Null cells read as NaN.
func (df *DataFrame) Float64Values(name string) ([]float64, error) {
	s, ok := df.columns[name]
	if !ok {
		return nil, errors.NewColumnNotFoundError("Float64Values", name)
	}

	arr := s.Array()
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.Float64:
		return widen(typed, typed.Value), nil
	case *array.Float32:
		return widen(typed, typed.Value), nil
	case *array.Int64:
		return widen(typed, typed.Value), nil
	case *array.Int32:
		return widen(typed, typed.Value), nil
	default:
		return nil, errors.NewUnsupportedTypeError("Float64Values", name, arr.DataType().Name())
	}
}

func widen[T constraints.Integer | constraints.Float](arr arrow.Array, value func(int) T) []float64 {
	values := make([]float64, arr.Len())
	for i := range values {
		if arr.IsNull(i) {
			values[i] = math.NaN()
			continue
		}
		values[i] = float64(value(i))
	}
	return values
}

// Int64Values returns an integer column as int64. Null cells read as zero.
func (df *DataFrame) Int64Values(name string) ([]int64, error) {
	s, ok := df.columns[name]
	if !ok {
		return nil, errors.NewColumnNotFoundError("Int64Values", name)
	}

	arr := s.Array()
	defer arr.Release()

	values := make([]int64, arr.Len())
	switch typed := arr.(type) {
	case *array.Int64:
		for i := range values {
			if typed.IsValid(i) {
				values[i] = typed.Value(i)
			}
		}
	case *array.Int32:
		for i := range values {
			if typed.IsValid(i) {
				values[i] = int64(typed.Value(i))
			}
		}
	default:
		return nil, errors.NewUnsupportedTypeError("Int64Values", name, arr.DataType().Name())
	}
	return values, nil
}

// StringValues returns any column formatted as strings
func (df *DataFrame) StringValues(name string) ([]string, error) {
	s, ok := df.columns[name]
	if !ok {
		return nil, errors.NewColumnNotFoundError("StringValues", name)
	}

	values := make([]string, s.Len())
	for i := range values {
		values[i] = s.GetAsString(i)
	}
	return values, nil
}

// Release releases all underlying Arrow memory
func (df *DataFrame) Release() {
	for _, s := range df.columns {
		s.Release()
	}
}
