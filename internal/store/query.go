package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/errors"
	"github.com/paveg/coffeetrends/internal/series"
)

// valueKind is the column type inferred from scanned driver values.
type valueKind int

const (
	kindUnknown valueKind = iota
	kindBool
	kindInt
	kindFloat
	kindString
)

// Query runs a read-only query and returns the result set as a DataFrame.
// table names the queried table and is only used to annotate errors.
func (s *Store) Query(ctx context.Context, table, query string, args ...any) (*dataframe.DataFrame, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryError(table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.NewQueryError(table, err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.NewQueryError(table, err)
	}

	columns := make([][]any, len(names))
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, errors.NewQueryError(table, err)
		}
		for i, v := range values {
			columns[i] = append(columns[i], normalize(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryError(table, err)
	}

	mem := memory.NewGoAllocator()
	out := make([]dataframe.ISeries, 0, len(names))
	for i, name := range names {
		kind := kindUnknown
		for _, v := range columns[i] {
			kind = mergeKind(kind, kindOf(v))
		}
		if kind == kindUnknown {
			kind = kindFromDatabaseType(columnTypes[i].DatabaseTypeName())
		}

		col, err := buildSeries(name, columns[i], kind, mem)
		if err != nil {
			for _, built := range out {
				built.Release()
			}
			return nil, errors.NewQueryError(table, err)
		}
		out = append(out, col)
	}

	s.log.Debug().Str("table", table).Int("rows", rowCount(columns)).Int("columns", len(names)).Msg("query executed")
	return dataframe.New(out...), nil
}

func rowCount(columns [][]any) int {
	if len(columns) == 0 {
		return 0
	}
	return len(columns[0])
}

// normalize folds the driver-specific value types into int64, float64,
// string, bool or nil.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, int64, float64, string, bool:
		return t
	case []byte:
		return string(t)
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t) //nolint:gosec // aggregate counts stay far below the int64 range
	case float32:
		return float64(t)
	default:
		return fmt.Sprint(t)
	}
}

func kindOf(v any) valueKind {
	switch v.(type) {
	case bool:
		return kindBool
	case int64:
		return kindInt
	case float64:
		return kindFloat
	case string:
		return kindString
	default:
		return kindUnknown
	}
}

// mergeKind widens two kinds to one both fit in.
func mergeKind(a, b valueKind) valueKind {
	switch {
	case a == kindUnknown:
		return b
	case b == kindUnknown, a == b:
		return a
	case a == kindString || b == kindString:
		return kindString
	case a == kindBool || b == kindBool:
		return kindString
	default:
		return kindFloat
	}
}

// kindFromDatabaseType maps a declared column type for result sets with no
// non-null values. Unrecognized types default to float.
func kindFromDatabaseType(name string) valueKind {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "INT"):
		return kindInt
	case strings.Contains(upper, "BOOL"):
		return kindBool
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "TEXT"), strings.Contains(upper, "CLOB"):
		return kindString
	default:
		return kindFloat
	}
}

func buildSeries(name string, values []any, kind valueKind, mem memory.Allocator) (dataframe.ISeries, error) {
	switch kind {
	case kindBool:
		return erase(nullable(name, values, func(v any) bool { return v.(bool) }, mem))
	case kindInt:
		return erase(nullable(name, values, func(v any) int64 { return v.(int64) }, mem))
	case kindString:
		return erase(nullable(name, values, func(v any) string { return fmt.Sprint(v) }, mem))
	default:
		return erase(nullable(name, values, toFloat, mem))
	}
}

func erase[T any](s *series.Series[T], err error) (dataframe.ISeries, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return 0
	}
}

// nullable maps non-null values through fn; SQL NULLs become null cells.
func nullable[T any](name string, values []any, fn func(any) T, mem memory.Allocator) (*series.Series[T], error) {
	out := make([]T, len(values))
	valid := make([]bool, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = fn(v)
			valid[i] = true
		}
	}
	return series.NewNullable(name, out, valid, mem)
}
