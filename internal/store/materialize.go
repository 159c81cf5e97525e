package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/errors"
)

// Materialize stores df as table, replacing any table of the same name.
// Column types follow the Arrow types of the DataFrame's columns.
func (s *Store) Materialize(ctx context.Context, table string, df *dataframe.DataFrame) error {
	if df.Width() == 0 {
		return &errors.PipelineError{
			Op:      "Materialize",
			Table:   table,
			Message: "source DataFrame has no columns",
			Cause:   errors.ErrEmptyDataFrame,
		}
	}

	names := df.Columns()
	columns := make([][]any, len(names))
	defs := make([]string, len(names))
	for i, name := range names {
		col, _ := df.Column(name)
		values, sqlType, err := columnValues(col)
		if err != nil {
			return err
		}
		columns[i] = values
		defs[i] = s.QuoteIdent(name) + " " + sqlType
	}

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.QuoteIdent(table)); err != nil {
		return errors.NewQueryError(table, err)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", s.QuoteIdent(table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return errors.NewQueryError(table, err)
	}

	if err := s.insertRows(ctx, table, names, columns, df.Len()); err != nil {
		return errors.NewQueryError(table, err)
	}

	s.log.Info().Str("table", table).Int("rows", df.Len()).Int("columns", len(names)).Msg("table materialized")
	return nil
}

func (s *Store) insertRows(ctx context.Context, table string, names []string, columns [][]any, rows int) error {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = s.QuoteIdent(name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.QuoteIdent(table), strings.Join(quoted, ", "), placeholders)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after a successful commit

	stmt, err := tx.PreparexContext(ctx, insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for row := 0; row < rows; row++ {
		for i, col := range columns {
			args[i] = col[row]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row %d: %w", row, err)
		}
	}

	return tx.Commit()
}

// columnValues extracts a column as driver values plus the SQL type to declare it with.
// Null cells become SQL NULL.
func columnValues(s dataframe.ISeries) ([]any, string, error) {
	arr := s.Array()
	defer arr.Release()

	values := make([]any, arr.Len())
	var sqlType string

	switch typed := arr.(type) {
	case *array.Int64:
		sqlType = "BIGINT"
		fill(values, typed, func(i int) any { return typed.Value(i) })
	case *array.Int32:
		sqlType = "BIGINT"
		fill(values, typed, func(i int) any { return int64(typed.Value(i)) })
	case *array.Float64:
		sqlType = "DOUBLE"
		fill(values, typed, func(i int) any { return typed.Value(i) })
	case *array.Float32:
		sqlType = "DOUBLE"
		fill(values, typed, func(i int) any { return float64(typed.Value(i)) })
	case *array.String:
		sqlType = "TEXT"
		fill(values, typed, func(i int) any { return typed.Value(i) })
	case *array.Boolean:
		sqlType = "BOOLEAN"
		fill(values, typed, func(i int) any { return typed.Value(i) })
	default:
		return nil, "", errors.NewUnsupportedTypeError("Materialize", s.Name(), arr.DataType().Name())
	}

	return values, sqlType, nil
}

func fill(values []any, arr arrow.Array, value func(int) any) {
	for i := range values {
		if !arr.IsNull(i) {
			values[i] = value(i)
		}
	}
}
