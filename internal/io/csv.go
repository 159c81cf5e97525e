package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/series"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

type inferredType int

const (
	stringType inferredType = iota
	boolType
	intType
	floatType
)

// ReadCSVFile opens path and reads it with the default options
func ReadCSVFile(path string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	return ReadFile("ReadCSV", path, func(r io.Reader) DataReader {
		return NewCSVReader(r, DefaultCSVOptions(), mem)
	})
}

// WriteCSVFile writes df to path with the default options, replacing any existing file
func WriteCSVFile(path string, df *dataframe.DataFrame) error {
	return WriteFile("WriteCSV", path, df, CSVWriterFactory(DefaultCSVOptions()))
}

// Read reads CSV data and returns a DataFrame
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	var dataRows [][]string

	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}

	// Transpose data to work with columns
	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	seriesList := make([]dataframe.ISeries, 0, len(headers))
	for i, header := range headers {
		s, err := r.createSeriesFromStrings(header, columns[i])
		if err != nil {
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

// createSeriesFromStrings creates a series from string data, inferring the appropriate type.
// Empty cells become nulls.
func (r *CSVReader) createSeriesFromStrings(name string, data []string) (dataframe.ISeries, error) {
	switch inferDataType(data) {
	case boolType:
		values, valid := parseColumn(data, func(v string) bool {
			return strings.EqualFold(v, trueStr)
		})
		return series.NewNullable(name, values, valid, r.mem)
	case intType:
		values, valid := parseColumn(data, func(v string) int64 {
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		})
		return series.NewNullable(name, values, valid, r.mem)
	case floatType:
		values, valid := parseColumn(data, func(v string) float64 {
			f, _ := strconv.ParseFloat(v, 64)
			return f
		})
		return series.NewNullable(name, values, valid, r.mem)
	default:
		values, valid := parseColumn(data, func(v string) string { return v })
		return series.NewNullable(name, values, valid, r.mem)
	}
}

// parseColumn converts every non-empty value and reports which cells held one.
func parseColumn[T any](data []string, parse func(string) T) ([]T, []bool) {
	out := make([]T, len(data))
	valid := make([]bool, len(data))
	for i, v := range data {
		if v != "" {
			out[i] = parse(v)
			valid[i] = true
		}
	}
	return out, valid
}

// inferDataType determines the most specific type every non-empty value parses as
func inferDataType(data []string) inferredType {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasNonEmptyValue := false

	for _, value := range data {
		if value == "" {
			continue
		}
		hasNonEmptyValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}

		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}

		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	switch {
	case !hasNonEmptyValue:
		return stringType
	case canBeBool:
		return boolType
	case canBeInt:
		return intType
	case canBeFloat:
		return floatType
	default:
		return stringType
	}
}

// Write writes the DataFrame to CSV format
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter

	if w.options.Header {
		if err := csvWriter.Write(df.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	columns := make([]dataframe.ISeries, 0, df.Width())
	for _, name := range df.Columns() {
		s, _ := df.Column(name)
		columns = append(columns, s)
	}

	row := make([]string, len(columns))
	for i := 0; i < df.Len(); i++ {
		for j, s := range columns {
			row[j] = s.GetAsString(i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
