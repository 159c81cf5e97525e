package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/errors"
	"github.com/paveg/coffeetrends/internal/series"
)

// WriteParquetFile writes df to path, replacing any existing file
func WriteParquetFile(path string, df *dataframe.DataFrame, options ParquetOptions) error {
	return WriteFile("WriteParquet", path, df, ParquetWriterFactory(options))
}

// ReadParquetFile reads a Parquet file written by WriteParquetFile
func ReadParquetFile(path string, mem memory.Allocator) (*dataframe.DataFrame, error) {
	return ReadFile("ReadParquet", path, func(r io.Reader) DataReader {
		return NewParquetReader(r, DefaultParquetOptions(), mem)
	})
}

// Read reads Parquet data and returns a DataFrame.
func (r *ParquetReader) Read() (*dataframe.DataFrame, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	seriesList := make([]dataframe.ISeries, 0, table.NumCols())
	for i := range int(table.NumCols()) {
		field := table.Schema().Field(i)
		s, err := r.columnToSeries(field.Name, table.Column(i))
		if err != nil {
			return nil, fmt.Errorf("converting column %s: %w", field.Name, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

// columnToSeries flattens a chunked Arrow column into a single series.
func (r *ParquetReader) columnToSeries(name string, column *arrow.Column) (dataframe.ISeries, error) {
	chunks := column.Data().Chunks()

	var arr arrow.Array
	if len(chunks) == 0 {
		arr = array.MakeArrayOfNull(r.mem, column.DataType(), 0)
	} else {
		merged, err := array.Concatenate(chunks, r.mem)
		if err != nil {
			return nil, err
		}
		arr = merged
	}
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.Int64:
		return nullableSeries(name, typed, typed.Value, r.mem)
	case *array.Int32:
		return nullableSeries(name, typed, typed.Value, r.mem)
	case *array.Float64:
		return nullableSeries(name, typed, typed.Value, r.mem)
	case *array.Float32:
		return nullableSeries(name, typed, typed.Value, r.mem)
	case *array.String:
		return nullableSeries(name, typed, typed.Value, r.mem)
	case *array.Boolean:
		return nullableSeries(name, typed, typed.Value, r.mem)
	default:
		return nil, errors.NewUnsupportedTypeError("ReadParquet", name, arr.DataType().Name())
	}
}

func nullableSeries[T any](name string, arr arrow.Array, value func(int) T, mem memory.Allocator) (dataframe.ISeries, error) {
	values := make([]T, arr.Len())
	valid := make([]bool, arr.Len())
	for i := range values {
		if !arr.IsNull(i) {
			values[i] = value(i)
			valid[i] = true
		}
	}
	return series.NewNullable(name, values, valid, mem)
}

// Write writes the DataFrame to Parquet format.
func (w *ParquetWriter) Write(df *dataframe.DataFrame) error {
	table := toArrowTable(df)
	defer table.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codecFor(w.options.Compression)),
		parquet.WithBatchSize(int64(w.options.BatchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	// pqarrow closes a sink that implements io.Closer; the caller owns w.writer.
	sink := struct{ io.Writer }{w.writer}
	writer, err := pqarrow.NewFileWriter(table.Schema(), sink, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	if err := writer.WriteTable(table, int64(max(df.Len(), 1))); err != nil {
		writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	return writer.Close()
}

func codecFor(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "zstd":
		return compress.Codecs.Zstd
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// toArrowTable wraps the DataFrame's own arrays; no values are copied.
func toArrowTable(df *dataframe.DataFrame) arrow.Table {
	fields := make([]arrow.Field, 0, df.Width())
	columns := make([]arrow.Column, 0, df.Width())

	for _, name := range df.Columns() {
		s, _ := df.Column(name)
		arr := s.Array()

		field := arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arr.Release()

		column := arrow.NewColumn(field, chunked)
		chunked.Release()

		fields = append(fields, field)
		columns = append(columns, *column)
	}

	table := array.NewTable(arrow.NewSchema(fields, nil), columns, int64(df.Len()))
	for i := range columns {
		columns[i].Release()
	}
	return table
}
