// Package io reads the source dataset into a DataFrame and writes result
// tables back out.
//
// CSV is the primary format: the reader infers a column type per column
// (bool, int, float, string in that order of preference) and the writer emits
// the table's own column names as the header row. Result tables can also be
// written as Parquet through Arrow's pqarrow writer.
//
// Memory management: DataFrames returned by readers hold Arrow buffers and must
// be released by the caller.
package io

import (
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/coffeetrends/internal/dataframe"
	"github.com/paveg/coffeetrends/internal/errors"
)

const (
	// DefaultBatchSize is the default batch size for Parquet writes
	DefaultBatchSize = 1000
)

// DataReader defines the interface for reading data from various sources
type DataReader interface {
	// Read reads data from the source and returns a DataFrame
	Read() (*dataframe.DataFrame, error)
}

// DataWriter defines the interface for writing data to various destinations
type DataWriter interface {
	// Write writes the DataFrame to the destination
	Write(df *dataframe.DataFrame) error
}

// ReadFile opens path and decodes it with the reader open returns.
// op names the operation in returned errors.
func ReadFile(op, path string, open func(io.Reader) DataReader) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError(op, path, err)
	}
	defer f.Close()

	df, err := open(f).Read()
	if err != nil {
		return nil, errors.NewIOError(op, path, err)
	}
	return df, nil
}

// WriteFile encodes df into path with the writer create returns, replacing
// any existing file. op names the operation in returned errors.
func WriteFile(op, path string, df *dataframe.DataFrame, create func(io.Writer) DataWriter) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIOError(op, path, err)
	}

	if err := create(f).Write(df); err != nil {
		f.Close()
		return errors.NewIOError(op, path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewIOError(op, path, err)
	}
	return nil
}

// CSVOptions contains configuration options for CSV operations
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
	// SkipInitialSpace indicates whether to skip initial whitespace
	SkipInitialSpace bool
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter: ',',
		Header:    true,
	}
}

// CSVReader reads CSV data and converts it to DataFrames
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	return &CSVReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// CSVWriter writes DataFrames to CSV format
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// CSVWriterFactory returns a WriteFile constructor for CSV with options.
func CSVWriterFactory(options CSVOptions) func(io.Writer) DataWriter {
	return func(w io.Writer) DataWriter { return NewCSVWriter(w, options) }
}

// NewCSVWriter creates a new CSV writer with the specified options
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{
		writer:  writer,
		options: options,
	}
}

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression is one of snappy, gzip, zstd, none
	Compression string
	// BatchSize for writing operations
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetReader reads Parquet data and converts it to DataFrames
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a new Parquet reader with the specified options
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	return &ParquetReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// ParquetWriter writes DataFrames to Parquet format
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// ParquetWriterFactory returns a WriteFile constructor for Parquet with options.
func ParquetWriterFactory(options ParquetOptions) func(io.Writer) DataWriter {
	return func(w io.Writer) DataWriter { return NewParquetWriter(w, options) }
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{
		writer:  writer,
		options: options,
	}
}
