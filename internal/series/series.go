// Package series provides the typed, Arrow-backed column used by DataFrames.
package series

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Series represents a typed data column with Apache Arrow backend
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values.
// It panics on element types Arrow cannot hold; use NewSafe to get an error.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	s, err := NewSafe(name, values, mem)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSafe creates a new Series and reports unsupported element types as an error.
func NewSafe[T any](name string, values []T, mem memory.Allocator) (*Series[T], error) {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a Series whose validity follows valid: row i is null
// when valid[i] is false. A nil valid slice marks every row valid.
func NewNullable[T any](name string, values []T, valid []bool, mem memory.Allocator) (*Series[T], error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if valid != nil && len(valid) != len(values) {
		return nil, fmt.Errorf("creating series %q: %d validity flags for %d values", name, len(valid), len(values))
	}

	arr, err := buildArray(values, valid, mem)
	if err != nil {
		return nil, fmt.Errorf("creating series %q: %w", name, err)
	}

	return &Series[T]{
		name:  name,
		array: arr,
	}, nil
}

func buildArray[T any](values []T, valid []bool, mem memory.Allocator) (arrow.Array, error) {
	switch v := any(values).(type) {
	case []string:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray(), nil
	case []int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray(), nil
	case []int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray(), nil
	case []float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray(), nil
	case []float32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray(), nil
	case []bool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", values)
	}
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Values returns the data as a Go slice
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Value returns the value at the given index, or the zero value when out of range
func (s *Series[T]) Value(index int) T {
	var zero T
	if index < 0 || index >= s.array.Len() {
		return zero
	}

	var v any
	switch arr := s.array.(type) {
	case *array.String:
		v = arr.Value(index)
	case *array.Int64:
		v = arr.Value(index)
	case *array.Int32:
		v = arr.Value(index)
	case *array.Float64:
		v = arr.Value(index)
	case *array.Float32:
		v = arr.Value(index)
	case *array.Boolean:
		v = arr.Value(index)
	}

	if typed, ok := v.(T); ok {
		return typed
	}
	return zero
}

// GetAsString returns the value at index formatted for CSV and console output.
// Floats use the shortest plain decimal that parses back to the same value.
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return ""
	}

	switch arr := s.array.(type) {
	case *array.String:
		return arr.Value(index)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(index), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(arr.Value(index)), 10)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(index), 'f', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(arr.Value(index)), 'f', -1, 32)
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(index))
	default:
		return ""
	}
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
