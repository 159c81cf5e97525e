// Package errors provides the structured error type shared by every stage of
// the coffee analysis pipeline. A PipelineError records which operation failed
// and, when known, the table or column involved, and wraps the root cause so
// callers can still use errors.Is and errors.As on it.
package errors

import (
	"fmt"
	"strings"
)

// PipelineError represents a failure in one pipeline operation
type PipelineError struct {
	Op      string // Operation name (e.g., "ReadCSV", "Query", "Export")
	Table   string // Table or file the operation worked on, if applicable
	Column  string // Column name, if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(" failed")
	if e.Table != "" {
		fmt.Fprintf(&sb, " on table '%s'", e.Table)
	}
	if e.Column != "" {
		fmt.Fprintf(&sb, " at column '%s'", e.Column)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause for error wrapping support
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports equality on Op, Table, Column and Message; the cause is ignored.
func (e *PipelineError) Is(target error) bool {
	if pe, ok := target.(*PipelineError); ok {
		return e.Op == pe.Op && e.Table == pe.Table && e.Column == pe.Column && e.Message == pe.Message
	}
	return false
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: message,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, column, typeName string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
	}
}

// NewQueryError wraps a store failure for the named result table.
func NewQueryError(table string, cause error) *PipelineError {
	return &PipelineError{
		Op:      "Query",
		Table:   table,
		Message: "query execution failed",
		Cause:   cause,
	}
}

// NewIOError wraps a filesystem or encoding failure on path.
func NewIOError(op, path string, cause error) *PipelineError {
	return &PipelineError{
		Op:      op,
		Table:   path,
		Message: "i/o error",
		Cause:   cause,
	}
}

// NewVerificationError reports a cross-check mismatch for one group of a table.
func NewVerificationError(table, column, message string) *PipelineError {
	return &PipelineError{
		Op:      "Verify",
		Table:   table,
		Column:  column,
		Message: message,
	}
}

// NewRenderError wraps a chart rendering failure for the named result table.
func NewRenderError(table string, cause error) *PipelineError {
	return &PipelineError{
		Op:      "RenderChart",
		Table:   table,
		Message: "chart rendering failed",
		Cause:   cause,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// ErrEmptyDataFrame indicates an operation that needs at least one column
var ErrEmptyDataFrame = &PipelineError{
	Op:      "validation",
	Message: "operation not supported on empty DataFrame",
}
