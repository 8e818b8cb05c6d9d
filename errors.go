package dbfsql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/domain/model"
)

// Errors reported by reading DBF files, re-exported so callers only need this package
var (
	// ErrMalformedHeader indicates a file header or field descriptor table that cannot be parsed
	ErrMalformedHeader = dbf.ErrMalformedHeader

	// ErrUnsupportedFieldType indicates a field type code other than C, N, F, D or L
	ErrUnsupportedFieldType = dbf.ErrUnsupportedFieldType

	// ErrTruncatedRecord indicates a file that ends inside a declared record
	ErrTruncatedRecord = dbf.ErrTruncatedRecord

	// ErrUnsupportedCodec indicates an unknown text codec name
	ErrUnsupportedCodec = dbf.ErrUnsupportedCodec

	// ErrUnsupportedDialect indicates an unknown SQL dialect name
	ErrUnsupportedDialect = model.ErrUnsupportedDialect
)

// Standard error messages and error creation functions for consistency
var (
	// ErrSinkWrite indicates that an output file could not be created or written
	ErrSinkWrite = errors.New("dbfsql: sink write failed")

	// ErrUnsupportedFormat indicates an unsupported input or output file format
	ErrUnsupportedFormat = errors.New("dbfsql: unsupported file format")

	// ErrInvalidOptions indicates an option value that cannot be honored
	ErrInvalidOptions = errors.New("dbfsql: invalid options")

	// ErrMemoryLimit indicates memory limit exceeded
	ErrMemoryLimit = errors.New("dbfsql: memory limit exceeded")

	// ErrNoInput indicates a builder without any input source
	ErrNoInput = errors.New("dbfsql: no input files")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Error creates a formatted error with context.
// The result wraps baseErr, so errors.Is still matches the sentinel behind it.
func (ec *ErrorContext) Error(baseErr error) error {
	parts := []string{fmt.Sprintf("dbfsql: %s failed", ec.Operation)}

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}
	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}
	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return errors.New(context)
}

// sinkError wraps an output failure so that it matches both ErrSinkWrite and the OS error
func sinkError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSinkWrite, path, err)
}
