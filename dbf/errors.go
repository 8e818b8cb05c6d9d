package dbf

import "errors"

// Predefined errors
var (
	// ErrMalformedHeader is returned when the file header or field descriptor table
	// violates the fixed layout. It aborts the session before any record is read.
	ErrMalformedHeader = errors.New("dbf: malformed header")

	// ErrUnsupportedFieldType is returned when a record reaches a field whose
	// type code is not one of C, N, F, D or L.
	ErrUnsupportedFieldType = errors.New("dbf: unsupported field type")

	// ErrTruncatedRecord is returned when the source ends inside a declared record slot
	ErrTruncatedRecord = errors.New("dbf: truncated record")

	// ErrUnsupportedCodec is returned when a text codec name cannot be resolved
	ErrUnsupportedCodec = errors.New("dbf: unsupported text codec")

	// ErrReaderClosed is returned when a closed reader is used
	ErrReaderClosed = errors.New("dbf: reader is closed")
)
