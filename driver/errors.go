package driver

import "errors"

// Predefined errors
var (
	// ErrNoPathsProvided is returned when no paths are provided
	ErrNoPathsProvided = errors.New("dbfsql driver: no paths provided")

	// ErrNoFilesLoaded is returned when no files were loaded
	ErrNoFilesLoaded = errors.New("dbfsql driver: no files were loaded")

	// ErrInvalidDSN is returned when the data source name cannot be parsed
	ErrInvalidDSN = errors.New("dbfsql driver: invalid data source name")

	// ErrEmptyTableName is returned when a load has no table name
	ErrEmptyTableName = errors.New("dbfsql driver: empty table name")

	// ErrStmtExecContextNotSupported is returned when statement does not support ExecContext
	ErrStmtExecContextNotSupported = errors.New("dbfsql driver: statement does not support ExecContext")

	// ErrBeginTxNotSupported is returned when underlying connection does not support BeginTx
	ErrBeginTxNotSupported = errors.New("dbfsql driver: underlying connection does not support BeginTx")

	// ErrPrepareContextNotSupported is returned when underlying connection does not support PrepareContext
	ErrPrepareContextNotSupported = errors.New("dbfsql driver: underlying connection does not support PrepareContext")

	// ErrDuplicateTableName is returned when multiple files would create the same table name
	ErrDuplicateTableName = errors.New("dbfsql driver: duplicate table name")
)
