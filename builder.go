package dbfsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/nao1215/dbfsql/domain/model"
	dbfdriver "github.com/nao1215/dbfsql/driver"
)

// DBBuilder is a builder for creating database connections from DBF files and embedded filesystems.
// It provides a flexible way to configure input sources before creating a database connection.
// Use NewBuilder to create a new instance, then chain method calls to configure it.
//
// The typical usage pattern is:
//
//	builder := dbfsql.NewBuilder().AddPath("parcels.dbf").AddFS(embeddedFS)
//	validatedBuilder, err := builder.Build(ctx)
//	if err != nil {
//		return err
//	}
//	db, err := validatedBuilder.Open(ctx)
//	defer db.Close()
//	defer validatedBuilder.Cleanup() // Clean up temporary files
type DBBuilder struct {
	// paths contains regular file paths
	paths []string
	// filesystems contains fs.FS instances
	filesystems []fs.FS
	// collectedPaths contains all paths after Build validation
	collectedPaths []string
	// tempDir holds files copied out of filesystems
	tempDir string
	// opts configures decoding and loading
	opts Options
	// validator checks inputs during Build
	validator *validator
}

// NewBuilder creates a new database builder for configuring file inputs.
// Files are decoded with NewTableOptions unless WithOptions replaces them.
//
// Example:
//
//	builder := dbfsql.NewBuilder()
//	builder.AddPath("parcels.dbf")
//	builder.AddPath("owners.dbf.gz")
//	validatedBuilder, err := builder.Build(ctx)
//	if err != nil {
//		return err
//	}
//	db, err := validatedBuilder.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//	defer validatedBuilder.Cleanup()
func NewBuilder() *DBBuilder {
	return &DBBuilder{
		paths:          make([]string, 0),
		filesystems:    make([]fs.FS, 0),
		collectedPaths: make([]string, 0),
		opts:           NewTableOptions(),
		validator:      newValidator(),
	}
}

// AddPath adds a DBF file or directory path to the builder.
// The path can be:
// - A single .dbf file, optionally compressed (.gz, .bz2, .xz, .zst)
// - A directory path (DBF files directly inside it are loaded)
//
// Returns the builder for method chaining.
func (b *DBBuilder) AddPath(path string) *DBBuilder {
	b.paths = append(b.paths, path)
	return b
}

// AddPaths adds multiple file or directory paths to the builder.
// Each path follows the same rules as AddPath.
//
// Returns the builder for method chaining.
func (b *DBBuilder) AddPaths(paths ...string) *DBBuilder {
	b.paths = append(b.paths, paths...)
	return b
}

// AddFS adds all DBF files from an fs.FS filesystem to the builder.
// This method is particularly useful for embedded filesystems using go:embed.
// The filesystem is searched recursively during Build, and matching files are
// copied to a temporary directory under their own names, so table names follow
// the embedded file names. Use Cleanup() to remove the temporary files.
//
// Example with embedded filesystem:
//
//	//go:embed data/*.dbf
//	var dataFS embed.FS
//
//	subFS, _ := fs.Sub(dataFS, "data")
//	builder := dbfsql.NewBuilder().AddFS(subFS)
//
// Returns the builder for method chaining.
func (b *DBBuilder) AddFS(filesystem fs.FS) *DBBuilder {
	b.filesystems = append(b.filesystems, filesystem)
	return b
}

// WithOptions sets the decoding and loading options of every file.
// opts.Table is only honored with a single input file.
//
// Returns the builder for method chaining.
func (b *DBBuilder) WithOptions(opts Options) *DBBuilder {
	b.opts = opts
	return b
}

// Build validates all configured inputs and prepares the builder for opening a database.
// This method must be called before Open(). It performs the following operations:
//
// 1. Validates the options and that at least one input source is configured
// 2. Checks existence and format of all file paths
// 3. Processes embedded filesystems by copying files to temporary locations
//
// Returns the same builder instance for method chaining, or an error if validation fails.
func (b *DBBuilder) Build(ctx context.Context) (*DBBuilder, error) {
	if len(b.paths) == 0 && len(b.filesystems) == 0 {
		return nil, fmt.Errorf("%w: at least one path must be provided", ErrNoInput)
	}
	if err := b.opts.Validate(); err != nil {
		return nil, err
	}

	b.collectedPaths = make([]string, 0, len(b.paths))
	for _, p := range b.paths {
		if err := b.validator.validatePath(p); err != nil {
			return nil, err
		}
		b.collectedPaths = append(b.collectedPaths, p)
	}

	for _, filesystem := range b.filesystems {
		if filesystem == nil {
			return nil, fmt.Errorf("%w: FS cannot be nil", ErrNoInput)
		}
		paths, err := b.processFSInput(ctx, filesystem)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to process FS input: %w", err), b.cleanup())
		}
		b.collectedPaths = append(b.collectedPaths, paths...)
	}

	if err := b.validator.validateFinalState(b.collectedPaths, b.paths); err != nil {
		return nil, err
	}
	return b, nil
}

// Open creates and returns a database connection using the configured and validated inputs.
// This method can only be called after Build() has been successfully executed.
// It creates an in-memory SQLite database and loads every DBF file as a table.
//
// The returned pool holds a single connection, since every connection is its own
// in-memory database. The caller is responsible for closing the connection and calling
// Cleanup() to remove any temporary files created from embedded filesystems.
func (b *DBBuilder) Open(ctx context.Context) (*sql.DB, error) {
	if err := b.validator.validateInputsAvailable(b.collectedPaths); err != nil {
		return nil, err
	}

	cfg := b.opts.loadConfig()
	if b.opts.MemoryLimitMB > 0 {
		cfg.AfterChunk = NewMemoryLimit(b.opts.MemoryLimitMB).afterChunk("database open")
	}

	db := sql.OpenDB(dbfdriver.NewConnector(nil, b.collectedPaths, cfg))
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		closeErr := db.Close()
		cleanupErr := b.cleanup()

		allErrors := []error{err}
		if closeErr != nil {
			allErrors = append(allErrors, fmt.Errorf("failed to close database: %w", closeErr))
		}
		if cleanupErr != nil {
			allErrors = append(allErrors, fmt.Errorf("cleanup failed: %w", cleanupErr))
		}
		return nil, errors.Join(allErrors...)
	}
	return db, nil
}

// processFSInput copies every DBF file of filesystem into the temporary directory
func (b *DBBuilder) processFSInput(ctx context.Context, filesystem fs.FS) ([]string, error) {
	var matches []string
	err := fs.WalkDir(filesystem, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !model.IsSupportedFile(p) {
			return nil
		}
		matches = append(matches, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk filesystem: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no DBF files found in filesystem", ErrNoInput)
	}

	if b.tempDir == "" {
		dir, err := os.MkdirTemp("", "dbfsql-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp directory: %w", err)
		}
		b.tempDir = dir
	}

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tempPath, err := b.copyFSToTemp(filesystem, match)
		if err != nil {
			return nil, fmt.Errorf("failed to copy file %s: %w", match, err)
		}
		paths = append(paths, tempPath)
	}
	return paths, nil
}

// copyFSToTemp copies a file from fs.FS into the temporary directory, keeping its base name
func (b *DBBuilder) copyFSToTemp(filesystem fs.FS, name string) (string, error) {
	file, err := filesystem.Open(name)
	if err != nil {
		return "", fmt.Errorf("failed to open FS file: %w", err)
	}
	defer file.Close()

	tempPath := filepath.Join(b.tempDir, path.Base(name))
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600) //nolint:gosec // path is inside our temp directory
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("%w: table '%s' appears twice in filesystem",
			dbfdriver.ErrDuplicateTableName, model.TableFromFilePath(name))
	}
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tempFile, file); err != nil {
		return "", errors.Join(fmt.Errorf("failed to copy content: %w", err), tempFile.Close())
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return tempPath, nil
}

// cleanup removes the temporary directory and returns any errors
func (b *DBBuilder) cleanup() error {
	if b.tempDir == "" {
		return nil
	}
	dir := b.tempDir
	b.tempDir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove temp directory %s: %w", dir, err)
	}
	return nil
}

// Cleanup removes all temporary files created during filesystem processing.
// It's safe to call this multiple times - subsequent calls will have no effect.
//
// Example usage:
//
//	builder, err := dbfsql.NewBuilder().AddFS(embeddedFS).Build(ctx)
//	if err != nil {
//		return err
//	}
//	defer builder.Cleanup()
//
//	db, err := builder.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
func (b *DBBuilder) Cleanup() error {
	return b.cleanup()
}
