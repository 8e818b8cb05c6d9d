package driver

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/domain/model"
	"modernc.org/sqlite"
)

// Driver implements database/sql/driver.Driver interface for DBF files.
// It serves as the entry point for creating connections to DBF-backed databases.
type Driver struct{}

// Connector implements database/sql/driver.Connector interface.
// It holds the parsed data source name and creates connections with every
// listed file loaded into a fresh in-memory SQLite database.
type Connector struct {
	driver *Driver
	paths  []string
	cfg    LoadConfig
}

// Connection implements database/sql/driver.Conn interface.
// It wraps an underlying SQLite connection that contains the loaded tables.
type Connection struct {
	conn driver.Conn
}

// Transaction implements database/sql/driver.Tx interface.
type Transaction struct {
	tx driver.Tx
}

// NewDriver creates a new DBF SQL driver
func NewDriver() *Driver {
	return &Driver{}
}

// Open implements driver.Driver interface
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext interface.
//
// The data source name is a semicolon separated list of files and directories,
// optionally followed by query parameters:
//
//	people.dbf;archive/?codec=cp1252&na=none&chunk_size=5000&index=true
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	paths, cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return NewConnector(d, paths, cfg), nil
}

// NewConnector returns a connector that loads paths with cfg.
// The root package uses it to pass a fully built configuration without a DSN round trip.
func NewConnector(d *Driver, paths []string, cfg LoadConfig) *Connector {
	if d == nil {
		d = NewDriver()
	}
	return &Connector{driver: d, paths: paths, cfg: cfg}
}

// ParseDSN splits a data source name into paths and a load configuration
func ParseDSN(dsn string) ([]string, LoadConfig, error) {
	cfg := LoadConfig{Decode: dbf.DefaultConfig()}

	pathPart, query, _ := strings.Cut(dsn, "?")
	var paths []string
	for _, p := range strings.Split(pathPart, ";") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return nil, cfg, ErrNoPathsProvided
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, cfg, fmt.Errorf("%w: %w", ErrInvalidDSN, err)
	}
	for key, values := range params {
		value := values[len(values)-1]
		switch key {
		case "codec":
			if _, err := dbf.LookupCodec(value); err != nil {
				return nil, cfg, err
			}
			cfg.Decode = cfg.Decode.WithCodec(value)
		case "na":
			cfg.Decode = cfg.Decode.WithMissing(value)
		case "escape_quote":
			cfg.Decode = cfg.Decode.WithEscapeQuote(value)
		case "chunk_size":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, cfg, fmt.Errorf("%w: chunk_size %q", ErrInvalidDSN, value)
			}
			cfg.ChunkSize = n
		case "index":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, cfg, fmt.Errorf("%w: index %q", ErrInvalidDSN, value)
			}
			cfg.Index = b
		default:
			return nil, cfg, fmt.Errorf("%w: unknown parameter %q", ErrInvalidDSN, key)
		}
	}
	return paths, cfg, nil
}

// Connect implements driver.Connector interface
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	sqliteDriver := &sqlite.Driver{}
	conn, err := sqliteDriver.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}

	if err := c.loadPaths(ctx, conn); err != nil {
		_ = conn.Close() // Ignore close error since we're already returning an error
		return nil, fmt.Errorf("failed to load file: %w", err)
	}

	return &Connection{conn: conn}, nil
}

// Driver implements driver.Connector interface
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

func (c *Connector) logger() *slog.Logger {
	if c.cfg.Decode.Logger != nil {
		return c.cfg.Decode.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// loadPaths loads every file named by the connector, directories included
func (c *Connector) loadPaths(ctx context.Context, conn driver.Conn) error {
	if len(c.paths) == 0 {
		return ErrNoPathsProvided
	}

	files, err := c.collectAllFiles()
	if err != nil {
		return err
	}

	target := &connTarget{conn: conn}
	loader := NewLoader(c.cfg)
	loaded := 0
	for _, f := range files {
		res, err := loader.LoadFile(ctx, target, f.path)
		if err != nil {
			if f.fromDir {
				// a broken file in a scanned directory does not fail the whole connection
				c.logger().Warn("dbfsql skipped file", "file", SanitizeForLog(filepath.Base(f.path)), "error", err)
				continue
			}
			return fmt.Errorf("failed to load file %s: %w", f.path, err)
		}
		c.logger().Debug("dbfsql table loaded", "table", res.Table, "rows", res.Rows, "deleted", res.Deleted)
		loaded++
	}

	if loaded == 0 {
		return ErrNoFilesLoaded
	}
	return nil
}

type collectedFile struct {
	path    string
	fromDir bool
}

// collectAllFiles collects all files from every path with duplicate table detection
func (c *Connector) collectAllFiles() ([]collectedFile, error) {
	if c.cfg.Table != "" && len(c.paths) > 1 {
		return nil, fmt.Errorf("%w: a table name override needs exactly one file", ErrDuplicateTableName)
	}

	tableNames := make(map[string]string) // table name -> file path
	var files []collectedFile

	for _, path := range c.paths {
		if err := ValidatePath(path); err != nil {
			return nil, fmt.Errorf("%w: %s", err, path)
		}
		info, err := statPath(path)
		if err != nil {
			return nil, err
		}

		if info.IsDir() {
			dirFiles, err := collectDirectoryFiles(path, tableNames)
			if err != nil {
				return nil, err
			}
			files = append(files, dirFiles...)
			continue
		}

		if err := ValidateFileSize(info.Size()); err != nil {
			return nil, fmt.Errorf("%w: %s", err, path)
		}
		tableName := model.TableFromFilePath(path)
		if existing, exists := tableNames[tableName]; exists {
			return nil, fmt.Errorf("%w: table '%s' from files '%s' and '%s'",
				ErrDuplicateTableName, tableName, existing, path)
		}
		tableNames[tableName] = path
		files = append(files, collectedFile{path: path})
	}

	return files, nil
}

// statPath validates that a path exists and returns its FileInfo
func statPath(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}
	return info, nil
}

// collectDirectoryFiles collects the DBF files directly inside dirPath.
// When the same table name appears twice in one directory the less compressed file wins.
func collectDirectoryFiles(dirPath string, tableNames map[string]string) ([]collectedFile, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var candidates []os.DirEntry
	for _, entry := range entries {
		if entry.IsDir() || !IsValidFileName(entry.Name()) || !model.IsSupportedFile(entry.Name()) {
			continue
		}
		candidates = append(candidates, entry)
	}
	if err := ValidateFileCount(len(candidates)); err != nil {
		return nil, fmt.Errorf("%w: %s", err, dirPath)
	}

	var files []collectedFile
	for _, entry := range candidates {
		filePath := filepath.Join(dirPath, entry.Name())
		tableName := model.TableFromFilePath(filePath)

		existing, exists := tableNames[tableName]
		if !exists {
			tableNames[tableName] = filePath
			files = append(files, collectedFile{path: filePath, fromDir: true})
			continue
		}
		if filepath.Clean(filepath.Dir(existing)) != filepath.Clean(dirPath) {
			return nil, fmt.Errorf("%w: table '%s' from files '%s' and '%s'",
				ErrDuplicateTableName, tableName, existing, filePath)
		}
		if model.DetectCompressionType(filePath) == model.CompressionNone &&
			model.DetectCompressionType(existing) != model.CompressionNone {
			for i := range files {
				if files[i].path == existing {
					files[i].path = filePath
					break
				}
			}
			tableNames[tableName] = filePath
		}
	}
	return files, nil
}

// Close implements driver.Conn interface
func (conn *Connection) Close() error {
	if conn.conn != nil {
		return conn.conn.Close()
	}
	return nil
}

// Begin implements driver.Conn interface (deprecated, use BeginTx instead)
func (conn *Connection) Begin() (driver.Tx, error) {
	return conn.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx implements driver.ConnBeginTx interface
func (conn *Connection) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if connBeginTx, ok := conn.conn.(driver.ConnBeginTx); ok {
		tx, err := connBeginTx.BeginTx(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &Transaction{tx: tx}, nil
	}
	return nil, ErrBeginTxNotSupported
}

// Commit implements driver.Tx interface
func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

// Rollback implements driver.Tx interface
func (t *Transaction) Rollback() error {
	return t.tx.Rollback()
}

// Prepare implements driver.Conn interface (deprecated, use PrepareContext instead)
func (conn *Connection) Prepare(query string) (driver.Stmt, error) {
	return conn.PrepareContext(context.Background(), query)
}

// PrepareContext implements driver.ConnPrepareContext interface
func (conn *Connection) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if connPrepareCtx, ok := conn.conn.(driver.ConnPrepareContext); ok {
		return connPrepareCtx.PrepareContext(ctx, query)
	}
	return nil, ErrPrepareContextNotSupported
}

// LoadFile loads one more DBF file into the connection's database.
// It is reachable through (*sql.Conn).Raw.
func (conn *Connection) LoadFile(ctx context.Context, path string, cfg LoadConfig) (LoadResult, error) {
	return NewLoader(cfg).LoadFile(ctx, &connTarget{conn: conn.conn}, path)
}
