package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/domain/model"
)

// DefaultChunkSize is the number of record slots inserted per chunk when none is configured
const DefaultChunkSize = 10000

// Target is a database a Loader can write tables into.
// Use SQLTarget for database/sql handles; the driver itself loads through a raw driver.Conn.
type Target interface {
	exec(ctx context.Context, query string) error
	prepare(ctx context.Context, query string) (inserter, error)
}

type inserter interface {
	insert(ctx context.Context, args []any) error
	Close() error
}

// DB is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// SQLTarget adapts a *sql.DB, *sql.Tx or *sql.Conn to a Target
func SQLTarget(db DB) Target {
	return &sqlTarget{db: db}
}

type sqlTarget struct {
	db DB
}

func (t *sqlTarget) exec(ctx context.Context, query string) error {
	_, err := t.db.ExecContext(ctx, query)
	return err
}

func (t *sqlTarget) prepare(ctx context.Context, query string) (inserter, error) {
	stmt, err := t.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &sqlInserter{stmt: stmt}, nil
}

type sqlInserter struct {
	stmt *sql.Stmt
}

func (i *sqlInserter) insert(ctx context.Context, args []any) error {
	_, err := i.stmt.ExecContext(ctx, args...)
	return err
}

func (i *sqlInserter) Close() error {
	return i.stmt.Close()
}

// connTarget loads through a raw driver connection
type connTarget struct {
	conn driver.Conn
}

func (t *connTarget) exec(ctx context.Context, query string) error {
	ins, err := t.prepare(ctx, query)
	if err != nil {
		return err
	}
	defer ins.Close()
	return ins.insert(ctx, nil)
}

func (t *connTarget) prepare(ctx context.Context, query string) (inserter, error) {
	var (
		stmt driver.Stmt
		err  error
	)
	if connPrepareCtx, ok := t.conn.(driver.ConnPrepareContext); ok {
		stmt, err = connPrepareCtx.PrepareContext(ctx, query)
	} else {
		stmt, err = t.conn.Prepare(query)
	}
	if err != nil {
		return nil, err
	}
	return &connInserter{stmt: stmt}, nil
}

type connInserter struct {
	stmt driver.Stmt
}

func (i *connInserter) insert(ctx context.Context, args []any) error {
	stmtExecCtx, ok := i.stmt.(driver.StmtExecContext)
	if !ok {
		return ErrStmtExecContextNotSupported
	}
	_, err := stmtExecCtx.ExecContext(ctx, convertToNamedValues(args))
	return err
}

func (i *connInserter) Close() error {
	return i.stmt.Close()
}

// convertToNamedValues converts positional arguments to driver.NamedValue slice
func convertToNamedValues(args []any) []driver.NamedValue {
	namedArgs := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		namedArgs[i] = driver.NamedValue{
			Ordinal: i + 1,
			Value:   arg,
		}
	}
	return namedArgs
}

// LoadConfig configures a Loader.
type LoadConfig struct {
	// Decode is the record decoding configuration
	Decode dbf.Config
	// Table overrides the table name; empty means derived from the file name
	Table string
	// ChunkSize is the number of record slots read and inserted per chunk.
	// Zero means DefaultChunkSize; a negative value loads everything in one chunk.
	ChunkSize int
	// Index adds a leading "index" INTEGER PRIMARY KEY column holding the 0-based record position
	Index bool
	// AfterChunk, when set, is called after every inserted chunk; an error aborts the load
	AfterChunk func() error
}

// LoadResult describes a finished load.
type LoadResult struct {
	Table   string
	Rows    int
	Deleted int
}

// Loader streams DBF records into SQL tables chunk by chunk.
//
// The table is created with CREATE TABLE IF NOT EXISTS, so loading into an existing
// table with the same columns appends to it. Column types come from the values of the
// first chunk, falling back to the field type code for columns that held only missing
// values. NaN and null values are inserted as SQL NULL.
type Loader struct {
	cfg LoadConfig
}

// NewLoader returns a Loader for cfg
func NewLoader(cfg LoadConfig) *Loader {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Loader{cfg: cfg}
}

// LoadFile opens path, compressed or not, and loads it into target
func (l *Loader) LoadFile(ctx context.Context, target Target, path string) (res LoadResult, err error) {
	r, err := dbf.Open(path, l.cfg.Decode)
	if err != nil {
		return LoadResult{}, err
	}
	defer func() {
		err = errors.Join(err, r.Close())
	}()

	table := l.cfg.Table
	if table == "" {
		table = model.TableFromFilePath(path)
	}
	return l.load(ctx, target, r, table)
}

// Load reads a DBF stream from src and loads it into table
func (l *Loader) Load(ctx context.Context, target Target, src io.Reader, table string) (LoadResult, error) {
	r, err := dbf.NewReader(src, l.cfg.Decode)
	if err != nil {
		return LoadResult{}, err
	}
	return l.load(ctx, target, r, table)
}

func (l *Loader) load(ctx context.Context, target Target, r *dbf.Reader, table string) (LoadResult, error) {
	if table == "" {
		return LoadResult{}, ErrEmptyTableName
	}
	if err := ValidateColumnCount(r.Schema().NumColumns()); err != nil {
		return LoadResult{}, err
	}

	logger := l.cfg.Decode.Logger
	res := LoadResult{Table: table}
	var ins inserter
	defer func() {
		if ins != nil {
			_ = ins.Close() // statement close errors carry no information once the load finished
		}
	}()

	for batch, err := range r.Chunks(l.cfg.ChunkSize) {
		if err != nil {
			return res, fmt.Errorf("failed to read %s: %w", table, err)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if ins == nil {
			if err := target.exec(ctx, l.buildCreateTableQuery(table, r.Schema(), r.Witness())); err != nil {
				return res, fmt.Errorf("failed to create table %s: %w", table, err)
			}
			ins, err = target.prepare(ctx, l.buildInsertQuery(table, r.Schema().NumColumns()))
			if err != nil {
				return res, fmt.Errorf("failed to prepare insert into %s: %w", table, err)
			}
		}
		if err := l.insertBatch(ctx, ins, batch); err != nil {
			return res, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		res.Rows += batch.Len()
		if logger != nil {
			logger.Debug("dbfsql chunk loaded", "table", table, "offset", batch.Offset, "rows", batch.Len())
		}
		if l.cfg.AfterChunk != nil {
			if err := l.cfg.AfterChunk(); err != nil {
				return res, err
			}
		}
	}

	if ins == nil {
		// no live record: still create the table from the declared field types
		if err := target.exec(ctx, l.buildCreateTableQuery(table, r.Schema(), nil)); err != nil {
			return res, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	res.Deleted = r.Deleted()
	return res, nil
}

func (l *Loader) insertBatch(ctx context.Context, ins inserter, batch *dbf.Batch) error {
	width := len(batch.Columns)
	if l.cfg.Index {
		width++
	}
	args := make([]any, width)
	for i, rec := range batch.Records {
		pos := 0
		if l.cfg.Index {
			args[0] = int64(batch.Offset + i)
			pos = 1
		}
		for j, v := range rec {
			args[pos+j] = ToDriverValue(v)
		}
		if err := ins.insert(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

// buildCreateTableQuery constructs a CREATE TABLE query with column types from witness
func (l *Loader) buildCreateTableQuery(table string, schema *model.Schema, witness *model.Witness) string {
	dialect, _ := model.LookupDialect("sqlite") //nolint:errcheck // registered dialect
	columns := make([]string, 0, schema.NumColumns()+1)
	if l.cfg.Index {
		columns = append(columns, `"index" INTEGER PRIMARY KEY`)
	}
	for _, field := range schema.Columns() {
		columns = append(columns, dialect.Column(field.Name, witness.KindOr(field)))
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, QuoteIdentifier(table), strings.Join(columns, ", "))
}

// buildInsertQuery constructs an INSERT query for the given table
func (l *Loader) buildInsertQuery(table string, numColumns int) string {
	if l.cfg.Index {
		numColumns++
	}
	return fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, QuoteIdentifier(table), buildPlaceholders(numColumns))
}

// buildPlaceholders creates placeholder string for prepared statements
func buildPlaceholders(count int) string {
	if count == 0 {
		return ""
	}
	return "?" + strings.Repeat(", ?", count-1)
}

// QuoteIdentifier double quotes a SQL identifier, doubling embedded quotes
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ToDriverValue converts a decoded value to a database/sql argument.
// Null and NaN become nil; dates become YYYY-MM-DD strings.
func ToDriverValue(v model.Value) any {
	switch {
	case v.IsNull(), v.IsNaN():
		return nil
	}
	switch v.Kind() {
	case model.KindString:
		return v.Str()
	case model.KindInt:
		return v.Int()
	case model.KindFloat:
		return v.Float()
	case model.KindBool:
		return v.Bool()
	case model.KindDate:
		return v.Time().Format(model.DateLayout)
	default:
		return nil
	}
}
