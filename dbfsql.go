package dbfsql

import (
	"context"
	"database/sql"

	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/domain/model"
	dbfdriver "github.com/nao1215/dbfsql/driver"
)

const (
	// DriverName is the name for the dbfsql driver
	DriverName = "dbfsql"
)

// Register registers the dbfsql driver with database/sql
func Register() {
	sql.Register(DriverName, dbfdriver.NewDriver())
}

func init() {
	// Auto-register the driver on import
	Register()
}

// Type aliases for the data model, so callers only need this package
type (
	// Schema is the parsed layout of a DBF file
	Schema = model.Schema
	// FieldDescriptor describes one DBF field
	FieldDescriptor = model.FieldDescriptor
	// FieldType is the one letter DBF field type code
	FieldType = model.FieldType
	// Record is one decoded live record
	Record = model.Record
	// Value is one decoded field value
	Value = model.Value
	// Witness records the first runtime type seen in every column
	Witness = model.Witness
	// Reader streams the records of one DBF file
	Reader = dbf.Reader
	// LoadResult describes a finished database load
	LoadResult = dbfdriver.LoadResult
)

// OpenReader opens a DBF file, compressed or not, for streaming with the decoding
// settings of opts. The caller must Close the reader.
func OpenReader(path string, opts Options) (*Reader, error) {
	if err := opts.Validate(); err != nil {
		return nil, NewErrorContext("open", path).Error(err)
	}
	return dbf.Open(path, opts.DecodeConfig())
}

// Open opens a database connection using the dbfsql driver.
//
// Every path is a DBF file (optionally compressed with .gz, .bz2, .xz or .zst) or a
// directory whose DBF files are loaded. Each file becomes a table of an in-memory
// SQLite database named after the file without extensions: "parcels.dbf.gz" becomes
// table "parcels". Missing values are stored as NULL.
//
// INSERT, UPDATE, and DELETE operations are applied only to the in-memory database;
// the DBF files are never modified.
//
// Example usage:
//
//	db, err := dbfsql.Open("data/parcels.dbf", "data/owners.dbf")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := db.Query(`
//		SELECT o.name, COUNT(*) AS parcels, SUM(p.area) AS total_area
//		FROM parcels p JOIN owners o ON o.owner_id = p.owner_id
//		GROUP BY o.name
//		ORDER BY total_area DESC
//	`)
func Open(paths ...string) (*sql.DB, error) {
	return OpenContext(context.Background(), paths...)
}

// OpenContext is Open with a context bounding the load of every file.
//
// Example usage:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	db, err := dbfsql.OpenContext(ctx, "data/parcels.dbf")
func OpenContext(ctx context.Context, paths ...string) (*sql.DB, error) {
	builder, err := NewBuilder().AddPaths(paths...).Build(ctx)
	if err != nil {
		return nil, err
	}
	return builder.Open(ctx)
}

// LoadIntoDB loads the DBF file src into db chunk by chunk and returns the
// number of rows inserted.
//
// The table is named opts.Table or after src. It is created on the first chunk
// with column types taken from that chunk's values; loading into an existing
// table appends to it. NaN and missing values are inserted as NULL. With
// opts.MemoryLimitMB set, the heap is checked after every chunk and the load
// stops with ErrMemoryLimit once the limit is exceeded.
//
// db is typically a *sql.DB, *sql.Conn or *sql.Tx:
//
//	db, _ := sql.Open("sqlite", "parcels.db")
//	res, err := dbfsql.LoadIntoDB(ctx, db, "parcels.dbf", dbfsql.NewTableOptions().WithChunkSize(50000))
func LoadIntoDB(ctx context.Context, db dbfdriver.DB, src string, opts Options) (LoadResult, error) {
	ec := NewErrorContext("database load", src)
	if err := opts.Validate(); err != nil {
		return LoadResult{}, ec.Error(err)
	}

	cfg := opts.loadConfig()
	if opts.MemoryLimitMB > 0 {
		cfg.AfterChunk = NewMemoryLimit(opts.MemoryLimitMB).afterChunk("database load")
	}

	res, err := dbfdriver.NewLoader(cfg).LoadFile(ctx, dbfdriver.SQLTarget(db), src)
	if err != nil {
		return res, ec.WithTable(opts.tableFor(src)).Error(err)
	}
	opts.logger().Debug("dbfsql table loaded", "table", res.Table, "rows", res.Rows, "deleted", res.Deleted)
	return res, nil
}

// loadConfig returns the driver load configuration of the session
func (o Options) loadConfig() dbfdriver.LoadConfig {
	return dbfdriver.LoadConfig{
		Decode:    o.DecodeConfig(),
		Table:     o.Table,
		ChunkSize: o.ChunkSize,
		Index:     o.Index,
	}
}
