package dbfsql

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/domain/model"
)

// Options is the immutable configuration of one conversion session.
// Every With method returns a modified copy, so an Options value can be shared freely.
//
// Example:
//
//	opts := dbfsql.NewSQLScriptOptions().
//		WithCodec("cp1252").
//		WithDialect("postgres").
//		WithChunkSize(50000)
//
//	_, err := dbfsql.WriteSQLScript(ctx, "parcels.dbf", "parcels.sql", "parcels.csv", opts)
type Options struct {
	// Codec names the text codec of character fields
	Codec string `mapstructure:"codec"`
	// NA is the missing value literal: "none" for null, "na"/"nan" for NaN, else verbatim
	NA string `mapstructure:"na"`
	// EscapeQuote, when not empty, is inserted before every double quote of character fields
	EscapeQuote string `mapstructure:"escape_quote"`
	// ChunkSize is the number of record slots processed per chunk; 0 disables chunking
	ChunkSize int `mapstructure:"chunk_size"`
	// Header writes a line of column names first in CSV output
	Header bool `mapstructure:"header"`
	// Index adds a leading 0-based "index" column
	Index bool `mapstructure:"index"`
	// Dialect is the SQL dialect of generated scripts
	Dialect string `mapstructure:"dialect"`
	// Table overrides the table name derived from the input file name
	Table string `mapstructure:"table"`
	// Compression compresses text output: none, gz, xz or zstd. Empty detects it from the output extension.
	Compression string `mapstructure:"compression"`
	// ParquetCodec is the Parquet column compression codec
	ParquetCodec string `mapstructure:"parquet_codec"`
	// CompressionLevel is passed to the Parquet codec
	CompressionLevel int `mapstructure:"compression_level"`
	// Append adds to an existing CSV file instead of replacing it
	Append bool `mapstructure:"append"`
	// MemoryLimitMB stops database loads once the heap grows beyond it; 0 disables the check
	MemoryLimitMB int64 `mapstructure:"memory_limit_mb"`
	// Logger receives debug events. Nil discards them.
	Logger *slog.Logger `mapstructure:"-"`
}

const (
	defaultParquetCodec     = "zstd"
	defaultCompressionLevel = 9
)

func defaultOptions() Options {
	return Options{
		Codec:            dbf.DefaultCodec,
		Dialect:          "sqlite",
		ParquetCodec:     defaultParquetCodec,
		CompressionLevel: defaultCompressionLevel,
	}
}

// NewCSVOptions returns the defaults of CSV export: header line, no index,
// empty string for missing values and no quote escaping.
func NewCSVOptions() Options {
	o := defaultOptions()
	o.Header = true
	return o
}

// NewSQLScriptOptions returns the defaults of SQL script export: the CSV has an
// index column and no header, embedded quotes are doubled and the dialect is sqlite.
func NewSQLScriptOptions() Options {
	o := defaultOptions()
	o.Index = true
	o.EscapeQuote = `"`
	return o
}

// NewTableOptions returns the defaults of typed tabular output (Arrow, Parquet,
// XLSX and database loads): missing values become NaN and no index column is added.
func NewTableOptions() Options {
	o := defaultOptions()
	o.NA = "nan"
	return o
}

// WithCodec sets the text codec of character fields, for example "cp1252"
func (o Options) WithCodec(codec string) Options {
	o.Codec = codec
	return o
}

// WithNA sets the missing value literal
func (o Options) WithNA(na string) Options {
	o.NA = na
	return o
}

// WithEscapeQuote sets the string inserted before embedded double quotes
func (o Options) WithEscapeQuote(esc string) Options {
	o.EscapeQuote = esc
	return o
}

// WithChunkSize sets the number of record slots per chunk
func (o Options) WithChunkSize(size int) Options {
	o.ChunkSize = size
	return o
}

// WithHeader enables or disables the CSV header line
func (o Options) WithHeader(header bool) Options {
	o.Header = header
	return o
}

// WithIndex enables or disables the leading index column
func (o Options) WithIndex(index bool) Options {
	o.Index = index
	return o
}

// WithDialect sets the SQL dialect ("sqlite" or "postgres")
func (o Options) WithDialect(dialect string) Options {
	o.Dialect = dialect
	return o
}

// WithTable sets the table name
func (o Options) WithTable(table string) Options {
	o.Table = table
	return o
}

// WithCompression compresses text output.
//
// Options:
//   - CompressionNone: No compression
//   - CompressionGZ: Gzip compression (.gz)
//   - CompressionXZ: XZ compression (.xz)
//   - CompressionZSTD: Zstandard compression (.zst)
func (o Options) WithCompression(compression CompressionType) Options {
	o.Compression = compression.String()
	return o
}

// WithParquetCodec sets the Parquet codec and level, for example ("zstd", 9) or ("snappy", 0)
func (o Options) WithParquetCodec(codec string, level int) Options {
	o.ParquetCodec = codec
	o.CompressionLevel = level
	return o
}

// WithAppend makes CSV export append to an existing file
func (o Options) WithAppend(appendMode bool) Options {
	o.Append = appendMode
	return o
}

// WithMemoryLimit sets the heap limit in MB checked between chunks of database loads
func (o Options) WithMemoryLimit(mb int64) Options {
	o.MemoryLimitMB = mb
	return o
}

// WithLogger sets the logger receiving debug events
func (o Options) WithLogger(logger *slog.Logger) Options {
	o.Logger = logger
	return o
}

// Validate checks every option before any file is touched.
// Errors wrap ErrInvalidOptions, ErrUnsupportedDialect or ErrUnsupportedCodec.
func (o Options) Validate() error {
	if o.ChunkSize < 0 {
		return fmt.Errorf("%w: negative chunk size %d", ErrInvalidOptions, o.ChunkSize)
	}
	if o.MemoryLimitMB < 0 {
		return fmt.Errorf("%w: negative memory limit %d", ErrInvalidOptions, o.MemoryLimitMB)
	}
	if _, err := o.dialect(); err != nil {
		return err
	}
	if _, err := dbf.LookupCodec(o.Codec); err != nil {
		return err
	}
	if _, err := o.parquetCodec(); err != nil {
		return err
	}
	if o.Compression != "" {
		ct, ok := model.ParseCompressionType(o.Compression)
		if !ok {
			return fmt.Errorf("%w: unknown compression %q", ErrInvalidOptions, o.Compression)
		}
		if !ct.Writable() {
			return fmt.Errorf("%w: %s output is not supported", ErrInvalidOptions, ct)
		}
	}
	return nil
}

// DecodeConfig returns the record decoding configuration of the session
func (o Options) DecodeConfig() dbf.Config {
	return dbf.Config{
		Codec:       o.Codec,
		Missing:     o.NA,
		EscapeQuote: o.EscapeQuote,
		Logger:      o.Logger,
	}
}

func (o Options) dialect() (model.Dialect, error) {
	name := o.Dialect
	if name == "" {
		name = "sqlite"
	}
	return model.LookupDialect(name)
}

func (o Options) parquetCodec() (compress.Compression, error) {
	switch strings.ToLower(o.ParquetCodec) {
	case "", "zstd":
		return compress.Codecs.Zstd, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("%w: unknown parquet codec %q", ErrInvalidOptions, o.ParquetCodec)
	}
}

// outputCompression returns the configured compression, or the one implied by path
func (o Options) outputCompression(path string) model.CompressionType {
	if o.Compression != "" {
		ct, _ := model.ParseCompressionType(o.Compression)
		return ct
	}
	return model.DetectCompressionType(path)
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o Options) tableFor(path string) string {
	if o.Table != "" {
		return o.Table
	}
	return model.TableFromFilePath(path)
}
