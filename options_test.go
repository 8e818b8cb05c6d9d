package dbfsql

import (
	"log/slog"
	"testing"

	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionConstructors(t *testing.T) {
	t.Parallel()

	t.Run("csv", func(t *testing.T) {
		t.Parallel()
		o := NewCSVOptions()
		assert.True(t, o.Header)
		assert.False(t, o.Index)
		assert.Empty(t, o.NA)
		assert.Empty(t, o.EscapeQuote)
		assert.Equal(t, "utf-8", o.Codec)
	})

	t.Run("sql script", func(t *testing.T) {
		t.Parallel()
		o := NewSQLScriptOptions()
		assert.False(t, o.Header)
		assert.True(t, o.Index)
		assert.Equal(t, `"`, o.EscapeQuote)
		assert.Equal(t, "sqlite", o.Dialect)
	})

	t.Run("table", func(t *testing.T) {
		t.Parallel()
		o := NewTableOptions()
		assert.Equal(t, "nan", o.NA)
		assert.Equal(t, "zstd", o.ParquetCodec)
		assert.Equal(t, 9, o.CompressionLevel)
	})
}

func TestOptions_WithMethodsCopy(t *testing.T) {
	t.Parallel()

	base := NewCSVOptions()
	logger := slog.New(slog.DiscardHandler)
	changed := base.
		WithCodec("cp1252").
		WithNA("none").
		WithEscapeQuote(`\`).
		WithChunkSize(100).
		WithHeader(false).
		WithIndex(true).
		WithDialect("postgres").
		WithTable("t").
		WithCompression(CompressionGZ).
		WithParquetCodec("gzip", 5).
		WithAppend(true).
		WithMemoryLimit(256).
		WithLogger(logger)

	assert.Equal(t, NewCSVOptions(), base, "With methods must not modify the receiver")
	assert.Equal(t, Options{
		Codec:            "cp1252",
		NA:               "none",
		EscapeQuote:      `\`,
		ChunkSize:        100,
		Header:           false,
		Index:            true,
		Dialect:          "postgres",
		Table:            "t",
		Compression:      "gz",
		ParquetCodec:     "gzip",
		CompressionLevel: 5,
		Append:           true,
		MemoryLimitMB:    256,
		Logger:           logger,
	}, changed)
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{name: "csv defaults", opts: NewCSVOptions()},
		{name: "zero value", opts: Options{}},
		{name: "postgres", opts: NewSQLScriptOptions().WithDialect("POSTGRES")},
		{name: "single byte codec", opts: NewCSVOptions().WithCodec("cp437")},
		{name: "negative chunk size", opts: NewCSVOptions().WithChunkSize(-1), wantErr: ErrInvalidOptions},
		{name: "negative memory limit", opts: NewCSVOptions().WithMemoryLimit(-5), wantErr: ErrInvalidOptions},
		{name: "unknown dialect", opts: NewCSVOptions().WithDialect("mysql"), wantErr: ErrUnsupportedDialect},
		{name: "unknown codec", opts: NewCSVOptions().WithCodec("nope-42"), wantErr: ErrUnsupportedCodec},
		{name: "unknown parquet codec", opts: NewTableOptions().WithParquetCodec("rar", 1), wantErr: ErrInvalidOptions},
		{name: "bzip2 output", opts: NewCSVOptions().WithCompression(CompressionBZ2), wantErr: ErrInvalidOptions},
		{name: "unknown compression", opts: Options{Compression: "lha"}, wantErr: ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOptions_Helpers(t *testing.T) {
	t.Parallel()

	t.Run("decode config", func(t *testing.T) {
		t.Parallel()
		cfg := NewSQLScriptOptions().WithCodec("latin1").WithNA("none").DecodeConfig()
		assert.Equal(t, "latin1", cfg.Codec)
		assert.Equal(t, "none", cfg.Missing)
		assert.Equal(t, `"`, cfg.EscapeQuote)
		assert.True(t, cfg.Sentinel().IsNull())
	})

	t.Run("parquet codecs", func(t *testing.T) {
		t.Parallel()
		codec, err := NewTableOptions().parquetCodec()
		require.NoError(t, err)
		assert.Equal(t, compress.Codecs.Zstd, codec)

		codec, err = NewTableOptions().WithParquetCodec("Uncompressed", 0).parquetCodec()
		require.NoError(t, err)
		assert.Equal(t, compress.Codecs.Uncompressed, codec)
	})

	t.Run("output compression", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, CompressionGZ, NewCSVOptions().outputCompression("a.csv.gz"))
		assert.Equal(t, CompressionNone, NewCSVOptions().outputCompression("a.csv"))
		assert.Equal(t, CompressionXZ, NewCSVOptions().WithCompression(CompressionXZ).outputCompression("a.csv"))
	})

	t.Run("table names", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "parcels", NewCSVOptions().tableFor("/data/parcels.dbf.zst"))
		assert.Equal(t, "lots", NewCSVOptions().WithTable("lots").tableFor("/data/parcels.dbf"))
	})

	t.Run("dialect defaults to sqlite", func(t *testing.T) {
		t.Parallel()
		d, err := Options{}.dialect()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", d.Name)
	})
}
