package dbfsql

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/dbfsql/dbf"
)

// WriteParquet converts the DBF file src into the Parquet file dst.
//
// Every chunk of opts.ChunkSize record slots becomes one row group. Columns are
// compressed with opts.ParquetCodec at opts.CompressionLevel (zstd level 9 by
// default). The widest character field is recorded in the file metadata under
// MetadataMaxCharacterWidth.
func WriteParquet(ctx context.Context, src, dst string, opts Options) (res ExportResult, err error) {
	ec := NewErrorContext("parquet export", src)
	if err := opts.Validate(); err != nil {
		return ExportResult{}, ec.Error(err)
	}
	codec, _ := opts.parquetCodec() //nolint:errcheck // checked by Validate

	r, err := dbf.Open(src, opts.DecodeConfig())
	if err != nil {
		return ExportResult{}, ec.Error(err)
	}
	defer func() {
		err = errors.Join(err, r.Close())
	}()

	out, closeOut, err := createOutput(dst, opts.WithCompression(CompressionNone), false)
	if err != nil {
		return ExportResult{}, ec.Error(err)
	}
	defer func() {
		if cerr := closeOut(); cerr != nil {
			err = errors.Join(err, ec.Error(cerr))
		}
	}()

	ar := NewArrowReader(r, opts)
	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithCompressionLevel(opts.CompressionLevel),
	)
	// the parquet writer closes sinks that implement io.Closer; closeOut owns the file
	fw, err := pqarrow.NewFileWriter(ar.Schema(), struct{ io.Writer }{out}, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return ExportResult{}, ec.Error(fmt.Errorf("%w: %w", ErrSinkWrite, err))
	}

	for rec, rerr := range ar.Records() {
		if rerr != nil {
			return resultOf(r, opts.tableFor(src)), ec.Error(errors.Join(rerr, fw.Close()))
		}
		werr := fw.Write(rec)
		rec.Release()
		if werr != nil {
			return resultOf(r, opts.tableFor(src)), ec.Error(errors.Join(fmt.Errorf("%w: %w", ErrSinkWrite, werr), fw.Close()))
		}
		if cerr := ctx.Err(); cerr != nil {
			return resultOf(r, opts.tableFor(src)), errors.Join(cerr, fw.Close())
		}
	}
	if err := fw.Close(); err != nil {
		return resultOf(r, opts.tableFor(src)), ec.Error(fmt.Errorf("%w: %w", ErrSinkWrite, err))
	}

	res = resultOf(r, opts.tableFor(src))
	opts.logger().Debug("dbfsql parquet written", "file", dst, "rows", res.Rows, "codec", opts.ParquetCodec)
	return res, nil
}
