package dbfsql

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/domain/model"
)

const indexColumnName = "index"

// ExportResult summarizes a finished conversion.
type ExportResult struct {
	// Table is the table name used by SQL output
	Table string
	// Rows is the number of live records written
	Rows int
	// Deleted is the number of soft deleted records skipped
	Deleted int
	// Schema is the parsed file schema
	Schema *model.Schema
	// Witness holds the first runtime type seen in every column
	Witness *model.Witness
}

func resultOf(r *dbf.Reader, table string) ExportResult {
	return ExportResult{
		Table:   table,
		Rows:    r.Emitted(),
		Deleted: r.Deleted(),
		Schema:  r.Schema(),
		Witness: r.Witness(),
	}
}

// CSVWriter writes decoded records as CSV lines.
//
// Character, date and logical values are wrapped in double quotes as they are;
// embedded quotes are only escaped through the session's EscapeQuote option.
// Numeric values are written bare. Lines end with "\n".
type CSVWriter struct {
	w       *bufio.Writer
	columns []model.FieldDescriptor
	index   bool
	next    int
	line    []byte
}

// NewCSVWriter returns a writer for records with the given columns.
// When opts.Index is set every line starts with a running 0-based index.
func NewCSVWriter(w io.Writer, columns []model.FieldDescriptor, opts Options) *CSVWriter {
	return &CSVWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
		index:   opts.Index,
	}
}

// WriteHeader writes the line of column names
func (cw *CSVWriter) WriteHeader() error {
	cw.line = cw.line[:0]
	if cw.index {
		cw.line = append(cw.line, indexColumnName...)
	}
	for i, col := range cw.columns {
		if i > 0 || cw.index {
			cw.line = append(cw.line, ',')
		}
		cw.line = append(cw.line, col.Name...)
	}
	cw.line = append(cw.line, '\n')
	_, err := cw.w.Write(cw.line)
	return err
}

// WriteRecord writes one record
func (cw *CSVWriter) WriteRecord(rec model.Record) error {
	cw.line = cw.line[:0]
	if cw.index {
		cw.line = strconv.AppendInt(cw.line, int64(cw.next), 10)
	}
	for i, v := range rec {
		if i > 0 || cw.index {
			cw.line = append(cw.line, ',')
		}
		if cw.columns[i].Type.Quoted() {
			cw.line = append(cw.line, '"')
			cw.line = append(cw.line, v.String()...)
			cw.line = append(cw.line, '"')
			continue
		}
		cw.line = append(cw.line, v.String()...)
	}
	cw.line = append(cw.line, '\n')
	cw.next++
	_, err := cw.w.Write(cw.line)
	return err
}

// Flush writes buffered lines to the underlying writer
func (cw *CSVWriter) Flush() error {
	return cw.w.Flush()
}

// ExportCSV streams every live record of r into w.
// Buffered output is flushed after every opts.ChunkSize records and at the end.
func ExportCSV(ctx context.Context, r *dbf.Reader, w io.Writer, opts Options) (ExportResult, error) {
	cw := NewCSVWriter(w, r.Columns(), opts)
	logger := opts.logger()

	if opts.Header {
		if err := cw.WriteHeader(); err != nil {
			return ExportResult{}, fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return resultOf(r, ""), err
	}

	count := 0
	for rec, err := range r.Records() {
		if err != nil {
			return resultOf(r, ""), errors.Join(err, cw.Flush())
		}
		if err := cw.WriteRecord(rec); err != nil {
			return resultOf(r, ""), fmt.Errorf("%w: %w", ErrSinkWrite, err)
		}
		count++
		if count == opts.ChunkSize {
			if err := ctx.Err(); err != nil {
				return resultOf(r, ""), errors.Join(err, cw.Flush())
			}
			if err := cw.Flush(); err != nil {
				return resultOf(r, ""), fmt.Errorf("%w: %w", ErrSinkWrite, err)
			}
			logger.Debug("dbfsql csv chunk flushed", "records", r.Emitted())
			count = 0
		}
	}

	if err := cw.Flush(); err != nil {
		return resultOf(r, ""), fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}
	return resultOf(r, ""), nil
}

// WriteCSV converts the DBF file src into the CSV file dst.
//
// dst is replaced unless opts.Append is set. A .gz, .xz or .zst extension on dst,
// or opts.Compression, compresses the output. The output is flushed and closed on
// every path, including errors.
//
// Example:
//
//	res, err := dbfsql.WriteCSV(ctx, "parcels.dbf", "parcels.csv", dbfsql.NewCSVOptions().WithChunkSize(10000))
func WriteCSV(ctx context.Context, src, dst string, opts Options) (res ExportResult, err error) {
	ec := NewErrorContext("csv export", src)
	if err := opts.Validate(); err != nil {
		return ExportResult{}, ec.Error(err)
	}

	r, err := dbf.Open(src, opts.DecodeConfig())
	if err != nil {
		return ExportResult{}, ec.Error(err)
	}
	defer func() {
		err = errors.Join(err, r.Close())
	}()

	out, closeOut, err := createOutput(dst, opts, opts.Append)
	if err != nil {
		return ExportResult{}, ec.Error(err)
	}
	defer func() {
		if cerr := closeOut(); cerr != nil {
			err = errors.Join(err, ec.Error(cerr))
		}
	}()

	res, err = ExportCSV(ctx, r, out, opts)
	res.Table = opts.tableFor(src)
	if err != nil {
		return res, ec.Error(err)
	}
	opts.logger().Debug("dbfsql csv written", "file", dst, "rows", res.Rows, "deleted", res.Deleted)
	return res, nil
}
