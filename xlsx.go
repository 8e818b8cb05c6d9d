package dbfsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/domain/model"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheetName = "Sheet1"
	maxSheetNameLen  = 31
)

// WriteXLSX converts the DBF file src into an Excel workbook at dst.
//
// The workbook has one worksheet named after the table, a header row of column
// names and one row per live record, written through excelize's stream writer
// one chunk at a time. Missing values are left as empty cells and dates are
// written as YYYY-MM-DD text.
func WriteXLSX(ctx context.Context, src, dst string, opts Options) (res ExportResult, err error) {
	ec := NewErrorContext("xlsx export", src)
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

	table := opts.tableFor(src)
	ec = ec.WithTable(table)

	f := excelize.NewFile()
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	sheet := SheetName(table)
	if sheet != defaultSheetName {
		if err := f.SetSheetName(defaultSheetName, sheet); err != nil {
			return ExportResult{}, ec.Error(fmt.Errorf("%w: %w", ErrSinkWrite, err))
		}
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return ExportResult{}, ec.Error(fmt.Errorf("%w: %w", ErrSinkWrite, err))
	}

	columns := r.Columns()
	header := make([]any, 0, len(columns)+1)
	if opts.Index {
		header = append(header, indexColumnName)
	}
	for _, col := range columns {
		header = append(header, col.Name)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return ExportResult{}, ec.Error(fmt.Errorf("%w: %w", ErrSinkWrite, err))
	}

	row := 2
	for batch, berr := range r.Chunks(opts.ChunkSize) {
		if berr != nil {
			return resultOf(r, table), ec.Error(berr)
		}
		if cerr := ctx.Err(); cerr != nil {
			return resultOf(r, table), cerr
		}
		for i, rec := range batch.Records {
			cell, cerr := excelize.CoordinatesToCellName(1, row)
			if cerr != nil {
				return resultOf(r, table), ec.Error(cerr)
			}
			if err := sw.SetRow(cell, xlsxRow(rec, opts.Index, batch.Offset+i)); err != nil {
				return resultOf(r, table), ec.Error(fmt.Errorf("%w: %w", ErrSinkWrite, err))
			}
			row++
		}
	}

	if err := sw.Flush(); err != nil {
		return resultOf(r, table), ec.Error(fmt.Errorf("%w: %w", ErrSinkWrite, err))
	}
	if err := f.SaveAs(dst); err != nil {
		return resultOf(r, table), ec.Error(sinkError(dst, err))
	}

	res = resultOf(r, table)
	opts.logger().Debug("dbfsql xlsx written", "file", dst, "sheet", sheet, "rows", res.Rows)
	return res, nil
}

func xlsxRow(rec model.Record, index bool, pos int) []any {
	values := make([]any, 0, len(rec)+1)
	if index {
		values = append(values, pos)
	}
	for _, v := range rec {
		values = append(values, xlsxValue(v))
	}
	return values
}

// xlsxValue maps a decoded value to a cell value; nil leaves the cell empty
func xlsxValue(v model.Value) any {
	if v.IsNull() || v.IsNaN() {
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

// SheetName turns a table name into a valid worksheet name
func SheetName(table string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		default:
			return r
		}
	}, table)
	name = strings.Trim(name, "'")
	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:maxSheetNameLen])
	}
	if name == "" {
		return defaultSheetName
	}
	return name
}
