package dbfsql

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/dbfsql/domain/model"
)

// WriteSQLSchema writes a CREATE TABLE statement for schema followed by the
// dialect's bulk load directive importing csvName into table.
//
// Column types come from witness, falling back to the field type code for
// columns that never held a real value. The index column is declared first
// when index is true, matching CSV written with an index.
func WriteSQLSchema(w io.Writer, schema *model.Schema, witness *model.Witness, dialect model.Dialect, table, csvName string, index bool) error {
	columns := make([]string, 0, schema.NumColumns()+1)
	if index {
		columns = append(columns, dialect.IndexColumn())
	}
	for _, field := range schema.Columns() {
		columns = append(columns, dialect.Column(field.Name, witness.KindOr(field)))
	}

	var sb strings.Builder
	sb.WriteString(dialect.CreateTableStart(table))
	sb.WriteString(strings.Join(columns, ",\n"))
	sb.WriteString(");\n")
	sb.WriteString(dialect.LoadDirective(table, csvName))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteSQLScript converts src into the CSV file csvPath and writes a SQL
// script to sqlPath that creates a matching table and bulk loads the CSV.
//
// The dialect is checked before any file is written. The script is written
// after the CSV, so column types reflect every record of the file.
//
// Example:
//
//	opts := dbfsql.NewSQLScriptOptions().WithDialect("postgres")
//	_, err := dbfsql.WriteSQLScript(ctx, "parcels.dbf", "parcels.sql", "parcels.csv", opts)
func WriteSQLScript(ctx context.Context, src, sqlPath, csvPath string, opts Options) (ExportResult, error) {
	ec := NewErrorContext("sql script export", src)
	dialect, err := opts.dialect()
	if err != nil {
		return ExportResult{}, ec.Error(err)
	}

	res, err := WriteCSV(ctx, src, csvPath, opts)
	if err != nil {
		return res, err
	}
	ec = ec.WithTable(res.Table)

	out, closeOut, err := createOutput(sqlPath, opts.WithCompression(CompressionNone), false)
	if err != nil {
		return res, ec.Error(err)
	}
	if err := WriteSQLSchema(out, res.Schema, res.Witness, dialect, res.Table, csvPath, opts.Index); err != nil {
		_ = closeOut() // the write error is the one worth reporting
		return res, ec.Error(fmt.Errorf("%w: %s: %w", ErrSinkWrite, sqlPath, err))
	}
	if err := closeOut(); err != nil {
		return res, ec.Error(err)
	}
	opts.logger().Debug("dbfsql sql script written", "file", sqlPath, "dialect", dialect.Name, "table", res.Table)
	return res, nil
}
