package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/dbfsql"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite" // sqlite driver for load targets
)

func newLoadCmd() *cobra.Command {
	loadCmd := &cobra.Command{
		Use:   "load <in.dbf> <db-file>",
		Short: "Load a DBF file into a SQLite database file",
		Long: `Load a DBF file into a table of a SQLite database file, chunk by chunk.
The database is created when it does not exist. Loading into an existing table
with the same columns appends to it.`,
		Example: `  dbfsql load -c 50000 parcels.dbf gis.db
  dbfsql load --table parcels_2024 --memory-limit 512 parcels.dbf gis.db`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			opts, err := sessionOptions(cmd, dbfsql.NewTableOptions())
			if err != nil {
				return err
			}

			db, err := sql.Open("sqlite", args[1])
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					err = errors.Join(err, closeErr)
				}
			}()

			res, err := dbfsql.LoadIntoDB(cmd.Context(), db, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d records into %s.%s (%d deleted skipped)\n",
				res.Rows, args[1], res.Table, res.Deleted)
			return nil
		},
	}
	loadCmd.Flags().Int64("memory-limit", 0, "Stop once the heap grows beyond this many MB (0 disables)")
	return loadCmd
}

func newQueryCmd() *cobra.Command {
	queryCmd := &cobra.Command{
		Use:   "query <sql> <path>...",
		Short: "Run a SQL query against DBF files",
		Long: `Load every DBF file (or every DBF file of a directory) into an in-memory
SQLite database and run one SQL statement against it. Each file becomes a table
named after the file. Results are printed tab separated with a header line.`,
		Example: `  dbfsql query "SELECT COUNT(*) FROM parcels" parcels.dbf
  dbfsql query "SELECT p.id, o.name FROM parcels p JOIN owners o USING (owner_id)" data/`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			opts, err := sessionOptions(cmd, dbfsql.NewTableOptions())
			if err != nil {
				return err
			}

			builder, err := dbfsql.NewBuilder().WithOptions(opts).AddPaths(args[1:]...).Build(cmd.Context())
			if err != nil {
				return err
			}
			db, err := builder.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, db.Close(), builder.Cleanup())
			}()

			rows, err := db.QueryContext(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			defer rows.Close()
			return printRows(cmd.OutOrStdout(), rows)
		},
	}
	queryCmd.Flags().Int64("memory-limit", 0, "Stop loading once the heap grows beyond this many MB (0 disables)")
	return queryCmd
}

// printRows writes the column names and every row tab separated; NULL marks nil values
func printRows(w io.Writer, rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(columns, "\t")); err != nil {
		return err
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	fields := make([]string, len(columns))
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		for i, v := range values {
			switch v := v.(type) {
			case nil:
				fields[i] = "NULL"
			case []byte:
				fields[i] = string(v)
			default:
				fields[i] = fmt.Sprint(v)
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return rows.Err()
}
