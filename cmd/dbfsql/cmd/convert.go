package cmd

import (
	"github.com/nao1215/dbfsql"
	"github.com/spf13/cobra"
)

func newCSVCmd() *cobra.Command {
	csvCmd := &cobra.Command{
		Use:   "csv <in.dbf> <out.csv>",
		Short: "Convert a DBF file to CSV",
		Long: `Convert a DBF file to CSV. Character, date and logical values are quoted
as they are; numbers are written bare. The output is compressed when its name
ends with .gz, .xz or .zst.`,
		Example: `  dbfsql csv parcels.dbf parcels.csv
  dbfsql csv --codec cp1252 --na none -c 50000 parcels.dbf parcels.csv.zst`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := sessionOptions(cmd, dbfsql.NewCSVOptions())
			if err != nil {
				return err
			}
			res, err := dbfsql.WriteCSV(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			printResult(cmd, args[1], res)
			return nil
		},
	}
	csvCmd.Flags().Bool("header", true, "Write a line of column names first")
	csvCmd.Flags().String("escape-quote", "", "Text inserted before every double quote of character fields")
	csvCmd.Flags().Bool("append", false, "Append to an existing file")
	csvCmd.Flags().String("compression", "", "Output compression: none, gz, xz or zstd (default: from extension)")
	return csvCmd
}

func newSQLCmd() *cobra.Command {
	sqlCmd := &cobra.Command{
		Use:   "sql <in.dbf> <out.sql> <out.csv>",
		Short: "Write a SQL script creating a table and loading a CSV into it",
		Long: `Write the CSV data file and a SQL script that creates the table and loads
that CSV. Column types follow the first value seen in every column.`,
		Example: `  dbfsql sql parcels.dbf parcels.sql parcels.csv
  dbfsql sql --dialect postgres --escape-quote '"' parcels.dbf parcels.sql parcels.csv`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := sessionOptions(cmd, dbfsql.NewSQLScriptOptions())
			if err != nil {
				return err
			}
			res, err := dbfsql.WriteSQLScript(cmd.Context(), args[0], args[1], args[2], opts)
			if err != nil {
				return err
			}
			printResult(cmd, args[2], res)
			return nil
		},
	}
	sqlCmd.Flags().String("dialect", "sqlite", "SQL dialect: sqlite or postgres")
	sqlCmd.Flags().String("escape-quote", "", "Text inserted before every double quote of character fields")
	return sqlCmd
}

func newParquetCmd() *cobra.Command {
	parquetCmd := &cobra.Command{
		Use:   "parquet <in.dbf> <out.parquet>",
		Short: "Convert a DBF file to Parquet",
		Long: `Convert a DBF file to Parquet. Every chunk becomes one row group; missing
values are stored as nulls.`,
		Example: `  dbfsql parquet -c 100000 parcels.dbf parcels.parquet
  dbfsql parquet --parquet-codec snappy parcels.dbf parcels.parquet`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := sessionOptions(cmd, dbfsql.NewTableOptions())
			if err != nil {
				return err
			}
			res, err := dbfsql.WriteParquet(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			printResult(cmd, args[1], res)
			return nil
		},
	}
	parquetCmd.Flags().String("parquet-codec", "zstd", "Column codec: zstd, snappy, gzip, brotli or none")
	parquetCmd.Flags().Int("level", 9, "Codec compression level")
	return parquetCmd
}

func newXLSXCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xlsx <in.dbf> <out.xlsx>",
		Short: "Convert a DBF file to an Excel workbook",
		Long: `Convert a DBF file to an Excel workbook with one sheet named after the table.
Missing values are left as empty cells.`,
		Example: `  dbfsql xlsx --table owners owners.dbf owners.xlsx`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := sessionOptions(cmd, dbfsql.NewTableOptions())
			if err != nil {
				return err
			}
			res, err := dbfsql.WriteXLSX(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			printResult(cmd, args[1], res)
			return nil
		},
	}
}
