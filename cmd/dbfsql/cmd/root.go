package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nao1215/dbfsql"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newRootCmd builds the base command with every subcommand attached
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dbfsql",
		Short: "dbfsql - convert and query DBF files",
		Long: `dbfsql streams xBase DBF (version 5) files into CSV, SQL load scripts,
Parquet, XLSX and SQLite, and runs SQL queries directly against DBF files.

Options can be read from a YAML, TOML or JSON file given with --config and
from DBFSQL_ environment variables; command line flags win over both.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Options file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug events to stderr")
	rootCmd.PersistentFlags().String("codec", "", "Text codec of character fields, e.g. cp1252")
	rootCmd.PersistentFlags().String("na", "", `Missing value: "none" for null, "nan" for NaN, else verbatim`)
	rootCmd.PersistentFlags().IntP("chunk-size", "c", 0, "Record slots per chunk (0 processes the file at once)")
	rootCmd.PersistentFlags().String("table", "", "Table name (default: input file name)")
	rootCmd.PersistentFlags().Bool("index", false, "Add a 0-based index column")

	rootCmd.AddCommand(
		newCSVCmd(),
		newSQLCmd(),
		newParquetCmd(),
		newXLSXCmd(),
		newLoadCmd(),
		newQueryCmd(),
		newInfoCmd(),
		newMemCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// sessionOptions layers the config file, the environment and changed flags over base
func sessionOptions(cmd *cobra.Command, base dbfsql.Options) (dbfsql.Options, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return base, err
	}
	opts, err := dbfsql.LoadOptions(configPath, base)
	if err != nil {
		return base, err
	}

	stringFlags := map[string]func(dbfsql.Options, string) dbfsql.Options{
		"codec":         dbfsql.Options.WithCodec,
		"na":            dbfsql.Options.WithNA,
		"table":         dbfsql.Options.WithTable,
		"escape-quote":  dbfsql.Options.WithEscapeQuote,
		"dialect":       dbfsql.Options.WithDialect,
		"compression":   withCompressionName,
		"parquet-codec": func(o dbfsql.Options, v string) dbfsql.Options { return o.WithParquetCodec(v, o.CompressionLevel) },
	}
	for name, set := range stringFlags {
		if !changed(flags, name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return base, err
		}
		opts = set(opts, v)
	}

	boolFlags := map[string]func(dbfsql.Options, bool) dbfsql.Options{
		"index":  dbfsql.Options.WithIndex,
		"header": dbfsql.Options.WithHeader,
		"append": dbfsql.Options.WithAppend,
	}
	for name, set := range boolFlags {
		if !changed(flags, name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return base, err
		}
		opts = set(opts, v)
	}

	if changed(flags, "chunk-size") {
		n, err := flags.GetInt("chunk-size")
		if err != nil {
			return base, err
		}
		opts = opts.WithChunkSize(n)
	}
	if changed(flags, "level") {
		n, err := flags.GetInt("level")
		if err != nil {
			return base, err
		}
		opts = opts.WithParquetCodec(opts.ParquetCodec, n)
	}
	if changed(flags, "memory-limit") {
		n, err := flags.GetInt64("memory-limit")
		if err != nil {
			return base, err
		}
		opts = opts.WithMemoryLimit(n)
	}

	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return base, err
	}
	opts = opts.WithLogger(newLogger(cmd.ErrOrStderr(), verbose))

	if err := opts.Validate(); err != nil {
		return base, err
	}
	return opts, nil
}

// changed reports whether the command defines flag name and it was set
func changed(flags *pflag.FlagSet, name string) bool {
	return flags.Lookup(name) != nil && flags.Changed(name)
}

// withCompressionName sets the output compression from its name; unknown names fail validation
func withCompressionName(o dbfsql.Options, name string) dbfsql.Options {
	o.Compression = name
	return o
}

// newLogger returns a text logger on w, at debug level when verbose
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// printResult reports a finished conversion
func printResult(cmd *cobra.Command, dst string, res dbfsql.ExportResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s (%d deleted skipped)\n", res.Rows, dst, res.Deleted)
}
