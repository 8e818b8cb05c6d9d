package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/nao1215/dbfsql"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "info <in.dbf>",
		Short:   "Print the header and field table of a DBF file",
		Example: `  dbfsql info parcels.dbf`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			opts, err := sessionOptions(cmd, dbfsql.NewTableOptions())
			if err != nil {
				return err
			}
			r, err := dbfsql.OpenReader(args[0], opts)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, r.Close())
			}()

			schema := r.Schema()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version:       0x%02x\n", schema.Version())
			fmt.Fprintf(out, "last update:   %s\n", schema.LastUpdate().Format("2006-01-02"))
			fmt.Fprintf(out, "records:       %d\n", schema.RecordCount())
			fmt.Fprintf(out, "record width:  %d\n", schema.RecordWidth())
			fmt.Fprintf(out, "header length: %d\n", schema.HeaderLength())
			fmt.Fprintln(out)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tWIDTH\tDECIMALS")
			for _, f := range schema.Fields() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", f.Name, f.Type, f.Width, f.Decimals)
			}
			return tw.Flush()
		},
	}
}

func newMemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mem <in.dbf>",
		Short: "Estimate the memory needed to convert a DBF file",
		Long: `Estimate the memory needed to decode a DBF file, in total and per chunk
of --chunk-size record slots.`,
		Example: `  dbfsql mem -c 100000 parcels.dbf`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			opts, err := sessionOptions(cmd, dbfsql.NewTableOptions())
			if err != nil {
				return err
			}
			r, err := dbfsql.OpenReader(args[0], opts)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, r.Close())
			}()

			for _, line := range dbfsql.EstimateMemory(r.Schema(), opts.ChunkSize).Lines() {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}
