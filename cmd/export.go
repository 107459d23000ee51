package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/levelworks/rlistic/internal/render"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run's results to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		out, _ := cmd.Flags().GetString("out")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "export")
		}

		if err := render.XLSX(out, run); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d result(s) to %s\n", len(run.Results), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "results.xlsx", "output spreadsheet path")
	rootCmd.AddCommand(exportCmd)
}
