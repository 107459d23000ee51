package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/levelworks/rlistic/internal/model"
	"github.com/levelworks/rlistic/internal/render"
	"github.com/levelworks/rlistic/internal/scenario"
	"github.com/levelworks/rlistic/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a graded search over a scenario file",
	Long:  "Loads a scenario, enumerates candidate groupings, scores each through the lifted program, and prints the ranked results.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("file")
		parallel, _ := cmd.Flags().GetInt("parallel")
		save, _ := cmd.Flags().GetBool("save")

		sc, err := scenario.Load(path)
		if err != nil {
			return err
		}

		if parallel == 0 {
			parallel = cfg.Search.Parallelism
		}
		var opts []search.Option
		if parallel > 1 {
			opts = append(opts, search.WithParallelism(parallel))
		}

		ranked, err := search.Run(sc.Domain, sc.Evaluator, sc.Generator(), sc.Policy, opts...)
		if err != nil {
			return eris.Wrapf(err, "search %s", sc.Name)
		}

		run := &model.SearchRun{
			Scenario: sc.Name,
			Policy:   sc.PolicyString(),
			Results:  scenario.Results(ranked),
		}

		if save {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			if err := st.SaveRun(ctx, run); err != nil {
				return err
			}
			zap.L().Info("run saved", zap.String("id", run.ID), zap.String("scenario", run.Scenario))
			fmt.Fprintf(os.Stderr, "Saved run %s\n", run.ID)
		}

		return render.Table(os.Stdout, run)
	},
}

func init() {
	searchCmd.Flags().StringP("file", "f", "scenario.yaml", "scenario file to search")
	searchCmd.Flags().Int("parallel", 0, "score candidates concurrently (default from config)")
	searchCmd.Flags().Bool("save", false, "persist the run to the store")
	rootCmd.AddCommand(searchCmd)
}
