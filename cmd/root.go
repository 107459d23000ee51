package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/levelworks/rlistic/internal/config"
	"github.com/levelworks/rlistic/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rlistic",
	Short: "Graded search over lifted programs",
	Long:  "Lifts crisp classes into graded ones over a level domain and searches candidate groupings for the best-graded assignments.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initStore opens the configured run store and migrates it.
func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if cfg.Store.Driver == "sqlite" {
		dsn = cfg.Store.Path
	}
	return store.Open(ctx, cfg.Store.Driver, dsn)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
