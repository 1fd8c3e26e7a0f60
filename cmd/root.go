// Package cmd defines and implements the CLI commands for the granthctl
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gurmukhi-data/granth-corpus/internal/config"
	"github.com/gurmukhi-data/granth-corpus/internal/logging"
)

// appState holds the services shared by all subcommands, built once in
// the root command's PersistentPreRunE.
type appState struct {
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	state := &appState{}

	cmd := &cobra.Command{
		Use:   "granthctl",
		Short: "Builds and verifies a canonical Gurmukhi line corpus.",
		Long: `granthctl turns scraped scripture pages into a canonical,
content-addressed line corpus: it scrapes raw ang HTML, extracts and
normalizes lines, tokenizes them with exact offsets, and cross-validates
the result against independent secondary sources.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(state.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			state.cfg = cfg

			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			state.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if state.logger != nil {
				_ = state.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&state.cfgFile, "config", "", "config file (default granthctl.yaml search path)")

	cmd.AddCommand(newBuildCmd(state))
	cmd.AddCommand(newScrapeCmd(state))
	cmd.AddCommand(newCrossValCmd(state))

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
