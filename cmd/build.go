package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gurmukhi-data/granth-corpus/internal/pipeline"
	"github.com/gurmukhi-data/granth-corpus/internal/storage/local"
)

// newBuildCmd creates the 'build' subcommand: the full corpus build
// from stored ang HTML to the canonical JSONL plus validation report
// and run manifest.
func newBuildCmd(state *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Builds the canonical line corpus from stored ang HTML",
		Long: `Parses every stored ang page, normalizes and tokenizes each line,
and writes the canonical corpus JSONL together with a validation report
and a run manifest. A FAIL verdict or a fatal abort blocks downstream
phases from consuming the corpus.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := state.cfg

			store, err := local.New(cfg.Corpus.PagesDir)
			if err != nil {
				return fmt.Errorf("open page store: %w", err)
			}

			summary, err := pipeline.RunBuild(cmd.Context(), store, pipeline.BuildConfig{
				OutputDir:     cfg.Corpus.OutputDir,
				ConfigPath:    state.cfgFile,
				AngStart:      cfg.Corpus.AngStart,
				AngEnd:        cfg.Corpus.AngEnd,
				Workers:       cfg.Corpus.Workers,
				Normalization: cfg.Normalization,
				Errors:        cfg.ErrorHandling,
			}, state.logger)
			if err != nil {
				var fatal *pipeline.FatalError
				if errors.As(err, &fatal) {
					state.logger.Error("corpus build aborted",
						zap.String("error_type", fatal.Kind),
						zap.String("message", fatal.Message),
					)
				}
				return fmt.Errorf("build corpus: %w", err)
			}

			if summary.Verdict != "PASS" {
				return fmt.Errorf("corpus validation verdict: %s", summary.Verdict)
			}
			return nil
		},
	}
}
