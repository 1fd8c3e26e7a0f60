package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gurmukhi-data/granth-corpus/internal/corpus"
	"github.com/gurmukhi-data/granth-corpus/internal/crossval"
	"github.com/gurmukhi-data/granth-corpus/internal/pipeline"
)

// newCrossValCmd creates the 'crossval' subcommand, which verifies the
// built corpus against a secondary source.
func newCrossValCmd(state *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "crossval",
		Short: "Cross-validates the corpus against a secondary source",
		Long: `Samples angs across the corpus, aligns each sampled ang's lines with
the secondary source, and classifies every mismatch. The run is exactly
reproducible from the configured seed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := state.cfg

			records, err := readCorpus(filepath.Join(cfg.Corpus.OutputDir, pipeline.CorpusFileName))
			if err != nil {
				return err
			}

			if cfg.CrossVal.SecondaryPath == "" {
				return fmt.Errorf("crossval.secondary_path is required")
			}
			secondary, err := crossval.NewCorpusFileSource(cfg.CrossVal.SecondaryName, cfg.CrossVal.SecondaryPath)
			if err != nil {
				return fmt.Errorf("load secondary source: %w", err)
			}

			rng := rand.New(rand.NewSource(cfg.CrossVal.Seed))
			report, err := crossval.Run(cmd.Context(), records, secondary, crossval.Options{
				SampleSize: cfg.CrossVal.SampleSize,
				TotalAngs:  cfg.Corpus.TotalAngs,
				Rng:        rng,
			}, state.logger)
			if err != nil {
				return fmt.Errorf("cross-validation: %w", err)
			}

			if err := report.Write(cfg.CrossVal.ReportPath); err != nil {
				return err
			}
			state.logger.Info("cross-validation report written",
				zap.String("path", cfg.CrossVal.ReportPath),
				zap.Float64("match_rate", report.MatchRate),
			)
			return nil
		},
	}
}

// readCorpus loads the canonical corpus JSONL produced by the build.
func readCorpus(path string) ([]corpus.CanonicalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	var records []corpus.CanonicalRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec corpus.CanonicalRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decode corpus line: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return records, nil
}
