package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gurmukhi-data/granth-corpus/internal/scraper"
	"github.com/gurmukhi-data/granth-corpus/internal/storage/local"
)

// newScrapeCmd creates the 'scrape' subcommand, which fills the local
// page store with raw ang HTML.
func newScrapeCmd(state *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Fetches raw ang HTML into the local page store",
		Long: `Fetches the configured ang range from the primary source with rate
limiting and random jitter, resuming from scrape_state.json when a
previous run was interrupted. Already-stored pages are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := state.cfg

			store, err := local.New(cfg.Corpus.PagesDir)
			if err != nil {
				return fmt.Errorf("open page store: %w", err)
			}

			s, err := scraper.New(cfg.Scraper, store, state.logger)
			if err != nil {
				return fmt.Errorf("init scraper: %w", err)
			}

			summary, err := s.Run(cmd.Context())
			if err != nil {
				if errors.Is(err, scraper.ErrForbidden) {
					state.logger.Error("scrape stopped: server is refusing requests",
						zap.Int("fetched", summary.Fetched))
				}
				return fmt.Errorf("scrape: %w", err)
			}

			state.logger.Info("scrape summary",
				zap.Int("fetched", summary.Fetched),
				zap.Int("skipped", summary.Skipped),
				zap.Int("failed", summary.Failed),
			)
			return nil
		},
	}
}
