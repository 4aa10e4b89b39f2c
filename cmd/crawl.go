// Package cmd defines and implements the CLI commands for the newscrawler executable.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/newscrawler/internal/app"
)

// newCrawlCmd creates the 'crawl' subcommand: one full discover, fetch, parse
// and persist run.
func newCrawlCmd() *cobra.Command {
	var maxLinks int
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl of the configured news site",
		Long: `Discovers article links on the base listing and every configured category,
fetches each article, parses it in the worker pool, and saves it. Articles
already stored are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-links") {
				maxLinks = appInstance.Config().Scraper.MaxLinks
			}
			_, err = runCrawl(cmd.Context(), appInstance, maxLinks)
			return err
		},
	}
	cmd.Flags().IntVar(&maxLinks, "max-links", 0, "cap on links per listing root (0 = no cap; default from config)")
	return cmd
}

func runCrawl(ctx context.Context, appInstance *app.App, maxLinks int) (app.RunReport, error) {
	logger := appInstance.Logger()
	if err := appInstance.Store().Initialize(ctx); err != nil {
		return app.RunReport{}, fmt.Errorf("initialize store: %w", err)
	}
	pipeline, err := appInstance.Pipeline()
	if err != nil {
		return app.RunReport{}, err
	}
	report, err := pipeline.Run(ctx, maxLinks)
	if err != nil {
		return report, err
	}
	logger.Info("crawl command finished",
		zap.String("run_id", report.RunID),
		zap.Int("discovered", report.Discovered),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}
