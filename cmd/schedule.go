package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/newscrawler/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	var spec string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Crawl now and then on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.Config()
			if !cmd.Flags().Changed("cron") {
				spec = cfg.Schedule.Cron
			}
			s, err := scheduler.New(spec, func(ctx context.Context) error {
				_, err := runCrawl(ctx, appInstance, cfg.Scraper.MaxLinks)
				return err
			}, appInstance.Logger().Named("scheduler"))
			if err != nil {
				return fmt.Errorf("build scheduler: %w", err)
			}
			return s.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", "cron spec (default from schedule.cron)")
	return cmd
}
