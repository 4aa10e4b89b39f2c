package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/newscrawler/internal/crawler"
)

func newNewsCmd() *cobra.Command {
	var q crawler.Query
	cmd := &cobra.Command{
		Use:   "news",
		Short: "Print a page of stored news, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			items, err := appInstance.Store().Query(cmd.Context(), q.Normalized())
			if err != nil {
				return fmt.Errorf("query news: %w", err)
			}
			return printNews(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().StringVar(&q.Section, "section", "", "case-insensitive section substring")
	cmd.Flags().StringVar(&q.StartDate, "from", "", "lower date bound (inclusive)")
	cmd.Flags().StringVar(&q.EndDate, "to", "", "upper date bound (inclusive)")
	cmd.Flags().IntVar(&q.Limit, "limit", crawler.DefaultPageSize, "page size")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "number of articles to skip")
	return cmd
}

func printNews(w io.Writer, items []crawler.Article) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "Новостей не найдено.")
		return err
	}
	for i, a := range items {
		if i > 0 {
			if _, err := fmt.Fprintln(w, "---"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n%s | %s\n", a.Title, a.Date, a.Section); err != nil {
			return err
		}
		if a.Summary != "" {
			if _, err := fmt.Fprintf(w, "\n%s\n", a.Summary); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\nЧитать далее: %s\n", a.URL); err != nil {
			return err
		}
	}
	return nil
}
