package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the news table if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := appInstance.Store().Initialize(cmd.Context()); err != nil {
				return fmt.Errorf("initialize store: %w", err)
			}
			appInstance.Logger().Info("database schema ready")
			return nil
		},
	}
}
