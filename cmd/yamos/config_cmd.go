package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olifog/yamos/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the gateway's effective configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(defaultConfigPath())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), config.ShowConfig(cfg))
			return nil
		},
	})

	return cmd
}
