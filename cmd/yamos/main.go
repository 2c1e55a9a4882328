// Package main is the entrypoint for the yamos gateway CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// configPath is the global --config flag, consumed by serve and config.
var configPath string

func main() {
	root := &cobra.Command{
		Use:   "yamos",
		Short: "OAuth-gated MCP gateway over a replicated document store",
		Long: `yamos exposes note operations over a CouchDB-style replicated
document store as MCP tools, gated by OAuth 2.1 (authorization-code +
PKCE) or a legacy static bearer token.

Quick start:
  yamos config show   Print the effective configuration
  yamos serve         Start the gateway`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (defaults to ./config.toml if present)")

	root.AddCommand(serveCmd())
	root.AddCommand(registerClientCmd())
	root.AddCommand(configCmd())
	root.AddCommand(completionCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the yamos version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "yamos %s\n", Version)
			return nil
		},
	}
}

func defaultConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	return ""
}
