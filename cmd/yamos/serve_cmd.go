package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/olifog/yamos/internal/config"
	"github.com/olifog/yamos/internal/logging"
	"github.com/olifog/yamos/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway: OAuth endpoints, rate limiter, and MCP tool transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(defaultConfigPath())
			if err != nil {
				return err
			}

			logging.Init(logging.Config{
				Level:      logging.Level(cfg.Server.LogLevel),
				JSONOutput: cfg.Server.LogFormat == "json",
			})

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			s := server.New(cfg)
			return s.Run(ctx)
		},
	}
}
