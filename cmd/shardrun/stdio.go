package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/helixml/shardrun/internal/mcp"
)

func stdioCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

AI assistants can plan shards, browse recipes and read submission history.
Logs go to stderr so stdout carries only protocol messages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := openClient(*envFile)
			if err != nil {
				return err
			}
			defer closeClient(client)

			logger := client.Logger()
			logger.Info("starting MCP server",
				slog.String("version", version),
				slog.String("data_dir", cfg.DataDir()),
			)

			return mcp.NewServer(client.Planner, client.Recipes, client.History, version, logger).ServeStdio()
		},
	}
}
