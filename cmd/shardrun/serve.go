package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helixml/shardrun/infrastructure/api"
	apimiddleware "github.com/helixml/shardrun/infrastructure/api/middleware"
	"github.com/helixml/shardrun/internal/config"
)

func serveCmd(envFile *string) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 8080)
  DATA_DIR                     Data directory (default: ~/.shardrun)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/shardrun.db)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  API_KEYS                     Comma-separated keys required to submit jobs
  RECIPES_FILE                 YAML file with extra recipes
  SUBMIT_PARALLELISM           Concurrent launches in split mode (default: 4)

  LAUNCHER_*                   Cluster launcher configuration
    COMMAND                    Launcher command line (default: python mason.py)
    DRY_RUN                    Record launches without running them (default: false)
    TIMEOUT                    Launch timeout in seconds (default: 600)
    CLUSTERS                   Comma-separated default clusters
    IMAGE, PRIORITY, BUDGET, WORKSPACE, GPUS, PREEMPTIBLE, PURE_DOCKER_MODE
                               Defaults for resources a recipe leaves unset

Endpoints:
  GET  /health, /healthz
  GET  /api/v1/recipes, /api/v1/recipes/{name}
  POST /api/v1/plans
  GET  /api/v1/submissions, /api/v1/submissions/{id}
  POST /api/v1/submissions     (X-API-KEY required when API_KEYS is set)
  /mcp                         MCP streamable HTTP transport`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), applyServeOverrides(cfg, host, port))
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(ctx context.Context, cfg config.AppConfig) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer closeClient(client)

	logger := client.Logger()
	attrs := append([]slog.Attr{slog.String("version", version), slog.String("addr", cfg.Addr())}, cfg.LogAttrs()...)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting shardrun", attrs...)

	apiServer := api.NewAPIServer(client, version)
	router := apiServer.Router()
	// Middleware must be registered before MountRoutes.
	router.Use(apimiddleware.CorrelationID)
	router.Use(apimiddleware.Logging(logger))
	apiServer.MountRoutes()

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{
			"name":    "shardrun",
			"version": version,
		})
	})

	server := api.NewServer(cfg.Addr(), logger)
	server.Router().Mount("/", router)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption
	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}
	return cfg.Apply(opts...)
}
