package shardrun

import (
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/helixml/shardrun/domain/submission"
	"github.com/helixml/shardrun/internal/config"
)

type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	database          databaseType
	dbPath            string
	dbDSN             string
	logger            *slog.Logger
	apiKeys           []string
	recipesFile       string
	submitParallelism int
	launcherConfig    config.LauncherConfig
	launcher          submission.Launcher
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		submitParallelism: config.DefaultSubmitParallelism,
		launcherConfig:    config.NewLauncherConfig(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores history in a SQLite file. Use ":memory:" for a
// throwaway database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres stores history in PostgreSQL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithDatabaseURL picks SQLite or PostgreSQL from a sqlite:/// or
// postgres:// URL.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		if path, ok := sqlitePath(url); ok {
			WithSQLite(path)(c)
			return
		}
		WithPostgres(url)(c)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithAPIKeys sets the keys that guard write endpoints of the HTTP API.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) { c.apiKeys = slices.Clone(keys) }
}

// WithRecipesFile loads extra recipes from a YAML file. Recipes in the file
// replace built-ins with the same name.
func WithRecipesFile(path string) Option {
	return func(c *clientConfig) { c.recipesFile = path }
}

// WithSubmitParallelism bounds concurrent launcher calls in split mode.
func WithSubmitParallelism(n int) Option {
	return func(c *clientConfig) { c.submitParallelism = n }
}

// WithLauncherConfig configures the mason launcher and default resources.
func WithLauncherConfig(l config.LauncherConfig) Option {
	return func(c *clientConfig) { c.launcherConfig = l }
}

// WithDryRun records submissions without running the launcher.
func WithDryRun(dryRun bool) Option {
	return func(c *clientConfig) {
		c.launcherConfig = config.NewLauncherConfigWithOptions(
			append(launcherOptions(c.launcherConfig), config.WithDryRun(dryRun))...,
		)
	}
}

// WithLauncher replaces the mason launcher, e.g. with a test double.
func WithLauncher(l submission.Launcher) Option {
	return func(c *clientConfig) { c.launcher = l }
}

// WithConfig applies every relevant setting of an AppConfig.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) {
		WithDatabaseURL(cfg.DBURL())(c)
		c.apiKeys = cfg.APIKeys()
		c.recipesFile = cfg.RecipesFile()
		c.submitParallelism = cfg.SubmitParallelism()
		c.launcherConfig = cfg.Launcher()
	}
}

func launcherOptions(l config.LauncherConfig) []config.LauncherOption {
	return []config.LauncherOption{
		config.WithLauncherCommand(l.Command()),
		config.WithDryRun(l.DryRun()),
		config.WithLauncherTimeout(l.Timeout()),
		config.WithClusters(l.Clusters()),
		config.WithImage(l.Image()),
		config.WithPriority(l.Priority()),
		config.WithBudget(l.Budget()),
		config.WithWorkspace(l.Workspace()),
		config.WithGPUs(l.GPUs()),
		config.WithPreemptible(l.Preemptible()),
		config.WithPureDockerMode(l.PureDockerMode()),
	}
}

func sqlitePath(url string) (string, bool) {
	const prefix = "sqlite:///"
	if len(url) < len(prefix) || url[:len(prefix)] != prefix {
		return "", false
	}
	return url[len(prefix):], true
}

func buildDatabaseURL(cfg *clientConfig) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		if cfg.dbPath != ":memory:" {
			if err := ensureParent(cfg.dbPath); err != nil {
				return "", err
			}
		}
		return "sqlite:///" + cfg.dbPath, nil
	case databasePostgres:
		return cfg.dbDSN, nil
	default:
		return "", ErrNoDatabase
	}
}

func ensureParent(path string) error {
	_, err := config.PrepareDataDir(filepath.Dir(path))
	return err
}
