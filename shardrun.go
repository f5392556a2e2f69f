// Package shardrun plans sharded ML workloads and submits them to a cluster
// launcher.
//
// A run partitions a number of items into contiguous shards, renders one
// command per shard from a recipe and joins the commands with " -- " into a
// single launcher invocation.
//
// Basic usage:
//
//	client, err := shardrun.New(
//	    shardrun.WithSQLite(".shardrun/shardrun.db"),
//	    shardrun.WithDryRun(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	plan, err := client.Planner.Plan(ctx, service.PlanParams{Recipe: "rejection_sampling"})
//	fmt.Println(plan.Joined)
//
//	subs, err := client.Submissions.Submit(ctx, service.SubmitParams{
//	    Plan: service.PlanParams{Recipe: "rejection_sampling"},
//	})
package shardrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/infrastructure/launcher"
	"github.com/helixml/shardrun/infrastructure/persistence"
	"github.com/helixml/shardrun/internal/config"
	"github.com/helixml/shardrun/internal/database"
)

// ErrNoDatabase indicates no database option was given.
var ErrNoDatabase = errors.New("shardrun: a database must be configured (WithSQLite or WithPostgres)")

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = service.ErrClientClosed

// Client is the main entry point for the shardrun library.
//
// Access services via struct fields:
//
//	client.Planner.Plan(ctx, params)
//	client.Submissions.Submit(ctx, params)
//	client.History.List(ctx, service.ListParams{})
type Client struct {
	Planner     *service.Planner
	Submissions *service.Submitter
	History     *service.History
	Recipes     recipe.Catalog

	db      database.Database
	logger  *slog.Logger
	apiKeys []string
	closed  atomic.Bool
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	dbURL, err := buildDatabaseURL(cfg)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	catalog, err := recipe.LoadCatalog(cfg.recipesFile)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	runner := cfg.launcher
	if runner == nil {
		mason, err := launcher.NewMason(cfg.launcherConfig.Command(),
			launcher.WithDryRun(cfg.launcherConfig.DryRun()),
			launcher.WithTimeout(cfg.launcherConfig.Timeout()),
			launcher.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("configure launcher: %w", err)
		}
		runner = mason
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, dbURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := persistence.AutoMigrate(ctx, db); err != nil {
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), db.Close())
	}

	store := persistence.NewSubmissionStore(db)
	planner := service.NewPlanner(catalog, defaultResources(cfg.launcherConfig), logger)

	client := &Client{
		Planner:     planner,
		Submissions: service.NewSubmitter(planner, store, runner, cfg.submitParallelism, logger),
		History:     service.NewHistory(store),
		Recipes:     catalog,
		db:          db,
		logger:      logger,
		apiKeys:     slices.Clone(cfg.apiKeys),
	}

	logger.Debug("shardrun client ready", "recipes", catalog.Len(), "sqlite", db.IsSQLite())
	return client, nil
}

// Close releases the database connection.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns a copy of the keys that guard write endpoints.
func (c *Client) APIKeys() []string {
	return slices.Clone(c.apiKeys)
}

func defaultResources(l config.LauncherConfig) recipe.Resources {
	return recipe.NewResources(
		recipe.WithClusters(l.Clusters()...),
		recipe.WithImage(l.Image()),
		recipe.WithPriority(l.Priority()),
		recipe.WithBudget(l.Budget()),
		recipe.WithWorkspace(l.Workspace()),
		recipe.WithGPUs(l.GPUs()),
		recipe.WithPreemptible(l.Preemptible()),
		recipe.WithPureDockerMode(l.PureDockerMode()),
	)
}
