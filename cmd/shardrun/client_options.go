package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixml/shardrun"
	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/internal/config"
	"github.com/helixml/shardrun/internal/log"
)

// openClient loads configuration, configures logging and creates a client.
// Extra options are applied after the configuration.
func openClient(envFile string, extra ...shardrun.Option) (*shardrun.Client, config.AppConfig, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return nil, config.AppConfig{}, err
	}
	client, err := newClient(cfg, extra...)
	if err != nil {
		return nil, config.AppConfig{}, err
	}
	return client, cfg, nil
}

func newClient(cfg config.AppConfig, extra ...shardrun.Option) (*shardrun.Client, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	logger := log.Configure(cfg).Slog()

	opts := append([]shardrun.Option{
		shardrun.WithConfig(cfg),
		shardrun.WithLogger(logger),
	}, extra...)

	client, err := shardrun.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create shardrun client: %w", err)
	}
	return client, nil
}

func closeClient(client *shardrun.Client) {
	if err := client.Close(); err != nil {
		client.Logger().Error("failed to close shardrun client", slog.Any("error", err))
	}
}

// planFlags are the plan overrides shared by plan and submit.
type planFlags struct {
	recipe        string
	template      string
	outputPattern string
	totalItems    int
	numShards     int
	outputDir     string
	runID         string
	params        []string

	clusters       []string
	image          string
	priority       string
	budget         string
	workspace      string
	gpus           int
	preemptible    bool
	pureDockerMode bool
}

func (f *planFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.recipe, "recipe", "r", "", "Recipe name (see 'shardrun recipes')")
	flags.StringVarP(&f.template, "template", "t", "", "Ad-hoc per-shard command template instead of a recipe")
	flags.StringVar(&f.outputPattern, "output-pattern", "", "Shard output path pattern")
	flags.IntVarP(&f.totalItems, "total-items", "n", 0, "Number of items to partition (default: recipe's)")
	flags.IntVarP(&f.numShards, "num-shards", "s", 0, "Number of shards (default: recipe's)")
	flags.StringVarP(&f.outputDir, "output-dir", "o", "", "Output directory (default: recipe's)")
	flags.StringVar(&f.runID, "run-id", "", "Run identifier (default: generated)")
	flags.StringArrayVarP(&f.params, "param", "p", nil, "Recipe parameter override key=value (repeatable)")

	flags.StringSliceVar(&f.clusters, "cluster", nil, "Cluster to run on (repeatable)")
	flags.StringVar(&f.image, "image", "", "Container image")
	flags.StringVar(&f.priority, "priority", "", "Job priority")
	flags.StringVar(&f.budget, "budget", "", "Budget account")
	flags.StringVar(&f.workspace, "workspace", "", "Workspace")
	flags.IntVar(&f.gpus, "gpus", 0, "GPUs per job")
	flags.BoolVar(&f.preemptible, "preemptible", false, "Mark jobs preemptible")
	flags.BoolVar(&f.pureDockerMode, "pure-docker-mode", false, "Run commands directly in the image")
}

func (f *planFlags) planParams(cmd *cobra.Command) (service.PlanParams, error) {
	vars, err := parseParams(f.params)
	if err != nil {
		return service.PlanParams{}, err
	}

	p := service.PlanParams{
		Recipe:        f.recipe,
		Template:      f.template,
		OutputPattern: f.outputPattern,
		OutputDir:     f.outputDir,
		RunID:         f.runID,
		Params:        vars,
		Resources: recipe.NewResources(
			recipe.WithClusters(f.clusters...),
			recipe.WithImage(f.image),
			recipe.WithPriority(f.priority),
			recipe.WithBudget(f.budget),
			recipe.WithWorkspace(f.workspace),
			recipe.WithGPUs(f.gpus),
			recipe.WithPreemptible(f.preemptible),
			recipe.WithPureDockerMode(f.pureDockerMode),
		),
	}
	if cmd.Flags().Changed("total-items") {
		n := f.totalItems
		p.TotalItems = &n
	}
	if cmd.Flags().Changed("num-shards") {
		n := f.numShards
		p.NumShards = &n
	}
	return p, nil
}

// parseParams splits key=value pairs on the first '='. Values may contain
// commas and further '=' characters.
func parseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", pair)
		}
		out[key] = value
	}
	return out, nil
}
