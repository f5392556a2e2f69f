package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/google/uuid"

	"github.com/helixml/shardrun/domain/command"
	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/domain/shard"
)

// AdhocRecipe names runs built from a raw template instead of a recipe.
const AdhocRecipe = "adhoc"

// PlanParams configures a plan. Zero values keep the recipe's settings.
type PlanParams struct {
	// Recipe is the catalog entry to plan. Ignored when Template is set.
	Recipe string
	// Template is an ad-hoc per-shard command template.
	Template string
	// OutputPattern overrides the shard output path pattern.
	OutputPattern string
	TotalItems    *int
	NumShards     *int
	OutputDir     string
	RunID         string
	// Params are merged over the recipe's params.
	Params map[string]string
	// Resources override the recipe's launcher resources field by field.
	Resources recipe.Resources
}

// Plan is a fully rendered run: the shard ranges, one command per shard and
// the composite command line.
type Plan struct {
	RunID       string
	Recipe      string
	TotalItems  int
	NumShards   int
	OutputDir   string
	Ranges      []shard.Range
	Commands    []command.ShardCommand
	Joined      string
	Resources   recipe.Resources
	EmptyShards int
}

// Planner turns recipes into plans.
type Planner struct {
	catalog  recipe.Catalog
	defaults recipe.Resources
	logger   *slog.Logger
}

// NewPlanner creates a Planner. defaults fill resources no recipe sets.
func NewPlanner(catalog recipe.Catalog, defaults recipe.Resources, logger *slog.Logger) *Planner {
	return &Planner{catalog: catalog, defaults: defaults, logger: logger}
}

// Catalog returns the recipe catalog.
func (p *Planner) Catalog() recipe.Catalog {
	return p.catalog
}

// Plan resolves the recipe, applies overrides, partitions the items and
// renders every shard command.
func (p *Planner) Plan(ctx context.Context, params PlanParams) (Plan, error) {
	rec, err := p.resolve(params)
	if err != nil {
		return Plan{}, err
	}

	totalItems, numShards := rec.TotalItems(), rec.NumShards()
	if params.TotalItems != nil {
		totalItems = *params.TotalItems
	}
	if params.NumShards != nil {
		numShards = *params.NumShards
	}

	runID := params.RunID
	if runID == "" {
		runID = NewRunID(rec.Name())
	}

	vars := rec.Params()
	maps.Copy(vars, params.Params)

	outputDir := rec.OutputDir()
	if params.OutputDir != "" {
		outputDir = params.OutputDir
	}
	outputDir, err = command.ExpandRunPath(outputDir, runID, vars)
	if err != nil {
		return Plan{}, fmt.Errorf("output dir: %w", err)
	}

	ranges, err := shard.Plan(totalItems, numShards)
	if err != nil {
		return Plan{}, err
	}

	tmpl, err := rec.Template()
	if err != nil {
		return Plan{}, err
	}
	if params.OutputPattern != "" {
		if tmpl, err = command.NewTemplate(tmpl.Text(), params.OutputPattern); err != nil {
			return Plan{}, err
		}
	}

	commands, err := command.Compose(tmpl, ranges, command.NewContext(runID, outputDir, totalItems, vars))
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		RunID:       runID,
		Recipe:      rec.Name(),
		TotalItems:  totalItems,
		NumShards:   numShards,
		OutputDir:   strings.TrimRight(outputDir, "/"),
		Ranges:      ranges,
		Commands:    commands,
		Joined:      command.Join(commands),
		Resources:   params.Resources.Merge(rec.Resources()).Merge(p.defaults),
		EmptyShards: shard.EmptyCount(ranges),
	}

	logger := p.logger.With("run_id", runID, "recipe", plan.Recipe)
	if plan.EmptyShards > 0 {
		logger.WarnContext(ctx, "plan has empty shards",
			"total_items", totalItems,
			"num_shards", numShards,
			"empty_shards", plan.EmptyShards,
		)
	}
	logger.DebugContext(ctx, "plan ready", "total_items", totalItems, "num_shards", numShards)
	return plan, nil
}

func (p *Planner) resolve(params PlanParams) (recipe.Recipe, error) {
	if strings.TrimSpace(params.Template) != "" {
		return recipe.New(AdhocRecipe, []string{params.Template},
			recipe.WithOutputPattern(params.OutputPattern),
		)
	}
	if params.Recipe == "" {
		return recipe.Recipe{}, ErrNoSource
	}
	return p.catalog.Get(params.Recipe)
}

// NewRunID returns a fresh run identifier such as "dpo_1f0c2a9b".
func NewRunID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
