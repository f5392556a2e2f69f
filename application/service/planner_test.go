package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/shardrun/domain/command"
	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/domain/shard"
	"github.com/helixml/shardrun/internal/log"
)

func intPtr(n int) *int { return &n }

func newTestPlanner(t *testing.T, defaults recipe.Resources) *Planner {
	t.Helper()
	builtin, err := recipe.Builtin()
	require.NoError(t, err)
	return NewPlanner(recipe.NewCatalog(builtin...), defaults, log.Discard().Slog())
}

func TestPlanner_RejectionSampling(t *testing.T) {
	p := newTestPlanner(t, recipe.NewResources())

	plan, err := p.Plan(context.Background(), PlanParams{
		Recipe:     "rejection_sampling",
		TotalItems: intPtr(100000),
		NumShards:  intPtr(100),
		RunID:      "rs_test",
	})
	require.NoError(t, err)

	assert.Equal(t, "rs_test", plan.RunID)
	assert.Equal(t, "/output/shards/rs_test", plan.OutputDir)
	require.Len(t, plan.Ranges, 100)
	assert.Equal(t, shard.NewRange(98, 98000, 99000), plan.Ranges[98])
	assert.Equal(t, shard.NewRange(99, 99000, 100000), plan.Ranges[99])
	assert.Zero(t, plan.EmptyShards)

	assert.Equal(t, 99, strings.Count(plan.Joined, command.Delimiter))
	parts := command.Split(plan.Joined)
	require.Len(t, parts, 100)
	assert.Contains(t, parts[99], "99000")
	assert.Contains(t, parts[99], "100000")
	assert.Contains(t, parts[0], "/output/shards/rs_test/0.jsonl")
	assert.Contains(t, parts[0], "Finished shard 1 of 100")
}

func TestPlanner_RemainderShard(t *testing.T) {
	p := newTestPlanner(t, recipe.NewResources())

	plan, err := p.Plan(context.Background(), PlanParams{
		Template:   "process --start {{.Start}} --end {{.End}}",
		TotalItems: intPtr(105),
		NumShards:  intPtr(10),
	})
	require.NoError(t, err)

	assert.Equal(t, AdhocRecipe, plan.Recipe)
	assert.True(t, strings.HasPrefix(plan.RunID, "adhoc_"))
	for i := 0; i < 9; i++ {
		assert.Equal(t, 10, plan.Ranges[i].Len())
	}
	assert.Equal(t, "process --start 90 --end 105", plan.Commands[9].Text())
}

func TestPlanner_SingleShardRecipe(t *testing.T) {
	p := newTestPlanner(t, recipe.NewResources())

	plan, err := p.Plan(context.Background(), PlanParams{Recipe: "dpo"})
	require.NoError(t, err)

	assert.Equal(t, 1, plan.NumShards)
	assert.Len(t, plan.Commands, 1)
	assert.NotContains(t, plan.Joined, command.Delimiter)
	assert.Equal(t, 8, plan.Resources.GPUs())
}

func TestPlanner_InvalidShardCount(t *testing.T) {
	p := newTestPlanner(t, recipe.NewResources())

	_, err := p.Plan(context.Background(), PlanParams{Recipe: "rejection_sampling", NumShards: intPtr(0)})
	assert.ErrorIs(t, err, shard.ErrInvalidArgument)

	_, err = p.Plan(context.Background(), PlanParams{Recipe: "rejection_sampling", TotalItems: intPtr(-1)})
	assert.ErrorIs(t, err, shard.ErrInvalidArgument)
}

func TestPlanner_EmptyShards(t *testing.T) {
	p := newTestPlanner(t, recipe.NewResources())

	plan, err := p.Plan(context.Background(), PlanParams{
		Template:   "run {{.Start}} {{.End}}",
		TotalItems: intPtr(3),
		NumShards:  intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, plan.EmptyShards)
	assert.Len(t, plan.Commands, 5)
}

func TestPlanner_ParamsOverride(t *testing.T) {
	p := newTestPlanner(t, recipe.NewResources())

	plan, err := p.Plan(context.Background(), PlanParams{
		Recipe:     "rejection_sampling",
		TotalItems: intPtr(10),
		NumShards:  intPtr(2),
		RunID:      "r",
		OutputDir:  "/scratch/{{.RunID}}/",
		Params:     map[string]string{"num_generations": "16"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/scratch/r", plan.OutputDir)
	assert.Contains(t, plan.Commands[1].Text(), "16")
	assert.Equal(t, "/scratch/r/1.jsonl", plan.Commands[1].Output())
}

func TestPlanner_OutputPatternOverride(t *testing.T) {
	p := newTestPlanner(t, recipe.NewResources())

	plan, err := p.Plan(context.Background(), PlanParams{
		Template:      "gen --out {{.Output}}",
		OutputPattern: "{{.OutputDir}}/part-{{.Ordinal}}.json",
		OutputDir:     "/out",
		TotalItems:    intPtr(4),
		NumShards:     intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "gen --out /out/part-2.json", plan.Commands[1].Text())
}

func TestPlanner_Resources(t *testing.T) {
	defaults := recipe.NewResources(recipe.WithBudget("ai2/default"), recipe.WithWorkspace("ai2/ws"), recipe.WithPriority("low"))
	p := newTestPlanner(t, defaults)

	plan, err := p.Plan(context.Background(), PlanParams{
		Recipe:    "rejection_sampling",
		RunID:     "r",
		Resources: recipe.NewResources(recipe.WithPriority("high")),
	})
	require.NoError(t, err)

	assert.Equal(t, "high", plan.Resources.Priority())
	assert.Equal(t, "ai2/allennlp", plan.Resources.Budget(), "recipe wins over defaults")
	assert.Equal(t, "ai2/ws", plan.Resources.Workspace(), "defaults fill gaps")
	assert.Equal(t, "costah/open_instruct_rs", plan.Resources.Image())
}

func TestPlanner_Errors(t *testing.T) {
	p := newTestPlanner(t, recipe.NewResources())
	ctx := context.Background()

	_, err := p.Plan(ctx, PlanParams{})
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = p.Plan(ctx, PlanParams{Recipe: "nope"})
	assert.ErrorIs(t, err, recipe.ErrNotFound)

	_, err = p.Plan(ctx, PlanParams{Template: "echo {{.Params.missing}}"})
	assert.ErrorIs(t, err, command.ErrRenderFailed)

	_, err = p.Plan(ctx, PlanParams{Template: "echo a -- b"})
	assert.ErrorIs(t, err, command.ErrDelimiterInCommand)

	_, err = p.Plan(ctx, PlanParams{Template: "echo {{.Start"})
	assert.ErrorIs(t, err, recipe.ErrInvalid)
}

func TestNewRunID(t *testing.T) {
	a := NewRunID("dpo")
	b := NewRunID("dpo")

	assert.True(t, strings.HasPrefix(a, "dpo_"))
	assert.Len(t, a, len("dpo_")+8)
	assert.NotEqual(t, a, b)
	assert.Len(t, NewRunID(""), 8)
}
