package dto

import (
	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/domain/submission"
)

// NewResources converts launcher resources.
func NewResources(r recipe.Resources) Resources {
	return Resources{
		Clusters:       r.Clusters(),
		Image:          r.Image(),
		Priority:       r.Priority(),
		Budget:         r.Budget(),
		Workspace:      r.Workspace(),
		GPUs:           r.GPUs(),
		Preemptible:    r.Preemptible(),
		PureDockerMode: r.PureDockerMode(),
	}
}

// NewRecipe converts a catalog recipe.
func NewRecipe(r recipe.Recipe) Recipe {
	return Recipe{
		Name:          r.Name(),
		Description:   r.Description(),
		TotalItems:    r.TotalItems(),
		NumShards:     r.NumShards(),
		OutputDir:     r.OutputDir(),
		OutputPattern: r.OutputPattern(),
		Steps:         r.Steps(),
		Params:        r.Params(),
		Resources:     NewResources(r.Resources()),
	}
}

// NewRecipes converts recipes, keeping their order.
func NewRecipes(recipes []recipe.Recipe) []Recipe {
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = NewRecipe(r)
	}
	return out
}

// NewPlan converts a rendered plan. The CLI, the HTTP API and the MCP tools
// all print plans in this shape.
func NewPlan(p service.Plan) Plan {
	shards := make([]Shard, len(p.Commands))
	for i, c := range p.Commands {
		shards[i] = Shard{
			Index:   c.Range().Index(),
			Start:   c.Range().Start(),
			End:     c.Range().End(),
			Output:  c.Output(),
			Command: c.Text(),
		}
	}
	return Plan{
		RunID:       p.RunID,
		Recipe:      p.Recipe,
		TotalItems:  p.TotalItems,
		NumShards:   p.NumShards,
		OutputDir:   p.OutputDir,
		EmptyShards: p.EmptyShards,
		Command:     p.Joined,
		Shards:      shards,
		Resources:   NewResources(p.Resources),
	}
}

// NewSubmission converts a recorded submission.
func NewSubmission(s submission.Submission) Submission {
	args := s.Args()
	if args == nil {
		args = []string{}
	}
	return Submission{
		ID:         s.ID(),
		RunID:      s.RunID(),
		Recipe:     s.Recipe(),
		Name:       s.Name(),
		ShardIndex: s.ShardIndex(),
		TotalItems: s.TotalItems(),
		NumShards:  s.NumShards(),
		Command:    s.Command(),
		Args:       args,
		Status:     string(s.Status()),
		ExitCode:   s.ExitCode(),
		Error:      s.Error(),
		Output:     s.Output(),
		CreatedAt:  s.CreatedAt(),
		UpdatedAt:  s.UpdatedAt(),
	}
}

// NewSubmissions converts submissions, keeping their order.
func NewSubmissions(subs []submission.Submission) []Submission {
	out := make([]Submission, len(subs))
	for i, s := range subs {
		out[i] = NewSubmission(s)
	}
	return out
}
