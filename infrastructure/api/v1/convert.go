package v1

import (
	"github.com/helixml/shardrun/application/service"
	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/infrastructure/api/v1/dto"
)

func resourcesFromDTO(r *dto.Resources) recipe.Resources {
	if r == nil {
		return recipe.NewResources()
	}
	return recipe.NewResources(
		recipe.WithClusters(r.Clusters...),
		recipe.WithImage(r.Image),
		recipe.WithPriority(r.Priority),
		recipe.WithBudget(r.Budget),
		recipe.WithWorkspace(r.Workspace),
		recipe.WithGPUs(r.GPUs),
		recipe.WithPreemptible(r.Preemptible),
		recipe.WithPureDockerMode(r.PureDockerMode),
	)
}

func planParams(req dto.PlanRequest) service.PlanParams {
	return service.PlanParams{
		Recipe:        req.Recipe,
		Template:      req.Template,
		OutputPattern: req.OutputPattern,
		TotalItems:    req.TotalItems,
		NumShards:     req.NumShards,
		OutputDir:     req.OutputDir,
		RunID:         req.RunID,
		Params:        req.Params,
		Resources:     resourcesFromDTO(req.Resources),
	}
}
