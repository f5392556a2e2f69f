// Package recipe describes the workloads shardrun knows how to plan: the
// per-shard command steps, default sizing and the launcher resources they need.
package recipe

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/helixml/shardrun/domain/command"
	"github.com/helixml/shardrun/domain/shard"
)

// StepSeparator chains the steps of one shard so that each runs only if the
// previous one succeeded.
const StepSeparator = " && "

// Errors returned by recipe lookups and validation.
var (
	ErrNotFound = errors.New("recipe not found")
	ErrInvalid  = errors.New("invalid recipe")
)

// Resources are the cluster-submission flags for a job.
type Resources struct {
	clusters       []string
	image          string
	priority       string
	budget         string
	workspace      string
	gpus           int
	preemptible    bool
	pureDockerMode bool
}

// ResourcesOption configures Resources.
type ResourcesOption func(*Resources)

// WithClusters sets the candidate clusters.
func WithClusters(clusters ...string) ResourcesOption {
	return func(r *Resources) { r.clusters = slices.Clone(clusters) }
}

// WithImage sets the container image.
func WithImage(image string) ResourcesOption {
	return func(r *Resources) { r.image = image }
}

// WithPriority sets the scheduling priority.
func WithPriority(priority string) ResourcesOption {
	return func(r *Resources) { r.priority = priority }
}

// WithBudget sets the budget account.
func WithBudget(budget string) ResourcesOption {
	return func(r *Resources) { r.budget = budget }
}

// WithWorkspace sets the workspace.
func WithWorkspace(workspace string) ResourcesOption {
	return func(r *Resources) { r.workspace = workspace }
}

// WithGPUs sets the GPU count.
func WithGPUs(gpus int) ResourcesOption {
	return func(r *Resources) { r.gpus = gpus }
}

// WithPreemptible marks the job as preemptible.
func WithPreemptible(preemptible bool) ResourcesOption {
	return func(r *Resources) { r.preemptible = preemptible }
}

// WithPureDockerMode runs the command directly in the image.
func WithPureDockerMode(enabled bool) ResourcesOption {
	return func(r *Resources) { r.pureDockerMode = enabled }
}

// NewResources creates Resources from options.
func NewResources(opts ...ResourcesOption) Resources {
	r := Resources{}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Clusters returns a copy of the cluster list.
func (r Resources) Clusters() []string { return slices.Clone(r.clusters) }

// Image returns the container image.
func (r Resources) Image() string { return r.image }

// Priority returns the scheduling priority.
func (r Resources) Priority() string { return r.priority }

// Budget returns the budget account.
func (r Resources) Budget() string { return r.budget }

// Workspace returns the workspace.
func (r Resources) Workspace() string { return r.workspace }

// GPUs returns the GPU count.
func (r Resources) GPUs() int { return r.gpus }

// Preemptible reports whether the job may be preempted.
func (r Resources) Preemptible() bool { return r.preemptible }

// PureDockerMode reports whether the command runs directly in the image.
func (r Resources) PureDockerMode() bool { return r.pureDockerMode }

// With returns a copy with the given options applied.
func (r Resources) With(opts ...ResourcesOption) Resources {
	r.clusters = slices.Clone(r.clusters)
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Merge fills every unset field of r from defaults. Boolean flags are
// enabled if either side enables them.
func (r Resources) Merge(defaults Resources) Resources {
	out := r.With()
	if len(out.clusters) == 0 {
		out.clusters = slices.Clone(defaults.clusters)
	}
	if out.image == "" {
		out.image = defaults.image
	}
	if out.priority == "" {
		out.priority = defaults.priority
	}
	if out.budget == "" {
		out.budget = defaults.budget
	}
	if out.workspace == "" {
		out.workspace = defaults.workspace
	}
	if out.gpus == 0 {
		out.gpus = defaults.gpus
	}
	out.preemptible = out.preemptible || defaults.preemptible
	out.pureDockerMode = out.pureDockerMode || defaults.pureDockerMode
	return out
}

// Recipe is a named, parameterised workload.
type Recipe struct {
	name          string
	description   string
	totalItems    int
	numShards     int
	outputDir     string
	outputPattern string
	steps         []string
	params        map[string]string
	resources     Resources
}

// Option configures a Recipe.
type Option func(*Recipe)

// WithDescription sets the description.
func WithDescription(description string) Option {
	return func(r *Recipe) { r.description = description }
}

// WithSizing sets the default item and shard counts.
func WithSizing(totalItems, numShards int) Option {
	return func(r *Recipe) {
		r.totalItems = totalItems
		r.numShards = numShards
	}
}

// WithOutputDir sets the run output directory. It may reference {{.RunID}}.
func WithOutputDir(dir string) Option {
	return func(r *Recipe) { r.outputDir = dir }
}

// WithOutputPattern sets the shard output path pattern.
func WithOutputPattern(pattern string) Option {
	return func(r *Recipe) { r.outputPattern = pattern }
}

// WithParams sets default template parameters.
func WithParams(params map[string]string) Option {
	return func(r *Recipe) { r.params = maps.Clone(params) }
}

// WithResources sets launcher resources.
func WithResources(res Resources) Option {
	return func(r *Recipe) { r.resources = res }
}

// New creates and validates a Recipe.
func New(name string, steps []string, opts ...Option) (Recipe, error) {
	r := Recipe{
		name:      strings.TrimSpace(name),
		steps:     slices.Clone(steps),
		numShards: 1,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if err := r.validate(); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

func (r Recipe) validate() error {
	if r.name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(r.steps) == 0 {
		return fmt.Errorf("%w: %s: at least one step is required", ErrInvalid, r.name)
	}
	for i, s := range r.steps {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %s: step %d is empty", ErrInvalid, r.name, i)
		}
	}
	if r.numShards < 1 || r.numShards > shard.MaxShards {
		return fmt.Errorf("%w: %s: num_shards must be between 1 and %d", ErrInvalid, r.name, shard.MaxShards)
	}
	if r.totalItems < 0 {
		return fmt.Errorf("%w: %s: total_items must not be negative", ErrInvalid, r.name)
	}
	if _, err := r.Template(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, r.name, err)
	}
	return nil
}

// Name returns the recipe name.
func (r Recipe) Name() string { return r.name }

// Description returns the description.
func (r Recipe) Description() string { return r.description }

// TotalItems returns the default item count.
func (r Recipe) TotalItems() int { return r.totalItems }

// NumShards returns the default shard count.
func (r Recipe) NumShards() int { return r.numShards }

// OutputDir returns the output directory pattern.
func (r Recipe) OutputDir() string { return r.outputDir }

// OutputPattern returns the shard output path pattern.
func (r Recipe) OutputPattern() string { return r.outputPattern }

// Steps returns a copy of the per-shard steps.
func (r Recipe) Steps() []string { return slices.Clone(r.steps) }

// Params returns a copy of the default parameters.
func (r Recipe) Params() map[string]string {
	if r.params == nil {
		return map[string]string{}
	}
	return maps.Clone(r.params)
}

// Resources returns the launcher resources.
func (r Recipe) Resources() Resources { return r.resources.With() }

// Template builds the per-shard command template from the steps.
func (r Recipe) Template() (command.Template, error) {
	return command.NewTemplate(strings.Join(r.steps, StepSeparator), r.outputPattern)
}
