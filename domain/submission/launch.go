package submission

import (
	"context"
	"slices"

	"github.com/helixml/shardrun/domain/recipe"
)

// Launch is a request to hand one command to the cluster launcher.
type Launch struct {
	name      string
	command   string
	resources recipe.Resources
}

// NewLaunch creates a Launch.
func NewLaunch(name, command string, resources recipe.Resources) Launch {
	return Launch{name: name, command: command, resources: resources}
}

// Name returns the job name.
func (l Launch) Name() string { return l.name }

// Command returns the command the job runs.
func (l Launch) Command() string { return l.command }

// Resources returns the cluster resources for the job.
func (l Launch) Resources() recipe.Resources { return l.resources }

// Outcome is what the launcher reported for a Launch.
type Outcome struct {
	args     []string
	exitCode int
	output   string
	dryRun   bool
}

// NewOutcome creates an Outcome.
func NewOutcome(args []string, exitCode int, output string, dryRun bool) Outcome {
	return Outcome{args: slices.Clone(args), exitCode: exitCode, output: output, dryRun: dryRun}
}

// Args returns a copy of the argv that ran (or would have run).
func (o Outcome) Args() []string { return slices.Clone(o.args) }

// ExitCode returns the process exit code.
func (o Outcome) ExitCode() int { return o.exitCode }

// Output returns the combined process output.
func (o Outcome) Output() string { return o.output }

// DryRun reports whether the launcher skipped execution.
func (o Outcome) DryRun() bool { return o.dryRun }

// Launcher hands commands to the cluster launcher.
type Launcher interface {
	Launch(ctx context.Context, l Launch) (Outcome, error)
}
