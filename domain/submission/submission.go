// Package submission records jobs handed to the cluster launcher.
package submission

import (
	"context"
	"slices"
	"time"

	"github.com/helixml/shardrun/domain/repository"
)

// CompositeShard is the shard index recorded for a job that carries every
// shard's command joined into one invocation.
const CompositeShard = -1

// Status is the lifecycle state of a submission.
type Status string

// Status values.
const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
	StatusDryRun    Status = "dry_run"
)

// IsTerminal returns true once the launcher has been called (or skipped).
func (s Status) IsTerminal() bool {
	return s == StatusSubmitted || s == StatusFailed || s == StatusDryRun
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusFailed, StatusDryRun:
		return true
	}
	return false
}

// Submission is one launcher invocation.
type Submission struct {
	id         int64
	runID      string
	recipe     string
	name       string
	shardIndex int
	totalItems int
	numShards  int
	command    string
	args       []string
	status     Status
	exitCode   int
	errorMsg   string
	output     string
	createdAt  time.Time
	updatedAt  time.Time
}

// New creates a pending submission.
func New(runID, recipe, name string, shardIndex, totalItems, numShards int, command string) Submission {
	now := time.Now().UTC()
	return Submission{
		runID:      runID,
		recipe:     recipe,
		name:       name,
		shardIndex: shardIndex,
		totalItems: totalItems,
		numShards:  numShards,
		command:    command,
		status:     StatusPending,
		createdAt:  now,
		updatedAt:  now,
	}
}

// Reconstruct builds a Submission from stored fields (used by repository).
func Reconstruct(
	id int64,
	runID, recipe, name string,
	shardIndex, totalItems, numShards int,
	command string,
	args []string,
	status Status,
	exitCode int,
	errorMsg, output string,
	createdAt, updatedAt time.Time,
) Submission {
	return Submission{
		id:         id,
		runID:      runID,
		recipe:     recipe,
		name:       name,
		shardIndex: shardIndex,
		totalItems: totalItems,
		numShards:  numShards,
		command:    command,
		args:       slices.Clone(args),
		status:     status,
		exitCode:   exitCode,
		errorMsg:   errorMsg,
		output:     output,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ID returns the submission ID.
func (s Submission) ID() int64 { return s.id }

// RunID returns the run the submission belongs to.
func (s Submission) RunID() string { return s.runID }

// Recipe returns the recipe name, or empty for ad-hoc templates.
func (s Submission) Recipe() string { return s.recipe }

// Name returns the job name given to the launcher.
func (s Submission) Name() string { return s.name }

// ShardIndex returns the shard index, or CompositeShard.
func (s Submission) ShardIndex() int { return s.shardIndex }

// IsComposite reports whether the submission carries every shard.
func (s Submission) IsComposite() bool { return s.shardIndex == CompositeShard }

// TotalItems returns the planned item count.
func (s Submission) TotalItems() int { return s.totalItems }

// NumShards returns the planned shard count.
func (s Submission) NumShards() int { return s.numShards }

// Command returns the command handed to the launcher.
func (s Submission) Command() string { return s.command }

// Args returns a copy of the full launcher argv.
func (s Submission) Args() []string { return slices.Clone(s.args) }

// Status returns the current status.
func (s Submission) Status() Status { return s.status }

// ExitCode returns the launcher exit code.
func (s Submission) ExitCode() int { return s.exitCode }

// Error returns the failure message, if any.
func (s Submission) Error() string { return s.errorMsg }

// Output returns the captured launcher output.
func (s Submission) Output() string { return s.output }

// CreatedAt returns the creation time.
func (s Submission) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last update time.
func (s Submission) UpdatedAt() time.Time { return s.updatedAt }

// WithID returns a copy with the given ID.
func (s Submission) WithID(id int64) Submission {
	s.id = id
	return s
}

// Complete returns a copy updated with the launcher outcome.
func (s Submission) Complete(outcome Outcome, err error) Submission {
	s.args = outcome.Args()
	s.exitCode = outcome.ExitCode()
	s.output = outcome.Output()
	switch {
	case err != nil:
		s.status = StatusFailed
		s.errorMsg = err.Error()
	case outcome.DryRun():
		s.status = StatusDryRun
	default:
		s.status = StatusSubmitted
	}
	s.updatedAt = time.Now().UTC()
	return s
}

// Store persists submissions.
type Store interface {
	Save(ctx context.Context, s Submission) (Submission, error)
	SaveAll(ctx context.Context, subs []Submission) ([]Submission, error)
	Find(ctx context.Context, options ...repository.Option) ([]Submission, error)
	FindOne(ctx context.Context, options ...repository.Option) (Submission, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
}

// WithRunID filters by the "run_id" column.
func WithRunID(runID string) repository.Option {
	return repository.WithCondition("run_id", runID)
}

// WithStatus filters by the "status" column.
func WithStatus(status Status) repository.Option {
	return repository.WithCondition("status", string(status))
}

// WithRecipe filters by the "recipe" column.
func WithRecipe(recipe string) repository.Option {
	return repository.WithCondition("recipe", recipe)
}

// WithNewestFirst orders by creation time, newest first.
func WithNewestFirst() repository.Option {
	return repository.WithOrderDesc("id")
}
