package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/helixml/shardrun/domain/submission"
)

// DefaultParallelism bounds concurrent launcher calls in split mode when no
// limit is configured.
const DefaultParallelism = 4

// SubmitParams configures a submission.
type SubmitParams struct {
	Plan PlanParams
	// Split launches one job per shard instead of one composite job.
	Split bool
	// Name is the job name; defaults to the run ID. Split jobs append
	// "_shard<index>".
	Name string
}

// Submitter plans runs and hands them to the launcher, recording every
// invocation.
type Submitter struct {
	planner     *Planner
	store       submission.Store
	launcher    submission.Launcher
	parallelism int
	logger      *slog.Logger
}

// NewSubmitter creates a Submitter. parallelism < 1 uses DefaultParallelism.
func NewSubmitter(planner *Planner, store submission.Store, launcher submission.Launcher, parallelism int, logger *slog.Logger) *Submitter {
	if parallelism < 1 {
		parallelism = DefaultParallelism
	}
	return &Submitter{
		planner:     planner,
		store:       store,
		launcher:    launcher,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Submit plans the run and launches it. The returned submissions are in
// shard order and reflect the final recorded state even when a launch
// fails; in that case the first launch error is returned as well.
func (s *Submitter) Submit(ctx context.Context, params SubmitParams) ([]submission.Submission, error) {
	plan, err := s.planner.Plan(ctx, params.Plan)
	if err != nil {
		return nil, err
	}
	name := params.Name
	if name == "" {
		name = plan.RunID
	}

	if params.Split {
		return s.submitSplit(ctx, plan, name)
	}
	return s.submitComposite(ctx, plan, name)
}

func (s *Submitter) submitComposite(ctx context.Context, plan Plan, name string) ([]submission.Submission, error) {
	pending, err := s.store.Save(ctx, submission.New(
		plan.RunID, plan.Recipe, name, submission.CompositeShard,
		plan.TotalItems, plan.NumShards, plan.Joined,
	))
	if err != nil {
		return nil, err
	}

	res, err := s.launch(ctx, plan, pending)
	if err != nil {
		return nil, err
	}
	return []submission.Submission{res.submission}, res.err
}

func (s *Submitter) submitSplit(ctx context.Context, plan Plan, name string) ([]submission.Submission, error) {
	subs := make([]submission.Submission, len(plan.Commands))
	for i, cmd := range plan.Commands {
		subs[i] = submission.New(
			plan.RunID, plan.Recipe, fmt.Sprintf("%s_shard%d", name, cmd.Range().Index()), cmd.Range().Index(),
			plan.TotalItems, plan.NumShards, cmd.Text(),
		)
	}
	pending, err := s.store.SaveAll(ctx, subs)
	if err != nil {
		return nil, err
	}

	results := make([]launchResult, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, sub := range pending {
		g.Go(func() error {
			res, err := s.launch(gctx, plan, sub)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	final := make([]submission.Submission, len(results))
	var firstErr error
	for i, res := range results {
		final[i] = res.submission
		if firstErr == nil {
			firstErr = res.err
		}
	}
	return final, firstErr
}

// launchResult is a recorded submission and the launcher error, if any.
type launchResult struct {
	submission submission.Submission
	err        error
}

// launch runs one pending submission and records the outcome. The returned
// error is a storage failure; launcher failures travel in the result.
func (s *Submitter) launch(ctx context.Context, plan Plan, pending submission.Submission) (launchResult, error) {
	logger := s.logger.With("run_id", plan.RunID, "job", pending.Name())

	outcome, launchErr := s.launcher.Launch(ctx, submission.NewLaunch(pending.Name(), pending.Command(), plan.Resources))
	final, err := s.store.Save(ctx, pending.Complete(outcome, launchErr))
	if err != nil {
		// The row stays pending; the log is the only trace of what ran.
		logger.ErrorContext(ctx, "launch outcome not recorded",
			slog.Int64("id", pending.ID()),
			slog.Any("args", outcome.Args()),
			slog.Int("exit_code", outcome.ExitCode()),
			slog.Bool("dry_run", outcome.DryRun()),
			slog.Any("launch_error", launchErr),
			slog.Any("error", err),
		)
		return launchResult{}, fmt.Errorf("record outcome of %s: %w", pending.Name(), err)
	}

	if launchErr != nil {
		logger.ErrorContext(ctx, "submission failed", "exit_code", outcome.ExitCode(), "error", launchErr)
		return launchResult{submission: final, err: fmt.Errorf("submit %s: %w", pending.Name(), launchErr)}, nil
	}
	logger.InfoContext(ctx, "submission recorded", "status", string(final.Status()), "id", final.ID())
	return launchResult{submission: final}, nil
}
