package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/domain/submission"
)

// ErrInvalidCommand indicates a launcher or job command that cannot be split
// into words.
var ErrInvalidCommand = errors.New("invalid command")

// Mason launches jobs through mason.py.
type Mason struct {
	command []string
	runner  Runner
	dryRun  bool
	timeout time.Duration
	logger  *slog.Logger
}

// MasonOption configures a Mason.
type MasonOption func(*Mason)

// WithRunner sets the process runner.
func WithRunner(r Runner) MasonOption {
	return func(m *Mason) { m.runner = r }
}

// WithDryRun records launches without executing them.
func WithDryRun(dryRun bool) MasonOption {
	return func(m *Mason) { m.dryRun = dryRun }
}

// WithTimeout bounds each launcher call. Zero means no bound.
func WithTimeout(d time.Duration) MasonOption {
	return func(m *Mason) { m.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) MasonOption {
	return func(m *Mason) { m.logger = l }
}

// NewMason creates a Mason for a launcher command line such as
// "python mason.py".
func NewMason(command string, opts ...MasonOption) (*Mason, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w: launcher %q: %w", ErrInvalidCommand, command, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: launcher command is empty", ErrInvalidCommand)
	}

	m := &Mason{
		command: words,
		runner:  ExecRunner{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Args builds the launcher argv for l:
//
//	<launcher> --cluster c1 c2 --workspace W --image I [--pure_docker_mode]
//	  --priority P [--preemptible] --budget B --gpus N -- <command words>
//
// The job command is split with shell rules, so " -- " separators between
// shard commands reach the launcher as separate "--" words.
func (m *Mason) Args(l submission.Launch) ([]string, error) {
	words, err := shellquote.Split(l.Command())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: job command is empty", ErrInvalidCommand)
	}

	args := append([]string{}, m.command...)
	args = append(args, resourceFlags(l.Resources())...)
	args = append(args, "--")
	return append(args, words...), nil
}

func resourceFlags(r recipe.Resources) []string {
	var flags []string
	if clusters := r.Clusters(); len(clusters) > 0 {
		flags = append(flags, "--cluster")
		flags = append(flags, clusters...)
	}
	if r.Workspace() != "" {
		flags = append(flags, "--workspace", r.Workspace())
	}
	if r.Image() != "" {
		flags = append(flags, "--image", r.Image())
	}
	if r.PureDockerMode() {
		flags = append(flags, "--pure_docker_mode")
	}
	if r.Priority() != "" {
		flags = append(flags, "--priority", r.Priority())
	}
	if r.Preemptible() {
		flags = append(flags, "--preemptible")
	}
	if r.Budget() != "" {
		flags = append(flags, "--budget", r.Budget())
	}
	if r.GPUs() > 0 {
		flags = append(flags, "--gpus", strconv.Itoa(r.GPUs()))
	}
	return flags
}

// Launch runs the launcher for l, or only builds its argv in dry-run mode.
func (m *Mason) Launch(ctx context.Context, l submission.Launch) (submission.Outcome, error) {
	args, err := m.Args(l)
	if err != nil {
		return submission.NewOutcome(nil, 0, "", m.dryRun), err
	}

	logger := m.logger.With("job", l.Name())
	if m.dryRun {
		logger.Info("dry run, launcher not executed", "command", shellquote.Join(args...))
		return submission.NewOutcome(args, 0, "", true), nil
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	logger.Info("launching job", "argv_len", len(args))
	started := time.Now()
	res, err := m.runner.Run(ctx, args)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", ErrLaunchTimeout, time.Since(started).Round(time.Millisecond), err)
		}
		logger.Error("launcher failed", "exit_code", res.ExitCode, "duration", time.Since(started), "error", err)
		return submission.NewOutcome(args, res.ExitCode, res.Output(), false), err
	}
	logger.Info("job submitted", "duration", time.Since(started))
	return submission.NewOutcome(args, res.ExitCode, res.Output(), false), nil
}

var _ submission.Launcher = (*Mason)(nil)
