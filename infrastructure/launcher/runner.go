// Package launcher hands composed shard commands to the cluster launcher
// process.
package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Launch errors.
var (
	ErrLaunchFailed  = errors.New("launch failed")
	ErrLaunchTimeout = errors.New("launcher timed out")
)

// Result is what a process run produced.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output returns stdout followed by stderr, trimmed.
func (r Result) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Runner executes an argv.
type Runner interface {
	Run(ctx context.Context, argv []string) (Result, error)
}

// ExecRunner runs argv as a child process.
type ExecRunner struct{}

// Run executes argv, capturing stdout and stderr. A non-zero exit returns
// ErrLaunchFailed along with the captured result.
func (ExecRunner) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("%w: empty command", ErrLaunchFailed)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, fmt.Errorf("%w: %s exited with status %d: %s", ErrLaunchFailed, argv[0], res.ExitCode, lastLine(res.Stderr))
	}
	res.ExitCode = -1
	return res, fmt.Errorf("%w: %s: %w", ErrLaunchFailed, argv[0], err)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
