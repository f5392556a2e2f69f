package submission

import (
	"errors"
	"testing"

	"github.com/helixml/shardrun/domain/repository"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusSubmitted, true},
		{StatusFailed, true},
		{StatusDryRun, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if !tt.status.Valid() {
				t.Errorf("Valid() = false for %s", tt.status)
			}
		})
	}
	if Status("bogus").Valid() {
		t.Error("Valid() should be false for unknown status")
	}
}

func TestNew(t *testing.T) {
	s := New("run1", "rejection_sampling", "rejection_sampling-run1", CompositeShard, 100, 4, "a -- b -- c -- d")

	if s.Status() != StatusPending {
		t.Errorf("Status() = %v, want %v", s.Status(), StatusPending)
	}
	if !s.IsComposite() {
		t.Error("IsComposite() should be true")
	}
	if s.ID() != 0 {
		t.Errorf("ID() = %d, want 0", s.ID())
	}
	if s.CreatedAt().IsZero() || s.UpdatedAt().IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestComplete(t *testing.T) {
	base := New("run1", "", "job", 2, 10, 5, "cmd")

	submitted := base.Complete(NewOutcome([]string{"python", "mason.py"}, 0, "ok", false), nil)
	if submitted.Status() != StatusSubmitted {
		t.Errorf("Status() = %v, want %v", submitted.Status(), StatusSubmitted)
	}
	if len(submitted.Args()) != 2 {
		t.Errorf("Args() = %v", submitted.Args())
	}
	if base.Status() != StatusPending {
		t.Error("Complete should not mutate the receiver")
	}

	dry := base.Complete(NewOutcome([]string{"python"}, 0, "", true), nil)
	if dry.Status() != StatusDryRun {
		t.Errorf("Status() = %v, want %v", dry.Status(), StatusDryRun)
	}

	failed := base.Complete(NewOutcome(nil, 3, "boom", false), errors.New("exit status 3"))
	if failed.Status() != StatusFailed {
		t.Errorf("Status() = %v, want %v", failed.Status(), StatusFailed)
	}
	if failed.ExitCode() != 3 {
		t.Errorf("ExitCode() = %d, want 3", failed.ExitCode())
	}
	if failed.Error() != "exit status 3" {
		t.Errorf("Error() = %q", failed.Error())
	}
}

func TestOptions(t *testing.T) {
	q := repository.Build(WithRunID("r"), WithStatus(StatusFailed), WithRecipe("dpo"), WithNewestFirst())

	conds := q.Conditions()
	if len(conds) != 3 {
		t.Fatalf("expected 3 conditions, got %d", len(conds))
	}
	if conds[1].String() != "status = failed" {
		t.Errorf("unexpected condition %s", conds[1])
	}
	orders := q.Orders()
	if len(orders) != 1 || orders[0].Ascending() {
		t.Errorf("expected one descending order, got %v", orders)
	}
}
