package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/shardrun/domain/recipe"
	"github.com/helixml/shardrun/domain/submission"
	"github.com/helixml/shardrun/infrastructure/persistence"
	"github.com/helixml/shardrun/internal/log"
	"github.com/helixml/shardrun/internal/testdb"
)

var errQuota = errors.New("quota exceeded")

// fakeLauncher implements submission.Launcher for testing.
type fakeLauncher struct {
	mu       sync.Mutex
	launches []submission.Launch
	dryRun   bool
	failFor  map[string]bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeLauncher) Launch(_ context.Context, l submission.Launch) (submission.Outcome, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	f.mu.Lock()
	f.launches = append(f.launches, l)
	f.mu.Unlock()

	args := append([]string{"mason", "--"}, strings.Fields(l.Command())...)
	if f.failFor[l.Name()] {
		return submission.NewOutcome(args, 1, "boom", false), errQuota
	}
	return submission.NewOutcome(args, 0, "ok", f.dryRun), nil
}

func newTestSubmitter(t *testing.T, launcher submission.Launcher, parallelism int) (*Submitter, *History) {
	t.Helper()
	store := persistence.NewSubmissionStore(testdb.New(t))
	planner := newTestPlanner(t, recipe.NewResources(recipe.WithWorkspace("ai2/ws")))
	return NewSubmitter(planner, store, launcher, parallelism, log.Discard().Slog()), NewHistory(store)
}

func TestSubmitter_Composite(t *testing.T) {
	ctx := context.Background()
	launcher := &fakeLauncher{}
	submitter, history := newTestSubmitter(t, launcher, 2)

	subs, err := submitter.Submit(ctx, SubmitParams{Plan: PlanParams{
		Recipe:     "rejection_sampling",
		TotalItems: intPtr(100),
		NumShards:  intPtr(4),
		RunID:      "rs_1",
	}})
	require.NoError(t, err)
	require.Len(t, subs, 1)

	sub := subs[0]
	assert.True(t, sub.IsComposite())
	assert.Equal(t, submission.StatusSubmitted, sub.Status())
	assert.Equal(t, "rs_1", sub.Name())
	assert.Equal(t, 4, sub.NumShards())
	assert.Len(t, strings.Split(sub.Command(), " -- "), 4)

	require.Len(t, launcher.launches, 1)
	assert.Equal(t, "ai2/ws", launcher.launches[0].Resources().Workspace())
	assert.Equal(t, sub.Command(), launcher.launches[0].Command())

	stored, err := history.Get(ctx, sub.ID())
	require.NoError(t, err)
	assert.Equal(t, submission.StatusSubmitted, stored.Status())
	assert.Equal(t, "ok", stored.Output())
}

func TestSubmitter_CompositeFailure(t *testing.T) {
	ctx := context.Background()
	launcher := &fakeLauncher{failFor: map[string]bool{"job": true}}
	submitter, history := newTestSubmitter(t, launcher, 1)

	subs, err := submitter.Submit(ctx, SubmitParams{Name: "job", Plan: PlanParams{Recipe: "dpo", RunID: "d"}})
	assert.ErrorIs(t, err, errQuota)
	require.Len(t, subs, 1)
	assert.Equal(t, submission.StatusFailed, subs[0].Status())
	assert.Equal(t, 1, subs[0].ExitCode())

	n, err := history.Count(ctx, ListParams{Status: submission.StatusFailed})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSubmitter_DryRun(t *testing.T) {
	launcher := &fakeLauncher{dryRun: true}
	submitter, _ := newTestSubmitter(t, launcher, 1)

	subs, err := submitter.Submit(context.Background(), SubmitParams{Plan: PlanParams{Recipe: "reward_modeling"}})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusDryRun, subs[0].Status())
}

func TestSubmitter_Split(t *testing.T) {
	ctx := context.Background()
	launcher := &fakeLauncher{}
	submitter, history := newTestSubmitter(t, launcher, 3)

	subs, err := submitter.Submit(ctx, SubmitParams{Split: true, Plan: PlanParams{
		Template:   "work {{.Start}} {{.End}}",
		TotalItems: intPtr(105),
		NumShards:  intPtr(10),
		RunID:      "split",
	}})
	require.NoError(t, err)
	require.Len(t, subs, 10)

	for i, sub := range subs {
		assert.Equal(t, i, sub.ShardIndex())
		assert.Equal(t, fmt.Sprintf("split_shard%d", i), sub.Name())
		assert.Equal(t, submission.StatusSubmitted, sub.Status())
	}
	assert.Equal(t, "work 90 105", subs[9].Command())
	assert.LessOrEqual(t, launcher.maxSeen.Load(), int32(3))
	assert.Len(t, launcher.launches, 10)

	listed, err := history.List(ctx, ListParams{RunID: "split"})
	require.NoError(t, err)
	assert.Len(t, listed, 10)
}

func TestSubmitter_SplitAttemptsEveryShard(t *testing.T) {
	ctx := context.Background()
	launcher := &fakeLauncher{failFor: map[string]bool{"s_shard1": true, "s_shard3": true}}
	submitter, _ := newTestSubmitter(t, launcher, 2)

	subs, err := submitter.Submit(ctx, SubmitParams{Split: true, Name: "s", Plan: PlanParams{
		Template:   "work {{.Index}}",
		TotalItems: intPtr(4),
		NumShards:  intPtr(4),
	}})
	require.ErrorIs(t, err, errQuota)
	assert.Contains(t, err.Error(), "s_shard1", "first failing shard in order is reported")

	require.Len(t, subs, 4)
	assert.Len(t, launcher.launches, 4)
	assert.Equal(t, submission.StatusSubmitted, subs[0].Status())
	assert.Equal(t, submission.StatusFailed, subs[1].Status())
	assert.Equal(t, submission.StatusSubmitted, subs[2].Status())
	assert.Equal(t, submission.StatusFailed, subs[3].Status())
}

func TestSubmitter_PlanErrorRecordsNothing(t *testing.T) {
	ctx := context.Background()
	launcher := &fakeLauncher{}
	submitter, history := newTestSubmitter(t, launcher, 1)

	_, err := submitter.Submit(ctx, SubmitParams{Plan: PlanParams{Recipe: "dpo", NumShards: intPtr(0)}})
	require.Error(t, err)

	n, err := history.Count(ctx, ListParams{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, launcher.launches)
}

func TestNewSubmitter_DefaultParallelism(t *testing.T) {
	s := NewSubmitter(nil, nil, nil, 0, log.Discard().Slog())
	assert.Equal(t, DefaultParallelism, s.parallelism)
}

var errDiskFull = errors.New("disk full")

// outcomeFailingStore saves pending submissions but fails to record outcomes.
type outcomeFailingStore struct {
	submission.Store
}

func (s outcomeFailingStore) Save(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	if sub.Status() != submission.StatusPending {
		return submission.Submission{}, errDiskFull
	}
	return s.Store.Save(ctx, sub)
}

func TestSubmitter_UnrecordedOutcomeIsLogged(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewSubmissionStore(testdb.New(t))
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	launcher := &fakeLauncher{}
	submitter := NewSubmitter(newTestPlanner(t, recipe.NewResources()), outcomeFailingStore{store}, launcher, 1, logger)

	subs, err := submitter.Submit(ctx, SubmitParams{Plan: PlanParams{
		Template:   "run {{.Start}} {{.End}}",
		TotalItems: intPtr(4),
		NumShards:  intPtr(2),
		RunID:      "r_lost",
	}})
	require.ErrorIs(t, err, errDiskFull)
	assert.Nil(t, subs)
	require.Len(t, launcher.launches, 1)

	pending, err := NewHistory(store).List(ctx, ListParams{RunID: "r_lost"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, submission.StatusPending, pending[0].Status())

	var entry struct {
		Msg      string   `json:"msg"`
		Job      string   `json:"job"`
		Args     []string `json:"args"`
		ExitCode int      `json:"exit_code"`
		Error    string   `json:"error"`
	}
	found := false
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry.Msg == "launch outcome not recorded" {
			found = true
			break
		}
	}
	require.True(t, found, buf.String())
	assert.Equal(t, "r_lost", entry.Job)
	assert.Equal(t, []string{"mason", "--", "run", "0", "2", "--", "run", "2", "4"}, entry.Args)
	assert.Zero(t, entry.ExitCode)
	assert.Equal(t, "disk full", entry.Error)
}
