package scheduler

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jpetrucciani/harmonia/internal/herrors"
	"github.com/jpetrucciani/harmonia/internal/model"
)

// Task is one repo's unit of work within a wave. Implementations are
// expected to respect ctx cancellation; the subprocess-level SIGTERM-then-
// SIGKILL grace period (§5) is internal/vcs.ShellGit's and
// RunHooks's responsibility, since they're the callers that actually hold
// an *exec.Cmd.
type Task func(ctx context.Context, repo model.RepoId) model.RepoOutcome

// Options controls wave execution per §4.E/§5.
type Options struct {
	// Parallel caps concurrent tasks within one wave. 0 means runtime.NumCPU().
	Parallel int
	// FailFast cancels all pending/running tasks on the first Failed outcome
	// and reports Cancelled for everything that didn't get to run.
	FailFast bool
	// IgnoreErrors continues scheduling further waves even after failures
	// (mutually exclusive in effect with FailFast; FailFast takes priority
	// if both are somehow set).
	IgnoreErrors bool
}

func (o Options) parallelism() int {
	if o.Parallel > 0 {
		return o.Parallel
	}
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// Run executes waves in order, serially between waves and with up to
// opts.Parallel concurrent tasks within each wave, and returns a complete
// OperationReport sorted by RepoId per §5's determinism guarantee. On
// FailFast, once any repo in any wave reports StateFailed, every
// not-yet-started task (in the current and all subsequent waves) is
// recorded as StateCancelled instead of being run, and the context passed
// to in-flight tasks is cancelled so they may exit early.
func Run(ctx context.Context, operation string, waves [][]model.RepoId, task Task, opts Options) model.OperationReport {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		outcomes []model.RepoOutcome
		failed   bool
	)

	for waveIdx, wave := range waves {
		mu.Lock()
		alreadyFailed := failed
		mu.Unlock()
		if alreadyFailed && opts.FailFast {
			for _, id := range wave {
				mu.Lock()
				outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateCancelled, Wave: waveIdx, Err: &herrors.Cancelled{Repo: string(id), Reason: "fail_fast"}})
				mu.Unlock()
			}
			continue
		}

		sem := semaphore.NewWeighted(int64(opts.parallelism()))
		g, gctx := errgroup.WithContext(runCtx)

		for _, id := range wave {
			id := id
			if err := sem.Acquire(runCtx, 1); err != nil {
				mu.Lock()
				outcomes = append(outcomes, model.RepoOutcome{Repo: id, State: model.StateCancelled, Wave: waveIdx, Err: &herrors.Cancelled{Repo: string(id), Reason: "context cancelled before start"}})
				mu.Unlock()
				continue
			}
			g.Go(func() error {
				defer sem.Release(1)
				start := time.Now()
				outcome := task(gctx, id)
				outcome.Wave = waveIdx
				outcome.Duration = time.Since(start).Nanoseconds()

				mu.Lock()
				outcomes = append(outcomes, outcome)
				if outcome.State == model.StateFailed {
					failed = true
					if opts.FailFast {
						cancel()
					}
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Repo < outcomes[j].Repo })
	return model.OperationReport{Operation: operation, Outcomes: outcomes}
}
