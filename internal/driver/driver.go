// Package driver implements the parallel enumeration driver: a work-stealing
// pool of worker goroutines draining a shared task queue, each holding a
// small bounded local stack of its own freshly generated subtasks before any
// of them are offered to the global queue for other workers to steal.
package driver

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bb5enum/bb5enum/internal/decider"
	"github.com/bb5enum/bb5enum/internal/enumerator"
	"github.com/bb5enum/bb5enum/internal/interp"
	"github.com/bb5enum/bb5enum/internal/ioformat"
	"github.com/bb5enum/bb5enum/internal/resume"
	"github.com/bb5enum/bb5enum/pkg/collections"
	"github.com/bb5enum/bb5enum/pkg/config"
	"github.com/bb5enum/bb5enum/pkg/machine"
	"github.com/bb5enum/bb5enum/pkg/parallel"
	"github.com/bb5enum/bb5enum/pkg/utils"
)

// rateWindowSize is how many recent stats-interval deltas the driver keeps to
// compute a smoothed "enumerated/sec this run" figure, rather than reporting
// a single noisy instantaneous delta.
const rateWindowSize = 8

// maxLocalHaltingTransitions bounds how many remaining undefined transitions
// a newly generated task may have and still be kept on the worker's own
// local stack rather than offered to the global queue. A task with few
// undefined transitions left has little further work to steal, so keeping
// it local avoids queue contention for no parallelism benefit; a task with
// many undefined transitions is worth surfacing to idle workers.
const maxLocalHaltingTransitions = 3

// taskQueue is a mutex-guarded LIFO of machine.Task, safe for concurrent
// push/pop by many worker goroutines (the "global queue" workers steal from
// when their own local stack runs dry).
type taskQueue struct {
	mu sync.Mutex
	s  *collections.Stack[machine.Task]
}

func newTaskQueue(cap int, seed []machine.Task) *taskQueue {
	tq := &taskQueue{s: collections.NewStack[machine.Task](cap)}
	for _, t := range seed {
		tq.s.Push(t)
	}
	return tq
}

func (tq *taskQueue) push(t machine.Task) {
	tq.mu.Lock()
	tq.s.Push(t)
	tq.mu.Unlock()
}

func (tq *taskQueue) pop() (machine.Task, bool) {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.s.Pop()
}

func (tq *taskQueue) len() int {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.s.Len()
}

// drain empties the queue and returns everything it held, for folding into a
// resume checkpoint.
func (tq *taskQueue) drain() []machine.Task {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	out := make([]machine.Task, 0, tq.s.Len())
	for {
		t, ok := tq.s.Pop()
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out
}

// logEntry is one classified candidate machine awaiting a log line.
type logEntry struct {
	machine machine.Machine
	kind    machine.DecisionKind
}

// Driver coordinates the worker pool against a shared task queue, persists
// classifications to the log file, and checkpoints progress to the resume
// file on a clean shutdown.
type Driver struct {
	cfg    config.DriverConfig
	logger utils.Logger
	clock  utils.Clock

	global *taskQueue
	active atomic.Int64
	done   atomic.Bool

	results  chan logEntry
	progress *parallel.ProgressTracker

	statsMu       sync.Mutex
	stats         resume.Stats
	lastCompleted int64
	rate          *collections.RingBuffer[int64]
}

// New constructs a Driver seeded with the given tasks (either the root task
// for a fresh run, or the frontier loaded from a resume file).
func New(cfg config.DriverConfig, logger utils.Logger, clock utils.Clock, seed []machine.Task, startStats resume.Stats) *Driver {
	d := &Driver{
		cfg:     cfg,
		logger:  logger,
		clock:   clock,
		global:  newTaskQueue(len(seed)*4+64, seed),
		results: make(chan logEntry, 4096),
		stats:   startStats,
		rate:    collections.NewRingBuffer[int64](rateWindowSize),
	}
	return d
}

// Run drives the worker pool to completion (the task queue and every
// worker's local stack are simultaneously empty), or until ctx is canceled.
// It returns the final Stats and the leftover task frontier (non-empty only
// when ctx was canceled before completion), suitable for an immediate
// resume-file checkpoint.
func (d *Driver) Run(ctx context.Context, logWriter *ioformat.LogWriter) (resume.Stats, []machine.Task, error) {
	poolCfg := parallel.DefaultPoolConfig().WithWorkers(d.cfg.WorkerCount)
	workers := poolCfg.MaxWorkers

	d.progress = parallel.NewProgressTracker(int64(d.global.len()), d.reportProgress, time.Duration(d.cfg.StatsInterval)*time.Second)
	d.progress.Start(ctx)
	defer d.progress.Stop()

	d.active.Store(int64(workers))

	var wg sync.WaitGroup
	leftoverCh := make(chan []machine.Task, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			leftoverCh <- d.runWorker(ctx)
		}()
	}

	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		d.drainResults(logWriter)
	}()

	wg.Wait()
	close(d.results)
	<-drainDone

	var leftover []machine.Task
	close(leftoverCh)
	for ls := range leftoverCh {
		leftover = append(leftover, ls...)
	}
	leftover = append(leftover, d.global.drain()...)

	d.statsMu.Lock()
	final := d.stats
	d.statsMu.Unlock()

	return final, leftover, ctx.Err()
}

// Stop requests a graceful shutdown: running workers finish expanding their
// current task (all of its children), then exit and surrender their local
// stack for checkpointing.
// Idempotent.
func (d *Driver) Stop() {
	d.done.Store(true)
}

// reportProgress is the ProgressTracker's periodic callback: it folds the
// latest completed count into a small sliding window (pkg/collections.RingBuffer)
// so the printed enumerated/sec figure is smoothed across the last few stats
// intervals rather than derived from a single noisy delta.
func (d *Driver) reportProgress(completed, total int64) {
	d.statsMu.Lock()
	s := d.stats
	delta := completed - d.lastCompleted
	d.lastCompleted = completed
	if d.rate.IsFull() {
		d.rate.Pop()
	}
	d.rate.Push(delta)
	var sum int64
	for i := 0; i < d.rate.Len(); i++ {
		v, _ := d.rate.Pop()
		d.rate.Push(v) // rotate oldest to the back, leaving the window intact
		sum += v
	}
	d.statsMu.Unlock()

	interval := d.cfg.StatsInterval
	if interval <= 0 {
		interval = 1
	}
	windowSeconds := int64(d.rate.Len()) * int64(interval)
	var perSec int64
	if windowSeconds > 0 {
		perSec = sum / windowSeconds
	}

	d.logger.Info("progress queue=%d active=%d enumerated=%d rate=%d/s halt=%d loop=%d undecided=%d irrelevant=%d",
		d.global.len(), d.active.Load(), completed, perSec, s.Halt, s.Loop, s.Undecided, s.Irrelevant)
}

// runWorker processes tasks until the global queue and this worker's local
// stack are both empty, ctx is canceled, or Stop was called. It returns
// whatever remains on its local stack so the caller can fold it into a
// resume checkpoint.
func (d *Driver) runWorker(ctx context.Context) []machine.Task {
	ip := interp.New()
	local := collections.NewStack[machine.Task](maxLocalHaltingTransitions)

	drainLocal := func() []machine.Task {
		out := make([]machine.Task, 0, local.Len())
		for {
			t, ok := local.Pop()
			if !ok {
				break
			}
			out = append(out, t)
		}
		return out
	}

	idle := false
	for {
		if ctx.Err() != nil || d.done.Load() {
			return drainLocal()
		}

		task, ok := local.Pop()
		if !ok {
			task, ok = d.global.pop()
		}
		if !ok {
			if !idle {
				idle = true
				d.active.Add(-1)
			}
			if d.active.Load() == 0 && d.global.len() == 0 {
				return drainLocal()
			}
			d.clock.Sleep(time.Duration(d.cfg.PollIntervalMillis) * time.Millisecond)
			continue
		}
		if idle {
			idle = false
			d.active.Add(1)
		}

		children := enumerator.New(&task.Node, task.Branch)
		for {
			childTransition, more := children.Next()
			if !more {
				break
			}
			candidate := task.Node
			candidate.Machine.Set(task.Branch.State, task.Branch.Symbol, machine.Continue(childTransition))
			decision := decider.Decide(ip, &candidate.Machine, task.Branch)

			d.results <- logEntry{machine: candidate.Machine, kind: decision.Kind}

			if decision.Kind != machine.DecisionHalt {
				continue
			}
			next := machine.Task{Node: candidate, Branch: decision.Branch}
			// Fewer than 2 remaining Halt cells means the machine is already
			// (almost) fully defined: there is nothing left to branch on, so
			// the task is not recursed into, matching the reference
			// enumerator's halting_transition_count() >= 2 recursion guard.
			if count := next.Node.HaltingTransitionCount(); count >= 2 {
				if count <= maxLocalHaltingTransitions && local.Len() < maxLocalHaltingTransitions {
					local.Push(next)
				} else {
					d.global.push(next)
				}
			}
		}
	}
}

// drainResults is the single consumer of the results channel: it owns the
// Stats accumulator and the log file, so neither needs a lock shared with
// the worker goroutines.
func (d *Driver) drainResults(logWriter *ioformat.LogWriter) {
	for entry := range d.results {
		if err := logWriter.WriteEntry(&entry.machine, entry.kind); err != nil {
			d.logger.Error("failed to write log entry: %v", err)
			continue
		}
		d.statsMu.Lock()
		d.stats.Add(entry.kind)
		d.statsMu.Unlock()
		if d.progress != nil {
			d.progress.Increment()
		}
	}
	if err := logWriter.Flush(); err != nil {
		d.logger.Error("failed to flush log file: %v", err)
	}
}

// shutdownSignals is how many SIGINT deliveries a clean shutdown tolerates
// before the process exits immediately without checkpointing: the first
// asks the driver to drain and persist; a second, impatient signal means
// the operator no longer wants to wait for that.
const shutdownSignals = 2

// ForceExit is called by the second SIGINT in the two-signal shutdown
// protocol: it bypasses the driver entirely.
func ForceExit() {
	os.Exit(1)
}
