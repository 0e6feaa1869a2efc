// Package supervisor implements the SupervisorLoop: the bounded-concurrency
// dispatch cycle that pulls ready tasks from a dependency.Resolver, assigns
// each to an agent, executes it, runs its quality gates, and feeds the
// result back into the graph. Grounded on pkg/queue/pool.go's
// worker-pool-with-registered-cancel-functions shape, generalized from a
// DB-polling queue to an in-memory dependency graph, and on
// pkg/agent/orchestrator/runner.go's reserved-slot concurrency guard —
// replaced here with golang.org/x/sync's errgroup/semaphore pairing.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/taskforge/conductor/pkg/dependency"
	"github.com/taskforge/conductor/pkg/domain"
	"github.com/taskforge/conductor/pkg/qualitygate"
	"github.com/taskforge/conductor/pkg/tactical"
)

// maxInterventions is the number of TacticalPatternMatcher-guided retries
// the loop grants a task before giving up and raising a SYNC blocker,
// per spec.md §4.5 step iv / §7 kind 2 ("max 2 interventions per task").
const maxInterventions = 2

// ErrDeadlocked is returned by Run when no task is ready and none is
// in-progress, yet incomplete tasks remain — the graph cannot make
// further progress (e.g. every remaining task depends on one that failed
// and was never retried or abandoned).
var ErrDeadlocked = errors.New("supervisor: task graph deadlocked, no task ready or in-progress")

// Dispatcher executes a single task with the agent selected for it and
// returns the verification evidence gathered while doing so. The CLI's
// implementation is agentDispatcher in cmd/conductor, which calls a pkg/llm
// Adapter and verifies the result with pkg/langprobe and pkg/evidence.
type Dispatcher interface {
	Dispatch(ctx context.Context, task *domain.Task, agentDef *domain.AgentDefinition) (*domain.Evidence, error)
}

// AgentSelector resolves the AgentDefinition that should execute a task.
type AgentSelector interface {
	SelectAgent(task *domain.Task) (*domain.AgentDefinition, error)
}

// BlockerRaiser persists a blocker and, for SYNC blockers, halts the
// owning task until it is answered.
type BlockerRaiser interface {
	Raise(ctx context.Context, b *domain.Blocker) error
}

// EventPublisher receives lifecycle notifications as the loop runs.
// Implementations may fan these out over a websocket or event bus; a nil
// EventPublisher is valid and disables notification entirely.
type EventPublisher interface {
	Publish(ctx context.Context, taskNumber string, event string, detail map[string]any)
}

// Loop is the SupervisorLoop. It owns no task state of its own — that
// lives in the Resolver — and is safe to Run once per Loop value.
type Loop struct {
	resolver       *dependency.Resolver
	selector       AgentSelector
	dispatcher     Dispatcher
	blockers       BlockerRaiser
	gates          *qualitygate.Runner
	matcher        *tactical.Matcher
	events         EventPublisher
	maxConcurrency int64

	mu       sync.Mutex
	inFlight map[string]bool
}

// Options configures a Loop.
type Options struct {
	Resolver       *dependency.Resolver
	Selector       AgentSelector
	Dispatcher     Dispatcher
	Blockers       BlockerRaiser
	Gates          *qualitygate.Runner
	Matcher        *tactical.Matcher // optional; defaults to tactical.NewMatcher()
	Events         EventPublisher    // optional
	MaxConcurrency int64             // defaults to 4
}

// New constructs a Loop from Options.
func New(opts Options) *Loop {
	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	matcher := opts.Matcher
	if matcher == nil {
		matcher = tactical.NewMatcher()
	}
	return &Loop{
		resolver:       opts.Resolver,
		selector:       opts.Selector,
		dispatcher:     opts.Dispatcher,
		blockers:       opts.Blockers,
		gates:          opts.Gates,
		matcher:        matcher,
		events:         opts.Events,
		maxConcurrency: maxConcurrency,
		inFlight:       make(map[string]bool),
	}
}

// Run drives the graph to completion: it repeatedly fetches the ready set,
// dispatches each ready task (bounded to MaxConcurrency concurrent
// dispatches via a weighted semaphore), waits for the wave to finish, and
// repeats until no task remains incomplete. It returns ErrDeadlocked if a
// wave produces no ready tasks while tasks remain outstanding, and the
// first dispatch error encountered otherwise (other in-flight dispatches
// in that wave still run to completion).
func (l *Loop) Run(ctx context.Context) error {
	log := slog.With("component", "supervisor")
	for {
		ready := l.readyExcludingInFlight()
		if len(ready) == 0 {
			if l.anyInFlight() {
				return nil
			}
			if l.allTerminal() {
				log.Info("supervisor loop: all tasks terminal")
				return nil
			}
			return ErrDeadlocked
		}

		sem := semaphore.NewWeighted(l.maxConcurrency)
		g, gctx := errgroup.WithContext(ctx)

		for _, id := range ready {
			id := id
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			l.markInFlight(id, true)
			g.Go(func() error {
				defer sem.Release(1)
				defer l.markInFlight(id, false)
				return l.runOne(gctx, id)
			})
		}

		if err := g.Wait(); err != nil {
			log.Error("supervisor loop: wave failed", "error", err)
			return err
		}
	}
}

func (l *Loop) readyExcludingInFlight() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, id := range l.resolver.Ready(true) {
		if !l.inFlight[id] {
			out = append(out, id)
		}
	}
	return out
}

func (l *Loop) markInFlight(id string, on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if on {
		l.inFlight[id] = true
	} else {
		delete(l.inFlight, id)
	}
}

func (l *Loop) anyInFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inFlight) > 0
}

func (l *Loop) allTerminal() bool {
	for _, t := range l.resolver.Tasks() {
		if !t.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// runOne executes a single task end-to-end: select agent, dispatch,
// quality-gate, and feed the outcome back into the resolver.
func (l *Loop) runOne(ctx context.Context, taskID string) error {
	task := l.resolver.Task(taskID)
	if task == nil {
		return fmt.Errorf("supervisor: ready task %s vanished from resolver", taskID)
	}

	l.publish(ctx, taskID, "dispatch.started", nil)

	agentDef, err := l.selector.SelectAgent(task)
	if err != nil {
		return l.fail(ctx, task, fmt.Errorf("select agent: %w", err))
	}

	if err := l.resolver.SetStatus(taskID, domain.StatusInProgress); err != nil {
		return err
	}

	evidence, err := l.dispatcher.Dispatch(ctx, task, agentDef)
	if err != nil {
		return l.handleDispatchError(ctx, task, err)
	}

	if l.gates != nil {
		result := l.gates.Run(qualitygate.RunInput{Task: task, TestsPassed: evidence.TestOutcome.Failed == 0 && evidence.TestOutcome.Total > 0})
		if result.BlockerText != "" {
			return l.raiseBlocker(ctx, task, result.BlockerText, "quality_gate_failed")
		}
	}

	if !evidence.Verified {
		return l.raiseBlocker(ctx, task, formatEvidenceBlockerText(taskID, evidence.Errors), "evidence_not_verified")
	}

	if err := l.resolver.SetStatus(taskID, domain.StatusCompleted); err != nil {
		return err
	}
	unblocked := l.resolver.Unblock(taskID)
	l.publish(ctx, taskID, "dispatch.completed", map[string]any{"unblocked": unblocked})
	return nil
}

// handleDispatchError implements spec.md §7 error kind 2 ("recoverable
// agent failure"): a dispatch error is run through the TacticalPatternMatcher;
// a match within the intervention budget writes intervention_context and
// re-queues the task as READY for another attempt, while an unmatched error
// or an exhausted budget raises a SYNC blocker — never an unconditional hard
// failure, which is reserved for cases with no BlockerRaiser configured at
// all.
func (l *Loop) handleDispatchError(ctx context.Context, task *domain.Task, cause error) error {
	pattern := l.matcher.Match(cause.Error())
	if pattern != nil && task.InterventionCount < maxInterventions {
		interventionCtx := map[string]any{
			"strategy":    string(pattern.Strategy),
			"pattern_id":  pattern.ID,
			"description": pattern.Description,
			"error":       cause.Error(),
		}
		if fp := tactical.ExtractFilePath(cause.Error()); fp != "" {
			interventionCtx["file_path"] = fp
		}
		if err := l.resolver.SetInterventionContext(task.TaskNumber, interventionCtx); err != nil {
			return err
		}
		if err := l.resolver.IncrementInterventionCount(task.TaskNumber); err != nil {
			return err
		}
		if err := l.resolver.SetStatus(task.TaskNumber, domain.StatusReady); err != nil {
			return err
		}
		l.publish(ctx, task.TaskNumber, "dispatch.intervention", map[string]any{
			"pattern_id": pattern.ID,
			"strategy":   string(pattern.Strategy),
			"attempt":    task.InterventionCount + 1,
		})
		return nil
	}

	reason := "task keeps failing"
	if pattern == nil {
		reason = "no tactical pattern matched the agent error"
	}
	return l.raiseBlocker(ctx, task, fmt.Sprintf("%s: %v", reason, cause), "dispatch_failed")
}

// raiseBlocker records a SYNC blocker and moves the task to BLOCKED. Dispatch
// errors, exhausted interventions, quality-gate failures, and unverified
// evidence all route through here rather than aborting Run, per spec.md §7
// kinds 2 and 3 ("never fatal ... task stays BLOCKED until answered"). If no
// BlockerRaiser is configured there is no way to surface the failure for a
// human to answer, so it falls back to the old hard-failure behavior.
func (l *Loop) raiseBlocker(ctx context.Context, task *domain.Task, question, reason string) error {
	if l.blockers == nil {
		return l.fail(ctx, task, fmt.Errorf("%s: %s", reason, question))
	}
	b := &domain.Blocker{
		Kind:       domain.BlockerSync,
		Question:   question,
		TaskNumber: task.TaskNumber,
		ProjectID:  task.ProjectID,
	}
	if err := l.blockers.Raise(ctx, b); err != nil {
		return fmt.Errorf("raise blocker for task %s: %w", task.TaskNumber, err)
	}
	if err := l.resolver.SetStatus(task.TaskNumber, domain.StatusBlocked); err != nil {
		return err
	}
	l.publish(ctx, task.TaskNumber, "blocker.raised", map[string]any{"reason": reason, "question": question})
	return nil
}

func formatEvidenceBlockerText(taskID string, errs []string) string {
	msg := fmt.Sprintf("task %s did not pass evidence verification:", taskID)
	for _, e := range errs {
		msg += "\n- " + e
	}
	return msg
}

func (l *Loop) fail(ctx context.Context, task *domain.Task, cause error) error {
	slog.Error("supervisor: task failed", "task", task.TaskNumber, "error", cause)
	if err := l.resolver.SetStatus(task.TaskNumber, domain.StatusFailed); err != nil {
		return err
	}
	l.publish(ctx, task.TaskNumber, "dispatch.failed", map[string]any{"error": cause.Error()})
	return cause
}

func (l *Loop) publish(ctx context.Context, taskNumber, event string, detail map[string]any) {
	if l.events == nil {
		return
	}
	l.events.Publish(ctx, taskNumber, event, detail)
}
