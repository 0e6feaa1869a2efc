// Package dependency implements the DependencyResolver: it owns the
// project task graph and answers readiness, critical-path, slack, wave
// and bottleneck questions. Grounded on the mutex-guarded
// map-of-tasks/dependents-index shape of
// other_examples/264e55a5_aristath-orchestrator__internal-scheduler-dag.go,
// generalized from a single-status-per-task model to the richer Task
// state machine in pkg/domain, and wired to gammazero/toposort for
// topological ordering.
package dependency

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/gammazero/toposort"

	"github.com/taskforge/conductor/pkg/domain"
)

// CycleError is returned by Build when the task graph contains a cycle.
// Its message renders the detected cycle as "a → b → … → a".
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " → "))
}

// Resolver builds and queries a project's task dependency graph.
// Safe for concurrent use; spec.md §5 requires the resolver be mutated
// only from the supervisor goroutine, but read methods (Ready, etc.) may
// be called from elsewhere (API/CLI status reporting), so access is
// mutex-guarded defensively.
type Resolver struct {
	mu         sync.RWMutex
	tasks      map[string]*domain.Task
	dependents map[string][]string // taskID -> tasks that depend on it
	completed  map[string]bool
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{
		tasks:      make(map[string]*domain.Task),
		dependents: make(map[string][]string),
		completed:  make(map[string]bool),
	}
}

// Build clears existing state and registers every task, parsing and
// validating each one's dependency edges. A self-loop or a cycle anywhere
// in the resulting graph is a hard error (CycleError); an edge that points
// at a task not present in the set is kept but logged as a warning — the
// dependent task will permanently block.
func (r *Resolver) Build(tasks []*domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = make(map[string]*domain.Task, len(tasks))
	r.dependents = make(map[string][]string)
	r.completed = make(map[string]bool)

	for _, t := range tasks {
		if t == nil || t.TaskNumber == "" {
			slog.Warn("dependency resolver: skipping task with empty task_number")
			continue
		}
		cp := cloneTask(t)
		r.tasks[cp.TaskNumber] = cp
	}

	for id, t := range r.tasks {
		for _, dep := range t.DependsOn {
			if dep == id {
				return &CycleError{Cycle: []string{id, id}}
			}
			if _, ok := r.tasks[dep]; !ok {
				slog.Warn("dependency resolver: task depends on unknown task, edge kept",
					"task", id, "unknown_dependency", dep)
			}
			r.dependents[dep] = append(r.dependents[dep], id)
		}
	}

	if cycle := r.findCycle(); cycle != nil {
		return &CycleError{Cycle: cycle}
	}

	for id, t := range r.tasks {
		if t.Status.IsTerminal() && t.Status == domain.StatusCompleted {
			r.completed[id] = true
		}
	}

	return nil
}

// findCycle runs a DFS with a recursion stack over the registered tasks
// and returns the first cycle found, rendered root-to-repeat, or nil if
// the graph is acyclic.
func (r *Resolver) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(r.tasks))
	var path []string

	ids := make([]string, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = gray
		path = append(path, id)
		t := r.tasks[id]
		deps := append([]string(nil), t.DependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			if _, ok := r.tasks[dep]; !ok {
				continue // unknown dependency target: warning-only, not a cycle participant
			}
			switch color[dep] {
			case white:
				if cyc := visit(dep); cyc != nil {
					return cyc
				}
			case gray:
				// found the back-edge; slice path from dep's first occurrence
				start := indexOf(path, dep)
				cyc := append([]string(nil), path[start:]...)
				cyc = append(cyc, dep)
				return cyc
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if cyc := visit(id); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// Task returns a copy of the registered task, or nil if id is unknown.
func (r *Resolver) Task(id string) *domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil
	}
	return cloneTask(t)
}

// Tasks returns a copy of every registered task, in no particular order.
func (r *Resolver) Tasks() []*domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, cloneTask(t))
	}
	return out
}

// SetStatus updates a registered task's status in place. It does not
// affect the completed-set used by Ready/Unblock; callers drive that via
// Unblock once a task reaches StatusCompleted.
func (r *Resolver) SetStatus(id string, status domain.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("dependency resolver: unknown task %s", id)
	}
	t.Status = status
	return nil
}

// SetInterventionContext records the supervisor's tactical-intervention
// context for a retried task (matched pattern, prescribed instruction, any
// extracted file path), consumed by the prompt builder on the task's next
// dispatch attempt.
func (r *Resolver) SetInterventionContext(id string, interventionCtx map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("dependency resolver: unknown task %s", id)
	}
	t.InterventionContext = interventionCtx
	return nil
}

// IncrementInterventionCount increments the number of supervisor
// interventions attempted for a task, bounding the retry budget in
// pkg/supervisor.
func (r *Resolver) IncrementInterventionCount(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("dependency resolver: unknown task %s", id)
	}
	t.InterventionCount++
	return nil
}

// DependenciesOf returns a copy of task id's direct dependency list, or nil
// if the task is not registered.
func (r *Resolver) DependenciesOf(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil
	}
	return append([]string(nil), t.DependsOn...)
}

// DependentsOf returns a copy of the tasks that directly depend on id.
func (r *Resolver) DependentsOf(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.dependents[id]...)
}

// Ready returns the sorted list of task ids whose dependency set is a
// subset of the completed set and whose status is dispatchable
// (PENDING, READY or unset; see dispatchableStatus). When excludeCompleted is true (the
// default), already-completed tasks are not included in the result.
func (r *Resolver) Ready(excludeCompleted bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readyLocked(excludeCompleted)
}

func (r *Resolver) readyLocked(excludeCompleted bool) []string {
	var ready []string
	for id, t := range r.tasks {
		if excludeCompleted && r.completed[id] {
			continue
		}
		if !dispatchableStatus(t.Status) {
			continue
		}
		if r.depsSatisfiedLocked(t) {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	return ready
}

// dispatchableStatus reports whether a task in status s is eligible to
// appear in the ready set. IN_PROGRESS tasks are already being worked (or
// tracked in-flight by the caller); BLOCKED tasks wait on a blocker answer;
// FAILED/COMPLETED/ABANDONED are terminal-or-need-explicit-retry. Only
// PENDING/READY tasks (and a task the supervisor has just re-queued as
// READY after a tactical intervention) are picked up automatically.
func dispatchableStatus(s domain.TaskStatus) bool {
	switch s {
	case domain.StatusPending, domain.StatusReady, "":
		return true
	default:
		return false
	}
}

func (r *Resolver) depsSatisfiedLocked(t *domain.Task) bool {
	for _, dep := range t.DependsOn {
		if !r.completed[dep] {
			return false
		}
	}
	return true
}

// Unblock marks task_id completed and returns the newly-ready subset of
// its direct dependents (sorted). Idempotent: a second call with the same
// id returns an empty slice.
func (r *Resolver) Unblock(taskID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.completed[taskID] {
		return nil
	}
	r.completed[taskID] = true

	var unblocked []string
	for _, dep := range r.dependents[taskID] {
		if r.completed[dep] {
			continue
		}
		t, ok := r.tasks[dep]
		if !ok {
			continue
		}
		if r.depsSatisfiedLocked(t) {
			unblocked = append(unblocked, dep)
		}
	}
	sort.Strings(unblocked)
	return unblocked
}

// ValidEdge reports whether adding the edge (u -> v), meaning v depends on
// u, would keep the graph acyclic. A self-edge (u == v) is invalid input
// and returns an error rather than false.
func (r *Resolver) ValidEdge(u, v string) (bool, error) {
	if u == v {
		return false, fmt.Errorf("dependency resolver: self-edge %s -> %s is invalid", u, v)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.tasks[u]; !ok {
		return false, nil
	}
	if _, ok := r.tasks[v]; !ok {
		return false, nil
	}
	// BFS from v forward through dependents: if u is reachable from v, then
	// adding u -> v would close a cycle.
	visited := map[string]bool{v: true}
	queue := []string{v}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == u {
			return false, nil
		}
		for _, next := range r.dependents[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return true, nil
}

// TopologicalOrder returns a Kahn's-algorithm-equivalent total order over
// the registered tasks via gammazero/toposort, or (nil, false) if the
// graph is cyclic.
func (r *Resolver) TopologicalOrder() ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topologicalOrderLocked()
}

// topologicalOrderLocked is the lock-free core of TopologicalOrder; callers
// must already hold at least r.mu.RLock().
func (r *Resolver) topologicalOrderLocked() ([]string, bool) {
	if len(r.tasks) == 0 {
		return []string{}, true
	}

	ids := make([]string, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var edges []toposort.Edge
	for _, id := range ids {
		t := r.tasks[id]
		deps := filterKnown(t.DependsOn, r.tasks)
		if len(deps) == 0 {
			edges = append(edges, toposort.Edge{nil, id})
			continue
		}
		sort.Strings(deps)
		for _, dep := range deps {
			edges = append(edges, toposort.Edge{dep, id})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, false
	}

	order := make([]string, 0, len(ids))
	for _, node := range sorted {
		if node == nil {
			continue
		}
		order = append(order, node.(string))
	}
	if len(order) != len(ids) {
		return nil, false
	}
	return order, true
}

func filterKnown(deps []string, tasks map[string]*domain.Task) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if _, ok := tasks[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

func cloneTask(t *domain.Task) *domain.Task {
	cp := *t
	cp.DependsOn = append([]string(nil), t.DependsOn...)
	cp.FilesChanged = append([]string(nil), t.FilesChanged...)
	return &cp
}
