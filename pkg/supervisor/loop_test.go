package supervisor_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/dependency"
	"github.com/taskforge/conductor/pkg/domain"
	"github.com/taskforge/conductor/pkg/supervisor"
)

type fakeSelector struct{}

func (fakeSelector) SelectAgent(task *domain.Task) (*domain.AgentDefinition, error) {
	return &domain.AgentDefinition{Name: "generic-worker"}, nil
}

type fakeDispatcher struct {
	calls int32
	fail  map[string]bool
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, task *domain.Task, agentDef *domain.AgentDefinition) (*domain.Evidence, error) {
	atomic.AddInt32(&f.calls, 1)
	verified := !f.fail[task.TaskNumber]
	return &domain.Evidence{
		Verified:    verified,
		AgentID:     agentDef.Name,
		TestOutcome: domain.TestOutcome{Total: 1, Passed: 1},
	}, nil
}

func buildResolver(t *testing.T) *dependency.Resolver {
	t.Helper()
	r := dependency.NewResolver()
	tasks := []*domain.Task{
		{TaskNumber: "1", Status: domain.StatusReady},
		{TaskNumber: "2", Status: domain.StatusReady, DependsOn: []string{"1"}},
		{TaskNumber: "3", Status: domain.StatusReady, DependsOn: []string{"1"}},
	}
	require.NoError(t, r.Build(tasks))
	return r
}

func TestLoop_Run_DrivesGraphToCompletion(t *testing.T) {
	r := buildResolver(t)
	disp := &fakeDispatcher{}
	loop := supervisor.New(supervisor.Options{
		Resolver:       r,
		Selector:       fakeSelector{},
		Dispatcher:     disp,
		MaxConcurrency: 2,
	})

	err := loop.Run(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, disp.calls)

	for _, task := range r.Tasks() {
		assert.Equal(t, domain.StatusCompleted, task.Status)
	}
}

// TestLoop_Run_FailurePropagates exercises the fallback-to-hard-failure
// path: with no BlockerRaiser configured, there is no way to surface an
// unverified-evidence outcome for a human to answer, so it still fails hard.
func TestLoop_Run_FailurePropagates(t *testing.T) {
	r := buildResolver(t)
	disp := &fakeDispatcher{fail: map[string]bool{"1": true}}
	loop := supervisor.New(supervisor.Options{
		Resolver:   r,
		Selector:   fakeSelector{},
		Dispatcher: disp,
	})

	err := loop.Run(context.Background())
	require.Error(t, err)

	task := r.Task("1")
	require.NotNil(t, task)
	assert.Equal(t, domain.StatusFailed, task.Status)
}

// TestLoop_Run_UnverifiedEvidenceBlocksNotFails exercises spec.md §7 kind 3
// ("quality-gate failure — never fatal ... task stays BLOCKED"): with a
// BlockerRaiser configured, an unverified-evidence outcome raises a SYNC
// blocker and the task ends BLOCKED, and Run reports ErrDeadlocked rather
// than an error the caller should treat as a hard failure.
func TestLoop_Run_UnverifiedEvidenceBlocksNotFails(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{{TaskNumber: "1", Status: domain.StatusReady}}))
	disp := &fakeDispatcher{fail: map[string]bool{"1": true}}
	raiser := &fakeBlockerRaiser{}
	loop := supervisor.New(supervisor.Options{
		Resolver:   r,
		Selector:   fakeSelector{},
		Dispatcher: disp,
		Blockers:   raiser,
	})

	err := loop.Run(context.Background())
	assert.ErrorIs(t, err, supervisor.ErrDeadlocked)

	task := r.Task("1")
	require.NotNil(t, task)
	assert.Equal(t, domain.StatusBlocked, task.Status)
	require.Len(t, raiser.Raised(), 1)
	assert.Equal(t, domain.BlockerSync, raiser.Raised()[0].Kind)
}

// errDispatcher always returns a dispatch error matching the
// file_already_exists tactical pattern, counting attempts per task.
type errDispatcher struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *errDispatcher) Dispatch(ctx context.Context, task *domain.Task, agentDef *domain.AgentDefinition) (*domain.Evidence, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[task.TaskNumber]++
	n := f.calls[task.TaskNumber]
	f.mu.Unlock()
	return nil, fmt.Errorf("file already exists: foo_%d.py (errno 17)", n)
}

func (f *errDispatcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

type fakeBlockerRaiser struct {
	mu     sync.Mutex
	raised []*domain.Blocker
}

func (f *fakeBlockerRaiser) Raise(ctx context.Context, b *domain.Blocker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raised = append(f.raised, b)
	return nil
}

func (f *fakeBlockerRaiser) Raised() []*domain.Blocker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Blocker(nil), f.raised...)
}

// TestLoop_Run_TacticalInterventionThenBlocker exercises S4: a matched
// dispatch error re-queues the task (writing intervention_context) for up
// to 2 interventions, and only raises a SYNC blocker once the budget is
// exhausted — never an immediate hard failure.
func TestLoop_Run_TacticalInterventionThenBlocker(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{{TaskNumber: "1", Status: domain.StatusReady}}))
	disp := &errDispatcher{}
	raiser := &fakeBlockerRaiser{}
	loop := supervisor.New(supervisor.Options{
		Resolver:   r,
		Selector:   fakeSelector{},
		Dispatcher: disp,
		Blockers:   raiser,
	})

	err := loop.Run(context.Background())
	assert.ErrorIs(t, err, supervisor.ErrDeadlocked)

	// 1 initial attempt + 2 interventions = 3 dispatch calls before the
	// budget is exhausted and a blocker is raised instead of a 3rd retry.
	assert.Equal(t, 3, disp.callCount("1"))

	task := r.Task("1")
	require.NotNil(t, task)
	assert.Equal(t, domain.StatusBlocked, task.Status)
	assert.Equal(t, 2, task.InterventionCount)
	require.Len(t, raiser.Raised(), 1)
	assert.Equal(t, domain.BlockerSync, raiser.Raised()[0].Kind)
}

func TestLoop_Run_EmptyGraphCompletesImmediately(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build(nil))
	loop := supervisor.New(supervisor.Options{
		Resolver:   r,
		Selector:   fakeSelector{},
		Dispatcher: &fakeDispatcher{},
	})
	assert.NoError(t, loop.Run(context.Background()))
}
