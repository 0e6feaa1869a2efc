package dependency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/dependency"
	"github.com/taskforge/conductor/pkg/domain"
)

func mustTask(id string, deps ...string) *domain.Task {
	return &domain.Task{TaskNumber: id, DependsOn: deps, Status: domain.StatusPending}
}

func TestBuild_LinearChain_TopologicalOrder(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{
		mustTask("1"),
		mustTask("2", "1"),
		mustTask("3", "2"),
		mustTask("4", "3"),
	}))

	order, ok := r.TopologicalOrder()
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3", "4"}, order)
}

func TestBuild_CycleRejected(t *testing.T) {
	// S3 — cycle rejection.
	r := dependency.NewResolver()
	err := r.Build([]*domain.Task{
		mustTask("1", "3"),
		mustTask("2", "1"),
		mustTask("3", "2"),
	})
	require.Error(t, err)

	var cycleErr *dependency.CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, err.Error(), "→")
}

func TestBuild_SelfLoopRejected(t *testing.T) {
	r := dependency.NewResolver()
	err := r.Build([]*domain.Task{mustTask("1", "1")})
	require.Error(t, err)
}

func TestUnblock_Idempotent(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{
		mustTask("A"),
		mustTask("B", "A"),
	}))

	unblocked := r.Unblock("A")
	assert.Equal(t, []string{"B"}, unblocked)

	// Second call is idempotent — no state change, empty result.
	assert.Empty(t, r.Unblock("A"))
}

func TestReady_ExcludesCompleted(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{
		mustTask("A"),
		mustTask("B", "A"),
		mustTask("C", "A"),
	}))

	assert.Equal(t, []string{"A"}, r.Ready(true))
	r.Unblock("A")
	assert.Equal(t, []string{"B", "C"}, r.Ready(true))
}

func TestCriticalPath_Diamond(t *testing.T) {
	// S1 — critical path on a diamond: B,C -> A; D -> B,C.
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{
		mustTask("A"),
		mustTask("B", "A"),
		mustTask("C", "A"),
		mustTask("D", "B", "C"),
	}))

	durations := map[string]float64{"A": 2, "B": 3, "C": 1, "D": 2}
	cp, err := r.CriticalPath(durations)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"A", "B", "D"}, cp.CriticalTaskIDs)
	assert.Equal(t, 7.0, cp.TotalDuration)

	slack, err := r.Slack(durations)
	require.NoError(t, err)
	assert.Equal(t, 0.0, slack["A"])
	assert.Equal(t, 0.0, slack["B"])
	assert.Equal(t, 2.0, slack["C"])
	assert.Equal(t, 0.0, slack["D"])
}

func TestValidEdge_SelfEdgeRaises(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{mustTask("A")}))
	_, err := r.ValidEdge("A", "A")
	require.Error(t, err)
}

func TestValidEdge_WouldCreateCycle(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{
		mustTask("A"),
		mustTask("B", "A"),
	}))
	// A -> B already exists (B depends on A). Adding B -> A would cycle.
	ok, err := r.ValidEdge("B", "A")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.ValidEdge("A", "B")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParallelWaves(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{
		mustTask("A"),
		mustTask("B", "A"),
		mustTask("C", "A"),
		mustTask("D", "B", "C"),
	}))
	waves, err := r.ParallelWaves()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A"}, waves[0])
	assert.ElementsMatch(t, []string{"B", "C"}, waves[1])
	assert.ElementsMatch(t, []string{"D"}, waves[2])
}

func TestUnknownDependencyTarget_LoggedNotFatal(t *testing.T) {
	r := dependency.NewResolver()
	err := r.Build([]*domain.Task{mustTask("A", "does-not-exist")})
	require.NoError(t, err)
	// A can never become ready because its dependency never completes.
	assert.Empty(t, r.Ready(true))
}
