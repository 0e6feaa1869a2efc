package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/dependency"
	"github.com/taskforge/conductor/pkg/domain"
	"github.com/taskforge/conductor/pkg/scheduler"
)

func diamond(t *testing.T) *dependency.Resolver {
	t.Helper()
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{
		{TaskNumber: "A"},
		{TaskNumber: "B", DependsOn: []string{"A"}},
		{TaskNumber: "C", DependsOn: []string{"A"}},
		{TaskNumber: "D", DependsOn: []string{"B", "C"}},
	}))
	return r
}

func TestSchedule_TwoAgentSpeedup(t *testing.T) {
	// S2 — two-agent speedup.
	r := diamond(t)
	s := scheduler.New(r)
	durations := map[string]float64{"A": 2, "B": 3, "C": 1, "D": 2}

	result, err := s.Schedule(durations, 2)
	require.NoError(t, err)
	assert.Equal(t, 7.0, result.TotalDuration)

	resultOneAgent, err := s.Schedule(durations, 1)
	require.NoError(t, err)
	assert.Equal(t, 8.0, resultOneAgent.TotalDuration)
}

func TestSchedule_RespectsDependencyOrdering(t *testing.T) {
	r := diamond(t)
	s := scheduler.New(r)
	durations := map[string]float64{"A": 2, "B": 3, "C": 1, "D": 2}

	result, err := s.Schedule(durations, 2)
	require.NoError(t, err)

	for _, dep := range []string{"B", "C"} {
		assert.GreaterOrEqual(t, result.Assignments[dep].Start, result.Assignments["A"].End)
	}
	assert.GreaterOrEqual(t, result.Assignments["D"].Start, result.Assignments["B"].End)
	assert.GreaterOrEqual(t, result.Assignments["D"].Start, result.Assignments["C"].End)
}

func TestSchedule_MoreSlotsNeverIncreasesDuration(t *testing.T) {
	r := diamond(t)
	s := scheduler.New(r)
	durations := map[string]float64{"A": 2, "B": 3, "C": 1, "D": 2}

	prevDuration := -1.0
	for slots := 1; slots <= 4; slots++ {
		result, err := s.Schedule(durations, slots)
		require.NoError(t, err)
		if prevDuration >= 0 {
			assert.LessOrEqual(t, result.TotalDuration, prevDuration)
		}
		prevDuration = result.TotalDuration
	}
}

func TestOptimise_NoImprovementKeepsOriginal(t *testing.T) {
	r := diamond(t)
	s := scheduler.New(r)
	durations := map[string]float64{"A": 2, "B": 3, "C": 1, "D": 2}

	current, err := s.Schedule(durations, 4)
	require.NoError(t, err)

	result, improvement, _, err := s.Optimise(durations, current, 1)
	require.NoError(t, err)
	assert.Equal(t, current, result)
	assert.Equal(t, 0.0, improvement)
}

func TestBottlenecks_DetectsDependencyBottleneck(t *testing.T) {
	r := dependency.NewResolver()
	require.NoError(t, r.Build([]*domain.Task{
		{TaskNumber: "root"},
		{TaskNumber: "d1", DependsOn: []string{"root"}},
		{TaskNumber: "d2", DependsOn: []string{"root"}},
		{TaskNumber: "d3", DependsOn: []string{"root"}},
		{TaskNumber: "join", DependsOn: []string{"d1", "d2", "d3"}},
	}))
	s := scheduler.New(r)
	durations := map[string]float64{"root": 1, "d1": 1, "d2": 1, "d3": 1, "join": 1}

	bottlenecks, err := s.Bottlenecks(durations)
	require.NoError(t, err)

	found := false
	for _, b := range bottlenecks {
		if b.TaskID == "root" && b.Kind == scheduler.BottleneckDependencies {
			found = true
		}
	}
	assert.True(t, found, "expected root to be flagged as a dependency bottleneck")
}
