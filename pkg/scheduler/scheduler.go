// Package scheduler implements the TaskScheduler: wave-by-wave greedy list
// scheduling of tasks onto a fixed number of agent slots, schedule
// optimisation, completion prediction and bottleneck detection. Grounded on
// the slot-table/candidate-filtering shape of
// other_examples/0302a119_ShayCichocki-Alphie__internal-orchestrator-scheduler.go,
// adapted from file-collision-aware filtering to the spec's pure
// duration+dependency greedy packing algorithm.
package scheduler

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/taskforge/conductor/pkg/dependency"
)

// EventKind distinguishes timeline start/end events.
type EventKind string

const (
	EventStart EventKind = "start"
	EventEnd   EventKind = "end"
)

// TimelineEvent is one entry in a ScheduleResult's timeline.
type TimelineEvent struct {
	Time   float64
	Kind   EventKind
	TaskID string
}

// Assignment is where and when one task runs.
type Assignment struct {
	TaskID    string
	Start     float64
	End       float64
	SlotIndex int
}

// ScheduleResult is the output of Scheduler.Schedule.
type ScheduleResult struct {
	Assignments   map[string]Assignment
	TotalDuration float64
	Timeline      []TimelineEvent
	AgentCount    int
}

// Scheduler assigns ready tasks to a fixed number of agent slots over time.
type Scheduler struct {
	resolver *dependency.Resolver
}

// New creates a Scheduler backed by a built Resolver.
func New(resolver *dependency.Resolver) *Scheduler {
	return &Scheduler{resolver: resolver}
}

// Schedule produces a wall-clock schedule for `slots` agents, respecting
// dependencies and per-task durations (missing durations default to 0).
//
// Algorithm (spec.md §4.2):
//  1. Partition tasks into parallel waves.
//  2. Within each wave, sort tasks by descending duration (longest-first).
//  3. For each task, earliest_start = max(end_time of scheduled deps);
//     assign to the slot with the smallest max(earliest_start, slot_end);
//     extend that slot's end time by duration.
//  4. Emit timeline events sorted by time, start before end on ties.
func (s *Scheduler) Schedule(durations map[string]float64, slots int) (*ScheduleResult, error) {
	if slots < 1 {
		return nil, fmt.Errorf("scheduler: slots must be >= 1, got %d", slots)
	}

	waves, err := s.resolver.ParallelWaves()
	if err != nil {
		return nil, fmt.Errorf("scheduler: cannot compute waves: %w", err)
	}

	maxWave := -1
	for w := range waves {
		if w > maxWave {
			maxWave = w
		}
	}

	slotEnd := make([]float64, slots)
	assignments := make(map[string]Assignment, len(waves))
	var timeline []TimelineEvent

	duration := func(id string) float64 { return durations[id] }

	for w := 0; w <= maxWave; w++ {
		tasks := append([]string(nil), waves[w]...)
		sort.Slice(tasks, func(i, j int) bool {
			di, dj := duration(tasks[i]), duration(tasks[j])
			if di != dj {
				return di > dj // longest-first packing
			}
			return tasks[i] < tasks[j] // tie-break: lower task id
		})

		for _, id := range tasks {
			earliestStart := s.earliestStart(id, assignments)

			best := 0
			bestEnd := max(earliestStart, slotEnd[0])
			for slot := 1; slot < slots; slot++ {
				candidate := max(earliestStart, slotEnd[slot])
				if candidate < bestEnd {
					best = slot
					bestEnd = candidate
				}
			}

			start := bestEnd
			end := start + duration(id)
			slotEnd[best] = end

			assignments[id] = Assignment{TaskID: id, Start: start, End: end, SlotIndex: best}
			timeline = append(timeline, TimelineEvent{Time: start, Kind: EventStart, TaskID: id})
			timeline = append(timeline, TimelineEvent{Time: end, Kind: EventEnd, TaskID: id})
		}
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		if timeline[i].Time != timeline[j].Time {
			return timeline[i].Time < timeline[j].Time
		}
		// start-events precede end-events at identical times.
		if timeline[i].Kind != timeline[j].Kind {
			return timeline[i].Kind == EventStart
		}
		return timeline[i].TaskID < timeline[j].TaskID
	})

	var total float64
	for _, a := range assignments {
		if a.End > total {
			total = a.End
		}
	}

	return &ScheduleResult{
		Assignments:   assignments,
		TotalDuration: total,
		Timeline:      timeline,
		AgentCount:    slots,
	}, nil
}

func (s *Scheduler) earliestStart(id string, assignments map[string]Assignment) float64 {
	deps := s.resolver.DependenciesOf(id)
	var earliest float64
	for _, dep := range deps {
		if a, ok := assignments[dep]; ok && a.End > earliest {
			earliest = a.End
		}
	}
	return earliest
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Optimise re-runs the scheduler with maxParallel slots and reports the
// wall-clock improvement over the current schedule. If there is no
// improvement, the original schedule is returned unchanged.
func (s *Scheduler) Optimise(durations map[string]float64, current *ScheduleResult, maxParallel int) (*ScheduleResult, float64, []string, error) {
	candidate, err := s.Schedule(durations, maxParallel)
	if err != nil {
		return nil, 0, nil, err
	}

	if current == nil || current.TotalDuration == 0 {
		return candidate, 0, []string{"no baseline schedule to compare against"}, nil
	}

	if candidate.TotalDuration >= current.TotalDuration {
		slog.Info("scheduler: optimise found no improvement, keeping original schedule",
			"current_duration", current.TotalDuration, "candidate_duration", candidate.TotalDuration)
		return current, 0, nil, nil
	}

	improvement := (current.TotalDuration - candidate.TotalDuration) / current.TotalDuration * 100
	changelog := []string{
		fmt.Sprintf("agent slots: %d -> %d", current.AgentCount, maxParallel),
		fmt.Sprintf("total duration: %.2fh -> %.2fh", current.TotalDuration, candidate.TotalDuration),
	}
	return candidate, improvement, changelog, nil
}
