package scheduler

import (
	"fmt"
	"sort"
)

// BottleneckKind distinguishes the two bottleneck causes spec.md §4.2 names.
type BottleneckKind string

const (
	BottleneckDuration     BottleneckKind = "duration"
	BottleneckDependencies BottleneckKind = "dependencies"
)

// durationBottleneckMultiple is how far above average duration a task must
// be, while also sitting on the critical path, to count as a bottleneck.
const durationBottleneckMultiple = 2.0

// dependencyBottleneckMinDependents is the minimum count of critical-path
// dependents before a task is flagged as a dependency bottleneck.
const dependencyBottleneckMinDependents = 3

// Bottleneck is one finding from Bottlenecks.
type Bottleneck struct {
	TaskID         string
	Kind           BottleneckKind
	ImpactHours    float64
	Recommendation string
}

// Bottlenecks finds tasks whose duration is more than 2x the average *and*
// sit on the critical path ("duration" bottlenecks), and tasks with at
// least 3 dependents on the critical path ("dependencies" bottlenecks).
func (s *Scheduler) Bottlenecks(durations map[string]float64) ([]Bottleneck, error) {
	cp, err := s.resolver.CriticalPath(durations)
	if err != nil {
		return nil, err
	}

	var avg float64
	if len(durations) > 0 {
		var sum float64
		for _, d := range durations {
			sum += d
		}
		avg = sum / float64(len(durations))
	}

	criticalSet := make(map[string]bool, len(cp.CriticalTaskIDs))
	for _, id := range cp.CriticalTaskIDs {
		criticalSet[id] = true
	}

	var bottlenecks []Bottleneck
	for _, id := range cp.CriticalTaskIDs {
		d := durations[id]
		if avg > 0 && d > durationBottleneckMultiple*avg {
			bottlenecks = append(bottlenecks, Bottleneck{
				TaskID:      id,
				Kind:        BottleneckDuration,
				ImpactHours: d - avg,
				Recommendation: fmt.Sprintf(
					"task %s takes %.1fh, more than %.0fx the %.1fh average; consider splitting it",
					id, d, durationBottleneckMultiple, avg),
			})
		}

		dependents := s.resolver.DependentsOf(id)
		count := 0
		for _, dep := range dependents {
			if criticalSet[dep] {
				count++
			}
		}
		if count >= dependencyBottleneckMinDependents {
			bottlenecks = append(bottlenecks, Bottleneck{
				TaskID:      id,
				Kind:        BottleneckDependencies,
				ImpactHours: float64(count) * avg,
				Recommendation: fmt.Sprintf(
					"task %s has %d critical-path dependents; prioritize it to unblock downstream work",
					id, count),
			})
		}
	}

	sort.Slice(bottlenecks, func(i, j int) bool {
		if bottlenecks[i].TaskID != bottlenecks[j].TaskID {
			return bottlenecks[i].TaskID < bottlenecks[j].TaskID
		}
		return bottlenecks[i].Kind < bottlenecks[j].Kind
	})
	return bottlenecks, nil
}
