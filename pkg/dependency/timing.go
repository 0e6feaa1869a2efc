package dependency

import "sort"

// TaskTiming holds the forward/backward pass results for one task.
type TaskTiming struct {
	EarliestStart  float64
	EarliestFinish float64
	LatestStart    float64
	LatestFinish   float64
}

// CriticalPathResult is the output of Resolver.CriticalPath.
type CriticalPathResult struct {
	CriticalTaskIDs []string
	TotalDuration   float64
	TaskTimings     map[string]TaskTiming
}

// CriticalPath computes earliest/latest start-finish times via forward and
// backward passes over the topological order, and returns the set of
// zero-slack ("critical") tasks plus the project's total duration
// (max earliest finish). Missing durations default to 0.
func (r *Resolver) CriticalPath(durations map[string]float64) (*CriticalPathResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.topologicalOrderLocked()
	if !ok {
		return nil, errCyclicGraph
	}

	timings := make(map[string]TaskTiming, len(order))
	duration := func(id string) float64 { return durations[id] }

	for _, id := range order {
		t := r.tasks[id]
		var earliestStart float64
		for _, dep := range t.DependsOn {
			if _, known := r.tasks[dep]; !known {
				continue
			}
			if f := timings[dep].EarliestFinish; f > earliestStart {
				earliestStart = f
			}
		}
		timings[id] = TaskTiming{
			EarliestStart:  earliestStart,
			EarliestFinish: earliestStart + duration(id),
		}
	}

	var total float64
	for _, tm := range timings {
		if tm.EarliestFinish > total {
			total = tm.EarliestFinish
		}
	}

	// Backward pass: process in reverse topological order.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		latestFinish := total
		for _, dependentID := range r.dependents[id] {
			if _, known := r.tasks[dependentID]; !known {
				continue
			}
			if ls := timings[dependentID].LatestStart; ls < latestFinish {
				latestFinish = ls
			}
		}
		tm := timings[id]
		tm.LatestFinish = latestFinish
		tm.LatestStart = latestFinish - duration(id)
		timings[id] = tm
	}

	var critical []string
	for id, tm := range timings {
		if tm.LatestStart-tm.EarliestStart == 0 {
			critical = append(critical, id)
		}
	}
	sort.Strings(critical)

	return &CriticalPathResult{
		CriticalTaskIDs: critical,
		TotalDuration:   total,
		TaskTimings:     timings,
	}, nil
}

// Slack returns, per task, latest_start - earliest_start (zero on the
// critical path).
func (r *Resolver) Slack(durations map[string]float64) (map[string]float64, error) {
	cp, err := r.CriticalPath(durations)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(cp.TaskTimings))
	for id, tm := range cp.TaskTimings {
		out[id] = tm.LatestStart - tm.EarliestStart
	}
	return out, nil
}

// ParallelWaves partitions tasks into waves where wave[k] is the set of
// tasks whose longest dependency chain from a root has length k. All tasks
// in a wave are mutually independent and can run in parallel.
func (r *Resolver) ParallelWaves() (map[int][]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.topologicalOrderLocked()
	if !ok {
		return nil, errCyclicGraph
	}

	depth := make(map[string]int, len(order))
	for _, id := range order {
		t := r.tasks[id]
		d := 0
		for _, dep := range t.DependsOn {
			if _, known := r.tasks[dep]; !known {
				continue
			}
			if depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		depth[id] = d
	}

	waves := make(map[int][]string)
	for id, d := range depth {
		waves[d] = append(waves[d], id)
	}
	for d := range waves {
		sort.Strings(waves[d])
	}
	return waves, nil
}

