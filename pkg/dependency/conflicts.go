package dependency

import (
	"errors"
	"fmt"
	"sort"
)

// errCyclicGraph is returned by timing/wave computations when the graph
// built via Build somehow still contains a cycle (should not happen if
// Build succeeded, but callers that skip Build's own error should not get
// a silent wrong answer).
var errCyclicGraph = errors.New("dependency resolver: graph is cyclic")

// ConflictSeverity ranks how urgently a detected conflict should be acted on.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "critical"
	SeverityHigh     ConflictSeverity = "high"
	SeverityMedium   ConflictSeverity = "medium"
)

// ConflictKind distinguishes the two conflict shapes spec.md §4.1 requires.
type ConflictKind string

const (
	ConflictBottleneck ConflictKind = "bottleneck"
	ConflictLongChain  ConflictKind = "long_chain"
)

// Conflict is one finding from DetectConflicts.
type Conflict struct {
	Kind           ConflictKind
	TaskID         string
	Severity       ConflictSeverity
	Recommendation string
	DependentCount int // bottleneck only
	ChainLength    int // long_chain only
}

// bottleneckDependentThreshold is the number of critical-path dependents
// a task must exceed to be flagged as a bottleneck.
const bottleneckDependentThreshold = 3

// longChainThreshold is the chain length (in nodes) above which a
// dependency chain is flagged as long.
const longChainThreshold = 5

// DetectConflicts flags (a) tasks with more than bottleneckDependentThreshold
// dependents on the critical path ("bottleneck"), and (b) dependency chains
// longer than longChainThreshold nodes ("long_chain").
func (r *Resolver) DetectConflicts(durations map[string]float64) ([]Conflict, error) {
	cp, err := r.CriticalPath(durations)
	if err != nil {
		return nil, err
	}
	criticalSet := make(map[string]bool, len(cp.CriticalTaskIDs))
	for _, id := range cp.CriticalTaskIDs {
		criticalSet[id] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var conflicts []Conflict
	for _, id := range cp.CriticalTaskIDs {
		count := 0
		for _, dep := range r.dependents[id] {
			if criticalSet[dep] {
				count++
			}
		}
		if count > bottleneckDependentThreshold {
			severity := SeverityHigh
			if count > 2*bottleneckDependentThreshold {
				severity = SeverityCritical
			}
			conflicts = append(conflicts, Conflict{
				Kind:           ConflictBottleneck,
				TaskID:         id,
				Severity:       severity,
				DependentCount: count,
				Recommendation: fmt.Sprintf(
					"task %s blocks %d critical-path tasks; consider splitting it or parallelizing its downstream work", id, count),
			})
		}
	}

	chains := r.longestChainsLocked()
	for id, length := range chains {
		if length > longChainThreshold {
			conflicts = append(conflicts, Conflict{
				Kind:           ConflictLongChain,
				TaskID:         id,
				Severity:       SeverityMedium,
				ChainLength:    length,
				Recommendation: fmt.Sprintf(
					"dependency chain ending at %s has %d tasks; long serial chains delay project completion", id, length),
			})
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Kind != conflicts[j].Kind {
			return conflicts[i].Kind < conflicts[j].Kind
		}
		return conflicts[i].TaskID < conflicts[j].TaskID
	})
	return conflicts, nil
}

// longestChainsLocked returns, for each task, the number of nodes in its
// longest dependency chain ending at that task (including itself).
func (r *Resolver) longestChainsLocked() map[string]int {
	order, ok := r.topologicalOrderLocked()
	if !ok {
		return nil
	}
	length := make(map[string]int, len(order))
	for _, id := range order {
		t := r.tasks[id]
		best := 0
		for _, dep := range t.DependsOn {
			if _, known := r.tasks[dep]; !known {
				continue
			}
			if length[dep] > best {
				best = length[dep]
			}
		}
		length[id] = best + 1
	}
	return length
}
