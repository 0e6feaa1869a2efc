// Package domain holds the core entities of the coordination engine:
// projects, issues, tasks, blockers, agent definitions and evidence.
// Types here are persistence-agnostic; pkg/store maps them onto ent.
package domain

import "time"

// ProjectPhase is the lifecycle phase of a Project.
type ProjectPhase string

const (
	PhaseDiscovery ProjectPhase = "discovery"
	PhasePlanning  ProjectPhase = "planning"
	PhaseActive    ProjectPhase = "active"
	PhaseReview    ProjectPhase = "review"
	PhaseComplete  ProjectPhase = "complete"
)

// phaseTransitions encodes the sparse DAG of allowed phase transitions
// from spec.md §6's phase transition table.
var phaseTransitions = map[ProjectPhase]map[ProjectPhase]bool{
	PhaseDiscovery: {PhasePlanning: true},
	PhasePlanning:  {PhaseDiscovery: true, PhaseActive: true},
	PhaseActive:    {PhasePlanning: true, PhaseReview: true},
	PhaseReview:    {PhaseActive: true, PhaseComplete: true},
	PhaseComplete:  {},
}

// CanTransition reports whether moving from `from` to `to` is a legal
// phase transition. complete is terminal — it can never transition out.
func CanTransition(from, to ProjectPhase) bool {
	allowed, ok := phaseTransitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}

// Project is the root container owning Issues, Tasks and Blockers.
type Project struct {
	ID        string
	Phase     ProjectPhase
	CreatedAt time.Time
	UpdatedAt time.Time
}
