package store

import (
	"context"
	"fmt"

	"github.com/taskforge/conductor/ent"
	"github.com/taskforge/conductor/ent/project"
	"github.com/taskforge/conductor/pkg/domain"
)

// CreateProject inserts a new project in PhaseDiscovery.
func (s *Store) CreateProject(ctx context.Context, id string) (*domain.Project, error) {
	row, err := s.Project.Create().
		SetID(id).
		SetPhase(project.PhaseDiscovery).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create project %s: %w", id, err)
	}
	return projectFromEnt(row), nil
}

// GetProject fetches a project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	row, err := s.Project.Query().Where(project.IDEQ(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("store: project %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get project %s: %w", id, err)
	}
	return projectFromEnt(row), nil
}

// ListProjects returns every project, ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	rows, err := s.Project.Query().Order(ent.Asc(project.FieldCreatedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	out := make([]*domain.Project, len(rows))
	for i, r := range rows {
		out[i] = projectFromEnt(r)
	}
	return out, nil
}

// TransitionProject moves a project to newPhase, enforcing
// domain.CanTransition.
func (s *Store) TransitionProject(ctx context.Context, id string, newPhase domain.ProjectPhase) (*domain.Project, error) {
	current, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Phase, newPhase) {
		return nil, fmt.Errorf("store: project %s: illegal phase transition %s -> %s", id, current.Phase, newPhase)
	}
	row, err := s.Project.UpdateOneID(id).
		SetPhase(project.Phase(newPhase)).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: transition project %s: %w", id, err)
	}
	return projectFromEnt(row), nil
}

func projectFromEnt(row *ent.Project) *domain.Project {
	return &domain.Project{
		ID:        row.ID,
		Phase:     domain.ProjectPhase(row.Phase),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
