package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskforge/conductor/ent"
	"github.com/taskforge/conductor/ent/task"
	"github.com/taskforge/conductor/pkg/domain"
)

// CreateTaskWithIssue inserts a new task scoped to issueID (the Issue
// row's generated ID, not its human IssueNumber).
func (s *Store) CreateTaskWithIssue(ctx context.Context, t domain.Task, issueID string) (*domain.Task, error) {
	row, err := s.Task.Create().
		SetID(uuid.NewString()).
		SetProjectID(t.ProjectID).
		SetIssueID(issueID).
		SetTaskNumber(t.TaskNumber).
		SetIssueNumber(t.IssueNumber).
		SetTitle(t.Title).
		SetDescription(t.Description).
		SetStatus(task.Status(t.Status)).
		SetDependsOn(t.DependsOn).
		SetCanParallelize(t.CanParallelize).
		SetPriority(t.Priority).
		SetEstimatedHours(t.EstimatedHours).
		SetNillableComplexityScore(nilIfZero(t.ComplexityScore)).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create task %s: %w", t.TaskNumber, err)
	}
	return taskFromEnt(row), nil
}

// AddDependency appends dependsOnTaskNumber to task's DependsOn list.
func (s *Store) AddDependency(ctx context.Context, projectID, taskNumber, dependsOnTaskNumber string) error {
	t, err := s.getTaskRow(ctx, projectID, taskNumber)
	if err != nil {
		return err
	}
	for _, d := range t.DependsOn {
		if d == dependsOnTaskNumber {
			return nil
		}
	}
	_, err = s.Task.UpdateOneID(t.ID).
		SetDependsOn(append(t.DependsOn, dependsOnTaskNumber)).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: add dependency %s -> %s: %w", taskNumber, dependsOnTaskNumber, err)
	}
	return nil
}

// RemoveDependency removes dependsOnTaskNumber from task's DependsOn list.
func (s *Store) RemoveDependency(ctx context.Context, projectID, taskNumber, dependsOnTaskNumber string) error {
	t, err := s.getTaskRow(ctx, projectID, taskNumber)
	if err != nil {
		return err
	}
	kept := make([]string, 0, len(t.DependsOn))
	for _, d := range t.DependsOn {
		if d != dependsOnTaskNumber {
			kept = append(kept, d)
		}
	}
	_, err = s.Task.UpdateOneID(t.ID).SetDependsOn(kept).Save(ctx)
	if err != nil {
		return fmt.Errorf("store: remove dependency %s -> %s: %w", taskNumber, dependsOnTaskNumber, err)
	}
	return nil
}

// ListTasksByProject returns every task under projectID, optionally
// filtered by status (pass "" for no filter).
func (s *Store) ListTasksByProject(ctx context.Context, projectID string, status domain.TaskStatus) ([]*domain.Task, error) {
	q := s.Task.Query().Where(task.ProjectIDEQ(projectID))
	if status != "" {
		q = q.Where(task.StatusEQ(task.Status(status)))
	}
	rows, err := q.Order(ent.Asc(task.FieldTaskNumber)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list tasks for project %s: %w", projectID, err)
	}
	out := make([]*domain.Task, len(rows))
	for i, r := range rows {
		out[i] = taskFromEnt(r)
	}
	return out, nil
}

// UpdateTaskStatus persists a task status transition.
func (s *Store) UpdateTaskStatus(ctx context.Context, projectID, taskNumber string, status domain.TaskStatus) error {
	t, err := s.getTaskRow(ctx, projectID, taskNumber)
	if err != nil {
		return err
	}
	if !domain.CanTransitionTask(domain.TaskStatus(t.Status), status) {
		return fmt.Errorf("store: task %s: illegal status transition %s -> %s", taskNumber, t.Status, status)
	}
	_, err = s.Task.UpdateOneID(t.ID).SetStatus(task.Status(status)).Save(ctx)
	if err != nil {
		return fmt.Errorf("store: update task %s status: %w", taskNumber, err)
	}
	return nil
}

// SetInterventionContext stores supervisor-owned resume state for a task.
func (s *Store) SetInterventionContext(ctx context.Context, projectID, taskNumber string, ctxData map[string]any) error {
	t, err := s.getTaskRow(ctx, projectID, taskNumber)
	if err != nil {
		return err
	}
	_, err = s.Task.UpdateOneID(t.ID).
		SetInterventionContext(ctxData).
		SetInterventionCount(t.InterventionCount + 1).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: set intervention context for %s: %w", taskNumber, err)
	}
	return nil
}

// GetInterventionContext reads back a task's resume state.
func (s *Store) GetInterventionContext(ctx context.Context, projectID, taskNumber string) (map[string]any, error) {
	t, err := s.getTaskRow(ctx, projectID, taskNumber)
	if err != nil {
		return nil, err
	}
	return t.InterventionContext, nil
}

func (s *Store) getTaskRow(ctx context.Context, projectID, taskNumber string) (*ent.Task, error) {
	row, err := s.Task.Query().
		Where(task.ProjectIDEQ(projectID), task.TaskNumberEQ(taskNumber)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("store: task %s/%s: %w", projectID, taskNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get task %s/%s: %w", projectID, taskNumber, err)
	}
	return row, nil
}

func taskFromEnt(row *ent.Task) *domain.Task {
	return &domain.Task{
		ProjectID:           row.ProjectID,
		TaskNumber:          row.TaskNumber,
		IssueNumber:         row.IssueNumber,
		Title:               row.Title,
		Description:         row.Description,
		Status:              domain.TaskStatus(row.Status),
		DependsOn:           row.DependsOn,
		CanParallelize:      row.CanParallelize,
		Priority:            row.Priority,
		EstimatedHours:      row.EstimatedHours,
		ComplexityScore:     row.ComplexityScore,
		UncertaintyLevel:    domain.UncertaintyLevel(row.UncertaintyLevel),
		InterventionContext: row.InterventionContext,
		AssignedAgentID:     row.AssignedAgentID,
		Category:            domain.TaskCategory(row.Category),
		FilesChanged:        row.FilesChanged,
		InterventionCount:   row.InterventionCount,
	}
}

func nilIfZero(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
