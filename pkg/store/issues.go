package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskforge/conductor/ent"
	"github.com/taskforge/conductor/ent/issue"
	"github.com/taskforge/conductor/pkg/domain"
)

// CreateIssue inserts a new issue under projectID.
func (s *Store) CreateIssue(ctx context.Context, iss domain.Issue) (*domain.Issue, error) {
	row, err := s.Issue.Create().
		SetID(uuid.NewString()).
		SetProjectID(iss.ProjectID).
		SetIssueNumber(iss.IssueNumber).
		SetTitle(iss.Title).
		SetDescription(iss.Description).
		SetPriority(iss.Priority).
		SetWorkflowStep(iss.WorkflowStep).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create issue %s: %w", iss.IssueNumber, err)
	}
	return issueFromEnt(row), nil
}

// GetIssue fetches an issue by project ID and issue number.
func (s *Store) GetIssue(ctx context.Context, projectID, issueNumber string) (*domain.Issue, error) {
	row, err := s.Issue.Query().
		Where(issue.ProjectIDEQ(projectID), issue.IssueNumberEQ(issueNumber)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("store: issue %s/%s: %w", projectID, issueNumber, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get issue %s/%s: %w", projectID, issueNumber, err)
	}
	return issueFromEnt(row), nil
}

// GetIssueID resolves an issue's generated row ID from its project-scoped
// human IssueNumber, for callers (task generation) that need to attach
// new tasks to the issue row rather than just read its fields back.
func (s *Store) GetIssueID(ctx context.Context, projectID, issueNumber string) (string, error) {
	row, err := s.Issue.Query().
		Where(issue.ProjectIDEQ(projectID), issue.IssueNumberEQ(issueNumber)).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return "", fmt.Errorf("store: issue %s/%s: %w", projectID, issueNumber, ErrNotFound)
		}
		return "", fmt.Errorf("store: get issue id %s/%s: %w", projectID, issueNumber, err)
	}
	return row.ID, nil
}

// ListIssuesByProject returns every issue under projectID, ordered by
// issue number.
func (s *Store) ListIssuesByProject(ctx context.Context, projectID string) ([]*domain.Issue, error) {
	rows, err := s.Issue.Query().
		Where(issue.ProjectIDEQ(projectID)).
		Order(ent.Asc(issue.FieldIssueNumber)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list issues for project %s: %w", projectID, err)
	}
	out := make([]*domain.Issue, len(rows))
	for i, r := range rows {
		out[i] = issueFromEnt(r)
	}
	return out, nil
}

func issueFromEnt(row *ent.Issue) *domain.Issue {
	return &domain.Issue{
		ProjectID:    row.ProjectID,
		IssueNumber:  row.IssueNumber,
		Title:        row.Title,
		Description:  row.Description,
		Priority:     row.Priority,
		WorkflowStep: row.WorkflowStep,
	}
}
