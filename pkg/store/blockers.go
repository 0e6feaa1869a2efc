package store

import (
	"context"
	"fmt"
	"time"

	"github.com/taskforge/conductor/ent"
	"github.com/taskforge/conductor/ent/blocker"
	"github.com/taskforge/conductor/pkg/domain"
)

// CreateBlocker persists a new blocker.
func (s *Store) CreateBlocker(ctx context.Context, b domain.Blocker) (*domain.Blocker, error) {
	create := s.Blocker.Create().
		SetID(b.ID).
		SetProjectID(b.ProjectID).
		SetKind(blocker.Kind(b.Kind)).
		SetQuestion(b.Question).
		SetTaskNumber(b.TaskNumber).
		SetSessionID(b.SessionID).
		SetCreatedAt(b.CreatedAt).
		SetResumeMetadata(b.ResumeMetadata)
	row, err := create.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create blocker %s: %w", b.ID, err)
	}
	return blockerFromEnt(row), nil
}

// AnswerBlocker records an answer on a previously-raised blocker.
func (s *Store) AnswerBlocker(ctx context.Context, id, answer string) (*domain.Blocker, error) {
	now := time.Now()
	row, err := s.Blocker.UpdateOneID(id).
		SetAnswer(answer).
		SetAnsweredAt(now).
		Save(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("store: blocker %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: answer blocker %s: %w", id, err)
	}
	return blockerFromEnt(row), nil
}

// GetBlocker fetches a blocker by ID.
func (s *Store) GetBlocker(ctx context.Context, id string) (*domain.Blocker, error) {
	row, err := s.Blocker.Query().Where(blocker.IDEQ(id)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("store: blocker %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store: get blocker %s: %w", id, err)
	}
	return blockerFromEnt(row), nil
}

// ListBlockersByProject returns blockers under projectID, optionally
// restricted to unanswered ones, oldest first.
func (s *Store) ListBlockersByProject(ctx context.Context, projectID string, unansweredOnly bool) ([]*domain.Blocker, error) {
	q := s.Blocker.Query().Where(blocker.ProjectIDEQ(projectID))
	if unansweredOnly {
		q = q.Where(blocker.AnsweredAtIsNil())
	}
	rows, err := q.Order(ent.Asc(blocker.FieldCreatedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list blockers for project %s: %w", projectID, err)
	}
	out := make([]*domain.Blocker, len(rows))
	for i, r := range rows {
		out[i] = blockerFromEnt(r)
	}
	return out, nil
}

func blockerFromEnt(row *ent.Blocker) *domain.Blocker {
	var answer *string
	if row.Answer != "" {
		answer = &row.Answer
	}
	var answeredAt *time.Time
	if !row.AnsweredAt.IsZero() {
		answeredAt = &row.AnsweredAt
	}
	return &domain.Blocker{
		ID:             row.ID,
		ProjectID:      row.ProjectID,
		Kind:           domain.BlockerKind(row.Kind),
		Question:       row.Question,
		TaskNumber:     row.TaskNumber,
		SessionID:      row.SessionID,
		Answer:         answer,
		CreatedAt:      row.CreatedAt,
		AnsweredAt:     answeredAt,
		ResumeMetadata: row.ResumeMetadata,
	}
}
