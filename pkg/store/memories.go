package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskforge/conductor/ent"
	"github.com/taskforge/conductor/ent/memory"
)

// UpsertMemory creates or updates the (project, category, key) memory entry.
func (s *Store) UpsertMemory(ctx context.Context, projectID, category, key, value string) error {
	existing, err := s.Memory.Query().
		Where(memory.ProjectIDEQ(projectID), memory.CategoryEQ(category), memory.KeyEQ(key)).
		Only(ctx)
	switch {
	case err == nil:
		_, err = s.Memory.UpdateOneID(existing.ID).SetValue(value).Save(ctx)
		if err != nil {
			return fmt.Errorf("store: update memory %s/%s/%s: %w", projectID, category, key, err)
		}
		return nil
	case ent.IsNotFound(err):
		_, err = s.Memory.Create().
			SetID(uuid.NewString()).
			SetProjectID(projectID).
			SetCategory(category).
			SetKey(key).
			SetValue(value).
			Save(ctx)
		if err != nil {
			return fmt.Errorf("store: create memory %s/%s/%s: %w", projectID, category, key, err)
		}
		return nil
	default:
		return fmt.Errorf("store: lookup memory %s/%s/%s: %w", projectID, category, key, err)
	}
}

// GetMemoriesByCategory returns every memory entry under (project, category)
// as a key -> value map.
func (s *Store) GetMemoriesByCategory(ctx context.Context, projectID, category string) (map[string]string, error) {
	rows, err := s.Memory.Query().
		Where(memory.ProjectIDEQ(projectID), memory.CategoryEQ(category)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list memories %s/%s: %w", projectID, category, err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// DeleteMemoriesByCategory removes every memory entry under (project, category).
func (s *Store) DeleteMemoriesByCategory(ctx context.Context, projectID, category string) error {
	_, err := s.Memory.Delete().
		Where(memory.ProjectIDEQ(projectID), memory.CategoryEQ(category)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: delete memories %s/%s: %w", projectID, category, err)
	}
	return nil
}
