package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RecordTokenUsage persists a single LLM call's token accounting.
func (s *Store) RecordTokenUsage(ctx context.Context, projectID, taskNumber, agentID, purpose string, inputTokens, outputTokens int) error {
	_, err := s.TokenUsage.Create().
		SetID(uuid.NewString()).
		SetProjectID(projectID).
		SetTaskNumber(taskNumber).
		SetAgentID(agentID).
		SetPurpose(purpose).
		SetInputTokens(inputTokens).
		SetOutputTokens(outputTokens).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("store: record token usage for project %s: %w", projectID, err)
	}
	return nil
}
