package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taskforge/conductor/pkg/domain"
	"github.com/taskforge/conductor/pkg/llm"
)

// decomposerSystemPrompt asks the model for a strict JSON array so the
// response can be parsed without a tool-call round trip, following the
// single-shot prompt-then-parse shape of cmd/conductor/dispatch.go's
// agentDispatcher rather than the teacher's multi-turn MCP tool loop.
const decomposerSystemPrompt = `You are a technical lead decomposing a feature-level issue into 3-8 atomic, ` +
	`linearly-dependent tasks a single AI worker agent can complete independently. Respond with a JSON array ` +
	`only, no prose, where each element has exactly this shape:
{"task_number": "<issue>.<n>", "title": "...", "description": "...", "depends_on": ["<issue>.<m>", ...], ` +
	`"category": "code_implementation|design|documentation|configuration|testing|refactoring|mixed", ` +
	`"estimated_hours": 1.5, "can_parallelize": false}`

// decomposedTask is the wire shape the decomposition prompt asks the model
// to emit; decomposeIssue translates it into domain.Task after parsing.
type decomposedTask struct {
	TaskNumber     string   `json:"task_number"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	DependsOn      []string `json:"depends_on"`
	Category       string   `json:"category"`
	EstimatedHours float64  `json:"estimated_hours"`
	CanParallelize bool     `json:"can_parallelize"`
}

// decomposeIssue prompts adapter to break iss into dependency-ordered
// tasks and validates each one against domain.Task's own invariants
// before handing them back for persistence.
func decomposeIssue(ctx context.Context, adapter llm.Adapter, iss *domain.Issue) ([]domain.Task, error) {
	req := llm.Request{
		System: decomposerSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("Issue %s: %s\n\n%s", iss.IssueNumber, iss.Title, iss.Description)},
		},
		MaxTokens:   4096,
		Temperature: 0.2,
		Purpose:     llm.Purpose("issue_decomposition"),
	}
	resp, err := adapter.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm decomposition call: %w", err)
	}

	body := strings.TrimSpace(resp.Content)
	body = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(body, "```json"), "```"), "```")
	var decoded []decomposedTask
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &decoded); err != nil {
		return nil, fmt.Errorf("parse decomposition response: %w", err)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("decomposition returned no tasks")
	}

	tasks := make([]domain.Task, 0, len(decoded))
	for _, d := range decoded {
		t := domain.Task{
			TaskNumber:     d.TaskNumber,
			Title:          d.Title,
			Description:    d.Description,
			DependsOn:      d.DependsOn,
			Category:       domain.TaskCategory(d.Category),
			EstimatedHours: d.EstimatedHours,
			CanParallelize: d.CanParallelize,
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("decomposed task invalid: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
