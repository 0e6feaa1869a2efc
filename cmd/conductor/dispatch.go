package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskforge/conductor/pkg/domain"
	"github.com/taskforge/conductor/pkg/evidence"
	"github.com/taskforge/conductor/pkg/langprobe"
	"github.com/taskforge/conductor/pkg/llm"
	"github.com/taskforge/conductor/pkg/metrics"
)

// agentDispatcher implements supervisor.Dispatcher: it prompts an LLM
// adapter with the task's description under the selected agent's system
// prompt, then runs that working directory's test suite through
// pkg/langprobe and verifies the result through pkg/evidence, adapted
// from the teacher's pkg/agent/orchestrator run-then-score loop.
type agentDispatcher struct {
	adapter  llm.Adapter
	verifier *evidence.Verifier
	workDir  string
}

func newAgentDispatcher(adapter llm.Adapter, verifier *evidence.Verifier, workDir string) *agentDispatcher {
	return &agentDispatcher{adapter: adapter, verifier: verifier, workDir: workDir}
}

func (d *agentDispatcher) Dispatch(ctx context.Context, task *domain.Task, agentDef *domain.AgentDefinition) (*domain.Evidence, error) {
	req := llm.Request{
		System: agentDef.SystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("Task %s: %s\n\n%s", task.TaskNumber, task.Title, task.Description)},
		},
		MaxTokens:   agentDef.Constraints.MaxTokens,
		Temperature: agentDef.Constraints.Temperature,
		Purpose:     llm.Purpose("task_execution"),
	}

	resp, err := d.adapter.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("dispatch task %s: %w", task.TaskNumber, err)
	}
	metrics.RecordTokenUsage(resp.InputTokens, resp.OutputTokens)
	slog.Info("agent responded", "task", task.TaskNumber, "stop_reason", resp.StopReason)

	det, ok := langprobe.Probe(d.workDir)
	if !ok {
		return d.verifier.Verify(domain.TestOutcome{}, nil, agentDef.Name, task.Description, "", ""), nil
	}

	command := langprobe.DefaultCommand(det.Language)
	result := langprobe.Run(ctx, d.workDir, joinCommand(command))
	outcome := langprobe.ParseOutcome(det.Language, result.Output)

	var skipViolations []string
	for _, file := range task.FilesChanged {
		skipViolations = append(skipViolations, langprobe.ScanForSkips(det.Language, file, result.Output)...)
	}

	ev := d.verifier.Verify(outcome, skipViolations, agentDef.Name, task.Description, string(det.Language), "")
	return ev, nil
}

func joinCommand(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
