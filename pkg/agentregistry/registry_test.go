package agentregistry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/agentregistry"
	"github.com/taskforge/conductor/pkg/domain"
)

func TestRegistry_LoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "coder.yaml"), `
type: code_implementation
maturity: D3
system_prompt: "You write Go code."
capabilities: ["code_implementation", "refactoring"]
tools: ["shell", "editor"]
`)
	writeFile(t, filepath.Join(dir, "writer.yml"), `
type: documentation
maturity: D2
system_prompt: "You write documentation."
capabilities: ["documentation"]
max_tokens: 2048
`)

	r := agentregistry.New()
	require.NoError(t, r.LoadDir(dir))

	assert.Equal(t, []string{"coder", "writer"}, r.Names())

	coder, err := r.Get("coder")
	require.NoError(t, err)
	assert.Equal(t, domain.MaturityD3, coder.Maturity)
	assert.Equal(t, 4096, coder.Constraints.MaxTokens) // inherited default
	assert.Contains(t, coder.Capabilities, "refactoring")

	writer, err := r.Get("writer")
	require.NoError(t, err)
	assert.Equal(t, 2048, writer.Constraints.MaxTokens) // overridden
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := agentregistry.New()
	_, err := r.Get("nope")
	assert.ErrorIs(t, err, agentregistry.ErrAgentNotFound)
}

func TestValidate_RejectsBadMaturity(t *testing.T) {
	def := &domain.AgentDefinition{
		Name:         "x",
		Type:         "code_implementation",
		SystemPrompt: "You write code.",
		Maturity:     "D9",
		Constraints: domain.ExecutionConstraints{
			MaxTokens: 100, Temperature: 0.5, TimeoutSeconds: 10,
		},
	}
	err := agentregistry.Validate(def)
	assert.Error(t, err)
}

func TestValidate_RejectsMissingType(t *testing.T) {
	def := &domain.AgentDefinition{
		Name:         "x",
		SystemPrompt: "You write code.",
		Constraints: domain.ExecutionConstraints{
			MaxTokens: 100, Temperature: 0.5, TimeoutSeconds: 10,
		},
	}
	err := agentregistry.Validate(def)
	var verr *agentregistry.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)
}

func TestValidate_RejectsMissingSystemPrompt(t *testing.T) {
	def := &domain.AgentDefinition{
		Name: "x",
		Type: "code_implementation",
		Constraints: domain.ExecutionConstraints{
			MaxTokens: 100, Temperature: 0.5, TimeoutSeconds: 10,
		},
	}
	err := agentregistry.Validate(def)
	var verr *agentregistry.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "system_prompt", verr.Field)
}

func TestSelector_PicksHighestMaturityWithCapability(t *testing.T) {
	r := agentregistry.New()
	require.NoError(t, r.Register(&domain.AgentDefinition{
		Name: "junior", Type: "code_implementation", SystemPrompt: "You write code.",
		Maturity: domain.MaturityD1, Capabilities: []string{"code_implementation"},
		Constraints: domain.ExecutionConstraints{MaxTokens: 100, Temperature: 0.1, TimeoutSeconds: 30},
	}))
	require.NoError(t, r.Register(&domain.AgentDefinition{
		Name: "senior", Type: "code_implementation", SystemPrompt: "You write code.",
		Maturity: domain.MaturityD4, Capabilities: []string{"code_implementation"},
		Constraints: domain.ExecutionConstraints{MaxTokens: 100, Temperature: 0.1, TimeoutSeconds: 30},
	}))

	sel := agentregistry.NewSelector(r)
	task := &domain.Task{Category: domain.CategoryCodeImplementation}
	chosen, err := sel.SelectAgent(task)
	require.NoError(t, err)
	assert.Equal(t, "senior", chosen.Name)
}

func TestSelector_NoCapableAgent(t *testing.T) {
	r := agentregistry.New()
	sel := agentregistry.NewSelector(r)
	_, err := sel.SelectAgent(&domain.Task{Category: domain.CategoryTesting})
	assert.ErrorIs(t, err, agentregistry.ErrNoCapableAgent)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
