// Package agentregistry implements the AgentRegistry: a YAML-driven, in-
// memory catalog of AgentDefinitions, loaded and merged the way
// pkg/config/loader.go loads tarsy.yaml (built-in defaults overridden by
// user YAML, merged field-by-field with dario.cat/mergo) and validated
// the way pkg/config/validator.go validates agent configs.
package agentregistry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/taskforge/conductor/pkg/domain"
)

// agentYAML mirrors the on-disk shape of a single agent definition file.
type agentYAML struct {
	Type          string         `yaml:"type"`
	Maturity      string         `yaml:"maturity"`
	SystemPrompt  string         `yaml:"system_prompt"`
	Capabilities  []string       `yaml:"capabilities"`
	Tools         []string       `yaml:"tools"`
	MaxTokens     *int           `yaml:"max_tokens,omitempty"`
	Temperature   *float64       `yaml:"temperature,omitempty"`
	TimeoutSecs   *int           `yaml:"timeout_seconds,omitempty"`
	Metadata      map[string]any `yaml:"metadata,omitempty"`
}

// defaultConstraints mirrors the built-in default every loaded agent is
// merged against before user-supplied values override it, the same
// built-in-then-override shape pkg/config/loader.go applies to tarsy.yaml.
var defaultConstraints = agentYAML{
	MaxTokens:   intPtr(4096),
	Temperature: floatPtr(0.2),
	TimeoutSecs: intPtr(300),
}

func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }

// Registry stores AgentDefinitions in memory with thread-safe access.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*domain.AgentDefinition
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{agents: make(map[string]*domain.AgentDefinition)}
}

// LoadDir loads every *.yaml/*.yml file in dir as an agent definition
// (file stem becomes the agent name), merges each against
// defaultConstraints, validates it, and replaces the registry's contents
// atomically — a partially-loaded directory never leaves the registry in
// a half-updated state.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("agentregistry: read dir %s: %w", dir, err)
	}

	loaded := make(map[string]*domain.AgentDefinition)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		def, err := loadOne(filepath.Join(dir, entry.Name()), name)
		if err != nil {
			return fmt.Errorf("agentregistry: %s: %w", entry.Name(), err)
		}
		if err := Validate(def); err != nil {
			return fmt.Errorf("agentregistry: %s: %w", entry.Name(), err)
		}
		loaded[name] = def
	}

	r.mu.Lock()
	r.agents = loaded
	r.mu.Unlock()
	return nil
}

func loadOne(path, name string) (*domain.AgentDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var parsed agentYAML
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	merged := defaultConstraints
	if err := mergo.Merge(&merged, parsed, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge defaults: %w", err)
	}

	return &domain.AgentDefinition{
		Name:         name,
		Type:         merged.Type,
		Maturity:     domain.Maturity(merged.Maturity),
		SystemPrompt: merged.SystemPrompt,
		Capabilities: merged.Capabilities,
		Tools:        merged.Tools,
		Constraints: domain.ExecutionConstraints{
			MaxTokens:      derefInt(merged.MaxTokens),
			Temperature:    derefFloat(merged.Temperature),
			TimeoutSeconds: derefInt(merged.TimeoutSecs),
		},
		Metadata: merged.Metadata,
	}, nil
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Register adds or replaces a single agent definition directly, bypassing
// YAML loading (used by tests and programmatic registration).
func (r *Registry) Register(def *domain.AgentDefinition) error {
	if err := Validate(def); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[def.Name] = def
	return nil
}

// Get retrieves an agent definition by name.
func (r *Registry) Get(name string) (*domain.AgentDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return def, nil
}

// ByCapability returns, in name-sorted order, every registered agent whose
// Capabilities includes capability.
func (r *Registry) ByCapability(capability string) []*domain.AgentDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.AgentDefinition
	for _, def := range r.agents {
		for _, c := range def.Capabilities {
			if c == capability {
				out = append(out, def)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every registered agent name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
