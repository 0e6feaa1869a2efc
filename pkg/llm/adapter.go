// Package llm defines the Adapter contract consumed by the supervisor
// loop and its two concrete implementations: GRPCAdapter, adapted from
// the teacher's pkg/llm/client.go gRPC client, and AnthropicAdapter,
// grounded on jordigilh-kubernaut's github.com/anthropics/anthropic-sdk-go
// dependency. Both are wrapped by BreakerAdapter (pkg/llm/breaker.go)
// for transient-error circuit breaking via github.com/sony/gobreaker.
package llm

import (
	"context"
	"errors"
)

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a conversation passed to Complete/Stream.
type Message struct {
	Role    Role
	Content string
	// ToolCallID is set on a message replaying a tool result back to the
	// model; Content then holds the tool's output and IsError reports
	// whether the tool call failed.
	ToolCallID string
	IsError    bool
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// Tool describes a callable tool offered to the model.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// StopReason is why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is the result of a non-streaming Complete call.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	StopReason   StopReason
	Model        string
	InputTokens  int
	OutputTokens int
}

// Chunk is a single piece of a streamed response.
type Chunk struct {
	Text     string
	Done     bool
	Response *Response // populated on the final chunk
}

// Purpose labels the call site for logging/metrics, mirroring the
// teacher's convention of tagging LLM calls by the stage that issued them.
type Purpose string

// Request bundles the parameters of a single LLM call.
type Request struct {
	Messages    []Message
	Purpose     Purpose
	Tools       []Tool
	MaxTokens   int
	Temperature float64
	System      string
}

// Sentinel errors an Adapter must surface distinctly so the supervisor can
// decide retry vs. raising a blocker, per spec.md §6.
var (
	ErrAuthentication = errors.New("llm: authentication failed")
	ErrRateLimited    = errors.New("llm: rate limited")
	ErrConnection     = errors.New("llm: connection failed")
	ErrTimeout        = errors.New("llm: request timed out")
)

// Adapter is the LLM adapter contract consumed by the supervisor loop.
type Adapter interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Stream(ctx context.Context, req Request) (<-chan Chunk, <-chan error)
}
