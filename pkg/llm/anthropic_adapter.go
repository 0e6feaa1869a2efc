package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicAdapter is an Adapter backed by Anthropic's Messages API. There
// is no in-repo call site of anthropic-sdk-go to adapt from (the dependency
// appears only in a go.mod manifest elsewhere in this exercise's sources,
// never exercised by real code), so this is built directly against the
// SDK's published client/message/streaming surface rather than grounded on
// an existing usage example; see DESIGN.md.
type AnthropicAdapter struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewAnthropicAdapter builds an adapter that authenticates with apiKey and
// defaults to model for requests that don't name one explicitly.
func NewAnthropicAdapter(apiKey string, model anthropic.Model) *AnthropicAdapter {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicAdapter{client: &client, model: model}
}

func (a *AnthropicAdapter) toParams(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: int64(req.MaxTokens),
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	for _, m := range req.Messages {
		switch {
		case m.ToolCallID != "":
			params.Messages = append(params.Messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, m.IsError),
			))
		case m.Role == RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
			},
		})
	}
	return params
}

// Complete issues a single non-streaming Messages.New call.
func (a *AnthropicAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	msg, err := a.client.Messages.New(ctx, a.toParams(req))
	if err != nil {
		return nil, classifyAnthropicErr(err)
	}
	return fromAnthropicMessage(msg), nil
}

// Stream issues a streaming Messages.NewStreaming call, forwarding text
// deltas as they arrive and a final chunk once the accumulated message is
// complete.
func (a *AnthropicAdapter) Stream(ctx context.Context, req Request) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		stream := a.client.Messages.NewStreaming(ctx, a.toParams(req))
		var acc anthropic.Message

		for stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				errs <- fmt.Errorf("llm: accumulate stream event: %w", err)
				return
			}

			if delta, ok := event.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				select {
				case chunks <- Chunk{Text: delta.Text}:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			errs <- classifyAnthropicErr(err)
			return
		}

		chunks <- Chunk{Done: true, Response: fromAnthropicMessage(&acc)}
	}()

	return chunks, errs
}

func fromAnthropicMessage(msg *anthropic.Message) *Response {
	resp := &Response{
		Model:      string(msg.Model),
		StopReason: StopReason(msg.StopReason),
	}
	if msg.Usage.InputTokens > 0 {
		resp.InputTokens = int(msg.Usage.InputTokens)
	}
	if msg.Usage.OutputTokens > 0 {
		resp.OutputTokens = int(msg.Usage.OutputTokens)
	}
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content += variant.Text
		case anthropic.ToolUseBlock:
			input := map[string]any{}
			if raw, err := json.Marshal(variant.Input); err == nil {
				_ = json.Unmarshal(raw, &input)
			}
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:    variant.ID,
				Name:  variant.Name,
				Input: input,
			})
		}
	}
	return resp
}

// classifyAnthropicErr maps the SDK's *anthropic.Error into this package's
// sentinel errors so the supervisor can decide retry vs. raising a blocker
// without importing the Anthropic SDK itself.
func classifyAnthropicErr(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	switch apiErr.StatusCode {
	case 401, 403:
		return fmt.Errorf("%w: %s", ErrAuthentication, apiErr.Message)
	case 429:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	case 408:
		return fmt.Errorf("%w: %s", ErrTimeout, apiErr.Message)
	default:
		return fmt.Errorf("llm: anthropic api error (%d): %s", apiErr.StatusCode, apiErr.Message)
	}
}
