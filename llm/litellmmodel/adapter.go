// Package litellmmodel adapts github.com/voocel/litellm's multi-provider
// client to the llm.Model streaming contract.
package litellmmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/voocel/litellm"
	"github.com/voocel/litellm/providers"

	"github.com/voocel/mas/llm"
	"github.com/voocel/mas/schema"
)

// Adapter wraps a litellm.Client bound to one model name.
type Adapter struct {
	client *litellm.Client
	model  string
}

// New builds an adapter around an already-configured litellm client.
func New(model string, client *litellm.Client) *Adapter {
	return &Adapter{client: client, model: model}
}

// NewWithProvider constructs the client from a provider in one step,
// mirroring the corpus's NewOpenAIModel/NewAnthropicModel/NewGeminiModel
// convenience constructors.
func NewWithProvider(model string, provider providers.Provider, options ...litellm.ClientOption) (*Adapter, error) {
	client, err := litellm.New(provider, options...)
	if err != nil {
		return nil, fmt.Errorf("litellmmodel: building client: %w", err)
	}
	return New(model, client), nil
}

func (a *Adapter) Stream(ctx context.Context, prompt []schema.Msg, toolSchemas []llm.ToolSchema, opts llm.Options) (<-chan llm.ReasoningFragment, error) {
	req := &litellm.Request{
		Model:    a.model,
		Messages: convertMessages(prompt),
	}
	if opts.Temperature != nil {
		req.Temperature = opts.Temperature
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.ThinkingLevel != "" {
		req.Thinking = litellm.NewThinkingWithLevel(opts.ThinkingLevel)
	}
	applyTools(req, toolSchemas)

	stream, err := a.client.Stream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("litellmmodel: stream: %w", err)
	}

	out := make(chan llm.ReasoningFragment, 64)
	go func() {
		defer close(out)
		defer stream.Close()

		builders := map[int]*toolCallBuilder{}
		var finishReason string

		for {
			chunk, err := stream.Next()
			if err != nil {
				if err == io.EOF {
					break
				}
				out <- llm.ReasoningFragment{Type: llm.FragmentFinish, Err: fmt.Errorf("litellmmodel: %w", err)}
				return
			}
			if chunk == nil {
				continue
			}

			if chunk.Reasoning != nil && chunk.Reasoning.Content != "" {
				out <- llm.ReasoningFragment{Type: llm.FragmentThinking, ThinkingDelta: chunk.Reasoning.Content}
			}
			if chunk.Content != "" {
				out <- llm.ReasoningFragment{Type: llm.FragmentText, TextDelta: chunk.Content}
			}
			if chunk.ToolCallDelta != nil {
				applyToolCallDelta(builders, chunk.ToolCallDelta)
				b := builders[chunk.ToolCallDelta.Index]
				out <- llm.ReasoningFragment{
					Type:              llm.FragmentToolUse,
					ToolUseID:         b.id,
					ToolUseName:       chunk.ToolCallDelta.FunctionName,
					ToolUseInputDelta: chunk.ToolCallDelta.ArgumentsDelta,
				}
			}
			if chunk.FinishReason != "" {
				finishReason = chunk.FinishReason
			}
		}

		out <- llm.ReasoningFragment{Type: llm.FragmentFinish, FinishReason: finishReason}
	}()
	return out, nil
}

type toolCallBuilder struct {
	id string
}

// applyToolCallDelta tracks just enough state to stamp every delta for
// a given tool call index with a stable ToolUseID: litellm only sends
// the call's id on its first delta.
func applyToolCallDelta(builders map[int]*toolCallBuilder, delta *litellm.ToolCallDelta) {
	b, ok := builders[delta.Index]
	if !ok {
		b = &toolCallBuilder{}
		builders[delta.Index] = b
	}
	if delta.ID != "" {
		b.id = delta.ID
	}
}

func applyTools(req *litellm.Request, schemas []llm.ToolSchema) {
	if len(schemas) == 0 {
		return
	}
	tools := make([]litellm.Tool, 0, len(schemas))
	for _, s := range schemas {
		tools = append(tools, litellm.Tool{
			Type: "function",
			Function: litellm.FunctionDef{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	req.Tools = tools
	req.ToolChoice = "auto"
}

// convertMessages flattens the block-structured Msg history into the
// flat request/role shape litellm expects: one assistant message per
// Msg (text concatenated, tool-uses become ToolCalls), and one "tool"
// role message per ToolResultBlock, since litellm correlates tool
// results to calls individually by ToolCallID.
func convertMessages(msgs []schema.Msg) []litellm.Message {
	var out []litellm.Message
	for _, m := range msgs {
		switch m.Role {
		case schema.RoleTool:
			for _, r := range m.ToolResults() {
				out = append(out, litellm.Message{
					Role:       "tool",
					Content:    r.Text(),
					ToolCallID: r.ID,
				})
			}
		default:
			lm := litellm.Message{Role: string(m.Role), Content: m.Text()}
			if uses := m.ToolUses(); len(uses) > 0 {
				lm.ToolCalls = make([]litellm.ToolCall, len(uses))
				for i, u := range uses {
					args, _ := json.Marshal(u.Input)
					lm.ToolCalls[i] = litellm.ToolCall{
						ID:   u.ID,
						Type: "function",
						Function: litellm.FunctionCall{
							Name:      u.Name,
							Arguments: string(args),
						},
					}
				}
			}
			out = append(out, lm)
		}
	}
	return out
}

var _ llm.Model = (*Adapter)(nil)
