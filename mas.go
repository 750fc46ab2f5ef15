// Package mas is the top-level entry point: a thin facade over agent.Agent
// for callers who just want to configure a model, a toolkit, and hooks,
// then run a single turn or a short conversation.
package mas

import (
	"context"
	"fmt"

	"github.com/voocel/mas/agent"
	"github.com/voocel/mas/llm"
	"github.com/voocel/mas/schema"
)

// Query builds an Agent from opts and runs input through it once,
// returning only the final response message.
func Query(ctx context.Context, model llm.Model, input string, opts ...agent.Option) (schema.Msg, error) {
	ag, err := newAgent(model, opts...)
	if err != nil {
		return schema.Msg{}, err
	}
	return ag.Call(ctx, schema.UserMsg(input))
}

func newAgent(model llm.Model, opts ...agent.Option) (*agent.Agent, error) {
	if model == nil {
		return nil, fmt.Errorf("mas: model is nil")
	}
	all := append([]agent.Option{agent.WithModel(model)}, opts...)
	return agent.New(all...)
}
