package mas

import (
	"context"

	"github.com/voocel/mas/agent"
	"github.com/voocel/mas/llm"
	"github.com/voocel/mas/schema"
)

// Client wraps one configured Agent for a session-style caller that
// sends several inputs over time and wants the underlying Agent for
// lower-level access (Toolkit, Memory, Interrupt) when needed.
type Client struct {
	Agent *agent.Agent
}

// NewClient builds a Client from opts, same configuration surface as Query.
func NewClient(model llm.Model, opts ...agent.Option) (*Client, error) {
	ag, err := newAgent(model, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{Agent: ag}, nil
}

// Send runs one turn of conversation and returns the final response.
func (c *Client) Send(ctx context.Context, input string) (schema.Msg, error) {
	return c.Agent.Call(ctx, schema.UserMsg(input))
}
