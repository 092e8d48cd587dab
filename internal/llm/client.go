package llm

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

// ChatModel is the slice of the eino model interface this package needs.
// *openai.ChatModel satisfies it; tests supply fakes.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client funnels every text-generation call through one rate limiter
// and one retry policy, so callers never handle transient failures.
type Client struct {
	cm      ChatModel
	limiter *rate.Limiter
	policy  Policy
}

// NewClient wraps cm. limiter may be nil to disable pacing.
func NewClient(cm ChatModel, limiter *rate.Limiter, policy Policy) *Client {
	return &Client{cm: cm, limiter: limiter, policy: policy}
}

// Complete sends a system+user prompt, with optional prior turns in
// between, and returns the raw model text.
func (c *Client) Complete(ctx context.Context, system, user string, history ...*schema.Message) (string, error) {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, &schema.Message{Role: schema.System, Content: system})
	messages = append(messages, history...)
	messages = append(messages, &schema.Message{Role: schema.User, Content: user})

	var out string
	err := Invoke(ctx, c.policy, func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		resp, err := c.cm.Generate(ctx, messages)
		if err != nil {
			return err
		}
		out = resp.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
