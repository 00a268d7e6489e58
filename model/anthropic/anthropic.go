// Package anthropic adapts the Anthropic Messages API to core.Endpoint.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/convotree/convotree/core"
)

// Options configures the Anthropic endpoint adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Endpoint wraps the Anthropic Messages API behind core.Endpoint.
type Endpoint struct {
	client *anthropic.Client
	opts   Options
}

// Compile-time assertion.
var _ core.Endpoint = (*Endpoint)(nil)

// NewEndpoint creates a new Anthropic endpoint using the official client.
func NewEndpoint(optFns ...func(o *Options)) *Endpoint {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Endpoint{client: &client, opts: opts}
}

// NewEndpointFromClient creates an Anthropic endpoint from an existing client.
func NewEndpointFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Endpoint {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Endpoint{client: client, opts: opts}
}

// Send implements the core.Endpoint interface. API failures are
// classified so the retry layer can tell rate limits and overload from
// permanent errors.
func (e *Endpoint) Send(ctx context.Context, req core.Request) (*core.Response, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == core.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := e.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       e.opts.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(e.opts.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	return &core.Response{
		Text: sb.String(),
		Usage: core.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

// classify maps API errors onto the transient/fatal taxonomy. 429 is a
// rate limit and 5xx (including 529 overloaded) is server pressure;
// everything else, bad requests and auth failures included, is fatal.
func classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == http.StatusTooManyRequests || apierr.StatusCode >= 500 {
			return core.TransientError(fmt.Errorf("anthropic api error: %w", err))
		}
		return core.FatalError(fmt.Errorf("anthropic api error: %w", err))
	}
	return core.FatalError(fmt.Errorf("anthropic api error: %w", err))
}
