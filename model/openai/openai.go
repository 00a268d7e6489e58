// Package openai adapts the OpenAI Chat Completions API to core.Endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/convotree/convotree/core"
)

// Options configures the OpenAI endpoint adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
}

// Endpoint wraps the OpenAI Chat Completions API behind core.Endpoint.
type Endpoint struct {
	client *openai.Client
	opts   Options
}

// Compile-time assertion.
var _ core.Endpoint = (*Endpoint)(nil)

// NewEndpoint creates a new OpenAI endpoint using the official client.
func NewEndpoint(optFns ...func(o *Options)) *Endpoint {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Endpoint{client: &client, opts: opts}
}

// NewEndpointFromClient creates an OpenAI endpoint from an existing client.
func NewEndpointFromClient(client *openai.Client, optFns ...func(o *Options)) *Endpoint {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Endpoint{client: client, opts: opts}
}

// Send implements the core.Endpoint interface.
func (e *Endpoint) Send(ctx context.Context, req core.Request) (*core.Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		if msg.Role == core.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(msg.Content))
		} else {
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	maxTokens := e.opts.MaxCompletionTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               e.opts.Model,
		Temperature:         openai.Float(e.opts.Temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.FatalError(fmt.Errorf("openai api error: no choices returned"))
	}

	return &core.Response{
		Text: resp.Choices[0].Message.Content,
		Usage: core.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// classify maps API errors onto the transient/fatal taxonomy. 429 and
// 5xx are retryable, everything else is fatal.
func classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == http.StatusTooManyRequests || apierr.StatusCode >= 500 {
			return core.TransientError(fmt.Errorf("openai api error: %w", err))
		}
		return core.FatalError(fmt.Errorf("openai api error: %w", err))
	}
	return core.FatalError(fmt.Errorf("openai api error: %w", err))
}
