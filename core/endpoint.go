package core

import "context"

// Request is the normalized input for a single inference call: the
// assembled system prompt, the bounded history window plus the new
// question, and the response token budget.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int64
}

// Usage carries the token counts reported by the endpoint for one call.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Response is the endpoint's answer text together with its usage report.
type Response struct {
	Text  string
	Usage Usage
}

// Endpoint is the single outbound call the resilient invoker wraps.
// Implementations classify their failures via TransientError / FatalError
// so the retry layer never inspects provider error hierarchies.
type Endpoint interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// DocumentStore is the collaborator that loads source documents. The core
// never parses file formats itself; it only consumes filename→content maps.
type DocumentStore interface {
	LoadDocuments(path string) (map[string]string, error)
}
