package model

import (
	"context"
	"sync"

	"github.com/convotree/convotree/core"
)

// Compile-time assertion.
var _ core.Endpoint = (*MockEndpoint)(nil)

// MockEndpoint is a scripted core.Endpoint for tests and demos. Queued
// errors are returned first, in order, then queued responses. When both
// queues are empty it echoes the last user message.
type MockEndpoint struct {
	mu        sync.Mutex
	errs      []error
	responses []*core.Response
	calls     int
	lastReq   core.Request
}

// NewMockEndpoint creates an empty mock.
func NewMockEndpoint() *MockEndpoint {
	return &MockEndpoint{}
}

// QueueError appends errors to return before any queued responses.
func (m *MockEndpoint) QueueError(errs ...error) *MockEndpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
	return m
}

// QueueResponse appends responses to return after queued errors.
func (m *MockEndpoint) QueueResponse(responses ...*core.Response) *MockEndpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// Send implements the core.Endpoint interface.
func (m *MockEndpoint) Send(_ context.Context, req core.Request) (*core.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastReq = req

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, nil
	}

	text := "mock response"
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == core.RoleUser {
			text = "echo: " + req.Messages[i].Content
			break
		}
	}
	return &core.Response{
		Text:  text,
		Usage: core.Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

// Calls returns how many times Send was invoked.
func (m *MockEndpoint) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request passed to Send.
func (m *MockEndpoint) LastRequest() core.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}
