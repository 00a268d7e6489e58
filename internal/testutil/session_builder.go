package testutil

import (
	"fmt"
	"time"

	"github.com/convotree/convotree/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("main").Summary("docs").Pairs(3).Build()
type SessionBuilder struct {
	name    string
	summary string
	window  int
	pairs   int
}

// NewSessionBuilder creates a new builder for a session with the given
// name. Use chainable methods then call Build.
func NewSessionBuilder(name string) *SessionBuilder {
	return &SessionBuilder{name: name, window: core.DefaultWindowSize}
}

// Summary sets the opaque document summary (chainable).
func (b *SessionBuilder) Summary(summary string) *SessionBuilder {
	b.summary = summary
	return b
}

// Window sets the context window size in pairs (chainable).
func (b *SessionBuilder) Window(pairs int) *SessionBuilder {
	b.window = pairs
	return b
}

// Pairs appends n sequential question/answer pairs ("q1"/"a1", ...) with
// properly sequenced prompt ids (chainable).
func (b *SessionBuilder) Pairs(n int) *SessionBuilder {
	b.pairs = n
	return b
}

// Build returns a *core.Session with the configured history.
func (b *SessionBuilder) Build() *core.Session {
	sess := core.NewSession(b.name, b.summary, time.Now())
	sess.WindowSize = b.window
	for i := 1; i <= b.pairs; i++ {
		id := sess.NextPromptID()
		sess.AppendPair(
			core.Message{Role: core.RoleUser, Content: fmt.Sprintf("q%d", i), PromptID: id},
			core.Message{Role: core.RoleAssistant, Content: fmt.Sprintf("a%d", i), PromptID: id},
		)
	}
	return sess
}
