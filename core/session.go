package core

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultWindowSize is the number of message pairs included in the
	// context sent with a new request when a session does not override it.
	DefaultWindowSize = 10

	// NameSeparator joins a parent session name and a branch name. Branch
	// names themselves must not contain it.
	NameSeparator = "/"

	conversationIDLength   = 6
	conversationIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// BranchInfo records the lineage of a forked session. DocumentHash is a
// fingerprint of the document state at fork time, computed by a collaborator
// outside this package; the session only stores and surfaces it.
type BranchInfo struct {
	BranchName   string    `json:"branch_name"`
	ParentID     string    `json:"parent_id"`
	CreatedAt    time.Time `json:"created_at"`
	DocumentHash string    `json:"document_hash"`
}

// Session is a named, persisted conversation: full message history, branch
// lineage, the prompt-id counter and usage accumulators. MessageWindow is
// append-only full history; the request-time window is a derived view (see
// ContextWindow), never a destructive truncation of storage.
//
// A single logical actor is assumed to mutate a given session at a time;
// multi-actor deployments must guard each session id externally.
type Session struct {
	SessionID       string      `json:"session_id"`
	ConversationID  string      `json:"conversation_id"`
	Name            string      `json:"name"`
	DocumentSummary string      `json:"document_summary"`
	MessageWindow   []Message   `json:"message_window"`
	CreatedAt       time.Time   `json:"created_at"`
	LastAccessed    time.Time   `json:"last_accessed"`
	WindowSize      int         `json:"window_size"`
	BranchInfo      *BranchInfo `json:"branch_info"`
	LastPromptID    int         `json:"last_prompt_id"`

	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	TotalCost         float64 `json:"total_cost"`
}

// NewSession allocates a fresh session with a uuid session id and a random
// conversation id. The summary is stored opaquely.
func NewSession(name, documentSummary string, now time.Time) *Session {
	return &Session{
		SessionID:       uuid.NewString(),
		ConversationID:  NewConversationID(),
		Name:            name,
		DocumentSummary: documentSummary,
		MessageWindow:   []Message{},
		CreatedAt:       now,
		LastAccessed:    now,
		WindowSize:      DefaultWindowSize,
	}
}

// NewConversationID generates a random 6 character conversation id. It is a
// short human-facing cache partitioning key; collisions are acceptable and
// it must never be used as a security token.
func NewConversationID() string {
	b := make([]byte, conversationIDLength)
	for i := range b {
		b[i] = conversationIDAlphabet[rand.Intn(len(conversationIDAlphabet))]
	}
	return string(b)
}

// FormatPromptID renders a prompt counter value in its canonical 5-digit
// zero-padded form.
func FormatPromptID(n int) string {
	return fmt.Sprintf("%05d", n)
}

// NextPromptID increments the session's prompt counter and returns it
// zero-padded. The caller must reuse the returned id to tag both the
// outgoing question and the returned answer.
func (s *Session) NextPromptID() string {
	s.LastPromptID++
	return FormatPromptID(s.LastPromptID)
}

// RecoverPromptCounter recomputes LastPromptID as the maximum prompt id
// among stored user messages, defaulting to 0 when there are none. This is
// the single canonical recovery rule, applied both when a session is
// reconstituted by name and when a snapshot with a stale or absent counter
// is deserialized.
func (s *Session) RecoverPromptCounter() {
	maxID := 0
	for _, msg := range s.MessageWindow {
		if msg.Role != RoleUser {
			continue
		}
		id, err := strconv.Atoi(msg.PromptID)
		if err != nil {
			continue
		}
		if id > maxID {
			maxID = id
		}
	}
	s.LastPromptID = maxID
}

// ContextWindow returns the last WindowSize message pairs (2×WindowSize
// messages) in original chronological order, roles preserved. Shorter
// histories are returned whole. The selection never mutates stored history;
// it only shapes what is sent on the next request.
func (s *Session) ContextWindow() []Message {
	n := 2 * s.WindowSize
	if n <= 0 || n > len(s.MessageWindow) {
		n = len(s.MessageWindow)
	}
	window := make([]Message, n)
	copy(window, s.MessageWindow[len(s.MessageWindow)-n:])
	return window
}

// AppendPair appends a question/answer pair to the stored history. Both
// messages are expected to carry the same prompt id.
func (s *Session) AppendPair(question, answer Message) {
	s.MessageWindow = append(s.MessageWindow, question, answer)
}

// UserMessageCount returns the number of stored user messages, i.e. the
// number of completed pairs.
func (s *Session) UserMessageCount() int {
	count := 0
	for _, msg := range s.MessageWindow {
		if msg.Role == RoleUser {
			count++
		}
	}
	return count
}

// IsBranch reports whether this session was forked from a parent.
func (s *Session) IsBranch() bool { return s.BranchInfo != nil }

// ParentName returns the name of the parent conversation for a branch
// session ("main" for "main/alt"), or the empty string for a root session.
func (s *Session) ParentName() string {
	idx := strings.LastIndex(s.Name, NameSeparator)
	if idx < 0 {
		return ""
	}
	return s.Name[:idx]
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := *s
	clone.MessageWindow = make([]Message, len(s.MessageWindow))
	copy(clone.MessageWindow, s.MessageWindow)
	if s.BranchInfo != nil {
		bi := *s.BranchInfo
		clone.BranchInfo = &bi
	}
	return &clone
}

// Normalize repairs a deserialized snapshot: it backfills a missing
// conversation id, applies the default window size and recovers the prompt
// counter from history. Recovery is unconditional whenever history exists,
// so a stale nonzero counter can never hand out an id a stored pair already
// carries. Stores call it after every load.
func (s *Session) Normalize() {
	if s.ConversationID == "" {
		s.ConversationID = NewConversationID()
	}
	if s.WindowSize <= 0 {
		s.WindowSize = DefaultWindowSize
	}
	if s.MessageWindow == nil {
		s.MessageWindow = []Message{}
	}
	if len(s.MessageWindow) > 0 {
		s.RecoverPromptCounter()
	}
}
