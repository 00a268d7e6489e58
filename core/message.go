package core

import "regexp"

// Role identifies the author of a message half.
type Role string

const (
	// RoleUser marks the question half of a pair.
	RoleUser Role = "user"
	// RoleAssistant marks the answer half of a pair.
	RoleAssistant Role = "assistant"
)

// promptIDPattern is the canonical rendering of a prompt id: five digits,
// zero padded ("00001", "00002", ...).
var promptIDPattern = regexp.MustCompile(`^\d{5}$`)

// Message is one half of a question/answer pair in a session's history.
// Both halves of a pair carry the same PromptID. Messages are validated at
// construction, not at point of use.
type Message struct {
	Role     Role   `json:"role"`
	Content  string `json:"content"`
	PromptID string `json:"prompt_id"`
}

// NewMessage validates role and prompt id and returns the tagged record.
// An empty prompt id is rejected: every stored message belongs to a pair.
func NewMessage(role Role, content, promptID string) (Message, error) {
	if role != RoleUser && role != RoleAssistant {
		return Message{}, NewValidationError("invalid message role %q", role)
	}
	if !promptIDPattern.MatchString(promptID) {
		return Message{}, NewValidationError("invalid prompt id %q, want five zero-padded digits", promptID)
	}
	return Message{Role: role, Content: content, PromptID: promptID}, nil
}
