package core

import (
	"errors"
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(RoleUser, "hello", "00001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Role != RoleUser || msg.Content != "hello" || msg.PromptID != "00001" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestNewMessage_Invalid(t *testing.T) {
	cases := []struct {
		name     string
		role     Role
		promptID string
	}{
		{"bad role", Role("system"), "00001"},
		{"empty prompt id", RoleUser, ""},
		{"unpadded prompt id", RoleUser, "1"},
		{"too long prompt id", RoleAssistant, "000001"},
		{"non numeric prompt id", RoleAssistant, "abcde"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMessage(tc.role, "x", tc.promptID)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}
