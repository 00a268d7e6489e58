package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/model"
	"github.com/convotree/convotree/session"
)

func newTestManager(t *testing.T) (*Manager, *session.InMemoryStore, *model.MockEndpoint) {
	t.Helper()
	store := session.NewInMemoryStore()
	endpoint := model.NewMockEndpoint()
	return NewManager(store, endpoint), store, endpoint
}

func TestManager_CreateNewAndRecover(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	created, err := mgr.CreateNew("main", "docs")
	require.NoError(t, err)
	assert.Equal(t, "main", created.Name)
	assert.Len(t, created.ConversationID, 6)

	recovered, err := mgr.CreateNew("main", "ignored")
	require.NoError(t, err)
	assert.Equal(t, created.SessionID, recovered.SessionID)
	assert.Equal(t, "docs", recovered.DocumentSummary)
}

func TestManager_CreateStrictDuplicate(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	_, err := mgr.Create("main", "")
	require.NoError(t, err)

	_, err = mgr.Create("main", "")
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestManager_CreateEmptyName(t *testing.T) {
	mgr, _, _ := newTestManager(t)

	_, err := mgr.CreateNew("  ", "")
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestManager_Ask(t *testing.T) {
	mgr, store, endpoint := newTestManager(t)
	endpoint.QueueResponse(&core.Response{
		Text:  "the answer",
		Usage: core.Usage{InputTokens: 100, OutputTokens: 50},
	})

	sess, err := mgr.CreateNew("main", "docs")
	require.NoError(t, err)

	answer, err := mgr.Ask(context.Background(), sess, "what is this?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	// Both halves of the pair carry the same freshly allocated id.
	require.Len(t, sess.MessageWindow, 2)
	assert.Equal(t, core.RoleUser, sess.MessageWindow[0].Role)
	assert.Equal(t, "00001", sess.MessageWindow[0].PromptID)
	assert.Equal(t, core.RoleAssistant, sess.MessageWindow[1].Role)
	assert.Equal(t, "00001", sess.MessageWindow[1].PromptID)

	// Usage is accumulated and the whole turn persisted.
	assert.InDelta(t, 0.00105, sess.TotalCost, 1e-9)
	loaded, err := store.Load(sess.SessionID)
	require.NoError(t, err)
	assert.Len(t, loaded.MessageWindow, 2)
	assert.Equal(t, int64(100), loaded.TotalInputTokens)

	// The system prompt embeds the document summary.
	assert.Contains(t, endpoint.LastRequest().System, "docs")
}

func TestManager_AskSendsContextWindow(t *testing.T) {
	mgr, _, endpoint := newTestManager(t)

	sess, err := mgr.CreateNew("main", "")
	require.NoError(t, err)
	require.NoError(t, mgr.SetWindowSize(sess, 1))

	for _, q := range []string{"first", "second", "third"} {
		_, err := mgr.Ask(context.Background(), sess, q)
		require.NoError(t, err)
	}

	// Window of one pair: the previous pair plus the new question.
	msgs := endpoint.LastRequest().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "second", msgs[0].Content)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "third", msgs[2].Content)

	// Stored history keeps every pair regardless of the window.
	assert.Len(t, sess.MessageWindow, 6)
	assert.Equal(t, "00003", sess.MessageWindow[4].PromptID)
}

func TestManager_AskEmptyQuestion(t *testing.T) {
	mgr, _, endpoint := newTestManager(t)
	sess, err := mgr.CreateNew("main", "")
	require.NoError(t, err)

	_, err = mgr.Ask(context.Background(), sess, "   ")
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Zero(t, endpoint.Calls())
}

func TestManager_AskEndpointFailureLeavesHistory(t *testing.T) {
	mgr, store, endpoint := newTestManager(t)
	cause := core.FatalError(errors.New("invalid api key"))
	endpoint.QueueError(cause)

	sess, err := mgr.CreateNew("main", "")
	require.NoError(t, err)

	_, err = mgr.Ask(context.Background(), sess, "hello")
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, sess.MessageWindow)

	loaded, err := store.Load(sess.SessionID)
	require.NoError(t, err)
	assert.Empty(t, loaded.MessageWindow)
	assert.Zero(t, loaded.TotalCost)
}

func TestManager_SetWindowSize(t *testing.T) {
	mgr, store, _ := newTestManager(t)
	sess, err := mgr.CreateNew("main", "")
	require.NoError(t, err)

	err = mgr.SetWindowSize(sess, 0)
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))

	require.NoError(t, mgr.SetWindowSize(sess, 3))
	loaded, err := store.Load(sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.WindowSize)
}

func TestManager_Usage(t *testing.T) {
	mgr, _, endpoint := newTestManager(t)
	endpoint.QueueResponse(&core.Response{
		Text:  "ok",
		Usage: core.Usage{InputTokens: 1000, OutputTokens: 500},
	})

	sess, err := mgr.CreateNew("main", "")
	require.NoError(t, err)
	_, err = mgr.Ask(context.Background(), sess, "hello")
	require.NoError(t, err)

	got := mgr.Usage(sess)
	assert.Equal(t, int64(1500), got.TotalTokens)
	assert.InDelta(t, 0.0105, got.TotalCost, 1e-9)
}
