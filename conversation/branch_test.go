package conversation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/internal/testutil"
	"github.com/convotree/convotree/session"
)

func TestBranchManager_CreateBranch(t *testing.T) {
	store := session.NewInMemoryStore()
	bm := NewBranchManager(store)
	parent := testutil.NewSessionBuilder("main").Summary("docs").Pairs(2).Build()
	require.NoError(t, store.Save(parent))

	branch, err := bm.CreateBranch(parent, "experiment", func(o *BranchOptions) {
		o.DocumentHash = "abc123"
	})
	require.NoError(t, err)

	assert.Equal(t, "main/experiment", branch.Name)
	assert.Equal(t, "docs", branch.DocumentSummary)
	assert.True(t, branch.IsBranch())
	assert.Equal(t, "experiment", branch.BranchInfo.BranchName)
	assert.Equal(t, parent.SessionID, branch.BranchInfo.ParentID)
	assert.Equal(t, "abc123", branch.BranchInfo.DocumentHash)

	// Fresh start without history.
	assert.Empty(t, branch.MessageWindow)
	assert.Equal(t, "00001", branch.NextPromptID())

	// Persisted under the composite name.
	found, err := store.FindByName("main/experiment")
	require.NoError(t, err)
	assert.Equal(t, branch.SessionID, found.SessionID)
}

func TestBranchManager_CreateBranchWithHistory(t *testing.T) {
	store := session.NewInMemoryStore()
	bm := NewBranchManager(store)
	parent := testutil.NewSessionBuilder("main").Pairs(3).Build()
	require.NoError(t, store.Save(parent))

	branch, err := bm.CreateBranch(parent, "alt", func(o *BranchOptions) {
		o.IncludeHistory = true
	})
	require.NoError(t, err)

	require.Len(t, branch.MessageWindow, 6)
	// Ids continue past the copied history.
	assert.Equal(t, "00004", branch.NextPromptID())

	// Deep copy: branch mutations never leak into the parent.
	branch.MessageWindow[0].Content = "mutated"
	assert.Equal(t, "q1", parent.MessageWindow[0].Content)
}

func TestBranchManager_InvalidBranchName(t *testing.T) {
	store := session.NewInMemoryStore()
	bm := NewBranchManager(store)
	parent := testutil.NewSessionBuilder("main").Build()
	require.NoError(t, store.Save(parent))

	for _, name := range []string{"", "  ", "a/b"} {
		_, err := bm.CreateBranch(parent, name)
		var ve *core.ValidationError
		assert.True(t, errors.As(err, &ve), "branch name %q should be rejected", name)
	}

	// Rejected names create nothing.
	summaries, err := store.List()
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestBranchManager_RecoverExistingBranch(t *testing.T) {
	store := session.NewInMemoryStore()
	bm := NewBranchManager(store)
	parent := testutil.NewSessionBuilder("main").Build()
	require.NoError(t, store.Save(parent))

	first, err := bm.CreateBranch(parent, "alt")
	require.NoError(t, err)
	second, err := bm.CreateBranch(parent, "alt")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestBranchManager_BranchTree(t *testing.T) {
	store := session.NewInMemoryStore()
	bm := NewBranchManager(store)
	for _, name := range []string{"main", "other"} {
		require.NoError(t, store.Save(testutil.NewSessionBuilder(name).Build()))
	}
	main, err := store.FindByName("main")
	require.NoError(t, err)
	alt, err := bm.CreateBranch(main, "alt")
	require.NoError(t, err)
	_, err = bm.CreateBranch(alt, "deep")
	require.NoError(t, err)

	roots, err := bm.BranchTree()
	require.NoError(t, err)
	require.Len(t, roots, 2)

	assert.Equal(t, "main", roots[0].Name)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "main/alt", roots[0].Children[0].Name)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "main/alt/deep", roots[0].Children[0].Children[0].Name)

	assert.Equal(t, "other", roots[1].Name)
	assert.Empty(t, roots[1].Children)
}

func TestBranchManager_OrphanBranchBecomesRoot(t *testing.T) {
	store := session.NewInMemoryStore()
	bm := NewBranchManager(store)
	orphan := testutil.NewSessionBuilder("gone/alt").Build()
	require.NoError(t, store.Save(orphan))

	roots, err := bm.BranchTree()
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "gone/alt", roots[0].Name)
}
