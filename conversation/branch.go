package conversation

import (
	"strings"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/logging"
)

// BranchOptions configures a single CreateBranch call.
type BranchOptions struct {
	// IncludeHistory copies the parent's full message history into the
	// branch. The branch's prompt counter continues from the copied
	// history so ids stay strictly increasing.
	IncludeHistory bool

	// DocumentHash is an externally computed fingerprint of the document
	// state at fork time, stored on the branch for later comparison.
	DocumentHash string
}

// BranchManagerOptions configures a BranchManager.
type BranchManagerOptions struct {
	Clock  core.Clock
	Logger logging.Logger
}

// BranchManager forks sessions and reads their lineage.
type BranchManager struct {
	store  core.SessionStore
	clock  core.Clock
	logger logging.Logger
}

// NewBranchManager creates a BranchManager over the given store.
func NewBranchManager(store core.SessionStore, optFns ...func(o *BranchManagerOptions)) *BranchManager {
	opts := BranchManagerOptions{
		Clock: core.SystemClock(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Clock == nil {
		opts.Clock = core.SystemClock()
	}
	return &BranchManager{
		store:  store,
		clock:  opts.Clock,
		logger: logging.OrNoOp(opts.Logger),
	}
}

// CreateBranch forks parent under the composite name
// "<parent_name>/<branch_name>". The branch name must not contain the
// separator; validation failures create nothing. Forking an already
// existing branch name recovers the stored branch instead of creating
// a duplicate.
func (b *BranchManager) CreateBranch(parent *core.Session, branchName string, optFns ...func(o *BranchOptions)) (*core.Session, error) {
	var opts BranchOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if strings.TrimSpace(branchName) == "" {
		return nil, core.NewValidationError("branch name must not be empty")
	}
	if strings.Contains(branchName, core.NameSeparator) {
		return nil, core.NewValidationError("branch name %q must not contain %q", branchName, core.NameSeparator)
	}

	name := parent.Name + core.NameSeparator + branchName

	existing, err := b.store.FindByName(name)
	if err == nil {
		b.logger.Info("recovered branch", "name", name, "session_id", existing.SessionID)
		return existing, nil
	}
	if !core.IsNotFound(err) {
		return nil, err
	}

	now := b.clock.Now()
	branch := core.NewSession(name, parent.DocumentSummary, now)
	branch.WindowSize = parent.WindowSize
	branch.BranchInfo = &core.BranchInfo{
		BranchName:   branchName,
		ParentID:     parent.SessionID,
		CreatedAt:    now,
		DocumentHash: opts.DocumentHash,
	}

	if opts.IncludeHistory {
		branch.MessageWindow = make([]core.Message, len(parent.MessageWindow))
		copy(branch.MessageWindow, parent.MessageWindow)
		branch.RecoverPromptCounter()
	}

	if err := b.store.Save(branch); err != nil {
		return nil, err
	}

	b.logger.Info("created branch",
		"name", name,
		"parent_id", parent.SessionID,
		"with_history", opts.IncludeHistory,
	)
	return branch, nil
}

// TreeNode is one session in the branch tree. Children are ordered by
// name.
type TreeNode struct {
	Name     string
	Children []*TreeNode
}

// BranchTree builds the parent/child forest over all stored session
// names. A session is a child of the session named by everything before
// the last separator; names whose parent is not stored become roots.
func (b *BranchManager) BranchTree() ([]*TreeNode, error) {
	summaries, err := b.store.List()
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*TreeNode, len(summaries))
	for _, s := range summaries {
		nodes[s.Name] = &TreeNode{Name: s.Name}
	}

	var roots []*TreeNode
	for _, s := range summaries {
		node := nodes[s.Name]
		idx := strings.LastIndex(s.Name, core.NameSeparator)
		if idx < 0 {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[s.Name[:idx]]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}
