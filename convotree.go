package convotree

import (
	"context"

	"github.com/convotree/convotree/config"
	"github.com/convotree/convotree/conversation"
	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/invoke"
	"github.com/convotree/convotree/logging"
	"github.com/convotree/convotree/model"
	"github.com/convotree/convotree/session"
	"github.com/convotree/convotree/usage"
)

// BranchOptions configures a single Branch call.
type BranchOptions = conversation.BranchOptions

// TreeNode is one session in the branch tree.
type TreeNode = conversation.TreeNode

// Options configures the ConvoTree instance.
type Options struct {
	// Config supplies window size, token budget and pricing defaults.
	Config config.Config

	// Store persists sessions (defaults to an in-memory store).
	Store core.SessionStore

	// Endpoint performs the inference calls (defaults to a MockEndpoint).
	// It is wrapped in a retrying invoker; pass the raw adapter.
	Endpoint core.Endpoint

	// Clock supplies time for timestamps and backoff (defaults to the
	// system clock).
	Clock core.Clock

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// ConvoTree is the high-level façade aggregating the session manager
// and branch operations.
type ConvoTree struct {
	opts     Options
	manager  *conversation.Manager
	branches *conversation.BranchManager
}

// New creates a new ConvoTree instance with optional overrides. Any
// unset collaborator is initialized with a local default.
func New(optFns ...func(o *Options)) *ConvoTree {
	opts := Options{
		Config: config.Default(),
		Clock:  core.SystemClock(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = session.NewInMemoryStore(func(o *session.InMemoryStoreOptions) {
			o.Clock = opts.Clock
			o.Logger = opts.Logger
		})
	}
	if opts.Endpoint == nil {
		opts.Endpoint = model.NewMockEndpoint()
	}

	invoker := invoke.NewInvoker(opts.Endpoint, func(o *invoke.Options) {
		o.Clock = opts.Clock
		o.Logger = opts.Logger
	})

	tracker := usage.NewTracker(opts.Store, func(o *usage.TrackerOptions) {
		o.Pricing = opts.Config.Pricing
		o.Logger = opts.Logger
	})

	manager := conversation.NewManager(opts.Store, invoker, func(o *conversation.ManagerOptions) {
		o.Clock = opts.Clock
		o.Logger = opts.Logger
		o.Tracker = tracker
		o.MaxTokens = opts.Config.MaxTokens
	})

	branches := conversation.NewBranchManager(opts.Store, func(o *conversation.BranchManagerOptions) {
		o.Clock = opts.Clock
		o.Logger = opts.Logger
	})

	return &ConvoTree{opts: opts, manager: manager, branches: branches}
}

// Open returns the session with the given name, creating it when none
// exists.
func (c *ConvoTree) Open(name, documentSummary string) (*core.Session, error) {
	return c.manager.CreateNew(name, documentSummary)
}

// Create allocates a session with the given name, failing when the
// name is taken.
func (c *ConvoTree) Create(name, documentSummary string) (*core.Session, error) {
	return c.manager.Create(name, documentSummary)
}

// Ask sends a question in the session's context and returns the
// answer. The new pair is appended and persisted before returning.
func (c *ConvoTree) Ask(ctx context.Context, sess *core.Session, question string) (string, error) {
	return c.manager.Ask(ctx, sess, question)
}

// Branch forks a session under "<parent_name>/<branch_name>".
func (c *ConvoTree) Branch(parent *core.Session, branchName string, optFns ...func(o *BranchOptions)) (*core.Session, error) {
	return c.branches.CreateBranch(parent, branchName, optFns...)
}

// BranchTree returns the parent/child forest over all stored sessions.
func (c *ConvoTree) BranchTree() ([]*conversation.TreeNode, error) {
	return c.branches.BranchTree()
}

// Sessions returns per-name summaries of all stored sessions.
func (c *ConvoTree) Sessions() ([]core.Summary, error) {
	return c.manager.List()
}

// SetWindowSize changes a session's context window for subsequent
// requests.
func (c *ConvoTree) SetWindowSize(sess *core.Session, pairs int) error {
	return c.manager.SetWindowSize(sess, pairs)
}

// Usage returns the session's accumulated token and cost totals.
func (c *ConvoTree) Usage(sess *core.Session) core.UsageSummary {
	return c.manager.Usage(sess)
}
