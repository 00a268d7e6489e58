package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/logging"
	"github.com/convotree/convotree/usage"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Clock supplies creation and access timestamps.
	Clock core.Clock

	// Logger for lifecycle and ask-flow events.
	Logger logging.Logger

	// Tracker accounts token usage. Defaults to a tracker with built-in
	// pricing writing through the manager's store.
	Tracker *usage.Tracker

	// MaxTokens is the response budget passed to the endpoint.
	MaxTokens int64

	// SystemPrompt builds the system text for a session. The default
	// embeds the session's document summary.
	SystemPrompt func(sess *core.Session) string
}

// Manager drives named sessions through a store and an endpoint. The
// endpoint is typically an invoke.Invoker so transient failures are
// retried transparently.
type Manager struct {
	store        core.SessionStore
	endpoint     core.Endpoint
	tracker      *usage.Tracker
	clock        core.Clock
	logger       logging.Logger
	maxTokens    int64
	systemPrompt func(sess *core.Session) string
}

// NewManager creates a Manager over the given store and endpoint.
func NewManager(store core.SessionStore, endpoint core.Endpoint, optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{
		Clock:        core.SystemClock(),
		MaxTokens:    4096,
		SystemPrompt: defaultSystemPrompt,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Clock == nil {
		opts.Clock = core.SystemClock()
	}
	if opts.Tracker == nil {
		opts.Tracker = usage.NewTracker(store, func(o *usage.TrackerOptions) {
			o.Logger = opts.Logger
		})
	}
	if opts.SystemPrompt == nil {
		opts.SystemPrompt = defaultSystemPrompt
	}
	return &Manager{
		store:        store,
		endpoint:     endpoint,
		tracker:      opts.Tracker,
		clock:        opts.Clock,
		logger:       logging.OrNoOp(opts.Logger),
		maxTokens:    opts.MaxTokens,
		systemPrompt: opts.SystemPrompt,
	}
}

func defaultSystemPrompt(sess *core.Session) string {
	if sess.DocumentSummary == "" {
		return ""
	}
	return "You are a helpful assistant answering questions about a document collection.\n\n" +
		"Document summary:\n" + sess.DocumentSummary
}

// CreateNew returns the session with the given name, creating it when
// none exists. Recovering an existing name returns the stored session
// with its prompt counter already recomputed from history.
func (m *Manager) CreateNew(name, documentSummary string) (*core.Session, error) {
	existing, err := m.store.FindByName(name)
	if err == nil {
		m.logger.Info("recovered session",
			"name", name,
			"session_id", existing.SessionID,
			"pairs", existing.UserMessageCount(),
		)
		return existing, nil
	}
	if !core.IsNotFound(err) {
		return nil, err
	}
	return m.create(name, documentSummary)
}

// Create allocates a session with the given name and fails with a
// ValidationError when the name is already taken. The uniqueness check
// is not atomic with creation; a single logical creator per name is
// assumed.
func (m *Manager) Create(name, documentSummary string) (*core.Session, error) {
	_, err := m.store.FindByName(name)
	if err == nil {
		return nil, core.NewValidationError("session name %q already exists", name)
	}
	if !core.IsNotFound(err) {
		return nil, err
	}
	return m.create(name, documentSummary)
}

func (m *Manager) create(name, documentSummary string) (*core.Session, error) {
	if strings.TrimSpace(name) == "" {
		return nil, core.NewValidationError("session name must not be empty")
	}
	sess := core.NewSession(name, documentSummary, m.clock.Now())
	if err := m.store.Save(sess); err != nil {
		return nil, err
	}
	m.logger.Info("created session",
		"name", name,
		"session_id", sess.SessionID,
		"conversation_id", sess.ConversationID,
	)
	return sess, nil
}

// Open loads a session by id.
func (m *Manager) Open(sessionID string) (*core.Session, error) {
	return m.store.Load(sessionID)
}

// Find loads a session by name.
func (m *Manager) Find(name string) (*core.Session, error) {
	return m.store.FindByName(name)
}

// List returns per-name summaries of all stored sessions.
func (m *Manager) List() ([]core.Summary, error) {
	return m.store.List()
}

// SetWindowSize changes how many pairs the session sends as context on
// subsequent requests. Stored history is never truncated.
func (m *Manager) SetWindowSize(sess *core.Session, pairs int) error {
	if pairs <= 0 {
		return core.NewValidationError("window size must be positive, got %d", pairs)
	}
	sess.WindowSize = pairs
	return m.store.Save(sess)
}

// Usage returns the session's accumulated token and cost totals.
func (m *Manager) Usage(sess *core.Session) core.UsageSummary {
	return m.tracker.Summary(sess)
}

// Ask sends a question in the session's context and returns the answer
// text. The flow is: select the context window, allocate the next
// prompt id, invoke the endpoint, account usage, append the tagged
// pair and persist. A failed invocation leaves stored history
// untouched.
func (m *Manager) Ask(ctx context.Context, sess *core.Session, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", core.NewValidationError("question must not be empty")
	}

	window := sess.ContextWindow()
	promptID := sess.NextPromptID()

	q, err := core.NewMessage(core.RoleUser, question, promptID)
	if err != nil {
		return "", err
	}

	req := core.Request{
		System:    m.systemPrompt(sess),
		Messages:  append(window, q),
		MaxTokens: m.maxTokens,
	}

	resp, err := m.endpoint.Send(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ask %s: %w", promptID, err)
	}

	a, err := core.NewMessage(core.RoleAssistant, resp.Text, promptID)
	if err != nil {
		return "", err
	}

	if err := m.tracker.Track(sess, resp.Usage); err != nil {
		return "", err
	}

	sess.AppendPair(q, a)
	if err := m.store.Save(sess); err != nil {
		return "", err
	}

	m.logger.Debug("completed pair",
		"name", sess.Name,
		"prompt_id", promptID,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp.Text, nil
}
