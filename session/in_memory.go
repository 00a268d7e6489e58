package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/logging"
)

// InMemoryStore is a volatile SessionStore keeping snapshots in a process
// local map. It is safe for concurrent access and best suited for tests or
// ephemeral demos. Sessions are cloned on the way in and out to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	clock    core.Clock
	logger   logging.Logger
	sessions map[string]*core.Session
	order    []string // insertion order, so scans are deterministic
}

// InMemoryStoreOptions configures an InMemoryStore.
type InMemoryStoreOptions struct {
	Clock  core.Clock
	Logger logging.Logger
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *InMemoryStoreOptions)) *InMemoryStore {
	opts := InMemoryStoreOptions{Clock: core.SystemClock()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{
		clock:    opts.Clock,
		logger:   logging.OrNoOp(opts.Logger),
		sessions: make(map[string]*core.Session),
	}
}

// Save stores a clone of the snapshot, refreshing LastAccessed.
func (s *InMemoryStore) Save(session *core.Session) error {
	if session == nil || session.SessionID == "" {
		return core.NewValidationError("cannot save session without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session.LastAccessed = s.clock.Now()
	if _, ok := s.sessions[session.SessionID]; !ok {
		s.order = append(s.order, session.SessionID)
	}
	s.sessions[session.SessionID] = session.Clone()
	s.logger.Debug("session saved", "session_id", session.SessionID, "name", session.Name)
	return nil
}

// Load returns a clone of the snapshot or an error wrapping ErrNotFound.
func (s *InMemoryStore) Load(sessionID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("load %q: %w", sessionID, core.ErrNotFound)
	}
	clone := sess.Clone()
	clone.Normalize()
	return clone, nil
}

// FindByName scans snapshots in insertion order for the first name match.
func (s *InMemoryStore) FindByName(name string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if sess, ok := s.sessions[id]; ok && sess.Name == name {
			clone := sess.Clone()
			clone.Normalize()
			return clone, nil
		}
	}
	return nil, fmt.Errorf("find %q: %w", name, core.ErrNotFound)
}

// List returns per-name summaries, deduplicated, sorted by name.
func (s *InMemoryStore) List() ([]core.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	summaries := make([]core.Summary, 0, len(s.order))
	for _, id := range s.order {
		sess, ok := s.sessions[id]
		if !ok || seen[sess.Name] {
			continue
		}
		seen[sess.Name] = true
		summaries = append(summaries, core.Summary{
			Name:         sess.Name,
			MessageCount: sess.UserMessageCount(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}
