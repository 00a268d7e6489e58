package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/logging"
)

// FileStore persists one JSON document per session id under a single
// directory:
//
//	<dir>/<session_id>.json
//
// Name resolution and listing scan every document; corrupt files are
// skipped with a warning, never fatal. The store serializes its own file
// access, but name-uniqueness checks are not atomic with creation.
type FileStore struct {
	dir    string
	clock  core.Clock
	logger logging.Logger
	mu     sync.Mutex
}

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	Clock  core.Clock
	Logger logging.Logger
}

// NewFileStore creates a store rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string, optFns ...func(o *FileStoreOptions)) (*FileStore, error) {
	opts := FileStoreOptions{
		Clock:  core.SystemClock(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &core.StorageError{Op: "init", Key: dir, Err: err}
	}
	return &FileStore{dir: dir, clock: opts.Clock, logger: logging.OrNoOp(opts.Logger)}, nil
}

func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Save writes the full snapshot keyed by session id, refreshing
// LastAccessed. The write is all-or-nothing from the caller's point of
// view: marshal and write failures surface as StorageError with no partial
// commit left behind on the happy path.
func (s *FileStore) Save(session *core.Session) error {
	if session == nil || session.SessionID == "" {
		return core.NewValidationError("cannot save session without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	session.LastAccessed = s.clock.Now()
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return &core.StorageError{Op: "save", Key: session.SessionID, Err: err}
	}
	if err := os.WriteFile(s.path(session.SessionID), data, 0o644); err != nil {
		return &core.StorageError{Op: "save", Key: session.SessionID, Err: err}
	}
	s.logger.Debug("session saved", "session_id", session.SessionID, "name", session.Name)
	return nil
}

// Load returns the snapshot for the id, normalized, or an error wrapping
// core.ErrNotFound.
func (s *FileStore) Load(sessionID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(sessionID)
}

func (s *FileStore) loadLocked(sessionID string) (*core.Session, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %q: %w", sessionID, core.ErrNotFound)
		}
		return nil, &core.StorageError{Op: "load", Key: sessionID, Err: err}
	}
	var sess core.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &core.StorageError{Op: "load", Key: sessionID, Err: err}
	}
	sess.Normalize()
	return &sess, nil
}

// FindByName scans persisted snapshots for the first name match. Corrupt
// snapshots are logged and skipped.
func (s *FileStore) FindByName(name string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.sessionIDsLocked()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		sess, err := s.loadLocked(id)
		if err != nil {
			s.logger.Warn("skipping invalid session file", "session_id", id, "error", err)
			continue
		}
		if sess.Name == name {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("find %q: %w", name, core.ErrNotFound)
}

// List returns per-name summaries, deduplicated (first snapshot per name
// wins), sorted by name.
func (s *FileStore) List() ([]core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.sessionIDsLocked()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	summaries := make([]core.Summary, 0, len(ids))
	for _, id := range ids {
		sess, err := s.loadLocked(id)
		if err != nil {
			s.logger.Warn("skipping invalid session file", "session_id", id, "error", err)
			continue
		}
		if seen[sess.Name] {
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

func (s *FileStore) sessionIDsLocked() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &core.StorageError{Op: "scan", Key: s.dir, Err: err}
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}
