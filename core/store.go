package core

// Summary is the per-name listing record exposed by SessionStore.List:
// one entry per distinct conversation name with its completed pair count.
type Summary struct {
	Name         string `json:"name"`
	MessageCount int    `json:"message_count"`
}

// SessionStore persists full session snapshots keyed by session id and
// resolves names to sessions.
//
// Name resolution is scan-based (first match wins) and linear over all
// persisted snapshots, acceptable at tens to hundreds of sessions. The
// uniqueness check is not atomic with creation; concurrent creation of the
// same name is unresolved by design.
type SessionStore interface {
	// Save writes the full snapshot keyed by session id, refreshing
	// LastAccessed.
	Save(session *Session) error
	// Load returns the snapshot for the id or an error wrapping
	// ErrNotFound.
	Load(sessionID string) (*Session, error)
	// FindByName scans persisted snapshots for the first name match, or an
	// error wrapping ErrNotFound.
	FindByName(name string) (*Session, error)
	// List returns per-name summaries, deduplicated, sorted by name.
	List() ([]Summary, error)
}
