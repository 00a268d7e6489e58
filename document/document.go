// Package document loads source documents for a conversation and
// fingerprints their state. The fingerprint is stored on branches so a
// branch can later detect that the underlying documents changed.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/logging"
)

// Compile-time assertion.
var _ core.DocumentStore = (*DirStore)(nil)

// DirStoreOptions configures a DirStore.
type DirStoreOptions struct {
	// Extensions filters which files are loaded. Defaults to .md and .txt.
	Extensions []string

	// Logger for skipped entries.
	Logger logging.Logger
}

// DirStore loads documents from a flat directory, one document per file.
type DirStore struct {
	exts   map[string]struct{}
	logger logging.Logger
}

// NewDirStore creates a document store reading from directories passed
// to LoadDocuments.
func NewDirStore(optFns ...func(o *DirStoreOptions)) *DirStore {
	opts := DirStoreOptions{
		Extensions: []string{".md", ".txt"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &DirStore{
		exts:   exts,
		logger: logging.OrNoOp(opts.Logger),
	}
}

// LoadDocuments returns a filename to content map for every matching
// file directly under dir. Subdirectories are skipped.
func (d *DirStore) LoadDocuments(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &core.StorageError{Op: "scan", Key: dir, Err: err}
	}

	docs := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := d.exts[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			d.logger.Warn("skipping unreadable document", "file", entry.Name(), "error", err)
			continue
		}
		docs[entry.Name()] = string(data)
	}
	return docs, nil
}

// Fingerprint computes a deterministic hash of a document set. Equal
// maps always produce equal fingerprints regardless of load order.
func Fingerprint(docs map[string]string) string {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(docs[name]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
