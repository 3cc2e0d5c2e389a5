// Package uploads stages image files selected in the browser before a form
// is submitted. Staged files exist only until the owning form submits or the
// session is discarded; previews are data URLs generated at staging time.
//
// Invariant: the file list and the preview list of a session are always the
// same length and position-aligned.
package uploads

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StagedFile describes one staged image.
type StagedFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`

	blobPath string
}

// Store owns the staging directory and the live sessions.
type Store struct {
	root string

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates a staging store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("uploads: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create root: %w", err)
	}
	return &Store{root: abs, sessions: make(map[string]*Session)}, nil
}

// NewSession creates an empty staging session.
func (s *Store) NewSession() *Session {
	sess := &Session{
		id:    uuid.NewString(),
		store: s,
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// Session returns the live session with the given id.
func (s *Store) Session(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Store) drop(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Session is one form's staged file set.
type Session struct {
	id    string
	store *Store

	mu       sync.Mutex
	files    []StagedFile
	previews []string
}

// ID returns the session identifier handed back to the browser.
func (sess *Session) ID() string { return sess.id }

// Add stages one file: the content type is sniffed and must be an image,
// the blob is written to disk, and a data-URL preview is appended alongside
// the file entry.
func (sess *Session) Add(name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("uploads: read %s: %w", name, err)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("uploads: %s is %s, only images can be staged", name, ct)
	}

	dir := filepath.Join(sess.store.root, sess.id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("uploads: create session dir: %w", err)
	}
	blob := filepath.Join(dir, uuid.NewString())
	if err := writeAtomic(blob, data); err != nil {
		return "", err
	}

	preview := "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data)

	sess.mu.Lock()
	sess.files = append(sess.files, StagedFile{
		Name:        name,
		ContentType: ct,
		Size:        int64(len(data)),
		blobPath:    blob,
	})
	sess.previews = append(sess.previews, preview)
	sess.mu.Unlock()

	return preview, nil
}

// Files returns a copy of the staged file list.
func (sess *Session) Files() []StagedFile {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]StagedFile, len(sess.files))
	copy(out, sess.files)
	return out
}

// Previews returns a copy of the preview list, aligned with Files.
func (sess *Session) Previews() []string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]string, len(sess.previews))
	copy(out, sess.previews)
	return out
}

// Read returns the blob bytes of the staged file at index i.
func (sess *Session) Read(i int) ([]byte, error) {
	sess.mu.Lock()
	if i < 0 || i >= len(sess.files) {
		sess.mu.Unlock()
		return nil, fmt.Errorf("uploads: index %d out of range", i)
	}
	path := sess.files[i].blobPath
	sess.mu.Unlock()
	return os.ReadFile(path)
}

// Remove drops the staged file at index i from both lists and deletes its
// blob, preserving the alignment of the remaining entries.
func (sess *Session) Remove(i int) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if i < 0 || i >= len(sess.files) {
		return fmt.Errorf("uploads: index %d out of range", i)
	}
	blob := sess.files[i].blobPath
	sess.files = append(sess.files[:i], sess.files[i+1:]...)
	sess.previews = append(sess.previews[:i], sess.previews[i+1:]...)
	if err := os.Remove(blob); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("uploads: remove blob: %w", err)
	}
	return nil
}

// Discard deletes every staged blob and retires the session. Called on both
// successful submit (after the files are forwarded) and cancel.
func (sess *Session) Discard() {
	sess.mu.Lock()
	sess.files = nil
	sess.previews = nil
	sess.mu.Unlock()

	_ = os.RemoveAll(filepath.Join(sess.store.root, sess.id))
	sess.store.drop(sess.id)
}

// writeAtomic writes data via tmp file then rename so a crash never leaves a
// truncated blob behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".staged-*")
	if err != nil {
		return fmt.Errorf("uploads: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("uploads: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("uploads: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("uploads: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("uploads: rename: %w", err)
	}
	success = true
	return nil
}
