// Package file keeps the session pair in a single JSON file on local disk,
// the default backend for a desktop-style client.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tiendita/storefront/internal/core/ports"
)

const filePerm = 0o600

// SessionStorage writes both halves of the pair into one file. Writes go to
// a temporary file that is renamed over the target, so a reader never sees
// half of a pair.
type SessionStorage struct {
	path string
	mu   sync.Mutex
}

// NewSessionStorage stores the pair at path. Parent directories are created
// on first save.
func NewSessionStorage(path string) *SessionStorage {
	return &SessionStorage{path: path}
}

func (s *SessionStorage) Load(_ context.Context) (ports.StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ports.StoredSession{}, nil
	}
	if err != nil {
		return ports.StoredSession{}, fmt.Errorf("read session file: %w", err)
	}

	var stored ports.StoredSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return ports.StoredSession{}, fmt.Errorf("decode session file: %w", err)
	}
	return stored, nil
}

func (s *SessionStorage) Save(_ context.Context, stored ports.StoredSession) error {
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear removes the file. A missing file is already clear.
func (s *SessionStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Path returns the file backing this storage.
func (s *SessionStorage) Path() string { return s.path }
