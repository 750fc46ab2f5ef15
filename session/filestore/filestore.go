// Package filestore implements session.Store on the local filesystem,
// one JSON file per session key, written atomically via a temp-file
// rename. Grounded on the teacher's checkpoint/store FileStore.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/voocel/mas/memory"
	"github.com/voocel/mas/session"
)

// Store is a directory of one file per session key.
type Store struct {
	basePath string
	mu       sync.Mutex
}

// New creates a Store rooted at basePath, creating the directory if it
// doesn't already exist.
func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create base directory %s: %w", basePath, err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) Save(ctx context.Context, key string, mem memory.Memory) error {
	data, err := session.Encode(mem)
	if err != nil {
		return fmt.Errorf("filestore: encode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.keyToPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("filestore: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("filestore: rename temp file: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string, mem memory.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("filestore: session %q not found", key)
		}
		return fmt.Errorf("filestore: read: %w", err)
	}
	return session.Decode(data, mem)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.keyToPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: delete: %w", err)
	}
	return nil
}

func (s *Store) keyToPath(key string) string {
	safe := strings.ReplaceAll(key, ":", string(filepath.Separator))
	return filepath.Join(s.basePath, safe+".json")
}

var _ session.Store = (*Store)(nil)
