// Package storage provides durable key-value backends and the typed
// session adapter layered on top of them.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/you/uploaddoc/domain"
)

// FileStore is a KeyValueStore backed by a single JSON file. Writes go
// through a temp file and rename so a crash mid-write never corrupts
// the existing records.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at path, creating parent
// directories as needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Set implements domain.KeyValueStore.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records[key] = value
	return s.save(records)
}

// Get implements domain.KeyValueStore.
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := records[key]
	if !ok {
		return "", domain.ErrRecordNotFound
	}
	return value, nil
}

// Delete implements domain.KeyValueStore. Deleting a missing key is not
// an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[key]; !ok {
		return nil
	}
	delete(records, key)
	return s.save(records)
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	records := map[string]string{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing store file: %w", err)
	}
	return records, nil
}

func (s *FileStore) save(records map[string]string) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}
