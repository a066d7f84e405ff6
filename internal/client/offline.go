package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	stdsync "sync"

	batch "github.com/katachi/katachi/internal/sync"
)

// MemoryOfflineStore keeps diverted operations in memory. Good enough
// for short network blips; use FileOfflineStore to survive restarts.
type MemoryOfflineStore struct {
	mu  stdsync.Mutex
	ops []batch.Operation
}

func NewMemoryOfflineStore() *MemoryOfflineStore {
	return &MemoryOfflineStore{}
}

func (s *MemoryOfflineStore) Save(ops []batch.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, ops...)
	return nil
}

func (s *MemoryOfflineStore) Drain() ([]batch.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.ops
	s.ops = nil
	return ops, nil
}

// FileOfflineStore persists diverted operations as a JSON file so edits
// made offline survive a process restart.
type FileOfflineStore struct {
	mu   stdsync.Mutex
	path string
}

func NewFileOfflineStore(path string) *FileOfflineStore {
	return &FileOfflineStore{path: path}
}

func (s *FileOfflineStore) Save(ops []batch.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readLocked()
	if err != nil {
		return fmt.Errorf("offline.Save: %w", err)
	}
	existing = append(existing, ops...)

	raw, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("offline.Save: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("offline.Save: %w", err)
	}
	return nil
}

func (s *FileOfflineStore) Drain() ([]batch.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops, err := s.readLocked()
	if err != nil {
		return nil, fmt.Errorf("offline.Drain: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("offline.Drain: %w", err)
	}
	return ops, nil
}

func (s *FileOfflineStore) readLocked() ([]batch.Operation, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ops []batch.Operation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}
