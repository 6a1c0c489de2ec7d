// Package checkpoint persists per-task collection progress so a multi-hour
// run can resume after a crash or cancellation without re-fetching.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Status of a checkpointed task.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Checkpoint is the durable progress marker for one task. Platform and
// Target are redundant with the key but keep the file readable during
// operational debugging.
type Checkpoint struct {
	TaskKey          string    `json:"task_key"`
	Platform         string    `json:"platform"`
	Target           string    `json:"target"`
	Cursor           string    `json:"cursor"`
	RecordsCollected int       `json:"records_collected"`
	Status           Status    `json:"status"`
	LastUpdatedAt    time.Time `json:"last_updated_at"`
}

// Store is what the engine needs from checkpoint persistence.
type Store interface {
	// Load returns the checkpoint for a task key, or nil if none exists.
	Load(taskKey string) (*Checkpoint, error)

	// Save persists a checkpoint, replacing any previous one.
	Save(cp *Checkpoint) error

	// MarkCompleted flips the stored status to completed, keeping cursor
	// and counts for the summary.
	MarkCompleted(taskKey string) error

	// MarkFailed flips the stored status to failed without touching the
	// last good cursor.
	MarkFailed(taskKey string) error
}

// FileStore keeps every checkpoint in one human-inspectable JSON file, a map
// of task_key to checkpoint. Saves rewrite the whole map through a temp file
// and rename so a crash mid-write never truncates it.
type FileStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	byKey  map[string]*Checkpoint
}

// NewFileStore creates a store backed by path. The file is created on first
// save; a missing file reads as empty.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, byKey: make(map[string]*Checkpoint)}
}

func (s *FileStore) Load(taskKey string) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	cp, ok := s.byKey[taskKey]
	if !ok {
		return nil, nil
	}
	cpy := *cp
	return &cpy, nil
}

func (s *FileStore) Save(cp *Checkpoint) error {
	if cp.TaskKey == "" {
		return fmt.Errorf("checkpoint missing task key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}
	cpy := *cp
	cpy.LastUpdatedAt = time.Now().UTC()
	s.byKey[cp.TaskKey] = &cpy
	return s.flush()
}

func (s *FileStore) MarkCompleted(taskKey string) error {
	return s.setStatus(taskKey, StatusCompleted)
}

func (s *FileStore) MarkFailed(taskKey string) error {
	return s.setStatus(taskKey, StatusFailed)
}

func (s *FileStore) setStatus(taskKey string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return err
	}
	cp, ok := s.byKey[taskKey]
	if !ok {
		cp = &Checkpoint{TaskKey: taskKey}
		s.byKey[taskKey] = cp
	}
	cp.Status = status
	cp.LastUpdatedAt = time.Now().UTC()
	return s.flush()
}

func (s *FileStore) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read checkpoints: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.byKey); err != nil {
			return fmt.Errorf("parse checkpoints %s: %w", s.path, err)
		}
	}
	s.loaded = true
	return nil
}

// flush writes the whole map atomically. Caller holds the lock.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.byKey, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".checkpoints-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
