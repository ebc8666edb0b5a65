package script

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/storage"
)

const lockTimeout = 5 * time.Second

// Store reads and writes a project's script.json under an advisory file
// lock, with atomic temp+rename writes so a crashed stage never leaves a
// half-written script.
type Store struct {
	project Project
	lock    *storage.FileLock
}

// NewStore creates a store for the given project. The lock is held for
// the lifetime of the store; call Close when done.
func NewStore(project Project) (*Store, error) {
	s := &Store{
		project: project,
		lock:    storage.NewFileLock(project.ScriptPath()),
	}
	if err := s.lock.Lock(lockTimeout); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the project's script. Returns storage.ErrNotFound if the
// script has not been authored yet.
func (s *Store) Load() (*Script, error) {
	data, err := os.ReadFile(s.project.ScriptPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &storage.Error{Op: "read", Entity: "script", Path: s.project.ScriptPath(), Err: storage.ErrNotFound}
		}
		return nil, &storage.Error{Op: "read", Entity: "script", Path: s.project.ScriptPath(), Err: err}
	}

	var sc Script
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, &storage.Error{Op: "read", Entity: "script", Path: s.project.ScriptPath(), Err: storage.ErrCorrupt}
	}
	return &sc, nil
}

// Save persists the script atomically.
func (s *Store) Save(sc *Script) error {
	return writeJSON(s.project.ScriptPath(), "script", sc)
}

// SaveUploadRecord persists an upload record next to the script, assigning
// an internal id if the record has none.
func (s *Store) SaveUploadRecord(rec *UploadRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now()
	}
	return writeJSON(s.project.UploadInfoPath(), "upload record", rec)
}

// Close releases the script lock.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

func writeJSON(path, entity string, v any) error {
	writer, err := storage.NewAtomicWriter(path)
	if err != nil {
		return &storage.Error{Op: "write", Entity: entity, Path: path, Err: err}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		writer.Abort()
		return &storage.Error{Op: "write", Entity: entity, Path: path, Err: err}
	}

	if err := writer.Commit(); err != nil {
		return &storage.Error{Op: "write", Entity: entity, Path: path, Err: err}
	}
	return nil
}
