package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type fileState struct {
	Sessions map[string]Record `json:"sessions"`
}

// FileRepo keeps every session in one JSON document under dataDir and writes
// it through on each change.
type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := &FileRepo{
		path: filepath.Join(dataDir, "sessions.json"),
		s:    fileState{Sessions: map[string]Record{}},
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) Path() string { return r.path }

func (r *FileRepo) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.s = fileState{Sessions: map[string]Record{}}
			return nil
		}
		return err
	}

	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("decode %s: %w", r.path, err)
	}
	if loaded.Sessions == nil {
		loaded.Sessions = map[string]Record{}
	}
	r.s = loaded
	return nil
}

// saveLocked writes to a temp file first so a crash never leaves a torn document.
func (r *FileRepo) saveLocked() error {
	b, err := json.MarshalIndent(r.s, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

func (r *FileRepo) Get(ctx context.Context, id string) (Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.s.Sessions[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (r *FileRepo) Put(ctx context.Context, rec Record) error {
	_ = ctx
	if rec.ID == "" {
		return fmt.Errorf("progress: record id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, had := r.s.Sessions[rec.ID]
	r.s.Sessions[rec.ID] = rec.Clone()
	if err := r.saveLocked(); err != nil {
		if had {
			r.s.Sessions[rec.ID] = prev
		} else {
			delete(r.s.Sessions, rec.ID)
		}
		return err
	}
	return nil
}

func (r *FileRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.s.Sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.s.Sessions, id)
	if err := r.saveLocked(); err != nil {
		r.s.Sessions[id] = prev
		return err
	}
	return nil
}

func (r *FileRepo) List(ctx context.Context) ([]Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedRecords(r.s.Sessions), nil
}
