package progress

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{recs: map[string]Record{}}
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recs[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (r *MemoryRepo) Put(ctx context.Context, rec Record) error {
	_ = ctx
	if rec.ID == "" {
		return fmt.Errorf("progress: record id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs[rec.ID] = rec.Clone()
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.recs, id)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedRecords(r.recs), nil
}

func sortedRecords(m map[string]Record) []Record {
	out := make([]Record, 0, len(m))
	for _, rec := range m {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
