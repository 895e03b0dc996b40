package progress

import (
	"context"
	"errors"
	"time"

	"villagenird/internal/simulation"
)

var ErrNotFound = errors.New("session snapshot not found")

// Record is a persisted session.
type Record struct {
	ID         string              `json:"id"`
	Difficulty string              `json:"difficulty,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
	Snapshot   simulation.Snapshot `json:"snapshot"`
}

type Repository interface {
	Get(ctx context.Context, id string) (Record, error)
	Put(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Record, error)
}

// Clone returns a copy that shares no history with r.
func (r Record) Clone() Record {
	r.Snapshot.History = append([]simulation.YearRecord(nil), r.Snapshot.History...)
	return r
}
