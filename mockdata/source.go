package mockdata

import (
	"context"
	"sync"
	"time"

	"opsecho/models"
)

// Source serves freshly generated snapshots
type Source struct {
	mutex sync.Mutex
	gen   *Generator
	now   func() time.Time
}

// NewSource creates a synthetic data source; a zero seed is time-seeded
func NewSource(seed int64, now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{gen: New(seed), now: now}
}

// Name identifies the source in logs
func (s *Source) Name() string {
	return "mock"
}

// Load generates a new snapshot on every call
func (s *Source) Load(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.gen.Generate(s.now()), nil
}
