package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/model"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/metrics"
)

// MemoryStore keeps sessions in a map. Values are cloned on the way in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*model.Session)}
}

func (m *MemoryStore) SaveIfNewer(_ context.Context, s *model.Session) (bool, error) {
	if s == nil {
		return false, ErrNilSession
	}
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("save", sinceMs(start)) }()

	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[s.ID]; ok && cur.Revision >= s.Revision {
		return false, nil
	}
	m.sessions[s.ID] = s.Clone()
	metrics.UpdateStoreRecords(len(m.sessions))
	return true, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	metrics.UpdateStoreRecords(len(m.sessions))
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, recordOf(s))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) Count(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) Close() error { return nil }
