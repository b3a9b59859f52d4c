package attendance

import (
	"context"
	"sort"
	"sync"
)

// MemStore はプロセス内のストア。CLI の試用とテストで使う。
type MemStore struct {
	mu   sync.RWMutex
	recs []Record
}

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Insert(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, r.clone())
	return nil
}

func (m *MemStore) Find(_ context.Context, p Predicate) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.recs {
		if p.Match(r) {
			out = append(out, r.clone())
		}
	}
	return out, nil
}

func (m *MemStore) DeleteFirst(_ context.Context, p Predicate) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.recs {
		if !p.Match(r) {
			continue
		}
		m.recs = append(m.recs[:i:i], m.recs[i+1:]...)
		return r, true, nil
	}
	return Record{}, false, nil
}

// UpdateMatching は作業コピーに fn を適用してから差し替える。
func (m *MemStore) UpdateMatching(_ context.Context, p Predicate, fn func(*Record) (bool, error)) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		out     []Record
		changed = map[int]Record{}
	)
	for i, r := range m.recs {
		if !p.Match(r) {
			continue
		}
		work := r.clone()
		ok, err := fn(&work)
		if err != nil {
			return nil, err
		}
		if ok {
			changed[i] = work
		}
		out = append(out, work.clone())
	}
	for i, r := range changed {
		m.recs[i] = r
	}
	return out, nil
}

func (m *MemStore) ListRecent(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.recs))
	for _, r := range m.recs {
		out = append(out, r.clone())
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MemStore) AbsentSummary(_ context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]int{}
	for _, r := range m.recs {
		out[r.ClassName] += len(r.AbsentStudents())
	}
	return out, nil
}
