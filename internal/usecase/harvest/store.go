package harvest

import (
	"sync"

	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
)

// Store is the append-only, ordered result store of one run.
// Only the run's control flow appends; readers may list concurrently.
type Store struct {
	mu      sync.RWMutex
	records []keyword.Record
	index   map[string]int
}

// NewStore creates an empty result store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Append adds records in order. A record whose id is already stored is
// dropped, so the store never holds two records with equal ids.
func (s *Store) Append(records []keyword.Record) int {
	if len(records) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range records {
		if _, ok := s.index[r.ID()]; ok {
			continue
		}
		s.index[r.ID()] = len(s.records)
		s.records = append(s.records, r)
		added++
	}
	return added
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// List returns a copy of the records matching the filter, in insertion order.
func (s *Store) List(f keyword.Filter) []keyword.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := f.Apply(s.records)
	out := make([]keyword.Record, len(matched))
	copy(out, matched)
	return out
}

// Get returns a record by id.
func (s *Store) Get(id string) (keyword.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return keyword.Record{}, false
	}
	return s.records[i], true
}

// Discovered returns up to limit keywords in insertion order, skipping the
// keyword equal to exclude (the normalized seed).
func (s *Store) Discovered(limit int, exclude string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, limit)
	for _, r := range s.records {
		if len(out) >= limit {
			break
		}
		if r.Keyword() == exclude {
			continue
		}
		out = append(out, r.Keyword())
	}
	return out
}

// SetIntents merges intent labels keyed by keyword into matching records'
// metadata. Identity fields are never touched. Returns the number of records updated.
func (s *Store) SetIntents(labels map[string]string) int {
	if len(labels) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for kw, intent := range labels {
		i, ok := s.index[keyword.ID(keyword.Normalize(kw))]
		if !ok || intent == "" {
			continue
		}
		s.records[i] = s.records[i].WithIntent(intent)
		updated++
	}
	return updated
}
