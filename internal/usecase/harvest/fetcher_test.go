package harvest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
)

var errNoSnapshot = fmt.Errorf("snapshot: %w", domain.ErrRunNotFound)

// --- Mocks ---

type fetchCall struct {
	provider provider.ID
	req      provider.Request
}

type fakeFetcher struct {
	mu      sync.Mutex
	answers map[provider.ID]map[string][]string
	calls   []fetchCall
	started chan struct{}
	release chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{answers: make(map[provider.ID]map[string][]string)}
}

func (f *fakeFetcher) answer(id provider.ID, q string, suggestions ...string) *fakeFetcher {
	if f.answers[id] == nil {
		f.answers[id] = make(map[string][]string)
	}
	f.answers[id][q] = suggestions
	return f
}

// blocking makes every fetch signal started and wait for release.
func (f *fakeFetcher) blocking() *fakeFetcher {
	f.started = make(chan struct{}, 64)
	f.release = make(chan struct{})
	return f
}

func (f *fakeFetcher) Fetch(_ context.Context, id provider.ID, req provider.Request) []string {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{provider: id, req: req})
	out := f.answers[id][req.Query]
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
		<-f.release
	}
	return out
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) queries() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int)
	for _, c := range f.calls {
		out[c.req.Query]++
	}
	return out
}

type memSnapshots struct {
	mu    sync.Mutex
	saved map[string]Snapshot
}

func newMemSnapshots() *memSnapshots { return &memSnapshots{saved: make(map[string]Snapshot)} }

func (m *memSnapshots) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[snap.ID] = snap
	return nil
}

func (m *memSnapshots) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saved[id]; !ok {
		return errNoSnapshot
	}
	delete(m.saved, id)
	return nil
}

func (m *memSnapshots) IDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.saved))
	for id := range m.saved {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memSnapshots) Load(_ context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saved[id]
	if !ok {
		return Snapshot{}, errNoSnapshot
	}
	return s, nil
}
