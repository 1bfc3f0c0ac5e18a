package harvest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
	"github.com/kailas-cloud/kwharvest/internal/domain/options"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
	"github.com/kailas-cloud/kwharvest/internal/domain/run"
)

func newTestService(f Fetcher) *Service {
	return New(noPacing(NewScheduler(f, nil)), nil).WithSettle(time.Hour)
}

func searchOpts(seed string, s options.Strategies) options.SearchOptions {
	return options.SearchOptions{
		Seed:       seed,
		Locale:     "IR",
		Providers:  []provider.ID{provider.Google},
		Strategies: s,
	}
}

func wait(t *testing.T, r *Run) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
}

func TestService_StartValidation(t *testing.T) {
	svc := newTestService(newFakeFetcher())

	_, err := svc.Start(context.Background(), searchOpts("   ", options.Strategies{}))
	if !errors.Is(err, domain.ErrEmptySeed) {
		t.Errorf("empty seed: got %v", err)
	}

	o := searchOpts("shoes", options.Strategies{})
	o.Providers = nil
	_, err = svc.Start(context.Background(), o)
	if !errors.Is(err, domain.ErrNoProviders) {
		t.Errorf("no providers: got %v", err)
	}

	o.Providers = []provider.ID{"altavista"}
	_, err = svc.Start(context.Background(), o)
	if !errors.Is(err, domain.ErrInvalidOptions) {
		t.Errorf("unknown provider: got %v", err)
	}
	if len(svc.List(context.Background())) != 0 {
		t.Error("rejected runs must not be tracked")
	}
}

func TestService_RunCompletes(t *testing.T) {
	f := newFakeFetcher().answer(provider.Google, "gift a", "giftcard")
	svc := newTestService(f)

	r, err := svc.Start(context.Background(), searchOpts("gift", options.Strategies{EnglishSuffix: true}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	wait(t, r)

	st := r.State()
	if st.Status != run.StatusCompleted || st.Progress != 100 {
		t.Errorf("state = %+v", st)
	}
	if r.Outcome() != run.StatusCompleted {
		t.Errorf("outcome = %s", r.Outcome())
	}
	if completed, total := r.Counts(); completed != 27 || total != 27 {
		t.Errorf("counts = %d/%d", completed, total)
	}
	if r.Store().Len() != 1 {
		t.Errorf("records = %d", r.Store().Len())
	}
}

func TestService_SettleReturnsToIdle(t *testing.T) {
	svc := newTestService(newFakeFetcher()).WithSettle(0)

	r, err := svc.Start(context.Background(), searchOpts("gift", options.Strategies{}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	wait(t, r)

	deadline := time.Now().Add(time.Second)
	for r.State().Status != run.StatusIdle && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	st := r.State()
	if st.Status != run.StatusIdle || st.Progress != 0 {
		t.Errorf("state after settle = %+v", st)
	}
	if r.Outcome() != run.StatusCompleted {
		t.Errorf("outcome lost after settle: %s", r.Outcome())
	}
}

func TestService_Cancel(t *testing.T) {
	f := newFakeFetcher().blocking()
	svc := newTestService(f)

	r, err := svc.Start(context.Background(), searchOpts("gift", options.Strategies{EnglishSuffix: true}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for range 3 {
		<-f.started
	}
	if _, err := svc.Cancel(context.Background(), r.ID()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	close(f.release)
	wait(t, r)

	if r.Outcome() != run.StatusCancelled {
		t.Errorf("outcome = %s", r.Outcome())
	}
	if r.Store().Len() != 0 {
		t.Errorf("records after cancel = %d", r.Store().Len())
	}
	if _, err := svc.Cancel(context.Background(), r.ID()); !errors.Is(err, domain.ErrRunNotActive) {
		t.Errorf("second cancel: got %v", err)
	}
}

func TestService_StartIgnoresCallerCancellation(t *testing.T) {
	svc := newTestService(newFakeFetcher())
	ctx, cancel := context.WithCancel(context.Background())

	r, err := svc.Start(ctx, searchOpts("gift", options.Strategies{EnglishSuffix: true}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	wait(t, r)

	if r.Outcome() != run.StatusCompleted {
		t.Errorf("outcome = %s, run must outlive the request context", r.Outcome())
	}
}

func TestService_DeepFollowUp(t *testing.T) {
	f := newFakeFetcher().
		answer(provider.Google, "gift", "gift", "gift card", "gift box").
		answer(provider.Google, "gift card", "gift card balance")
	svc := newTestService(f).WithDeepLimit(5)

	r, err := svc.Start(context.Background(), searchOpts("gift", options.Strategies{Deep: true}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	wait(t, r)

	q := f.queries()
	if q["gift card"] != 1 || q["gift box"] != 1 {
		t.Errorf("follow-up queries = %v", q)
	}
	if q["gift"] != 1 {
		t.Errorf("seed must not be re-queried, got %d", q["gift"])
	}

	deep, ok := r.Store().Get(keyword.ID("gift card balance"))
	if !ok {
		t.Fatal("follow-up keyword missing")
	}
	if deep.Tag() != query.TagDeepFollowUp || deep.Parent() != "gift card" {
		t.Errorf("deep record = %s/%q", deep.Tag(), deep.Parent())
	}
	if completed, total := r.Counts(); completed != 3 || total != 3 {
		t.Errorf("counts = %d/%d, total must shrink to actual follow-up size", completed, total)
	}
	if r.State().Progress != 100 {
		t.Errorf("progress = %v", r.State().Progress)
	}
}

func TestService_GetUnknown(t *testing.T) {
	svc := newTestService(newFakeFetcher())
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("got %v", err)
	}

	svc.WithSnapshots(newMemSnapshots())
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("with snapshots: got %v", err)
	}
}

func TestService_SnapshotRestore(t *testing.T) {
	snaps := newMemSnapshots()
	f := newFakeFetcher().answer(provider.Google, "gift", "gift card")

	first := newTestService(f).WithSnapshots(snaps)
	r, err := first.Start(context.Background(), searchOpts("gift", options.Strategies{}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	wait(t, r)

	second := newTestService(f).WithSnapshots(snaps)
	got, err := second.Get(context.Background(), r.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Outcome() != run.StatusCompleted || got.Active() {
		t.Errorf("restored run outcome = %s active = %v", got.Outcome(), got.Active())
	}
	if got.Store().Len() != 1 {
		t.Errorf("restored records = %d", got.Store().Len())
	}
}

func TestService_ListIncludesPersistedRuns(t *testing.T) {
	snaps := newMemSnapshots()
	f := newFakeFetcher()
	first := newTestService(f).WithSnapshots(snaps)

	var ids []string
	for range 2 {
		r, err := first.Start(context.Background(), searchOpts("gift", options.Strategies{}))
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		wait(t, r)
		ids = append(ids, r.ID())
	}

	// A restarted process sees both runs; a run in memory is listed once.
	second := newTestService(f).WithSnapshots(snaps)
	r, err := second.Start(context.Background(), searchOpts("gift", options.Strategies{}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	wait(t, r)

	list := second.List(context.Background())
	if len(list) != 3 {
		t.Fatalf("listed = %d, want 3", len(list))
	}
	seen := map[string]bool{}
	for _, got := range list {
		seen[got.ID()] = true
	}
	if !seen[ids[0]] || !seen[ids[1]] || !seen[r.ID()] {
		t.Errorf("missing runs: %v", seen)
	}
}

func TestService_Delete(t *testing.T) {
	snaps := newMemSnapshots()
	f := newFakeFetcher().blocking()
	svc := newTestService(f).WithSnapshots(snaps)

	r, err := svc.Start(context.Background(), searchOpts("gift", options.Strategies{}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-f.started
	if err := svc.Delete(context.Background(), r.ID()); !errors.Is(err, domain.ErrRunActive) {
		t.Errorf("active run: got %v", err)
	}
	close(f.release)
	wait(t, r)

	if err := svc.Delete(context.Background(), r.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), r.ID()); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("deleted run still retrievable: %v", err)
	}
	if err := svc.Delete(context.Background(), r.ID()); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("second delete: got %v", err)
	}
}

func TestService_DeleteWithoutSnapshots(t *testing.T) {
	svc := newTestService(newFakeFetcher())
	r, err := svc.Start(context.Background(), searchOpts("gift", options.Strategies{}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	wait(t, r)

	if err := svc.Delete(context.Background(), r.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(svc.List(context.Background())) != 0 {
		t.Error("deleted run still listed")
	}
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("unknown run: got %v", err)
	}
}

func TestService_RetentionEvictsFinishedRuns(t *testing.T) {
	svc := newTestService(newFakeFetcher()).WithMaxRuns(2)

	var ids []string
	for range 3 {
		r, err := svc.Start(context.Background(), searchOpts("gift", options.Strategies{}))
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		wait(t, r)
		ids = append(ids, r.ID())
	}

	list := svc.List(context.Background())
	if len(list) != 2 {
		t.Fatalf("retained = %d, want 2", len(list))
	}
	if _, err := svc.Get(context.Background(), ids[0]); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("oldest run should be evicted, got %v", err)
	}
}

func TestService_Shutdown(t *testing.T) {
	f := newFakeFetcher().blocking()
	svc := newTestService(f)

	r, err := svc.Start(context.Background(), searchOpts("gift", options.Strategies{EnglishSuffix: true}))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-f.started
	go func() {
		for range 2 {
			<-f.started
		}
		close(f.release)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if r.Outcome() != run.StatusCancelled {
		t.Errorf("outcome = %s", r.Outcome())
	}
}
