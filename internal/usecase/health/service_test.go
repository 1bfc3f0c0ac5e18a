package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockAnalyzerChecker struct {
	err   error
	calls int
}

func (m *mockAnalyzerChecker) HealthCheck(_ context.Context) error {
	m.calls++
	return m.err
}

type deadlineChecker struct {
	hasDeadline bool
}

func (d *deadlineChecker) Ping(ctx context.Context) error {
	_, d.hasDeadline = ctx.Deadline()
	return nil
}

// --- Tests ---

func TestCheck_Table(t *testing.T) {
	tests := []struct {
		name     string
		dbErr    error
		analyzer AnalyzerChecker
		status   Status
		store    CheckResult
		checkAI  CheckResult
	}{
		{"all healthy", nil, &mockAnalyzerChecker{}, Healthy, CheckOK, CheckOK},
		{"store down", errors.New("conn refused"), &mockAnalyzerChecker{}, Degraded, CheckError, CheckOK},
		{"analyzer down", nil, &mockAnalyzerChecker{err: errors.New("timeout")}, Degraded, CheckOK, CheckError},
		{"no analyzer", nil, nil, Healthy, CheckOK, CheckDisabled},
		{"no analyzer, store down", errors.New("fail"), nil, Degraded, CheckError, CheckDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&mockDBPinger{err: tt.dbErr}, tt.analyzer).Check(context.Background())
			if r.Status != tt.status {
				t.Errorf("status: got %q, want %q", r.Status, tt.status)
			}
			if r.Checks[CheckStore] != tt.store {
				t.Errorf("store: got %q, want %q", r.Checks[CheckStore], tt.store)
			}
			if r.Checks[CheckAnalyzer] != tt.checkAI {
				t.Errorf("analyzer: got %q, want %q", r.Checks[CheckAnalyzer], tt.checkAI)
			}
		})
	}
}

func TestCheck_AnalyzerResultIsReused(t *testing.T) {
	checker := &mockAnalyzerChecker{err: errors.New("quota")}
	svc := New(&mockDBPinger{}, checker)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	svc.Check(context.Background())
	checker.err = nil
	r := svc.Check(context.Background())
	if checker.calls != 1 || r.Checks[CheckAnalyzer] != CheckError {
		t.Errorf("within ttl: calls=%d analyzer=%q", checker.calls, r.Checks[CheckAnalyzer])
	}

	now = now.Add(DefaultAnalyzerTTL)
	r = svc.Check(context.Background())
	if checker.calls != 2 || r.Checks[CheckAnalyzer] != CheckOK {
		t.Errorf("after ttl: calls=%d analyzer=%q", checker.calls, r.Checks[CheckAnalyzer])
	}
}

func TestCheck_ZeroTTLProbesEveryTime(t *testing.T) {
	checker := &mockAnalyzerChecker{}
	svc := New(&mockDBPinger{}, checker).WithAnalyzerTTL(0)
	for range 3 {
		svc.Check(context.Background())
	}
	if checker.calls != 3 {
		t.Errorf("calls = %d, want 3", checker.calls)
	}
}

func TestCheck_StoreProbeHasDeadline(t *testing.T) {
	db := &deadlineChecker{}
	New(db, nil).Check(context.Background())
	if !db.hasDeadline {
		t.Error("store ping must run under a timeout")
	}
}
