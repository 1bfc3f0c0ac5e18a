package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure. Harvesting works without the analyzer,
	// and without the store only persistence and caching are lost.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled indicates an optional component that is not configured.
	CheckDisabled CheckResult = "disabled"
)

// Check names.
const (
	CheckStore    = "store"
	CheckAnalyzer = "analyzer"
)

// Defaults.
const (
	DefaultCheckTimeout = 2 * time.Second
	// DefaultAnalyzerTTL spaces out analyzer probes; each one is a billed model call.
	DefaultAnalyzerTTL = time.Minute
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db           DBPinger
	analyzer     AnalyzerChecker
	checkTimeout time.Duration
	analyzerTTL  time.Duration
	now          func() time.Time

	mu            sync.Mutex
	analyzerAt    time.Time
	analyzerCache CheckResult
}

// New creates a Service. analyzer can be nil.
func New(db DBPinger, analyzer AnalyzerChecker) *Service {
	return &Service{
		db:           db,
		analyzer:     analyzer,
		checkTimeout: DefaultCheckTimeout,
		analyzerTTL:  DefaultAnalyzerTTL,
		now:          time.Now,
	}
}

// WithAnalyzerTTL configures how long an analyzer probe result is reused. Zero probes every time.
func (s *Service) WithAnalyzerTTL(ttl time.Duration) *Service {
	if ttl >= 0 {
		s.analyzerTTL = ttl
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		CheckStore:    s.checkStore(ctx),
		CheckAnalyzer: s.checkAnalyzer(ctx),
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) checkStore(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}

func (s *Service) checkAnalyzer(ctx context.Context) CheckResult {
	if s.analyzer == nil {
		return CheckDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analyzerCache != "" && s.now().Sub(s.analyzerAt) < s.analyzerTTL {
		return s.analyzerCache
	}

	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()
	result := CheckOK
	if err := s.analyzer.HealthCheck(ctx); err != nil {
		result = CheckError
	}
	s.analyzerCache, s.analyzerAt = result, s.now()
	return result
}
