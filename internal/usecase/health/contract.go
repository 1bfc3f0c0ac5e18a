package health

import "context"

// DBPinger checks the key-value store behind options, snapshots and the suggestion cache.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// AnalyzerChecker probes the language model behind keyword analysis.
type AnalyzerChecker interface {
	HealthCheck(ctx context.Context) error
}
