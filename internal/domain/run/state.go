// Package run models the lifecycle of one harvest run.
package run

// Status is the lifecycle status of a harvest run.
type Status string

// Run status values.
const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// IsTerminal reports whether the status ends a run.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// State is a point-in-time snapshot of a run's status and progress.
type State struct {
	Status   Status
	Progress float64 // percent, 0..100
}

// Progress computes completed/total as a percentage clamped to [0,100].
// A non-positive total reports 0.
func Progress(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := float64(completed) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}
