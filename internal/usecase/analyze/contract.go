package analyze

import (
	"context"

	"github.com/kailas-cloud/kwharvest/internal/usecase/harvest"
)

// Completer sends a prompt to a language model and returns its JSON answer as text.
type Completer interface {
	CompleteJSON(ctx context.Context, prompt string) (string, error)
}

// RunStore reads runs and persists them after metadata changes.
type RunStore interface {
	Get(ctx context.Context, id string) (*harvest.Run, error)
	Persist(ctx context.Context, r *harvest.Run) error
}
