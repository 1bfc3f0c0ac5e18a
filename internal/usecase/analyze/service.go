// Package analyze labels harvested keywords with a language model.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
)

// DefaultMaxKeywords caps how many keywords go into one prompt.
const DefaultMaxKeywords = 100

// Result is the outcome of one analysis.
type Result struct {
	Mode       Mode
	Analyzed   int
	Updated    int                 // records that received an intent label
	Intents    map[string]string   // intent mode
	Clusters   map[string][]string // cluster mode
	Expansions []string            // expand mode
}

// Service runs analyses over a run's records.
type Service struct {
	runs        RunStore
	completer   Completer
	maxKeywords int
	logger      *zap.Logger
}

// New creates an analysis service. completer may be nil, every analysis then
// fails with domain.ErrAnalyzerNotConfigured.
func New(runs RunStore, completer Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runs: runs, completer: completer, maxKeywords: DefaultMaxKeywords, logger: logger}
}

// WithMaxKeywords configures the prompt size limit.
func (s *Service) WithMaxKeywords(n int) *Service {
	if n > 0 {
		s.maxKeywords = n
	}
	return s
}

// Configured reports whether a language model is wired.
func (s *Service) Configured() bool { return s.completer != nil }

// Analyze runs mode over the selected records of a run, or over the first
// records when ids is empty. Intent labels are merged into record metadata.
func (s *Service) Analyze(ctx context.Context, runID string, mode Mode, ids []string) (Result, error) {
	if s.completer == nil {
		return Result{}, domain.ErrAnalyzerNotConfigured
	}
	r, err := s.runs.Get(ctx, runID)
	if err != nil {
		return Result{}, err
	}

	records := r.Store().List(keyword.Filter{IDs: ids})
	if len(records) > s.maxKeywords {
		records = records[:s.maxKeywords]
	}
	if len(records) == 0 {
		return Result{}, domain.ErrNothingToAnalyze
	}
	keywords := make([]string, len(records))
	for i, rec := range records {
		keywords[i] = rec.Keyword()
	}

	answer, err := s.completer.CompleteJSON(ctx, Prompt(mode, keywords))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrAnalyzerFailed, err)
	}

	res := Result{Mode: mode, Analyzed: len(keywords)}
	switch mode {
	case ModeIntent:
		res.Intents, err = decodeIntents(answer)
		if err != nil {
			return Result{}, err
		}
		res.Updated = r.Store().SetIntents(res.Intents)
		if err := s.runs.Persist(ctx, r); err != nil {
			s.logger.Warn("persist analyzed run", zap.String("run_id", runID), zap.Error(err))
		}
	case ModeCluster:
		if err := decode(answer, &res.Clusters); err != nil {
			return Result{}, err
		}
	case ModeExpand:
		if err := decode(answer, &res.Expansions); err != nil {
			return Result{}, err
		}
	default:
		return Result{}, fmt.Errorf("mode %q: %w", mode, domain.ErrInvalidAnalysisMode)
	}

	s.logger.Info("keywords analyzed",
		zap.String("run_id", runID),
		zap.String("mode", string(mode)),
		zap.Int("keywords", res.Analyzed),
		zap.Int("updated", res.Updated),
	)
	return res, nil
}

// decodeIntents keeps string labels only; models sometimes nest objects.
func decodeIntents(answer string) (map[string]string, error) {
	var raw map[string]any
	if err := decode(answer, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if label, ok := v.(string); ok && strings.TrimSpace(label) != "" {
			out[k] = strings.TrimSpace(label)
		}
	}
	return out, nil
}

func decode(answer string, dst any) error {
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")
	if err := json.Unmarshal([]byte(answer), dst); err != nil {
		return fmt.Errorf("decode model answer: %w: %w", domain.ErrAnalyzerFailed, err)
	}
	return nil
}
