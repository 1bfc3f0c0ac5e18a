package chi

import (
	"time"

	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
	"github.com/kailas-cloud/kwharvest/internal/domain/options"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
	"github.com/kailas-cloud/kwharvest/internal/domain/run"
	"github.com/kailas-cloud/kwharvest/internal/usecase/analyze"
	"github.com/kailas-cloud/kwharvest/internal/usecase/export"
	"github.com/kailas-cloud/kwharvest/internal/usecase/harvest"
	healthuc "github.com/kailas-cloud/kwharvest/internal/usecase/health"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// Run is the JSON view of a harvest run.
type Run struct {
	ID         string                `json:"id"`
	Status     run.Status            `json:"status"`
	Outcome    run.Status            `json:"outcome,omitempty"`
	Progress   float64               `json:"progress"`
	Completed  int                   `json:"completed"`
	Total      int                   `json:"total"`
	Keywords   int                   `json:"keywords"`
	Options    options.SearchOptions `json:"options"`
	CreatedAt  time.Time             `json:"created_at"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
}

// RunListResponse is the body of GET /runs.
type RunListResponse struct {
	Items []Run `json:"items"`
}

// Keyword is the JSON view of a keyword record.
type Keyword struct {
	ID      string        `json:"id"`
	Keyword string        `json:"keyword"`
	Sources []provider.ID `json:"sources"`
	Parent  string        `json:"parent"`
	Tag     query.Tag     `json:"tag"`
	Intent  string        `json:"intent,omitempty"`
	Volume  string        `json:"volume,omitempty"`
}

// KeywordListResponse is the body of GET /runs/{id}/keywords.
type KeywordListResponse struct {
	Total int       `json:"total"`
	Items []Keyword `json:"items"`
}

// ClusterListResponse is the body of GET /runs/{id}/clusters.
type ClusterListResponse struct {
	Items []export.Cluster `json:"items"`
}

// QueueItem is the JSON view of one expanded query.
type QueueItem struct {
	Query  string    `json:"query"`
	Tag    query.Tag `json:"tag"`
	Cursor *int      `json:"cursor,omitempty"`
}

// ExpandResponse is the body of GET /expand.
type ExpandResponse struct {
	Total int         `json:"total"`
	Items []QueueItem `json:"items"`
}

// AnalyzeRequest is the body of POST /runs/{id}/analyze.
type AnalyzeRequest struct {
	Mode string   `json:"mode"`
	IDs  []string `json:"ids"`
}

// AnalyzeResponse is the body returned by POST /runs/{id}/analyze.
type AnalyzeResponse struct {
	Mode       analyze.Mode        `json:"mode"`
	Analyzed   int                 `json:"analyzed"`
	Updated    int                 `json:"updated"`
	Intents    map[string]string   `json:"intents,omitempty"`
	Clusters   map[string][]string `json:"clusters,omitempty"`
	Expansions []string            `json:"expansions,omitempty"`
}

func runToResponse(r *harvest.Run) Run {
	state := r.State()
	completed, total := r.Counts()
	resp := Run{
		ID:        r.ID(),
		Status:    state.Status,
		Outcome:   r.Outcome(),
		Progress:  state.Progress,
		Completed: completed,
		Total:     total,
		Keywords:  r.Store().Len(),
		Options:   r.Options(),
		CreatedAt: r.CreatedAt(),
	}
	if at := r.FinishedAt(); !at.IsZero() {
		resp.FinishedAt = &at
	}
	return resp
}

func keywordToResponse(rec keyword.Record) Keyword {
	md := rec.Metadata()
	return Keyword{
		ID:      rec.ID(),
		Keyword: rec.Keyword(),
		Sources: rec.Sources(),
		Parent:  rec.Parent(),
		Tag:     rec.Tag(),
		Intent:  md.Intent,
		Volume:  md.Volume,
	}
}

func queueItemToResponse(item query.Item) QueueItem {
	out := QueueItem{Query: item.Query(), Tag: item.Tag()}
	if c, ok := item.Cursor(); ok {
		out.Cursor = &c
	}
	return out
}

func analyzeToResponse(res analyze.Result) AnalyzeResponse {
	return AnalyzeResponse{
		Mode:       res.Mode,
		Analyzed:   res.Analyzed,
		Updated:    res.Updated,
		Intents:    res.Intents,
		Clusters:   res.Clusters,
		Expansions: res.Expansions,
	}
}
