package kwharvest

import (
	"fmt"

	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
	domopts "github.com/kailas-cloud/kwharvest/internal/domain/options"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
	"github.com/kailas-cloud/kwharvest/internal/domain/run"
)

// Strategies toggles the query generation strategies.
type Strategies struct {
	PersianAZ     bool // seed + each Persian letter
	PersianDouble bool // seed + each Persian letter pair
	EnglishPrefix bool // each English letter + seed
	EnglishSuffix bool // seed + each English letter
	Questions     bool // question words + seed
	Deep          bool // re-query the first discovered keywords
	MiddleGap     bool // letters inserted between the seed's words
}

// Request describes one harvest.
type Request struct {
	Seed       string
	Locale     string   // region hint, default "IR"
	Providers  []string // provider ids, e.g. "google", "youtube", "bing"
	Strategies Strategies
}

// QueueItem is one query the harvest will send.
type QueueItem struct {
	Query  string
	Tag    string
	Cursor *int
}

// Keyword is one harvested keyword.
type Keyword struct {
	ID      string
	Keyword string
	Sources []string
	Parent  string
	Tag     string
	Intent  string
}

// Status is the lifecycle status of a run.
type Status string

// Run statuses.
const (
	StatusIdle      Status = Status(run.StatusIdle)
	StatusRunning   Status = Status(run.StatusRunning)
	StatusCancelled Status = Status(run.StatusCancelled)
	StatusCompleted Status = Status(run.StatusCompleted)
)

// Result is the outcome of a finished harvest.
type Result struct {
	RunID    string
	Status   Status
	Keywords []Keyword
}

// Providers lists every supported provider id.
func Providers() []string {
	all := provider.All()
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = string(p)
	}
	return out
}

func toInternalOptions(req Request) (domopts.SearchOptions, error) {
	ids := make([]provider.ID, 0, len(req.Providers))
	for _, p := range req.Providers {
		id, err := provider.Parse(p)
		if err != nil {
			return domopts.SearchOptions{}, fmt.Errorf("provider: %w", err)
		}
		ids = append(ids, id)
	}
	return domopts.SearchOptions{
		Seed:      req.Seed,
		Locale:    req.Locale,
		Providers: ids,
		Strategies: domopts.Strategies{
			PersianAZ:     req.Strategies.PersianAZ,
			PersianDouble: req.Strategies.PersianDouble,
			EnglishPrefix: req.Strategies.EnglishPrefix,
			EnglishSuffix: req.Strategies.EnglishSuffix,
			Questions:     req.Strategies.Questions,
			Deep:          req.Strategies.Deep,
			MiddleGap:     req.Strategies.MiddleGap,
		},
	}.WithDefaults(), nil
}

func fromQueueItems(items []query.Item) []QueueItem {
	out := make([]QueueItem, len(items))
	for i, item := range items {
		out[i] = QueueItem{Query: item.Query(), Tag: string(item.Tag())}
		if c, ok := item.Cursor(); ok {
			out[i].Cursor = &c
		}
	}
	return out
}

func fromRecords(records []keyword.Record) []Keyword {
	out := make([]Keyword, len(records))
	for i, r := range records {
		sources := r.Sources()
		names := make([]string, len(sources))
		for j, s := range sources {
			names[j] = string(s)
		}
		out[i] = Keyword{
			ID:      r.ID(),
			Keyword: r.Keyword(),
			Sources: names,
			Parent:  r.Parent(),
			Tag:     string(r.Tag()),
			Intent:  r.Metadata().Intent,
		}
	}
	return out
}

func toRecords(keywords []Keyword) []keyword.Record {
	out := make([]keyword.Record, len(keywords))
	for i, k := range keywords {
		sources := make([]provider.ID, len(k.Sources))
		for j, s := range k.Sources {
			sources[j] = provider.ID(s)
		}
		out[i] = keyword.Reconstruct(
			k.ID, k.Keyword, sources, k.Parent, query.Tag(k.Tag), keyword.Metadata{Intent: k.Intent},
		)
	}
	return out
}
