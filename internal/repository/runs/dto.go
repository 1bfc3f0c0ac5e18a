package runs

import (
	"time"

	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
	"github.com/kailas-cloud/kwharvest/internal/domain/options"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
	"github.com/kailas-cloud/kwharvest/internal/domain/run"
	"github.com/kailas-cloud/kwharvest/internal/usecase/harvest"
)

// recordRow is the JSON-serializable representation of a keyword record.
type recordRow struct {
	ID      string   `json:"id"`
	Keyword string   `json:"keyword"`
	Sources []string `json:"source"`
	Parent  string   `json:"parent_seed"`
	Tag     string   `json:"tag"`
	Intent  string   `json:"intent,omitempty"`
	Volume  string   `json:"volume,omitempty"`
}

// snapshotRow is the stored form of a finished run.
type snapshotRow struct {
	ID         string                `json:"id"`
	Options    options.SearchOptions `json:"options"`
	Outcome    string                `json:"outcome"`
	CreatedAt  int64                 `json:"created_at"`
	FinishedAt int64                 `json:"finished_at"`
	Records    []recordRow           `json:"records"`
}

func snapshotToRow(s harvest.Snapshot) snapshotRow {
	rows := make([]recordRow, len(s.Records))
	for i, r := range s.Records {
		sources := make([]string, 0, len(r.Sources()))
		for _, p := range r.Sources() {
			sources = append(sources, string(p))
		}
		rows[i] = recordRow{
			ID:      r.ID(),
			Keyword: r.Keyword(),
			Sources: sources,
			Parent:  r.Parent(),
			Tag:     string(r.Tag()),
			Intent:  r.Metadata().Intent,
			Volume:  r.Metadata().Volume,
		}
	}
	return snapshotRow{
		ID:         s.ID,
		Options:    s.Options,
		Outcome:    string(s.Outcome),
		CreatedAt:  s.CreatedAt.UnixMilli(),
		FinishedAt: s.FinishedAt.UnixMilli(),
		Records:    rows,
	}
}

func snapshotFromRow(row snapshotRow) harvest.Snapshot {
	records := make([]keyword.Record, len(row.Records))
	for i, r := range row.Records {
		sources := make([]provider.ID, len(r.Sources))
		for j, p := range r.Sources {
			sources[j] = provider.ID(p)
		}
		records[i] = keyword.Reconstruct(
			r.ID, r.Keyword, sources, r.Parent, query.Tag(r.Tag),
			keyword.Metadata{Intent: r.Intent, Volume: r.Volume},
		)
	}
	return harvest.Snapshot{
		ID:         row.ID,
		Options:    row.Options,
		Outcome:    run.Status(row.Outcome),
		CreatedAt:  time.UnixMilli(row.CreatedAt),
		FinishedAt: time.UnixMilli(row.FinishedAt),
		Records:    records,
	}
}
