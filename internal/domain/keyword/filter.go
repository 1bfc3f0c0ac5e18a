package keyword

import (
	"strings"

	"github.com/kailas-cloud/kwharvest/internal/domain/query"
)

// Filter narrows a record list. Empty fields match everything.
type Filter struct {
	Parent  string    // exact parent query
	Tag     query.Tag // exact tag
	Cluster string    // substring of the keyword (cluster word)
	Text    string    // case-insensitive substring of the keyword
	IDs     []string  // explicit selection
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool {
	return f.Parent == "" && f.Tag == "" && f.Cluster == "" && f.Text == "" && len(f.IDs) == 0
}

// Apply returns the records matching the filter, preserving order.
func (f Filter) Apply(records []Record) []Record {
	if f.IsEmpty() {
		return records
	}
	var ids map[string]struct{}
	if len(f.IDs) > 0 {
		ids = make(map[string]struct{}, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = struct{}{}
		}
	}
	text := strings.ToLower(f.Text)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if ids != nil {
			if _, ok := ids[r.id]; !ok {
				continue
			}
		}
		if f.Parent != "" && r.parent != f.Parent {
			continue
		}
		if f.Tag != "" && r.tag != f.Tag {
			continue
		}
		if f.Cluster != "" && !strings.Contains(r.keyword, f.Cluster) {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(r.keyword), text) {
			continue
		}
		out = append(out, r)
	}
	return out
}
