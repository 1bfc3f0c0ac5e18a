// Package provider names the upstream autocomplete sources.
package provider

import (
	"github.com/kailas-cloud/kwharvest/internal/domain"
)

// ID identifies one upstream suggestion provider.
type ID string

// Known providers.
const (
	Google     ID = "google"
	YouTube    ID = "youtube"
	Amazon     ID = "amazon"
	Bing       ID = "bing"
	DuckDuckGo ID = "duckduckgo"
	Yahoo      ID = "yahoo"
	GoogleCSE1 ID = "google_cse_1"
	GoogleCSE2 ID = "google_cse_2"
)

var all = []ID{Google, YouTube, Amazon, Bing, DuckDuckGo, Yahoo, GoogleCSE1, GoogleCSE2}

// All returns every known provider in display order.
func All() []ID {
	out := make([]ID, len(all))
	copy(out, all)
	return out
}

// IsValid reports whether the id names a known provider.
func (id ID) IsValid() bool {
	for _, p := range all {
		if p == id {
			return true
		}
	}
	return false
}

// Parse validates a provider id string.
func Parse(s string) (ID, error) {
	id := ID(s)
	if !id.IsValid() {
		return "", domain.NewUnknownProvider(s)
	}
	return id, nil
}

// Request is one suggestion lookup against a provider.
type Request struct {
	Query  string
	Locale string
	Cursor *int // caret rune offset, for cursor-aware upstreams
}
