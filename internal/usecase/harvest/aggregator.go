package harvest

import (
	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
	"github.com/kailas-cloud/kwharvest/internal/metrics"
)

// ProviderResult is what one provider returned for one queue item.
type ProviderResult struct {
	Provider    provider.ID
	Suggestions []string
}

// Aggregator deduplicates and tags raw suggestions and appends the accepted
// ones to its store. It belongs to a single control flow: the seen-id set is
// not guarded.
type Aggregator struct {
	seedKey string
	seen    map[string]struct{}
	store   *Store
}

// NewAggregator creates an aggregator for one run. seed is the raw seed as typed,
// placeholder included.
func NewAggregator(seed string, store *Store) *Aggregator {
	return &Aggregator{
		seedKey: keyword.Normalize(query.StripPlaceholder(seed)),
		seen:    make(map[string]struct{}),
		store:   store,
	}
}

// Ingest processes one settle call: every provider's suggestions for one
// queue item. Source providers are unioned within this call only; a provider
// yielding an already accepted keyword in a later call is not recorded.
func (a *Aggregator) Ingest(results []ProviderResult, item query.Item) []keyword.Record {
	type pending struct {
		keyword string
		sources []provider.ID
	}
	var (
		order []string
		fresh = make(map[string]*pending)
	)

	for _, res := range results {
		for _, raw := range res.Suggestions {
			kw := keyword.Normalize(raw)
			if !keyword.Acceptable(kw) {
				continue
			}
			id := keyword.ID(kw)

			if p, ok := fresh[id]; ok {
				if !hasProvider(p.sources, res.Provider) {
					p.sources = append(p.sources, res.Provider)
				}
				continue
			}
			if _, dup := a.seen[id]; dup {
				continue
			}
			a.seen[id] = struct{}{}
			fresh[id] = &pending{keyword: kw, sources: []provider.ID{res.Provider}}
			order = append(order, id)
		}
	}

	if len(order) == 0 {
		return nil
	}

	accepted := make([]keyword.Record, 0, len(order))
	for _, id := range order {
		p := fresh[id]
		tag := item.Tag()
		if p.keyword == a.seedKey {
			tag = query.TagSeed
		}
		accepted = append(accepted, keyword.New(p.keyword, p.sources, item.Query(), tag))
		metrics.KeywordsAcceptedTotal.WithLabelValues(string(tag)).Inc()
	}

	a.store.Append(accepted)
	return accepted
}

// SeedKeyword returns the normalized, placeholder-stripped seed.
func (a *Aggregator) SeedKeyword() string { return a.seedKey }

// Seen returns the number of distinct keywords accepted so far.
func (a *Aggregator) Seen() int { return len(a.seen) }

func hasProvider(list []provider.ID, p provider.ID) bool {
	for _, x := range list {
		if x == p {
			return true
		}
	}
	return false
}
