package export

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/kwharvest/internal/domain/keyword"
)

// MaxClusters is the number of clusters returned by Clusters.
const MaxClusters = 20

var wordSplit = regexp.MustCompile(`[\s-]+`)

var stopWords = map[string]struct{}{
	"the": {}, "is": {}, "in": {}, "how": {}, "what": {}, "best": {}, "vs": {}, "or": {},
	"در": {}, "با": {}, "از": {}, "که": {}, "به": {}, "برای": {}, "دانلود": {}, "خرید": {},
}

// Cluster is a frequent word and the number of keywords containing it.
type Cluster struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Clusters counts words longer than two runes across all keywords, ignoring
// stop words and numbers, and returns the most frequent ones. Ties keep
// first-seen order.
func Clusters(records []keyword.Record) []Cluster {
	counts := make(map[string]int)
	var order []string

	for _, r := range records {
		for _, w := range wordSplit.Split(r.Keyword(), -1) {
			if utf8.RuneCountInString(w) <= 2 || isStopWord(w) || isNumber(w) {
				continue
			}
			if _, ok := counts[w]; !ok {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	out := make([]Cluster, 0, len(order))
	for _, w := range order {
		out = append(out, Cluster{Word: w, Count: counts[w]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })

	if len(out) > MaxClusters {
		out = out[:MaxClusters]
	}
	return out
}

func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// isNumber rejects numeric tokens. Spelled-out values such as "inf" or "nan" are words.
func isNumber(w string) bool {
	if !strings.ContainsAny(w, "0123456789") {
		return false
	}
	_, err := strconv.ParseFloat(w, 64)
	return err == nil
}
