// Package expand turns a seed phrase into the ordered harvest queue.
package expand

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/kwharvest/internal/domain"
	"github.com/kailas-cloud/kwharvest/internal/domain/options"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
)

// Expand builds the queue for a seed. The result is deterministic: identical
// input yields an identical queue. The SEED item always comes first.
//
// Compound strategies grow quadratically with the alphabet and are not truncated.
func Expand(seed string, s options.Strategies) ([]query.Item, error) {
	clean := strings.TrimSpace(seed)
	if clean == "" {
		return nil, domain.ErrEmptySeed
	}
	base := query.StripPlaceholder(clean)
	explicit := query.HasPlaceholder(clean)

	items := []query.Item{query.NewItem(base, query.TagSeed)}

	if s.PersianAZ {
		items = appendSuffixed(items, clean, PersianAlphabet, query.TagPersianAZ)
	}

	if s.PersianDouble {
		for _, a := range PersianAlphabet {
			for _, b := range PersianAlphabet {
				items = append(items, query.NewItem(Substitute(clean, a+b), query.TagPersianPair))
			}
		}
	}

	// A gap template adds its own marker, so an explicit one would be ambiguous.
	if s.MiddleGap && !explicit {
		items = append(items, middleGap(base, s)...)
	}

	if s.EnglishSuffix {
		items = appendSuffixed(items, clean, EnglishAlphabet, query.TagSuffix)
	}

	if s.EnglishPrefix {
		for _, c := range EnglishAlphabet {
			items = append(items, query.NewItem(SubstitutePrefix(clean, c), query.TagPrefix))
		}
	}

	if s.Questions {
		for _, p := range QuestionPrefixes {
			items = append(items, query.NewItem(p+" "+base, query.TagQuestion))
		}
	}

	return items, nil
}

// Substitute replaces the first explicit marker with symbol, or appends symbol
// after one space when the template has none.
func Substitute(template, symbol string) string {
	if out, ok := replaceMarker(template, symbol); ok {
		return out
	}
	return template + " " + symbol
}

// SubstitutePrefix is Substitute for prefix strategies: without a marker the
// symbol goes in front.
func SubstitutePrefix(template, symbol string) string {
	if out, ok := replaceMarker(template, symbol); ok {
		return out
	}
	return symbol + " " + template
}

func replaceMarker(template, symbol string) (string, bool) {
	if strings.Contains(template, query.MarkerBraces) {
		return strings.Replace(template, query.MarkerBraces, symbol, 1), true
	}
	if strings.Contains(template, query.MarkerUnderscore) {
		return strings.Replace(template, query.MarkerUnderscore, symbol, 1), true
	}
	return "", false
}

func appendSuffixed(items []query.Item, template string, alphabet []string, tag query.Tag) []query.Item {
	for _, c := range alphabet {
		items = append(items, query.NewItem(Substitute(template, c), tag))
	}
	return items
}

// middleGap inserts each enabled alphabet at every internal word boundary.
// Items carry the cursor just after the inserted symbol.
func middleGap(base string, s options.Strategies) []query.Item {
	words := strings.Fields(base)
	if len(words) < 2 {
		return nil
	}

	var items []query.Item
	for i := 1; i < len(words); i++ {
		pre := strings.Join(words[:i], " ")
		post := strings.Join(words[i:], " ")
		template := pre + " " + query.MarkerBraces + " " + post
		offset := utf8.RuneCountInString(pre) + 1

		if s.PersianAZ {
			items = appendGap(items, template, offset, PersianAlphabet, query.TagPersianGap)
		}
		if s.EnglishSuffix || s.EnglishPrefix {
			items = appendGap(items, template, offset, EnglishAlphabet, query.TagEnglishGap)
		}
	}
	return items
}

func appendGap(items []query.Item, template string, offset int, alphabet []string, tag query.Tag) []query.Item {
	for _, c := range alphabet {
		cursor := offset + utf8.RuneCountInString(c)
		items = append(items, query.NewItemWithCursor(Substitute(template, c), tag, cursor))
	}
	return items
}

// FollowUp builds the deep phase queue: each discovered keyword is queried as is.
func FollowUp(keywords []string) []query.Item {
	items := make([]query.Item, 0, len(keywords))
	for _, kw := range keywords {
		items = append(items, query.NewItem(kw, query.TagDeepFollowUp))
	}
	return items
}
