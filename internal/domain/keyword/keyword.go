// Package keyword holds the harvested keyword record and its canonical identity.
package keyword

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/kwharvest/internal/domain/provider"
	"github.com/kailas-cloud/kwharvest/internal/domain/query"
)

// MinLength is the minimum rune length of an accepted keyword.
const MinLength = 2

// Metadata carries labels attached after harvesting (AI intent, volume).
type Metadata struct {
	Intent string
	Volume string
}

// IsZero reports whether no label is set.
func (m Metadata) IsZero() bool { return m.Intent == "" && m.Volume == "" }

// Record is one accepted keyword. Identity fields never change after creation;
// only metadata may be attached later.
type Record struct {
	id       string
	keyword  string
	sources  []provider.ID
	parent   string
	tag      query.Tag
	metadata Metadata
}

// New creates a record from an already normalized keyword.
func New(normalized string, sources []provider.ID, parent string, tag query.Tag) Record {
	return Record{
		id:      ID(normalized),
		keyword: normalized,
		sources: cloneSources(sources),
		parent:  parent,
		tag:     tag,
	}
}

// Reconstruct creates a Record without normalization (storage hydration).
func Reconstruct(
	id, kw string, sources []provider.ID, parent string, tag query.Tag, md Metadata,
) Record {
	return Record{id: id, keyword: kw, sources: sources, parent: parent, tag: tag, metadata: md}
}

// ID returns the canonical keyword id.
func (r Record) ID() string { return r.id }

// Keyword returns the normalized keyword text.
func (r Record) Keyword() string { return r.keyword }

// Sources returns the providers that yielded the keyword in its first settle call.
func (r Record) Sources() []provider.ID { return cloneSources(r.sources) }

// Parent returns the query that first produced the keyword.
func (r Record) Parent() string { return r.parent }

// Tag returns the provenance tag.
func (r Record) Tag() query.Tag { return r.tag }

// Metadata returns the attached labels.
func (r Record) Metadata() Metadata { return r.metadata }

// WithIntent returns a copy with the intent label set. Identity fields are untouched.
func (r Record) WithIntent(intent string) Record {
	c := r
	c.sources = cloneSources(r.sources)
	c.metadata.Intent = intent
	return c
}

// Normalize canonicalizes a raw suggestion: NFC composition, lowercase, trim.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	// Casers are stateful, so one is built per call.
	s = cases.Lower(language.Und).String(s)
	return strings.TrimSpace(s)
}

// ID encodes a normalized keyword into its canonical id.
// The encoding is injective, so equal ids imply equal keywords.
func ID(normalized string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(normalized))
}

// Acceptable reports whether a normalized keyword is long enough to keep.
func Acceptable(normalized string) bool {
	return utf8.RuneCountInString(normalized) >= MinLength
}

func cloneSources(s []provider.ID) []provider.ID {
	if s == nil {
		return nil
	}
	c := make([]provider.ID, len(s))
	copy(c, s)
	return c
}
