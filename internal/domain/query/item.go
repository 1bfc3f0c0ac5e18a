// Package query holds the queue item produced by the strategy expander.
package query

// Tag names the generation strategy that produced a query or a keyword.
type Tag string

// Generation strategy tags.
const (
	TagSeed         Tag = "SEED"
	TagPersianAZ    Tag = "FA-AZ"
	TagPersianPair  Tag = "FA-2CHAR"
	TagPersianGap   Tag = "FA-GAP"
	TagEnglishGap   Tag = "EN-GAP"
	TagSuffix       Tag = "A-Z"
	TagPrefix       Tag = "PASF"
	TagQuestion     Tag = "QUES"
	TagDeepFollowUp Tag = "DEEP"
)

// Item is one candidate query in the harvest queue (immutable value object).
type Item struct {
	query  string
	tag    Tag
	cursor int
	hasCur bool
}

// NewItem creates a queue item without a cursor position.
func NewItem(q string, tag Tag) Item {
	return Item{query: q, tag: tag}
}

// NewItemWithCursor creates a queue item that tells cursor-aware providers
// where the caret sits inside the query (rune offset).
func NewItemWithCursor(q string, tag Tag, cursor int) Item {
	return Item{query: q, tag: tag, cursor: cursor, hasCur: true}
}

// Query returns the query text.
func (i Item) Query() string { return i.query }

// Tag returns the generation strategy tag.
func (i Item) Tag() Tag { return i.tag }

// Cursor returns the cursor position and whether one is set.
func (i Item) Cursor() (int, bool) { return i.cursor, i.hasCur }
