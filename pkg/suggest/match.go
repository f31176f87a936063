package suggest

import (
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/searchpro/pkg/corpus"
)

// ContainsFold reports whether substr occurs in s, ignoring case.
// Both sides are compared literally, so characters like '(' or '*' in the
// query have no special meaning.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Filter returns, in corpus order, the items whose name contains query
// ignoring case. An empty query matches nothing.
func Filter(items []corpus.Item, query string) []corpus.Item {
	if query == "" {
		return nil
	}
	lowerQuery := strings.ToLower(query)

	var out []corpus.Item
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), lowerQuery) {
			out = append(out, it)
		}
	}
	return out
}

// Segment is a piece of highlighted text.
type Segment struct {
	Text  string
	Match bool
}

// Highlight splits text into segments, marking every non-overlapping,
// case-insensitive occurrence of query. Concatenating the segment texts
// yields text unchanged.
func Highlight(text, query string) []Segment {
	if query == "" || text == "" {
		return []Segment{{Text: text}}
	}

	lowerQuery := strings.ToLower(query)
	width := utf8.RuneCountInString(lowerQuery)

	var segments []Segment
	plainStart := 0
	for i := 0; i < len(text); {
		end := advanceRunes(text, i, width)
		if end > 0 && strings.ToLower(text[i:end]) == lowerQuery {
			if plainStart < i {
				segments = append(segments, Segment{Text: text[plainStart:i]})
			}
			segments = append(segments, Segment{Text: text[i:end], Match: true})
			i, plainStart = end, end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	if plainStart < len(text) {
		segments = append(segments, Segment{Text: text[plainStart:]})
	}
	return segments
}

// advanceRunes returns the byte offset n runes after start, or -1 when text
// is too short.
func advanceRunes(text string, start, n int) int {
	i := start
	for ; n > 0; n-- {
		if i >= len(text) {
			return -1
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return i
}
