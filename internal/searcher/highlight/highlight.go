// Package highlight extracts bounded excerpts around query matches. Matched
// terms inside the excerpt are wrapped in "**" markers (for example
// "**c.5266dupC**"); the marker convention is fixed and relied on by tests.
package highlight

import (
	"strings"
	"unicode/utf8"

	"github.com/variantdb/sheetsearch/internal/indexer/tokenizer"
)

// DefaultWindow is the excerpt width in bytes when no width is configured.
const DefaultWindow = 160

// Marker wraps each matched term occurrence inside the excerpt.
const Marker = "**"

// Excerpt returns a window of at most window bytes of text, centred on the
// first occurrence of any query term, with every query-term occurrence
// inside the window wrapped in markers. Marker bytes do not count toward
// the window. When no query term occurs (which the ranker should prevent,
// but the contract tolerates), a truncated unmarked prefix is returned.
// A window <= 0 falls back to DefaultWindow.
func Excerpt(text string, queryTerms []string, window int) string {
	if window <= 0 {
		window = DefaultWindow
	}
	if text == "" {
		return ""
	}

	terms := make(map[string]struct{}, len(queryTerms))
	for _, t := range queryTerms {
		terms[strings.ToLower(t)] = struct{}{}
	}

	tokens := tokenizer.Tokenize(text)
	matched := make([]tokenizer.Token, 0, 4)
	for _, tok := range tokens {
		if _, ok := terms[tok.Term]; ok {
			matched = append(matched, tok)
		}
	}
	if len(matched) == 0 {
		return clipRunes(text, window)
	}

	start, end := windowAround(text, matched[0].Start, window)

	var b strings.Builder
	b.Grow(end - start + 2*len(Marker)*len(matched))
	pos := start
	for _, tok := range matched {
		if tok.Start < start || tok.End > end {
			continue
		}
		b.WriteString(text[pos:tok.Start])
		b.WriteString(Marker)
		b.WriteString(text[tok.Start:tok.End])
		b.WriteString(Marker)
		pos = tok.End
	}
	b.WriteString(text[pos:end])
	return b.String()
}

// windowAround picks a [start, end) byte range of at most window bytes
// centred on matchStart, clipped to the text bounds and snapped to rune
// boundaries.
func windowAround(text string, matchStart, window int) (int, int) {
	if len(text) <= window {
		return 0, len(text)
	}
	start := matchStart - window/2
	if start < 0 {
		start = 0
	}
	if start > len(text)-window {
		start = len(text) - window
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := start + window
	for end > start && end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	return start, end
}

// clipRunes truncates text to at most max bytes on a rune boundary.
func clipRunes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}
