// Package tokenizer provides text tokenisation for the search engine. It
// lower-cases input and splits on non-alphanumeric boundaries, except that
// punctuation interior to genetic notation is kept so variant identifiers
// like "c.5266dupC" or "p.Gln1756fs" survive as single terms.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token is a single normalised term with the byte offsets of its occurrence
// in the original text. Offsets index the raw input, not the folded term.
type Token struct {
	Term  string
	Start int
	End   int
}

// connector runes join two alphanumeric runs into one token. Dots cover HGVS
// prefixes ("c.", "p.", "g.") and versioned accessions ("NM_007294.4"),
// '>' covers substitutions ("c.68A>G"), '-' and '_' cover hyphenated and
// underscored identifiers.
func isConnector(r rune) bool {
	return r == '.' || r == '>' || r == '-' || r == '_'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize breaks text into an ordered sequence of lower-cased tokens.
// A connector rune is part of a token only when flanked by alphanumerics on
// both sides; everything else splits. Empty or whitespace-only input yields
// an empty sequence. Tokenize is pure: equal input gives equal output.
func Tokenize(text string) []Token {
	if text == "" {
		return nil
	}

	// Rune values and their byte offsets, with a sentinel end offset so the
	// final token can be sliced without a bounds check.
	runes := make([]rune, 0, len(text))
	offs := make([]int, 0, len(text)+1)
	for i, r := range text {
		runes = append(runes, r)
		offs = append(offs, i)
	}
	offs = append(offs, len(text))

	tokens := make([]Token, 0, len(runes)/6)
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		start := i
		i++
	scan:
		for i < len(runes) {
			switch {
			case isWordRune(runes[i]):
				i++
			case isConnector(runes[i]) && i+1 < len(runes) && isWordRune(runes[i+1]):
				i += 2
			default:
				break scan
			}
		}
		startByte := offs[start]
		endByte := offs[i]
		tokens = append(tokens, Token{
			Term:  strings.ToLower(text[startByte:endByte]),
			Start: startByte,
			End:   endByte,
		})
	}
	return tokens
}

// Terms tokenizes text and returns the distinct terms in first-seen order.
// Used for query normalisation, where duplicate terms must not double-count.
func Terms(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, dup := seen[t.Term]; dup {
			continue
		}
		seen[t.Term] = struct{}{}
		terms = append(terms, t.Term)
	}
	return terms
}
