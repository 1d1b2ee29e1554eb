// Package phrase decides which part of a line of text the user is trying to
// link, given a cursor position.
package phrase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matcher reports whether raw text has at least one index match.
type Matcher interface {
	HasMatch(raw string) bool
}

// Span is a range of a line in rune offsets, End exclusive.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Resolver finds the span to query around a cursor.
type Resolver struct {
	m Matcher
}

// New creates a Resolver backed by m.
func New(m Matcher) *Resolver {
	return &Resolver{m: m}
}

var dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Resolve returns the span of line to use as a query for a cursor at rune
// offset cursor. In order of priority:
//  1. the first isolated YYYY-MM-DD date anywhere on the line
//  2. the widest run of words in the cursor's sentence that contains the
//     word under the cursor and has a match, leftmost first
//  3. the word under the cursor, without a match check
//
// ok is false when the cursor is not on or right after a word.
func (r *Resolver) Resolve(line string, cursor int) (Span, bool) {
	runes := []rune(line)
	cursor = max(0, min(cursor, len(runes)))

	if s, ok := findDate(line); ok {
		return s, true
	}

	start, end := sentenceBounds(runes, cursor)
	toks := tokenize(runes, start, end)
	ci := tokenAt(toks, cursor)
	if ci < 0 {
		return Span{}, false
	}
	if s, ok := r.widestMatch(runes, toks, ci); ok {
		return s, true
	}
	return wordAt(runes, cursor)
}

func (r *Resolver) widestMatch(runes []rune, toks []token, ci int) (Span, bool) {
	if r.m == nil {
		return Span{}, false
	}
	for width := len(toks); width >= 1; width-- {
		for first := 0; first+width <= len(toks); first++ {
			last := first + width - 1
			if ci < first || ci > last {
				continue
			}
			text := string(runes[toks[first].start:toks[last].end])
			if r.m.HasMatch(text) {
				return Span{Start: toks[first].start, End: toks[last].end, Text: text}, true
			}
		}
	}
	return Span{}, false
}

// findDate returns the first date on the line not glued to other word
// characters.
func findDate(line string) (Span, bool) {
	for _, loc := range dateRe.FindAllStringIndex(line, -1) {
		if r, _ := utf8.DecodeLastRuneInString(line[:loc[0]]); loc[0] > 0 && isDateNeighbour(r) {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(line[loc[1]:]); loc[1] < len(line) && isDateNeighbour(r) {
			continue
		}
		start := utf8.RuneCountInString(line[:loc[0]])
		text := line[loc[0]:loc[1]]
		return Span{Start: start, End: start + utf8.RuneCountInString(text), Text: text}, true
	}
	return Span{}, false
}

func isDateNeighbour(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// sentenceBounds returns the whitespace-trimmed sentence around cursor.
func sentenceBounds(runes []rune, cursor int) (int, int) {
	start := 0
	for i := cursor - 1; i >= 0; i-- {
		if isTerminal(runes[i]) {
			start = i + 1
			break
		}
	}
	end := len(runes)
	for i := cursor; i < len(runes); i++ {
		if isTerminal(runes[i]) {
			end = i
			break
		}
	}
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return start, end
}

type token struct {
	start, end int
}

func isWordRune(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsNumber(r), unicode.Is(unicode.Pc, r):
		return true
	case r == '\'', r == '’', r == '-':
		return true
	}
	return false
}

// tokenize splits runes[start:end] into maximal runs of word runes. Offsets
// are line-relative.
func tokenize(runes []rune, start, end int) []token {
	var toks []token
	i := start
	for i < end {
		if !isWordRune(runes[i]) {
			i++
			continue
		}
		j := i
		for j < end && isWordRune(runes[j]) {
			j++
		}
		toks = append(toks, token{start: i, end: j})
		i = j
	}
	return toks
}

// tokenAt returns the index of the token containing cursor, counting a cursor
// right after a word as inside it, or -1.
func tokenAt(toks []token, cursor int) int {
	for i, t := range toks {
		if cursor >= t.start && cursor <= t.end {
			return i
		}
	}
	return -1
}

func isBoundary(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}

// wordAt expands left and right from cursor until whitespace, punctuation or
// the line edge.
func wordAt(runes []rune, cursor int) (Span, bool) {
	start := cursor
	for start > 0 && !isBoundary(runes[start-1]) {
		start--
	}
	end := cursor
	for end < len(runes) && !isBoundary(runes[end]) {
		end++
	}
	if start == end {
		return Span{}, false
	}
	text := string(runes[start:end])
	if strings.TrimSpace(text) == "" {
		return Span{}, false
	}
	return Span{Start: start, End: end, Text: text}, true
}
