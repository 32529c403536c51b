package gts

import (
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"
)

// URIPrefix may precede an identifier in `$id`-style values.
const URIPrefix = "gts://"

// candidateRegex matches an optional URI prefix, the identifier prefix and a
// maximal run of identifier characters. Case is folded later by the normalizer.
var candidateRegex = regexp.MustCompile(`(?i)(?:gts://)?gts\.[a-z0-9_.~*\-]*`)

// Span is a half-open byte range [Start, End) into scanned text.
type Span struct {
	Start int
	End   int
}

// Candidate is an identifier-shaped token located in text.
type Candidate struct {
	Span Span
	Raw  string
	// Line and Column are 1-based; Column counts runes.
	Line   int
	Column int
}

// FindCandidates returns the identifier-shaped tokens of text in occurrence
// order. Matches are leftmost-longest and never overlap; a match glued to a
// preceding word, dot, dash or slash is consumed without being yielded.
// The sequence is lazy and may be ranged over any number of times.
func FindCandidates(text string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		pos := 0
		line, lineStart := 1, 0
		for pos < len(text) {
			loc := candidateRegex.FindStringIndex(text[pos:])
			if loc == nil {
				return
			}
			start, end := pos+loc[0], pos+loc[1]
			pos = end

			if !isBoundary(text, start) {
				continue
			}
			// Trailing dots are sentence punctuation, not identifier text.
			for end > start && text[end-1] == '.' {
				end--
			}
			if !hasBody(text[start:end]) {
				continue
			}

			line, lineStart = advanceLines(text, lineStart, line, start)
			c := Candidate{
				Span:   Span{Start: start, End: end},
				Raw:    text[start:end],
				Line:   line,
				Column: utf8.RuneCountInString(text[lineStart:start]) + 1,
			}
			if !yield(c) {
				return
			}
		}
	}
}

// isBoundary reports whether a token may start at byte offset i.
func isBoundary(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	switch {
	case r == '_' || r == '.' || r == '-' || r == '/':
		return false
	case r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'):
		return false
	}
	return true
}

// hasBody reports whether raw still holds the identifier prefix after trimming.
func hasBody(raw string) bool {
	return strings.Contains(strings.ToLower(raw), Prefix)
}

// advanceLines moves the line cursor from lineStart to the line containing offset.
func advanceLines(text string, lineStart, line, offset int) (int, int) {
	for {
		nl := strings.IndexByte(text[lineStart:offset], '\n')
		if nl < 0 {
			return line, lineStart
		}
		lineStart += nl + 1
		line++
	}
}
