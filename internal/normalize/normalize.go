// Package normalize reduces raw identifier tokens to the canonical form used
// for grammar and vendor comparison.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const uriPrefix = "gts://"

// maxFoldRounds bounds the NFKC/case-fold fixed-point loop.
const maxFoldRounds = 4

// Normalize returns the canonical comparison form of raw. It NFKC-normalizes
// (folding full-width delimiters to ASCII), case-folds, trims whitespace and
// strips any gts:// URI prefixes. It never fails and is idempotent.
func Normalize(raw string) string {
	s := fold(raw)
	for {
		trimmed := strings.TrimPrefix(strings.TrimSpace(s), uriPrefix)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// fold applies NFKC and case folding until the string stops changing.
// A Caser carries state, so each call gets its own.
func fold(s string) string {
	caser := cases.Fold()
	s = norm.NFKC.String(s)
	for range maxFoldRounds {
		next := norm.NFKC.String(caser.String(s))
		if next == s {
			break
		}
		s = next
	}
	return s
}

// URI renders an identifier in its gts:// URI form.
func URI(id string) string {
	return uriPrefix + Normalize(id)
}
