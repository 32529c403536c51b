// Package extract locates candidate GTS identifiers in markdown, JSON and
// YAML documents, attaching source positions and pattern context.
package extract

import (
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/eykd/gts-validator/internal/domain"
	"github.com/eykd/gts-validator/internal/gts"
)

// patternKey marks structured values in which wildcards are legal.
const patternKey = "x-gts-ref"

// Candidate is one identifier occurrence ready for validation.
type Candidate struct {
	Raw      string
	Location domain.Location
	// Pattern is set for values where wildcards are legal.
	Pattern bool
}

// Extraction is the result of extracting one document.
type Extraction struct {
	Candidates []Candidate
	// Err reports a structured document, or a markdown frontmatter block,
	// that could not be fully parsed. Candidates recovered before or around
	// the failure are kept.
	Err error
}

// Extractor finds candidates in one document.
type Extractor interface {
	Extract(content string, cfg domain.ValidationConfig) Extraction
}

// Format names a supported content format.
type Format string

// Supported formats.
const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// FormatFor maps a file identifier to its format by extension. Unknown
// extensions are read as markdown.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatMarkdown
	}
}

// For returns the extractor for path.
func For(path string) Extractor {
	switch FormatFor(path) {
	case FormatJSON:
		return JSON{}
	case FormatYAML:
		return YAML{}
	default:
		return Markdown{}
	}
}

// Extract runs the extractor matching path over content.
func Extract(path, content string, cfg domain.ValidationConfig) Extraction {
	return For(path).Extract(content, cfg)
}

// wholeValue reports whether value, trimmed, is exactly one candidate.
func wholeValue(value string, c gts.Candidate) bool {
	return strings.TrimSpace(value) == c.Raw
}

// lineIndex maps byte offsets to 1-based line and rune column.
type lineIndex struct {
	text   string
	starts []int
}

func newLineIndex(text string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{text: text, starts: starts}
}

func (li *lineIndex) location(offset int) domain.Location {
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return domain.Location{
		Line:   i + 1,
		Column: utf8.RuneCountInString(li.text[li.starts[i]:offset]) + 1,
	}
}
