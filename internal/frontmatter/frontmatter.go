// Package frontmatter locates and parses YAML frontmatter in markdown documents.
package frontmatter

import (
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnclosed is returned when an opening delimiter has no closing one.
var ErrUnclosed = errors.New("unclosed frontmatter")

// Block describes where a frontmatter block sits in its document.
type Block struct {
	// Content is the YAML text between the delimiters.
	Content string
	// Start and End are the byte offsets of Content in the document.
	Start int
	End   int
	// BodyStart is the byte offset where the body begins.
	BodyStart int
	// Line is the 1-based line of the first Content line.
	Line int
}

// Locate finds the frontmatter block of input. Frontmatter must open on the
// first line with --- and close with --- on its own line. It reports false
// when the document has no frontmatter.
func Locate(input string) (Block, bool, error) {
	if !strings.HasPrefix(input, "---\n") && !strings.HasPrefix(input, "---\r\n") {
		return Block{}, false, nil
	}

	start := strings.IndexByte(input, '\n') + 1
	pos := start
	for pos < len(input) {
		nlIdx := strings.IndexByte(input[pos:], '\n')

		var line string
		var nextPos int
		if nlIdx < 0 {
			line = input[pos:]
			nextPos = len(input)
		} else {
			line = input[pos : pos+nlIdx]
			nextPos = pos + nlIdx + 1
		}

		if strings.TrimSuffix(line, "\r") == "---" {
			return Block{
				Content:   input[start:pos],
				Start:     start,
				End:       pos,
				BodyStart: nextPos,
				Line:      2,
			}, true, nil
		}

		pos = nextPos
	}

	return Block{}, false, ErrUnclosed
}

// Parse decodes the block's YAML. It returns nil for an empty block.
func (b Block) Parse() (*yaml.Node, error) {
	if strings.TrimSpace(b.Content) == "" {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(b.Content), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
