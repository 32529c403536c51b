package extract

import (
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eykd/gts-validator/internal/domain"
	"github.com/eykd/gts-validator/internal/gts"
)

// YAML extracts candidates from string scalars of a YAML stream.
type YAML struct{}

// Extract implements Extractor. Every document of a multi-document stream is
// walked. If the stream does not parse, documents are split on --- lines and
// parsed one by one so well-formed siblings of a broken document still count.
func (YAML) Extract(content string, cfg domain.ValidationConfig) Extraction {
	w := yamlWalker{cfg: cfg, lines: strings.Split(content, "\n")}

	docs, err := decodeAll(content)
	if err == nil {
		for _, doc := range docs {
			w.walk(doc, "")
		}
		return Extraction{Candidates: w.out}
	}

	for _, seg := range splitDocuments(content) {
		segDocs, segErr := decodeAll(seg.text)
		if segErr != nil {
			continue
		}
		w.lines = strings.Split(seg.text, "\n")
		w.lineOffset = seg.line - 1
		for _, doc := range segDocs {
			w.walk(doc, "")
		}
	}
	return Extraction{Candidates: w.out, Err: err}
}

func decodeAll(content string) ([]*yaml.Node, error) {
	dec := yaml.NewDecoder(strings.NewReader(content))
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
}

type yamlSegment struct {
	text string
	line int
}

// splitDocuments splits a stream on --- separator lines.
func splitDocuments(content string) []yamlSegment {
	var segs []yamlSegment
	var cur []string
	start := 1

	flush := func() {
		text := strings.Join(cur, "\n")
		if strings.TrimSpace(text) != "" {
			segs = append(segs, yamlSegment{text: text, line: start})
		}
		cur = cur[:0]
	}

	for i, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "---" {
			flush()
			start = i + 2
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return segs
}

// yamlWalker collects candidates from a node tree.
type yamlWalker struct {
	cfg domain.ValidationConfig
	// lines are the source lines of the text being walked.
	lines      []string
	lineOffset int
	out        []Candidate
}

// walk visits n. key is the mapping key n belongs to; sequence items
// inherit the key of their sequence.
func (w *yamlWalker) walk(n *yaml.Node, key string) {
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			w.walk(c, "")
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if w.cfg.ScanKeys && k.Kind == yaml.ScalarNode {
				w.scalar(k, false)
			}
			w.walk(v, k.Value)
		}
	case yaml.SequenceNode:
		for _, c := range n.Content {
			w.walk(c, key)
		}
	case yaml.ScalarNode:
		if n.ShortTag() == "!!str" {
			w.scalar(n, key == patternKey)
		}
	}
}

func (w *yamlWalker) scalar(n *yaml.Node, pattern bool) {
	strict := w.cfg.Discovery == domain.DiscoveryStrict
	for c := range gts.FindCandidates(n.Value) {
		if strict && !wholeValue(n.Value, c) {
			continue
		}
		w.out = append(w.out, Candidate{
			Raw:      c.Raw,
			Location: w.position(n, c),
			Pattern:  pattern,
		})
	}
}

// position maps a candidate inside a scalar value back to the document.
// Columns are exact only for single-line plain and quoted scalars.
func (w *yamlWalker) position(n *yaml.Node, c gts.Candidate) domain.Location {
	line := n.Line + w.lineOffset
	switch {
	case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		return domain.Location{Line: line + c.Line}
	case strings.Contains(n.Value, "\n"):
		return domain.Location{Line: line + c.Line - 1}
	}

	col := n.Column + c.Column - 1
	if q := quoteOf(n); q != "" {
		// Escapes before the candidate shift it right of its decoded offset.
		if !w.verbatim(n, q+n.Value[:c.Span.Start]) {
			return domain.Location{Line: line}
		}
		col++
	}
	return domain.Location{Line: line, Column: col}
}

func quoteOf(n *yaml.Node) string {
	switch {
	case n.Style&yaml.SingleQuotedStyle != 0:
		return "'"
	case n.Style&yaml.DoubleQuotedStyle != 0:
		return `"`
	}
	return ""
}

// verbatim reports whether the source of n starts with prefix.
func (w *yamlWalker) verbatim(n *yaml.Node, prefix string) bool {
	if n.Line < 1 || n.Line > len(w.lines) {
		return false
	}
	line := w.lines[n.Line-1]
	skip := n.Column - 1
	for i := range line {
		if skip == 0 {
			return strings.HasPrefix(line[i:], prefix)
		}
		skip--
	}
	return false
}
