package extract

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/eykd/gts-validator/internal/domain"
	"github.com/eykd/gts-validator/internal/frontmatter"
	"github.com/eykd/gts-validator/internal/gts"
)

// Markdown extracts candidates from markdown prose, code and frontmatter.
type Markdown struct{}

// Extract implements Extractor. YAML frontmatter is walked like a YAML
// document; the body is scanned as text. In strict discovery only code
// blocks, code spans and frontmatter contribute candidates.
func (Markdown) Extract(content string, cfg domain.ValidationConfig) Extraction {
	var out Extraction
	strict := cfg.Discovery == domain.DiscoveryStrict

	bodyStart := 0
	block, ok, err := frontmatter.Locate(content)
	if err != nil {
		// The whole document is read as body text.
		out.Err = fmt.Errorf("frontmatter: %w", err)
	}
	if ok {
		bodyStart = block.BodyStart
		node, err := block.Parse()
		switch {
		case err == nil && node != nil:
			w := yamlWalker{cfg: cfg, lines: strings.Split(block.Content, "\n"), lineOffset: block.Line - 1}
			w.walk(node, "")
			out.Candidates = append(out.Candidates, w.out...)
		case err != nil:
			out.Err = fmt.Errorf("frontmatter: %w", err)
			if !strict {
				out.Candidates = append(out.Candidates, scanText(content, block.Start, block.End, nil, cfg.SkipTokens)...)
			}
		}
	}

	var regions []gts.Span
	if strict {
		regions = codeRegions(content, bodyStart)
		if len(regions) == 0 {
			return out
		}
	}
	out.Candidates = append(out.Candidates, scanText(content, bodyStart, len(content), regions, cfg.SkipTokens)...)
	return out
}

// scanText yields candidates of content[from:to]. When regions is non-nil a
// candidate must lie entirely inside one of them.
func scanText(content string, from, to int, regions []gts.Span, skipTokens []string) []Candidate {
	var out []Candidate
	idx := newLineIndex(content)
	skips := lowerAll(skipTokens)

	for c := range gts.FindCandidates(content[from:to]) {
		start, end := from+c.Span.Start, from+c.Span.End
		if regions != nil && !inRegions(regions, start, end) {
			continue
		}
		if skipped(content, start, skips) {
			continue
		}
		out = append(out, Candidate{
			Raw:      c.Raw,
			Location: idx.location(start),
		})
	}
	return out
}

func lowerAll(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// skipped reports whether a skip token precedes offset on its line.
func skipped(content string, offset int, skips []string) bool {
	if len(skips) == 0 {
		return false
	}
	lineStart := strings.LastIndexByte(content[:offset], '\n') + 1
	prefix := strings.ToLower(content[lineStart:offset])
	for _, s := range skips {
		if strings.Contains(prefix, s) {
			return true
		}
	}
	return false
}

func inRegions(regions []gts.Span, start, end int) bool {
	for _, r := range regions {
		if start >= r.Start && end <= r.End {
			return true
		}
	}
	return false
}

// codeRegions returns the byte ranges of fenced code block lines and inline
// code span contents in content[from:].
func codeRegions(content string, from int) []gts.Span {
	src := []byte(content[from:])
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var regions []gts.Span
	add := func(seg text.Segment) {
		if !seg.IsEmpty() {
			regions = append(regions, gts.Span{Start: from + seg.Start, End: from + seg.Stop})
		}
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := range lines.Len() {
				add(lines.At(i))
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					add(t.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return regions
}
