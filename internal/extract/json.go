package extract

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/eykd/gts-validator/internal/domain"
	"github.com/eykd/gts-validator/internal/gts"
)

// JSON extracts candidates from string values (and optionally keys) of a
// JSON document or stream of documents.
type JSON struct{}

type jsonFrame struct {
	object    bool
	expectKey bool
	key       string
}

// Extract implements Extractor. An unparseable document yields no
// candidates and a non-nil Err.
func (JSON) Extract(content string, cfg domain.ValidationConfig) Extraction {
	x := jsonExtractor{
		content: content,
		cfg:     cfg,
		idx:     newLineIndex(content),
	}
	if err := x.run(); err != nil {
		return Extraction{Err: err}
	}
	return Extraction{Candidates: x.out}
}

type jsonExtractor struct {
	content string
	cfg     domain.ValidationConfig
	idx     *lineIndex
	stack   []*jsonFrame
	out     []Candidate
}

func (x *jsonExtractor) top() *jsonFrame {
	if len(x.stack) == 0 {
		return nil
	}
	return x.stack[len(x.stack)-1]
}

// valueDone flips the enclosing object back to expecting a key.
func (x *jsonExtractor) valueDone() {
	if f := x.top(); f != nil && f.object {
		f.expectKey = true
	}
}

func (x *jsonExtractor) run() error {
	dec := json.NewDecoder(strings.NewReader(x.content))
	dec.UseNumber()

	prev := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if len(x.stack) > 0 {
				return io.ErrUnexpectedEOF
			}
			return nil
		}
		if err != nil {
			return err
		}
		end := int(dec.InputOffset())

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				x.stack = append(x.stack, &jsonFrame{object: true, expectKey: true})
			case '[':
				inherited := ""
				if f := x.top(); f != nil {
					inherited = f.key
				}
				x.stack = append(x.stack, &jsonFrame{key: inherited})
			default:
				x.stack = x.stack[:len(x.stack)-1]
				x.valueDone()
			}
		case string:
			f := x.top()
			if f != nil && f.object && f.expectKey {
				f.key = v
				f.expectKey = false
				if x.cfg.ScanKeys {
					x.emit(v, prev, end, false)
				}
			} else {
				x.emit(v, prev, end, f != nil && f.key == patternKey)
				x.valueDone()
			}
		default:
			x.valueDone()
		}
		prev = end
	}
}

// emit records candidates of the decoded string s whose raw literal lies in
// content[from:to].
func (x *jsonExtractor) emit(s string, from, to int, pattern bool) {
	strict := x.cfg.Discovery == domain.DiscoveryStrict
	raw := x.content[from:to]
	search := 0
	for c := range gts.FindCandidates(s) {
		if strict && !wholeValue(s, c) {
			continue
		}
		offset := from + strings.IndexByte(raw, '"')
		if i := strings.Index(raw[search:], c.Raw); i >= 0 {
			offset = from + search + i
			search += i + len(c.Raw)
		}
		x.out = append(x.out, Candidate{
			Raw:      c.Raw,
			Location: x.idx.location(offset),
			Pattern:  pattern,
		})
	}
}
