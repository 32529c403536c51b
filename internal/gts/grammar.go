// Package gts defines the lexical grammar of GTS identifiers and a scanner
// that locates identifier-shaped tokens in arbitrary text.
package gts

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Version identifies the rule set implemented by this package.
const Version = "v1"

// Prefix starts every GTS identifier.
const Prefix = "gts."

// MaxLength is the longest identifier accepted, in bytes.
const MaxLength = 1024

// Wildcard may end an identifier in pattern contexts.
const Wildcard = "*"

// ErrMalformed is returned for tokens that violate the identifier grammar.
var ErrMalformed = errors.New("malformed GTS identifier")

// ErrWildcard is returned for wildcards outside of pattern contexts.
var ErrWildcard = errors.New("wildcard not allowed outside pattern contexts")

var (
	nameRegex    = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	majorRegex   = regexp.MustCompile(`^v(0|[1-9][0-9]*)$`)
	minorRegex   = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)
	segmentParts = []string{"vendor", "package", "namespace", "type"}
)

// Segment is one `vendor.package.namespace.type.vMAJOR[.MINOR]` link of an
// identifier chain. Fields after a wildcard are empty.
type Segment struct {
	Vendor    string
	Package   string
	Namespace string
	Type      string
	Major     string
	Minor     string
	Wildcard  bool
}

// ID is a parsed, well-formed GTS identifier.
type ID struct {
	Raw      string
	Segments []Segment
	// Type is true when the identifier ends with `~`.
	Type bool
}

// Vendor returns the vendor token of the first segment.
func (id ID) Vendor() string {
	if len(id.Segments) == 0 {
		return ""
	}
	return id.Segments[0].Vendor
}

// IsPattern reports whether the identifier ends with a wildcard.
func (id ID) IsPattern() bool {
	return len(id.Segments) > 0 && id.Segments[len(id.Segments)-1].Wildcard
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Parse checks token against the grammar. Wildcards are accepted only when
// allowWildcard is set.
func Parse(token string, allowWildcard bool) (ID, error) {
	if !strings.HasPrefix(token, Prefix) {
		return ID{}, malformed("must start with %q", Prefix)
	}
	if len(token) > MaxLength {
		return ID{}, malformed("longer than %d bytes", MaxLength)
	}
	if strings.Contains(token, Wildcard) && !allowWildcard {
		return ID{}, ErrWildcard
	}

	body := token[len(Prefix):]
	isType := strings.HasSuffix(body, "~")
	if isType {
		body = body[:len(body)-1]
	}
	if body == "" {
		return ID{}, malformed("no segments")
	}

	chain := strings.Split(body, "~")
	id := ID{Raw: token, Type: isType, Segments: make([]Segment, 0, len(chain))}
	for i, part := range chain {
		last := i == len(chain)-1
		seg, err := parseSegment(part, last && allowWildcard)
		if err != nil {
			return ID{}, fmt.Errorf("segment %d: %w", i+1, err)
		}
		if seg.Wildcard && isType {
			return ID{}, malformed("wildcard segment cannot end with '~'")
		}
		id.Segments = append(id.Segments, seg)
	}

	if !isType && !id.IsPattern() && len(id.Segments) == 1 {
		return ID{}, malformed("type identifier must end with '~'")
	}
	return id, nil
}

// IsWellFormed reports whether token parses without wildcards.
func IsWellFormed(token string) bool {
	_, err := Parse(token, false)
	return err == nil
}

func parseSegment(part string, allowWildcard bool) (Segment, error) {
	if part == "" {
		return Segment{}, malformed("empty segment")
	}
	tokens := strings.Split(part, ".")

	var seg Segment
	fields := []*string{&seg.Vendor, &seg.Package, &seg.Namespace, &seg.Type}
	for i, tok := range tokens {
		if tok == Wildcard {
			if !allowWildcard {
				return Segment{}, malformed("wildcard must be in the last segment")
			}
			if i != len(tokens)-1 {
				return Segment{}, malformed("wildcard must be the last token")
			}
			seg.Wildcard = true
			return seg, nil
		}
		if strings.Contains(tok, Wildcard) {
			return Segment{}, malformed("wildcard must be a whole token, got %q", tok)
		}

		switch {
		case i < len(fields):
			if err := checkName(segmentParts[i], tok); err != nil {
				return Segment{}, err
			}
			*fields[i] = tok
		case i == len(fields):
			if !majorRegex.MatchString(tok) {
				return Segment{}, malformed("version %q must look like v1", tok)
			}
			seg.Major = tok
		case i == len(fields)+1:
			if !minorRegex.MatchString(tok) {
				return Segment{}, malformed("minor version %q must be a number", tok)
			}
			seg.Minor = tok
		default:
			return Segment{}, malformed("too many tokens in %q", part)
		}
	}

	if seg.Major == "" {
		return Segment{}, malformed("%q needs 5 parts: vendor.package.namespace.type.version", part)
	}
	return seg, nil
}

func checkName(kind, tok string) error {
	if tok == "" {
		return malformed("empty %s", kind)
	}
	if strings.Contains(tok, "-") {
		return malformed("%s %q contains '-', use '_'", kind, tok)
	}
	if !nameRegex.MatchString(tok) {
		return malformed("%s %q must match [a-z_][a-z0-9_]*", kind, tok)
	}
	return nil
}

// String renders the identifier in its textual form.
func (id ID) String() string {
	var b strings.Builder
	b.WriteString(Prefix)
	for i, seg := range id.Segments {
		if i > 0 {
			b.WriteByte('~')
		}
		b.WriteString(seg.String())
	}
	if id.Type {
		b.WriteByte('~')
	}
	return b.String()
}

// String renders the segment in dotted form.
func (s Segment) String() string {
	var parts []string
	for _, p := range []string{s.Vendor, s.Package, s.Namespace, s.Type, s.Major, s.Minor} {
		if p == "" {
			break
		}
		parts = append(parts, p)
	}
	if s.Wildcard {
		parts = append(parts, Wildcard)
	}
	return strings.Join(parts, ".")
}
