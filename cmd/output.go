package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/eykd/gts-validator/internal/domain"
)

// writeJSON encodes v as indented JSON to w, handling I/O errors at the boundary.
func writeJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(w, "{\"error\":%q}\n", err.Error())
	}
}

// reportJSON is the machine-readable report.
type reportJSON struct {
	ScannedFiles  int                 `json:"scanned_files"`
	OK            bool                `json:"ok"`
	ErrorsCount   int                 `json:"errors_count"`
	WarningsCount int                 `json:"warnings_count"`
	Findings      []findingJSON       `json:"findings"`
	Files         []domain.ScanRecord `json:"files"`
}

type findingJSON struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Severity   string `json:"severity"`
	Reason     string `json:"reason"`
	Identifier string `json:"identifier"`
	Message    string `json:"message"`
}

func newReportJSON(r *domain.Report) reportJSON {
	out := reportJSON{
		ScannedFiles:  r.ScannedFiles(),
		OK:            r.OK(),
		ErrorsCount:   r.ErrorsCount(),
		WarningsCount: r.WarningsCount(),
		Findings:      []findingJSON{},
		Files:         r.Files(),
	}
	if out.Files == nil {
		out.Files = []domain.ScanRecord{}
	}
	for _, f := range r.Findings() {
		out.Findings = append(out.Findings, findingJSON{
			File:       f.File,
			Line:       f.Location.Line,
			Column:     f.Location.Column,
			Severity:   string(f.Severity),
			Reason:     string(f.Reason),
			Identifier: f.Identifier,
			Message:    f.Message,
		})
	}
	return out
}

// formatReportJSON writes the report as one JSON object to w.
func formatReportJSON(w io.Writer, r *domain.Report) {
	writeJSON(w, newReportJSON(r))
}

// palette styles human output. A disabled palette renders plain text.
type palette struct {
	enabled bool
	err     lipgloss.Style
	warn    lipgloss.Style
	ok      lipgloss.Style
	bold    lipgloss.Style
}

func newPalette(enabled bool) palette {
	return palette{
		enabled: enabled,
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		bold:    lipgloss.NewStyle().Bold(true),
	}
}

func (p palette) render(s lipgloss.Style, text string) string {
	if !p.enabled {
		return text
	}
	return s.Render(text)
}

// useColor reports whether w is a terminal and colour was not disabled.
func useColor(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// formatReportHuman writes one line per finding, a summary line and, for
// failing runs, hints for the reasons present.
func formatReportHuman(w io.Writer, r *domain.Report, p palette) {
	for _, f := range r.Findings() {
		style := p.err
		if !f.IsError() {
			style = p.warn
		}
		severity := p.render(style, strings.ToUpper(string(f.Severity)))
		fmt.Fprintf(w, "%s:%d: %s %s — %s\n", f.File, f.Location.Line, severity, f.Reason, f.Identifier)
		if f.Message != "" {
			fmt.Fprintf(w, "    %s\n", f.Message)
		}
	}
	if len(r.Findings()) > 0 {
		fmt.Fprintln(w)
	}

	summary := fmt.Sprintf("Scanned %s: %s, %s",
		plural(r.ScannedFiles(), "file"), plural(r.ErrorsCount(), "error"), plural(r.WarningsCount(), "warning"))
	if r.OK() {
		fmt.Fprintln(w, p.render(p.ok, "✓ "+summary))
		return
	}
	fmt.Fprintln(w, p.render(p.err, "✗ "+summary))

	hints := fixHints(r.Findings())
	if len(hints) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.render(p.bold, "To fix:"))
	for _, h := range hints {
		fmt.Fprintf(w, "  - %s\n", h)
	}
}

// fixHints returns remediation hints for the finding kinds present.
func fixHints(findings []domain.Finding) []string {
	var parse, wildcard, vendor bool
	for _, f := range findings {
		switch {
		case f.Reason == domain.ReasonVendorMismatch:
			vendor = true
		case strings.Contains(f.Message, "wildcard"):
			wildcard = true
		case f.Reason == domain.ReasonMalformedIdentifier:
			parse = true
		}
	}

	var hints []string
	if parse {
		hints = append(hints,
			"Type identifiers end with ~ (e.g. gts.x.core.events.type.v1~)",
			"Each segment needs vendor.package.namespace.type.version",
			"Names are lowercase; use _ instead of -",
		)
	}
	if wildcard {
		hints = append(hints, "Wildcards (*) are only allowed in x-gts-ref patterns")
	}
	if vendor {
		hints = append(hints, "Ensure every identifier uses the expected vendor")
	}
	return hints
}
