package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "quiet", verbose: false, wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.verbose)

			logger.Debug("scanned file", "file", "a.md")
			logger.Warn("skipping oversized file", "path", "big.md")

			out := buf.String()
			if got := strings.Contains(out, "scanned file"); got != tt.wantDebug {
				t.Errorf("debug record written = %v, want %v\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "path=big.md") {
				t.Errorf("warning missing from output:\n%s", out)
			}
		})
	}
}
