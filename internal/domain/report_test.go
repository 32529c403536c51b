package domain

import (
	"reflect"
	"testing"
)

func finding(file string, line int, sev FindingSeverity) Finding {
	return Finding{File: file, Location: Location{Line: line}, Severity: sev, Reason: ReasonMalformedIdentifier}
}

func TestReportBuilder_Empty(t *testing.T) {
	r := NewReportBuilder().Finish()

	if r.ScannedFiles() != 0 || !r.OK() || r.ErrorsCount() != 0 || r.WarningsCount() != 0 {
		t.Errorf("empty report = files %d ok %v errors %d warnings %d",
			r.ScannedFiles(), r.OK(), r.ErrorsCount(), r.WarningsCount())
	}
	if len(r.Findings()) != 0 || len(r.Files()) != 0 {
		t.Error("empty report should have no findings or files")
	}
}

func TestReportBuilder_CountsAndOrder(t *testing.T) {
	b := NewReportBuilder()
	b.RecordFile("a.md", 0, nil)
	b.RecordFile("b.md", 3, []Finding{finding("b.md", 1, SeverityError), finding("b.md", 4, SeverityWarning)})
	b.RecordFile("c.md", 1, []Finding{finding("c.md", 2, SeverityError)})
	r := b.Finish()

	if r.ScannedFiles() != 3 {
		t.Errorf("ScannedFiles() = %d, want 3", r.ScannedFiles())
	}
	if r.OK() {
		t.Error("OK() = true with error findings")
	}
	if r.ErrorsCount() != 2 || r.WarningsCount() != 1 {
		t.Errorf("errors %d warnings %d, want 2 and 1", r.ErrorsCount(), r.WarningsCount())
	}

	wantFiles := []ScanRecord{
		{File: "a.md", Identifiers: 0, Findings: 0},
		{File: "b.md", Identifiers: 3, Findings: 2},
		{File: "c.md", Identifiers: 1, Findings: 1},
	}
	if !reflect.DeepEqual(r.Files(), wantFiles) {
		t.Errorf("Files() = %+v, want %+v", r.Files(), wantFiles)
	}

	var order []string
	for _, f := range r.Findings() {
		order = append(order, f.File+":"+f.Location.String())
	}
	if want := []string{"b.md:1", "b.md:4", "c.md:2"}; !reflect.DeepEqual(order, want) {
		t.Errorf("finding order = %v, want %v", order, want)
	}
}

func TestReport_WarningsOnlyIsOK(t *testing.T) {
	b := NewReportBuilder()
	b.RecordFile("a.md", 1, []Finding{finding("a.md", 1, SeverityWarning)})

	if r := b.Finish(); !r.OK() {
		t.Error("warnings alone should not fail the report")
	}
}

func TestReport_AccessorsReturnCopies(t *testing.T) {
	b := NewReportBuilder()
	b.RecordFile("a.md", 1, []Finding{finding("a.md", 1, SeverityError)})
	r := b.Finish()

	r.Findings()[0].File = "mutated"
	r.Files()[0].File = "mutated"

	if r.Findings()[0].File != "a.md" || r.Files()[0].File != "a.md" {
		t.Error("report accessors must not expose internal slices")
	}
}

func TestReportBuilder_RecordFileCopiesFindings(t *testing.T) {
	fs := []Finding{finding("a.md", 1, SeverityError)}
	b := NewReportBuilder()
	b.RecordFile("a.md", 1, fs)
	fs[0].File = "mutated"

	if got := b.Finish().Findings()[0].File; got != "a.md" {
		t.Errorf("finding file = %q, caller mutation leaked into report", got)
	}
}

func TestReportBuilder_UseAfterFinishPanics(t *testing.T) {
	tests := []struct {
		name string
		use  func(*ReportBuilder)
	}{
		{"RecordFile", func(b *ReportBuilder) { b.RecordFile("a.md", 0, nil) }},
		{"Finish", func(b *ReportBuilder) { b.Finish() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewReportBuilder()
			b.Finish()
			defer func() {
				if recover() == nil {
					t.Errorf("%s after Finish should panic", tt.name)
				}
			}()
			tt.use(b)
		})
	}
}
