package domain

import "slices"

// ScanRecord is the per-file metadata of a validation run.
type ScanRecord struct {
	File        string `json:"file"`
	Identifiers int    `json:"identifiers"`
	Findings    int    `json:"findings"`
}

// Report is the frozen result of one validation run. It is only obtainable
// from ReportBuilder.Finish and exposes read accessors that return copies.
type Report struct {
	findings []Finding
	files    []ScanRecord
	errors   int
	warnings int
}

// ScannedFiles returns the number of files recorded in the run.
func (r *Report) ScannedFiles() int { return len(r.files) }

// OK reports whether the run produced no error-severity finding.
func (r *Report) OK() bool { return r.errors == 0 }

// ErrorsCount returns the number of error-severity findings.
func (r *Report) ErrorsCount() int { return r.errors }

// WarningsCount returns the number of warning-severity findings.
func (r *Report) WarningsCount() int { return r.warnings }

// Findings returns the findings in file-then-location order.
func (r *Report) Findings() []Finding { return slices.Clone(r.findings) }

// Files returns the scan records in file-processing order.
func (r *Report) Files() []ScanRecord { return slices.Clone(r.files) }

// ReportBuilder accumulates scan records and findings for one run.
// Finish consumes the builder; using it afterwards panics.
type ReportBuilder struct {
	findings []Finding
	files    []ScanRecord
	finished bool
}

// NewReportBuilder returns an empty builder.
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{}
}

// RecordFile appends one scan record and the file's findings, preserving order.
func (b *ReportBuilder) RecordFile(file string, candidates int, findings []Finding) {
	if b.finished {
		panic("domain: RecordFile called on finished ReportBuilder")
	}
	b.files = append(b.files, ScanRecord{
		File:        file,
		Identifiers: candidates,
		Findings:    len(findings),
	})
	b.findings = append(b.findings, findings...)
}

// Finish freezes the accumulated state into a Report.
func (b *ReportBuilder) Finish() *Report {
	if b.finished {
		panic("domain: Finish called on finished ReportBuilder")
	}
	b.finished = true

	r := &Report{
		findings: b.findings,
		files:    b.files,
	}
	for _, f := range r.findings {
		if f.IsError() {
			r.errors++
		} else {
			r.warnings++
		}
	}
	b.findings = nil
	b.files = nil
	return r
}
