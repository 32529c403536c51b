package domain

import "fmt"

// FindingSeverity indicates how severe a finding is.
type FindingSeverity string

const (
	// SeverityError indicates a finding that fails the run.
	SeverityError FindingSeverity = "error"
	// SeverityWarning indicates a finding that should be reviewed but does not fail the run.
	SeverityWarning FindingSeverity = "warning"
)

// Reason identifies why a finding was raised.
type Reason string

// Reason constants identify the kind of issue found.
const (
	ReasonMalformedIdentifier Reason = "malformed_identifier"
	ReasonVendorMismatch      Reason = "vendor_mismatch"
)

// Location is a 1-based position in a file. Column is 0 when unknown.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String renders the location as line or line:column.
func (l Location) String() string {
	if l.Column > 0 {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%d", l.Line)
}

// Less reports whether l comes before other in reading order.
func (l Location) Less(other Location) bool {
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

// Finding represents one validation outcome for one identifier occurrence.
type Finding struct {
	File       string          `json:"file"`
	Location   Location        `json:"location"`
	Identifier string          `json:"identifier"`
	Severity   FindingSeverity `json:"severity"`
	Reason     Reason          `json:"reason"`
	Message    string          `json:"message"`
}

// IsError reports whether the finding has error severity.
func (f Finding) IsError() bool {
	return f.Severity == SeverityError
}
