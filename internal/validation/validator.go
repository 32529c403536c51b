// Package validation checks extracted identifiers against the grammar and
// vendor policy and folds per-file results into a report.
package validation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/eykd/gts-validator/internal/domain"
	"github.com/eykd/gts-validator/internal/extract"
	"github.com/eykd/gts-validator/internal/gts"
	"github.com/eykd/gts-validator/internal/normalize"
)

// Grammar is a versioned identifier rule set. Check returns the vendor
// segment of a well-formed token, or an error describing the violation.
type Grammar interface {
	Version() string
	Check(token string, allowWildcard bool) (vendor string, err error)
}

// defaultGrammar delegates to the gts package.
type defaultGrammar struct{}

func (defaultGrammar) Version() string { return gts.Version }

func (defaultGrammar) Check(token string, allowWildcard bool) (string, error) {
	id, err := gts.Parse(token, allowWildcard)
	if err != nil {
		return "", err
	}
	return id.Vendor(), nil
}

// DefaultGrammar returns the built-in GTS grammar.
func DefaultGrammar() Grammar {
	return defaultGrammar{}
}

// Validator turns one file's candidates into findings.
type Validator struct {
	grammar Grammar
	policy  domain.VendorPolicy
}

// NewValidator creates a Validator for cfg. A nil grammar selects
// DefaultGrammar and a nil vendor policy accepts every vendor.
func NewValidator(cfg domain.ValidationConfig, grammar Grammar) *Validator {
	if grammar == nil {
		grammar = DefaultGrammar()
	}
	return &Validator{
		grammar: grammar,
		policy:  normalizePolicy(cfg.VendorPolicy),
	}
}

// normalizePolicy folds a required vendor the same way identifiers are folded.
func normalizePolicy(p domain.VendorPolicy) domain.VendorPolicy {
	switch p := p.(type) {
	case nil:
		return domain.Unconstrained()
	case domain.MustMatchPolicy:
		return domain.MustMatch(normalize.Normalize(p.Vendor))
	}
	return p
}

// Check validates cands in occurrence order. Well-formed, vendor-compliant
// candidates produce no finding. Every occurrence is checked on its own.
func (v *Validator) Check(file string, cands []extract.Candidate) []domain.Finding {
	var findings []domain.Finding
	for _, c := range cands {
		if f, ok := v.check(file, c); ok {
			findings = append(findings, f)
		}
	}
	slices.SortStableFunc(findings, func(a, b domain.Finding) int {
		switch {
		case a.Location.Less(b.Location):
			return -1
		case b.Location.Less(a.Location):
			return 1
		}
		return 0
	})
	return findings
}

func (v *Validator) check(file string, c extract.Candidate) (domain.Finding, bool) {
	id := normalize.Normalize(c.Raw)
	f := domain.Finding{
		File:       file,
		Location:   c.Location,
		Identifier: id,
		Severity:   domain.SeverityError,
	}

	vendor, err := v.grammar.Check(id, c.Pattern)
	if err != nil {
		f.Reason = domain.ReasonMalformedIdentifier
		f.Message = violation(err)
		return f, true
	}

	// A bare pattern such as "gts.*" names no vendor.
	if vendor == "" || v.policy.Allows(vendor) {
		return domain.Finding{}, false
	}
	f.Reason = domain.ReasonVendorMismatch
	f.Message = mismatch(vendor, v.policy)
	return f, true
}

func mismatch(vendor string, p domain.VendorPolicy) string {
	if mm, ok := p.(domain.MustMatchPolicy); ok {
		return fmt.Sprintf("vendor %q does not match required vendor %q", vendor, mm.Vendor)
	}
	return fmt.Sprintf("vendor %q is not allowed by %s", vendor, p)
}

// violation renders a grammar error as a finding message.
func violation(err error) string {
	if errors.Is(err, gts.ErrWildcard) {
		return "wildcard '*' is only allowed in x-gts-ref patterns"
	}
	return err.Error()
}
