// VendorPolicy restricts which vendor segment identifiers may carry. It is
// one of UnconstrainedPolicy or MustMatchPolicy. A nil policy is treated as
// Unconstrained by the engine.
type VendorPolicy interface {
	// Allows reports whether vendor satisfies the policy.
	Allows(vendor string) bool
	String() string

	vendorPolicy()
}

// UnconstrainedPolicy accepts every vendor.
type UnconstrainedPolicy struct{}

// MustMatchPolicy requires every identifier's vendor to equal Vendor.
type MustMatchPolicy struct {
	Vendor string
}

// Unconstrained returns a policy that accepts every vendor.
func Unconstrained() VendorPolicy {
	return UnconstrainedPolicy{}
}

// MustMatch returns a policy that requires every identifier's vendor to equal vendor.
func MustMatch(vendor string) VendorPolicy {
	return MustMatchPolicy{Vendor: vendor}
}

func (UnconstrainedPolicy) Allows(string) bool { return true }

func (UnconstrainedPolicy) String() string { return "unconstrained" }

func (UnconstrainedPolicy) vendorPolicy() {}

func (p MustMatchPolicy) Allows(vendor string) bool { return vendor == p.Vendor }

func (p MustMatchPolicy) String() string { return "must-match(" + p.Vendor + ")" }

func (MustMatchPolicy) vendorPolicy() {}

// DiscoveryMode controls how eagerly candidate identifiers are recognized.
type DiscoveryMode int

const (
	// DiscoveryDefault recognizes every identifier-shaped token.
	DiscoveryDefault DiscoveryMode = iota
	// DiscoveryStrict recognizes only tokens in high-confidence contexts:
	// code blocks, code spans and frontmatter in markdown, whole-value
	// identifiers in structured documents.
	DiscoveryStrict
)

// String returns the mode name.
func (m DiscoveryMode) String() string {
	if m == DiscoveryStrict {
		return "strict"
	}
	return "default"
}

// ValidationConfig holds the settings of one validation run.
// The engine reads it and never mutates it.
type ValidationConfig struct {
	VendorPolicy VendorPolicy
	Discovery    DiscoveryMode
	// ScanKeys also scans mapping keys of JSON and YAML documents.
	ScanKeys bool
	// SkipTokens suppress markdown candidates preceded on the same line by
	// any of these markers. Matching is case-insensitive.
	SkipTokens []string
}
