package domain

import "testing"

func TestVendorPolicy_Allows(t *testing.T) {
	tests := []struct {
		name   string
		policy VendorPolicy
		vendor string
		want   bool
	}{
		{"unconstrained accepts anything", Unconstrained(), "other", true},
		{"must match accepts vendor", MustMatch("acme"), "acme", true},
		{"must match rejects other vendor", MustMatch("acme"), "other", false},
		{"must match is exact", MustMatch("acme"), "acme_corp", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Allows(tt.vendor); got != tt.want {
				t.Errorf("%s.Allows(%q) = %v, want %v", tt.policy, tt.vendor, got, tt.want)
			}
		})
	}
}

func TestVendorPolicy_Variants(t *testing.T) {
	switch p := MustMatch("acme").(type) {
	case MustMatchPolicy:
		if p.Vendor != "acme" {
			t.Errorf("MustMatch(acme).Vendor = %q", p.Vendor)
		}
	default:
		t.Errorf("MustMatch(acme) = %T, want MustMatchPolicy", p)
	}
	if _, ok := Unconstrained().(UnconstrainedPolicy); !ok {
		t.Errorf("Unconstrained() = %T, want UnconstrainedPolicy", Unconstrained())
	}
}

func TestVendorPolicy_String(t *testing.T) {
	if got := Unconstrained().String(); got != "unconstrained" {
		t.Errorf("String() = %q", got)
	}
	if got := MustMatch("acme").String(); got != "must-match(acme)" {
		t.Errorf("String() = %q", got)
	}
}

func TestDiscoveryMode_String(t *testing.T) {
	if DiscoveryDefault.String() != "default" || DiscoveryStrict.String() != "strict" {
		t.Errorf("unexpected mode names: %s, %s", DiscoveryDefault, DiscoveryStrict)
	}
	var zero ValidationConfig
	if zero.Discovery != DiscoveryDefault {
		t.Error("zero ValidationConfig should use default discovery")
	}
}
