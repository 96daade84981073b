package utils

import (
	"strings"
	"testing"
)

func TestGenerateReferralCodeFormat(t *testing.T) {
	types := []ReferralType{PartnerType, CustomerType, InfluencerType, PreregistrationType}
	for _, rt := range types {
		code, err := GenerateReferralCode(rt)
		if err != nil {
			t.Fatalf("GenerateReferralCode(%s) error: %v", rt, err)
		}
		if !strings.HasPrefix(code, string(rt)+"-") {
			t.Errorf("code %q missing %s- prefix", code, rt)
		}
		if len(code) != len(rt)+7 {
			t.Errorf("code %q has unexpected length %d", code, len(code))
		}
		// Generated codes must pass our own validation.
		if _, err := ValidateCode(code); err != nil {
			t.Errorf("generated code %q failed validation: %v", code, err)
		}
	}
}

func TestGenerateReferralCodeUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GeneratePartnerCode()
		if err != nil {
			t.Fatalf("GeneratePartnerCode error: %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q after %d generations", code, i)
		}
		seen[code] = true
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ptr-abc123", "PTR-ABC123"},
		{"  PTR-ABC123  ", "PTR-ABC123"},
		{"Ptr-Abc123", "PTR-ABC123"},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateCode(t *testing.T) {
	valid := []string{"PTR-ABC123", "cus-xyz789", " INF-PET001 ", "SARAH2026"}
	for _, code := range valid {
		if _, err := ValidateCode(code); err != nil {
			t.Errorf("ValidateCode(%q) unexpectedly failed: %v", code, err)
		}
	}

	invalid := []string{"", "   ", "ab", "-LEADING", "TRAILING-", "HAS SPACE", "bad_underscore", strings.Repeat("A", 40)}
	for _, code := range invalid {
		if _, err := ValidateCode(code); err == nil {
			t.Errorf("ValidateCode(%q) should have failed", code)
		}
	}
}
