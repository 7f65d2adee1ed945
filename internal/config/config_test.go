package config

import "testing"

func TestValidate_DevDefaults(t *testing.T) {
	cfg := &Config{
		Env:                      "development",
		KRAEnvironment:           "sandbox",
		MpesaEnvironment:         "sandbox",
		PrescriptionValidityDays: 180,
		DefaultExpiryAlert:       90,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionRequiresIssuer(t *testing.T) {
	cfg := &Config{
		Env:                      "production",
		KRAEnvironment:           "sandbox",
		MpesaEnvironment:         "sandbox",
		PrescriptionValidityDays: 180,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing AUTH_ISSUER in production")
	}
}

func TestValidate_BadKRAEnvironment(t *testing.T) {
	cfg := &Config{
		Env:                      "development",
		KRAEnvironment:           "staging",
		MpesaEnvironment:         "sandbox",
		PrescriptionValidityDays: 180,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid KRA_ENVIRONMENT")
	}
}

func TestValidate_NonPositiveValidityWindow(t *testing.T) {
	cfg := &Config{
		Env:                      "development",
		KRAEnvironment:           "sandbox",
		MpesaEnvironment:         "sandbox",
		PrescriptionValidityDays: 0,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero validity window")
	}
}
