package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PRICING_CACHE_TTL_SECONDS", "")
	t.Setenv("LOCAL_CURRENCY", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.PricingCacheTTLSeconds != 60 {
		t.Fatalf("expected default ttl 60, got %d", cfg.PricingCacheTTLSeconds)
	}
	if cfg.LocalCurrency != "ARS" {
		t.Fatalf("expected default local currency ARS, got %q", cfg.LocalCurrency)
	}
	if cfg.CrossBatchCodes {
		t.Fatalf("expected cross-batch code check to be off by default")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PRICING_CACHE_TTL_SECONDS", "-4")
	t.Setenv("COST_CURRENCY", "dollars")
	t.Setenv("CROSS_BATCH_CODES", "true")

	cfg := Load()
	if cfg.PricingCacheTTLSeconds != 60 {
		t.Fatalf("expected ttl fallback 60, got %d", cfg.PricingCacheTTLSeconds)
	}
	if cfg.CostCurrency != "USD" {
		t.Fatalf("expected currency fallback USD, got %q", cfg.CostCurrency)
	}
	if !cfg.CrossBatchCodes {
		t.Fatalf("expected CROSS_BATCH_CODES=true to be honoured")
	}
	if cfg.Address() != ":"+cfg.Port {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}
