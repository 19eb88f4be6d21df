package pricing

import (
	"github.com/shopspring/decimal"

	"tandas/backend/internal/domain"
)

var presetMultipliers = map[domain.MarginPolicy]decimal.Decimal{
	domain.MarginPolicyLow:    decimal.RequireFromString("1.3"),
	domain.MarginPolicyMid:    decimal.RequireFromString("1.5"),
	domain.MarginPolicyHigh:   decimal.RequireFromString("1.8"),
	domain.MarginPolicyDouble: decimal.NewFromInt(2),
}

// Presets lists the fixed markup tiers in ascending order.
func Presets() []domain.MarginPreset {
	policies := []domain.MarginPolicy{
		domain.MarginPolicyLow,
		domain.MarginPolicyMid,
		domain.MarginPolicyHigh,
		domain.MarginPolicyDouble,
	}
	presets := make([]domain.MarginPreset, 0, len(policies))
	for _, policy := range policies {
		presets = append(presets, domain.MarginPreset{Policy: policy, Multiplier: presetMultipliers[policy]})
	}
	return presets
}

func IsKnownPolicy(policy domain.MarginPolicy) bool {
	if policy == domain.MarginPolicyCustom {
		return true
	}
	_, ok := presetMultipliers[policy]
	return ok
}

// ResolveMultiplier maps a policy to its numeric multiplier. Custom reads
// the free-form value; an unknown policy or unusable custom value is unset.
func ResolveMultiplier(policy domain.MarginPolicy, custom string) decimal.NullDecimal {
	if policy == domain.MarginPolicyCustom {
		return positive(ParseAmount(custom))
	}
	if m, ok := presetMultipliers[policy]; ok {
		return decimal.NewNullDecimal(m)
	}
	return decimal.NullDecimal{}
}
