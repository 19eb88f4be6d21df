package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a user-typed number. Currency symbols and spaces are
// ignored and a lone comma is read as the decimal separator. Blank or
// malformed input yields an unset value, never an error.
func ParseAmount(raw string) decimal.NullDecimal {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return decimal.NullDecimal{}
	}
	if strings.Contains(cleaned, ",") && !strings.Contains(cleaned, ".") {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value)
}

// ParseRate reads an exchange rate, keeping only positive values.
func ParseRate(raw string) decimal.NullDecimal {
	return positive(ParseAmount(raw))
}

func positive(value decimal.NullDecimal) decimal.NullDecimal {
	if !value.Valid || !value.Decimal.IsPositive() {
		return decimal.NullDecimal{}
	}
	return value
}

// orZero treats unset and negative amounts as zero.
func orZero(value decimal.NullDecimal) decimal.Decimal {
	if !value.Valid || value.Decimal.IsNegative() {
		return decimal.Zero
	}
	return value.Decimal
}

// rateOrOne is the landed-cost rate rule: anything unusable converts 1:1.
func rateOrOne(rate decimal.NullDecimal) decimal.Decimal {
	if r := positive(rate); r.Valid {
		return r.Decimal
	}
	return decimal.NewFromInt(1)
}
