package pricing

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount for display in the given ISO currency.
// Unset amounts render blank.
func FormatMoney(amount decimal.NullDecimal, currency string) string {
	if !amount.Valid {
		return ""
	}
	return FormatAmount(amount.Decimal, currency)
}

// FormatAmount always renders a value. An unknown currency code renders
// with a plain dollar sign.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return "$" + amount.StringFixed(2)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
