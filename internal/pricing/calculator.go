package pricing

import (
	"github.com/shopspring/decimal"

	"tandas/backend/internal/domain"
)

// Currencies names the two display currencies of the pricing pipelines.
type Currencies struct {
	Cost  string
	Local string
}

var DefaultCurrencies = Currencies{Cost: "USD", Local: "ARS"}

// BaseCost is dozens times the unit price per dozen.
func BaseCost(dozens int, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(dozens)).Mul(unitPrice)
}

// LandedCost computes one row of the internal cost estimate:
// base cost converted by rate, plus the row's share of the expense.
func LandedCost(entry domain.ProductEntry, rate decimal.Decimal, expensePerEntry decimal.Decimal) domain.LandedCostLine {
	base := BaseCost(entry.Dozens, entry.UnitPrice)
	converted := base.Mul(rate)
	return domain.LandedCostLine{
		Code:          entry.Code,
		Brand:         entry.Brand,
		Title:         entry.Title,
		Dozens:        entry.Dozens,
		UnitPrice:     entry.UnitPrice,
		BaseCost:      base,
		ConvertedCost: converted,
		Expense:       expensePerEntry,
		Total:         converted.Add(expensePerEntry),
	}
}

// CostInput holds the user-editable inputs of the cost estimate. Unset or
// non-positive Rate converts 1:1; unset Expense falls back to the batch's.
type CostInput struct {
	Rate    decimal.NullDecimal
	Expense decimal.NullDecimal
}

// EstimateLandedCost runs the cost-estimation pipeline over every entry of
// the batch using the per-entry proration policy.
func EstimateLandedCost(batch domain.Batch, input CostInput, currencies Currencies) domain.LandedCostEstimate {
	rate := rateOrOne(input.Rate)
	expense := input.Expense
	if !expense.Valid {
		expense = batch.Expense
	}

	entries := make([]domain.ProductEntry, 0, 16)
	for _, brand := range batch.Brands {
		for _, entry := range brand.Entries {
			entry.Brand = brand.Name
			entries = append(entries, entry)
		}
	}

	perEntry := ExpensePerEntry(expense, len(entries))
	estimate := domain.LandedCostEstimate{
		BatchName:       batch.Name,
		Rate:            rate,
		BatchExpense:    orZero(expense),
		ExpensePerEntry: perEntry,
		Lines:           make([]domain.LandedCostLine, 0, len(entries)),
		Total:           decimal.Zero,
	}
	for _, entry := range entries {
		line := LandedCost(entry, rate, perEntry)
		estimate.Lines = append(estimate.Lines, line)
		estimate.Total = estimate.Total.Add(line.Total)
	}
	estimate.TotalDisplay = FormatAmount(estimate.Total, currencies.Local)
	return estimate
}

// RetailPrice is the suggested-price pipeline for one row.
type RetailPrice struct {
	BaseCost           decimal.Decimal
	CostAtCostPerDozen decimal.Decimal
	SuggestedCost      decimal.NullDecimal
	SuggestedLocal     decimal.NullDecimal
}

// SuggestRetail prices one row: cost at cost per dozen, marked up by
// multiplier, then converted by localRate. An unset multiplier leaves both
// suggestions unset; an unset rate leaves only the local one unset.
func SuggestRetail(dozens int, unitPrice decimal.Decimal, expensePerRow decimal.Decimal, multiplier decimal.NullDecimal, localRate decimal.NullDecimal) RetailPrice {
	base := BaseCost(dozens, unitPrice)
	divisor := dozens
	if divisor < 1 {
		divisor = 1
	}
	price := RetailPrice{
		BaseCost:           base,
		CostAtCostPerDozen: base.Add(expensePerRow).Div(decimal.NewFromInt(int64(divisor))),
	}

	m := positive(multiplier)
	if !m.Valid {
		return price
	}
	suggested := price.CostAtCostPerDozen.Mul(m.Decimal)
	price.SuggestedCost = decimal.NewNullDecimal(suggested)

	if d := positive(localRate); d.Valid {
		price.SuggestedLocal = decimal.NewNullDecimal(suggested.Mul(d.Decimal))
	}
	return price
}

// PriceRows runs the pricing-view pipeline over rows, which are the rows
// under consideration for proration (a whole batch or a filtered subset).
func PriceRows(rows []domain.ProductEntry, multiplier decimal.NullDecimal, localRate decimal.NullDecimal, currencies Currencies) (decimal.Decimal, []domain.PricingLine) {
	perRow := ExpensePerRow(rows)
	lines := make([]domain.PricingLine, 0, len(rows))
	for _, row := range rows {
		price := SuggestRetail(row.Dozens, row.UnitPrice, perRow, multiplier, localRate)
		lines = append(lines, domain.PricingLine{
			Code:               row.Code,
			Brand:              row.Brand,
			Title:              row.Title,
			Notes:              row.Notes,
			Dozens:             row.Dozens,
			UnitPrice:          row.UnitPrice,
			BaseCost:           price.BaseCost,
			CostAtCostPerDozen: price.CostAtCostPerDozen,
			SuggestedCost:      price.SuggestedCost,
			SuggestedLocal:     price.SuggestedLocal,
			CostDisplay:        FormatAmount(price.CostAtCostPerDozen, currencies.Cost),
			SuggestedDisplay:   FormatMoney(price.SuggestedCost, currencies.Cost),
			LocalDisplay:       FormatMoney(price.SuggestedLocal, currencies.Local),
		})
	}
	return perRow, lines
}
