package pricing

import (
	"github.com/shopspring/decimal"

	"tandas/backend/internal/domain"
)

// ExpensePerEntry splits the batch expense equally over its entries,
// regardless of quantity. Used by the cost-estimation view.
func ExpensePerEntry(batchExpense decimal.NullDecimal, entryCount int) decimal.Decimal {
	if entryCount < 1 {
		return decimal.Zero
	}
	return orZero(batchExpense).Div(decimal.NewFromInt(int64(entryCount)))
}

// ExpensePerRow splits the expense carried by the rows under consideration
// over all of them. The total is read from the first row with an expense
// set, since every row of a batch carries the same denormalized value.
// Used by the pricing view, where rows may be a filtered subset.
func ExpensePerRow(rows []domain.ProductEntry) decimal.Decimal {
	if len(rows) == 0 {
		return decimal.Zero
	}
	var total decimal.NullDecimal
	for _, row := range rows {
		if row.BatchExpense.Valid {
			total = row.BatchExpense
			break
		}
	}
	return orZero(total).Div(decimal.NewFromInt(int64(len(rows))))
}
