package merchandise

import (
	"tandas/backend/internal/domain"
)

// Group rebuilds the editing tree from every row of one batch. Batch-level
// fields come from the first row. Brands keep first-seen order and entries
// keep insertion order within their brand.
func Group(rows []domain.ProductEntry) domain.Batch {
	if len(rows) == 0 {
		return domain.Batch{Brands: []domain.BrandGroup{}}
	}

	first := rows[0]
	batch := domain.Batch{
		Name:        first.BatchName,
		Date:        first.BatchDate,
		ReceiptCode: first.ReceiptCode,
		Expense:     first.BatchExpense,
		Brands:      make([]domain.BrandGroup, 0, 4),
	}

	index := make(map[string]int)
	for _, row := range rows {
		pos, ok := index[row.Brand]
		if !ok {
			pos = len(batch.Brands)
			index[row.Brand] = pos
			batch.Brands = append(batch.Brands, domain.BrandGroup{Name: row.Brand})
		}
		batch.Brands[pos].Entries = append(batch.Brands[pos].Entries, row)
	}
	return batch
}

// GroupByBatch splits a mixed ledger into one tree per batch name,
// in first-seen order.
func GroupByBatch(rows []domain.ProductEntry) []domain.Batch {
	order := make([]string, 0, 8)
	buckets := make(map[string][]domain.ProductEntry)
	for _, row := range rows {
		if _, ok := buckets[row.BatchName]; !ok {
			order = append(order, row.BatchName)
		}
		buckets[row.BatchName] = append(buckets[row.BatchName], row)
	}

	batches := make([]domain.Batch, 0, len(order))
	for _, name := range order {
		batches = append(batches, Group(buckets[name]))
	}
	return batches
}

// Flatten emits one row per entry, re-stamping the batch fields. Brand
// groups without entries produce no rows, so Group(Flatten(b)) loses them.
func Flatten(batch domain.Batch) []domain.ProductEntry {
	rows := make([]domain.ProductEntry, 0, EntryCount(batch))
	for _, brand := range batch.Brands {
		for _, entry := range brand.Entries {
			entry.BatchName = batch.Name
			entry.BatchDate = batch.Date
			entry.ReceiptCode = batch.ReceiptCode
			entry.BatchExpense = batch.Expense
			entry.Brand = brand.Name
			entry.Position = len(rows)
			rows = append(rows, entry)
		}
	}
	return rows
}

// EmptyBrands names the brand groups Flatten would drop.
func EmptyBrands(batch domain.Batch) []string {
	var names []string
	for _, brand := range batch.Brands {
		if len(brand.Entries) == 0 {
			names = append(names, brand.Name)
		}
	}
	return names
}

func EntryCount(batch domain.Batch) int {
	count := 0
	for _, brand := range batch.Brands {
		count += len(brand.Entries)
	}
	return count
}

func Summarize(batch domain.Batch) domain.BatchSummary {
	summary := domain.BatchSummary{
		Name:        batch.Name,
		Date:        batch.Date,
		ReceiptCode: batch.ReceiptCode,
		Expense:     batch.Expense,
		BrandCount:  len(batch.Brands),
	}
	for _, brand := range batch.Brands {
		for _, entry := range brand.Entries {
			summary.EntryCount++
			summary.TotalDozens += entry.Dozens
		}
	}
	return summary
}
