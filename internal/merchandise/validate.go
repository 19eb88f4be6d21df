package merchandise

import (
	"fmt"
	"strings"

	"tandas/backend/internal/domain"
)

// CleanEntry trims the free-text fields of an entry.
func CleanEntry(entry domain.ProductEntry) domain.ProductEntry {
	entry.Title = strings.TrimSpace(entry.Title)
	entry.Code = strings.TrimSpace(entry.Code)
	entry.Notes = strings.TrimSpace(entry.Notes)
	entry.Brand = strings.TrimSpace(entry.Brand)
	return entry
}

// CleanBatch trims the batch fields, brand names and every entry. The input
// is not modified.
func CleanBatch(batch domain.Batch) domain.Batch {
	cleaned := Clone(batch)
	cleaned.Name = strings.TrimSpace(cleaned.Name)
	cleaned.ReceiptCode = strings.TrimSpace(cleaned.ReceiptCode)
	for b := range cleaned.Brands {
		cleaned.Brands[b].Name = strings.TrimSpace(cleaned.Brands[b].Name)
		for e, entry := range cleaned.Brands[b].Entries {
			cleaned.Brands[b].Entries[e] = CleanEntry(entry)
		}
	}
	return cleaned
}

func ValidateEntry(entry domain.ProductEntry) error {
	if strings.TrimSpace(entry.Title) == "" {
		return invalid("title", "is required")
	}
	if strings.TrimSpace(entry.Code) == "" {
		return invalid("code", "is required")
	}
	if entry.Dozens < 1 {
		return invalid("dozens", "must be at least 1")
	}
	if entry.UnitPrice.IsNegative() {
		return invalid("unit_price", "must not be negative")
	}
	return nil
}

// ValidateBatch runs every entry rule plus batch-wide code uniqueness.
// Empty brand groups are allowed; Flatten drops them.
func ValidateBatch(batch domain.Batch, guard Guard) error {
	if strings.TrimSpace(batch.Name) == "" {
		return invalid("name", "is required")
	}
	if batch.Date.IsZero() {
		return invalid("date", "is required")
	}
	if batch.Expense.Valid && batch.Expense.Decimal.IsNegative() {
		return invalid("expense", "must not be negative")
	}

	brandNames := make(map[string]struct{}, len(batch.Brands))
	seen := make([]string, 0, EntryCount(batch))
	for _, brand := range batch.Brands {
		key := normalizeBrand(brand.Name)
		if key == "" {
			return invalid("brand", "name is required")
		}
		if _, dup := brandNames[key]; dup {
			return invalid("brand", fmt.Sprintf("%q appears twice", brand.Name))
		}
		brandNames[key] = struct{}{}

		for _, entry := range brand.Entries {
			if err := ValidateEntry(entry); err != nil {
				return fmt.Errorf("brand %q: %w", brand.Name, err)
			}
			if err := CheckCode(entry.Code, seen); err != nil {
				return err
			}
			if err := CheckCode(entry.Code, guard.Reserved); err != nil {
				return err
			}
			seen = append(seen, entry.Code)
		}
	}
	return nil
}

func normalizeBrand(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
