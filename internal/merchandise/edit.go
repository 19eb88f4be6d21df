package merchandise

import (
	"fmt"
	"strings"

	"tandas/backend/internal/domain"
)

// The transitions below never modify their input. Each returns a fresh
// tree, or the error that rejected the change.

func AddBrand(batch domain.Batch, name string) (domain.Batch, error) {
	key := normalizeBrand(name)
	if key == "" {
		return batch, invalid("brand", "name is required")
	}
	for _, brand := range batch.Brands {
		if normalizeBrand(brand.Name) == key {
			return batch, invalid("brand", fmt.Sprintf("%q already exists in this batch", brand.Name))
		}
	}

	next := Clone(batch)
	next.Brands = append(next.Brands, domain.BrandGroup{Name: strings.TrimSpace(name), Entries: []domain.ProductEntry{}})
	return next, nil
}

func RenameBrand(batch domain.Batch, brandIdx int, name string) (domain.Batch, error) {
	if err := checkBrandIndex(batch, brandIdx); err != nil {
		return batch, err
	}
	key := normalizeBrand(name)
	if key == "" {
		return batch, invalid("brand", "name is required")
	}
	for i, brand := range batch.Brands {
		if i != brandIdx && normalizeBrand(brand.Name) == key {
			return batch, invalid("brand", fmt.Sprintf("%q already exists in this batch", brand.Name))
		}
	}

	next := Clone(batch)
	next.Brands[brandIdx].Name = strings.TrimSpace(name)
	for i := range next.Brands[brandIdx].Entries {
		next.Brands[brandIdx].Entries[i].Brand = next.Brands[brandIdx].Name
	}
	return next, nil
}

func RemoveBrand(batch domain.Batch, brandIdx int) (domain.Batch, error) {
	if err := checkBrandIndex(batch, brandIdx); err != nil {
		return batch, err
	}
	next := Clone(batch)
	next.Brands = append(next.Brands[:brandIdx], next.Brands[brandIdx+1:]...)
	return next, nil
}

func AddEntry(batch domain.Batch, brandIdx int, entry domain.ProductEntry, guard Guard) (domain.Batch, error) {
	if err := checkBrandIndex(batch, brandIdx); err != nil {
		return batch, err
	}
	entry = CleanEntry(entry)
	if err := ValidateEntry(entry); err != nil {
		return batch, err
	}
	if err := guard.Check(batch, entry.Code); err != nil {
		return batch, err
	}

	next := Clone(batch)
	entry.Brand = next.Brands[brandIdx].Name
	next.Brands[brandIdx].Entries = append(next.Brands[brandIdx].Entries, entry)
	return next, nil
}

func UpdateEntry(batch domain.Batch, brandIdx int, entryIdx int, entry domain.ProductEntry, guard Guard) (domain.Batch, error) {
	if err := checkEntryIndex(batch, brandIdx, entryIdx); err != nil {
		return batch, err
	}
	entry = CleanEntry(entry)
	if err := ValidateEntry(entry); err != nil {
		return batch, err
	}
	if err := guard.checkExcept(batch, entry.Code, brandIdx, entryIdx); err != nil {
		return batch, err
	}

	next := Clone(batch)
	entry.ID = next.Brands[brandIdx].Entries[entryIdx].ID
	entry.Brand = next.Brands[brandIdx].Name
	next.Brands[brandIdx].Entries[entryIdx] = entry
	return next, nil
}

func RemoveEntry(batch domain.Batch, brandIdx int, entryIdx int) (domain.Batch, error) {
	if err := checkEntryIndex(batch, brandIdx, entryIdx); err != nil {
		return batch, err
	}
	next := Clone(batch)
	entries := next.Brands[brandIdx].Entries
	next.Brands[brandIdx].Entries = append(entries[:entryIdx], entries[entryIdx+1:]...)
	return next, nil
}

// Clone deep-copies the brand and entry slices.
func Clone(batch domain.Batch) domain.Batch {
	next := batch
	next.Brands = make([]domain.BrandGroup, len(batch.Brands))
	for i, brand := range batch.Brands {
		entries := make([]domain.ProductEntry, len(brand.Entries))
		copy(entries, brand.Entries)
		next.Brands[i] = domain.BrandGroup{Name: brand.Name, Entries: entries}
	}
	return next
}

func checkBrandIndex(batch domain.Batch, brandIdx int) error {
	if brandIdx < 0 || brandIdx >= len(batch.Brands) {
		return invalid("brand", fmt.Sprintf("no brand at position %d", brandIdx))
	}
	return nil
}

func checkEntryIndex(batch domain.Batch, brandIdx int, entryIdx int) error {
	if err := checkBrandIndex(batch, brandIdx); err != nil {
		return err
	}
	if entryIdx < 0 || entryIdx >= len(batch.Brands[brandIdx].Entries) {
		return invalid("entry", fmt.Sprintf("no entry at position %d", entryIdx))
	}
	return nil
}
