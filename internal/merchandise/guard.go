package merchandise

import (
	"strings"

	"tandas/backend/internal/domain"
)

// NormalizeCode is the comparison form of a product code.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// CheckCode fails with a DuplicateCodeError when code matches any of
// existing under NormalizeCode. Brand is irrelevant to the comparison.
func CheckCode(code string, existing []string) error {
	candidate := NormalizeCode(code)
	for _, other := range existing {
		if NormalizeCode(other) == candidate {
			return &DuplicateCodeError{Code: code, Existing: other}
		}
	}
	return nil
}

// Codes lists every entry code of the batch across all brands.
func Codes(batch domain.Batch) []string {
	codes := make([]string, 0, EntryCount(batch))
	for _, brand := range batch.Brands {
		for _, entry := range brand.Entries {
			codes = append(codes, entry.Code)
		}
	}
	return codes
}

// Guard checks codes against the batch tree plus Reserved, an optional set
// of codes owned by other batches. A zero Guard enforces intra-batch
// uniqueness only.
type Guard struct {
	Reserved []string
}

func (g Guard) Check(batch domain.Batch, code string) error {
	if err := CheckCode(code, Codes(batch)); err != nil {
		return err
	}
	return CheckCode(code, g.Reserved)
}

// checkExcept is Check with one entry position skipped, for in-place edits.
func (g Guard) checkExcept(batch domain.Batch, code string, brandIdx int, entryIdx int) error {
	codes := make([]string, 0, EntryCount(batch))
	for b, brand := range batch.Brands {
		for e, entry := range brand.Entries {
			if b == brandIdx && e == entryIdx {
				continue
			}
			codes = append(codes, entry.Code)
		}
	}
	if err := CheckCode(code, codes); err != nil {
		return err
	}
	return CheckCode(code, g.Reserved)
}
