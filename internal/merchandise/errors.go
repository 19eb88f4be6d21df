package merchandise

import "fmt"

// ValidationError rejects a single add or save action.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field string, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DuplicateCodeError reports a product code already used in the batch.
// Existing is the stored spelling of the colliding code.
type DuplicateCodeError struct {
	Code     string
	Existing string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("product code %q is already used in this batch (as %q)", e.Code, e.Existing)
}
