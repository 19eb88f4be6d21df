package store

import (
	"context"
	"errors"
	"fmt"

	"tandas/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidBatch = errors.New("invalid batch")
)

// Repository is the boundary to the line item store, the pricing settings
// and the sales catalog.
type Repository interface {
	// FetchLineItems returns every row, or only the rows of batchName when it
	// is not empty, in insertion order.
	FetchLineItems(ctx context.Context, batchName string) ([]domain.ProductEntry, error)
	// ReplaceBatch deletes every row of batchName and inserts rows in its place.
	ReplaceBatch(ctx context.Context, batchName string, rows []domain.ProductEntry) error
	// DeleteBatch removes the rows and the pricing settings of batchName.
	DeleteBatch(ctx context.Context, batchName string) error
	GetSettings(ctx context.Context, batchName string) (*domain.PricingSettings, error)
	SaveSettings(ctx context.Context, settings domain.PricingSettings) error
	FindCatalogProductsByCode(ctx context.Context, codes []string) ([]domain.CatalogProduct, error)
	UpsertCatalogProduct(ctx context.Context, product domain.CatalogProduct) (*domain.CatalogProduct, error)
}

// StoreError marks a failed read, write or delete against the repository.
type StoreError struct {
	Op    string
	Batch string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Batch == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Batch, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err.
func Wrap(op string, batch string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Batch: batch, Err: err}
}
