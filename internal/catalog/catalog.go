package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"tandas/backend/internal/domain"
	"tandas/backend/internal/merchandise"
)

// Repository is the part of the store the catalog sync needs.
type Repository interface {
	FindCatalogProductsByCode(ctx context.Context, codes []string) ([]domain.CatalogProduct, error)
	UpsertCatalogProduct(ctx context.Context, product domain.CatalogProduct) (*domain.CatalogProduct, error)
}

// Syncer keeps catalog products consistent with line items by code. Its
// writes are not transactional with the line item store.
type Syncer struct {
	repo Repository
}

func NewSyncer(repo Repository) *Syncer {
	return &Syncer{repo: repo}
}

// Links returns the catalog products matching codes, keyed by normalized code.
func (s *Syncer) Links(ctx context.Context, codes []string) (map[string]domain.CatalogProduct, error) {
	links := make(map[string]domain.CatalogProduct, len(codes))
	if len(codes) == 0 {
		return links, nil
	}
	products, err := s.repo.FindCatalogProductsByCode(ctx, codes)
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		links[merchandise.NormalizeCode(product.Code)] = product
	}
	return links, nil
}

func (s *Syncer) find(ctx context.Context, code string) (*domain.CatalogProduct, error) {
	links, err := s.Links(ctx, []string{code})
	if err != nil {
		return nil, err
	}
	product, ok := links[merchandise.NormalizeCode(code)]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

// Publish upserts a published catalog product for entry when shouldPublish
// is set. Otherwise it clears the publish flag of the matching product; a
// code with no catalog product is left alone and nil is returned.
func (s *Syncer) Publish(ctx context.Context, entry domain.ProductEntry, shouldPublish bool, retailPrice decimal.Decimal) (*domain.CatalogProduct, error) {
	existing, err := s.find(ctx, entry.Code)
	if err != nil {
		return nil, fmt.Errorf("find catalog product %q: %w", entry.Code, err)
	}

	if !shouldPublish {
		if existing == nil {
			return nil, nil
		}
		if !existing.Published {
			return existing, nil
		}
		existing.Published = false
		return s.repo.UpsertCatalogProduct(ctx, *existing)
	}

	product := domain.CatalogProduct{Code: entry.Code}
	if existing != nil {
		product = *existing
	}
	product.Name = entry.Title
	product.Description = entry.Notes
	product.Price = retailPrice
	product.Published = true
	return s.repo.UpsertCatalogProduct(ctx, product)
}

// Refresh copies title and notes of rows onto the catalog products already
// linked to them. Price and publish flag are left untouched. It returns the
// codes whose update failed alongside the joined error.
func (s *Syncer) Refresh(ctx context.Context, rows []domain.ProductEntry) ([]string, error) {
	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		codes = append(codes, row.Code)
	}
	links, err := s.Links(ctx, codes)
	if err != nil {
		return codes, fmt.Errorf("find catalog products: %w", err)
	}

	var (
		failed []string
		errs   []error
	)
	for _, row := range rows {
		product, ok := links[merchandise.NormalizeCode(row.Code)]
		if !ok {
			continue
		}
		if product.Name == row.Title && product.Description == row.Notes {
			continue
		}
		product.Name = row.Title
		product.Description = row.Notes
		if _, err := s.repo.UpsertCatalogProduct(ctx, product); err != nil {
			failed = append(failed, row.Code)
			errs = append(errs, fmt.Errorf("update catalog product %q: %w", row.Code, err))
		}
	}
	return failed, errors.Join(errs...)
}
