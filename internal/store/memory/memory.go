package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tandas/backend/internal/domain"
	"tandas/backend/internal/merchandise"
	"tandas/backend/internal/store"
	"tandas/backend/internal/xid"
)

type Store struct {
	mu             sync.RWMutex
	batchOrder     []string
	rowsByBatch    map[string][]domain.ProductEntry
	settingsByName map[string]domain.PricingSettings
	catalogByID    map[string]domain.CatalogProduct
}

func New() *Store {
	return &Store{
		batchOrder:     make([]string, 0, 16),
		rowsByBatch:    make(map[string][]domain.ProductEntry),
		settingsByName: make(map[string]domain.PricingSettings),
		catalogByID:    make(map[string]domain.CatalogProduct),
	}
}

// NewSeeded returns a store holding one demo batch and one published
// catalog product linked to it.
func NewSeeded() *Store {
	s := New()

	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	expense := decimal.NewNullDecimal(decimal.NewFromInt(120))
	batch := domain.Batch{
		Name:        "Tanda Marzo",
		Date:        date,
		ReceiptCode: "REC-0031",
		Expense:     expense,
		Brands: []domain.BrandGroup{
			{Name: "Levi's", Entries: []domain.ProductEntry{
				{Title: "Jean 501 Original", Dozens: 3, UnitPrice: decimal.NewFromInt(96), Code: "LV-501"},
				{Title: "Jean 505 Regular", Dozens: 2, UnitPrice: decimal.NewFromInt(88), Code: "LV-505"},
			}},
			{Name: "Wrangler", Entries: []domain.ProductEntry{
				{Title: "Campera de jean", Dozens: 1, UnitPrice: decimal.NewFromInt(150), Code: "WR-CAMP-01", Notes: "talles surtidos"},
			}},
		},
	}

	rows := merchandise.Flatten(batch)
	for i := range rows {
		rows[i].ID = xid.New("li")
	}
	s.batchOrder = append(s.batchOrder, batch.Name)
	s.rowsByBatch[batch.Name] = rows

	s.catalogByID["cat-seed-lv501"] = domain.CatalogProduct{
		ID:          "cat-seed-lv501",
		Code:        "LV-501",
		Name:        "Jean 501 Original",
		Description: "",
		Price:       decimal.NewFromInt(52000),
		Published:   true,
		UpdatedAt:   date,
	}
	return s
}

func (s *Store) FetchLineItems(_ context.Context, batchName string) ([]domain.ProductEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if batchName != "" {
		return slices.Clone(s.rowsByBatch[batchName]), nil
	}

	rows := make([]domain.ProductEntry, 0, 64)
	for _, name := range s.batchOrder {
		rows = append(rows, s.rowsByBatch[name]...)
	}
	return rows, nil
}

func (s *Store) ReplaceBatch(_ context.Context, batchName string, rows []domain.ProductEntry) error {
	if strings.TrimSpace(batchName) == "" {
		return store.ErrInvalidBatch
	}
	for _, row := range rows {
		if row.BatchName != batchName || row.Dozens < 1 {
			return store.ErrInvalidBatch
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]domain.ProductEntry, 0, len(rows))
	for i, row := range rows {
		if row.ID == "" {
			row.ID = xid.New("li")
		}
		row.Position = i
		saved = append(saved, row)
	}

	if len(saved) == 0 {
		s.dropBatchLocked(batchName)
		return nil
	}
	if _, exists := s.rowsByBatch[batchName]; !exists {
		s.batchOrder = append(s.batchOrder, batchName)
	}
	s.rowsByBatch[batchName] = saved
	return nil
}

func (s *Store) DeleteBatch(_ context.Context, batchName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hasRows := s.rowsByBatch[batchName]
	_, hasSettings := s.settingsByName[batchName]
	if !hasRows && !hasSettings {
		return store.ErrNotFound
	}
	s.dropBatchLocked(batchName)
	delete(s.settingsByName, batchName)
	return nil
}

func (s *Store) GetSettings(_ context.Context, batchName string) (*domain.PricingSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, exists := s.settingsByName[batchName]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySettings := settings
	return &copySettings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings domain.PricingSettings) error {
	if strings.TrimSpace(settings.BatchName) == "" {
		return store.ErrInvalidBatch
	}
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settingsByName[settings.BatchName] = settings
	return nil
}

func (s *Store) FindCatalogProductsByCode(_ context.Context, codes []string) ([]domain.CatalogProduct, error) {
	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		wanted[merchandise.NormalizeCode(code)] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CatalogProduct, 0, len(codes))
	for _, product := range s.catalogByID {
		if _, ok := wanted[merchandise.NormalizeCode(product.Code)]; ok {
			result = append(result, product)
		}
	}
	slices.SortFunc(result, func(a, b domain.CatalogProduct) int {
		return strings.Compare(a.Code, b.Code)
	})
	return result, nil
}

func (s *Store) UpsertCatalogProduct(_ context.Context, product domain.CatalogProduct) (*domain.CatalogProduct, error) {
	product.Code = strings.TrimSpace(product.Code)
	if product.Code == "" {
		return nil, store.ErrInvalidBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		key := merchandise.NormalizeCode(product.Code)
		for id, existing := range s.catalogByID {
			if merchandise.NormalizeCode(existing.Code) == key {
				product.ID = id
				break
			}
		}
	}
	if product.ID == "" {
		product.ID = xid.New("cat")
	}
	product.UpdatedAt = time.Now().UTC()

	s.catalogByID[product.ID] = product
	saved := product
	return &saved, nil
}

func (s *Store) dropBatchLocked(batchName string) {
	delete(s.rowsByBatch, batchName)
	s.batchOrder = slices.DeleteFunc(s.batchOrder, func(name string) bool {
		return name == batchName
	})
}
