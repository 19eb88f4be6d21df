package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tandas/backend/internal/cache"
	"tandas/backend/internal/catalog"
	"tandas/backend/internal/domain"
	"tandas/backend/internal/logger"
	"tandas/backend/internal/merchandise"
	"tandas/backend/internal/pricing"
	"tandas/backend/internal/store"
)

// PartialSyncError reports that the line items were saved but the catalog
// could not be brought in line with them.
type PartialSyncError struct {
	Batch string
	Codes []string
	Err   error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("batch %q saved, catalog sync failed for %s: %v", e.Batch, strings.Join(e.Codes, ", "), e.Err)
}

func (e *PartialSyncError) Unwrap() error {
	return e.Err
}

type Options struct {
	CacheTTL   time.Duration
	Currencies pricing.Currencies
	// CrossBatchCodes extends code uniqueness to every persisted batch.
	CrossBatchCodes bool
}

type Service struct {
	repo       store.Repository
	catalog    *catalog.Syncer
	sheets     cache.PricingSheetCache
	ttl        time.Duration
	currencies pricing.Currencies
	crossBatch bool
}

func New(repo store.Repository, sheets cache.PricingSheetCache, opts Options) *Service {
	if sheets == nil {
		sheets = cache.NoopPricingSheetCache{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.Currencies.Cost == "" || opts.Currencies.Local == "" {
		opts.Currencies = pricing.DefaultCurrencies
	}

	return &Service{
		repo:       repo,
		catalog:    catalog.NewSyncer(repo),
		sheets:     sheets,
		ttl:        opts.CacheTTL,
		currencies: opts.Currencies,
		crossBatch: opts.CrossBatchCodes,
	}
}

func (s *Service) ListBatches(ctx context.Context) ([]domain.BatchSummary, error) {
	rows, err := s.repo.FetchLineItems(ctx, "")
	if err != nil {
		return nil, store.Wrap("list batches", "", err)
	}

	batches := merchandise.GroupByBatch(rows)
	summaries := make([]domain.BatchSummary, 0, len(batches))
	for _, batch := range batches {
		summaries = append(summaries, merchandise.Summarize(batch))
	}
	return summaries, nil
}

func (s *Service) GetBatch(ctx context.Context, name string) (domain.Batch, error) {
	rows, err := s.batchRows(ctx, name)
	if err != nil {
		return domain.Batch{}, err
	}
	return merchandise.Group(rows), nil
}

// SaveBatch finalizes an edit. An empty originalName creates a new batch.
// When batch.Name differs from originalName the batch is renamed: rows are
// written under the new name, pricing settings follow, and the old name is
// removed.
func (s *Service) SaveBatch(ctx context.Context, originalName string, batch domain.Batch) (domain.SaveBatchResponse, error) {
	batch = merchandise.CleanBatch(batch)
	originalName = strings.TrimSpace(originalName)
	creating := originalName == ""
	if creating {
		originalName = batch.Name
	}
	renamed := !creating && originalName != batch.Name

	ledger, err := s.repo.FetchLineItems(ctx, "")
	if err != nil {
		return domain.SaveBatchResponse{}, store.Wrap("load batches", originalName, err)
	}
	exists := make(map[string]bool)
	owned := make(map[string]bool)
	var reserved []string
	for _, row := range ledger {
		exists[row.BatchName] = true
		if row.BatchName == originalName && row.ID != "" {
			owned[row.ID] = true
		}
		if s.crossBatch && row.BatchName != originalName && row.BatchName != batch.Name {
			reserved = append(reserved, row.Code)
		}
	}

	switch {
	case creating && exists[batch.Name]:
		return domain.SaveBatchResponse{}, &merchandise.ValidationError{Field: "name", Reason: fmt.Sprintf("batch %q already exists", batch.Name)}
	case !creating && !exists[originalName]:
		return domain.SaveBatchResponse{}, store.ErrNotFound
	case renamed && exists[batch.Name]:
		return domain.SaveBatchResponse{}, &merchandise.ValidationError{Field: "name", Reason: fmt.Sprintf("batch %q already exists", batch.Name)}
	}

	if err := merchandise.ValidateBatch(batch, merchandise.Guard{Reserved: reserved}); err != nil {
		return domain.SaveBatchResponse{}, err
	}

	rows := merchandise.Flatten(batch)
	if len(rows) == 0 {
		return domain.SaveBatchResponse{}, &merchandise.ValidationError{Field: "brands", Reason: "batch needs at least one entry"}
	}
	// ids of the old name's rows stay in use until moveBatch drops them, so a
	// create or rename starts fresh. An edit keeps an id only the first time
	// one of the batch's own ids appears.
	seen := make(map[string]bool)
	for i := range rows {
		id := rows[i].ID
		if creating || renamed || !owned[id] || seen[id] {
			rows[i].ID = ""
			continue
		}
		seen[id] = true
	}

	if err := s.repo.ReplaceBatch(ctx, batch.Name, rows); err != nil {
		var dup *merchandise.DuplicateCodeError
		if errors.As(err, &dup) {
			return domain.SaveBatchResponse{}, dup
		}
		return domain.SaveBatchResponse{}, store.Wrap("replace batch", batch.Name, err)
	}

	if renamed {
		if err := s.moveBatch(ctx, originalName, batch.Name); err != nil {
			return domain.SaveBatchResponse{}, err
		}
	}

	s.invalidate(ctx, batch.Name)
	if renamed {
		s.invalidate(ctx, originalName)
	}

	resp := domain.SaveBatchResponse{Renamed: renamed}
	for _, name := range merchandise.EmptyBrands(batch) {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("brand %q has no entries and was not saved", name))
	}

	saved, err := s.repo.FetchLineItems(ctx, batch.Name)
	if err != nil {
		return domain.SaveBatchResponse{}, store.Wrap("reload batch", batch.Name, err)
	}
	resp.Batch = merchandise.Group(saved)

	if failed, err := s.catalog.Refresh(ctx, saved); err != nil {
		logger.Log.Warn().Err(err).Str("batch", batch.Name).Strs("codes", failed).Msg("catalog refresh failed after batch save")
		return resp, &PartialSyncError{Batch: batch.Name, Codes: failed, Err: err}
	}
	return resp, nil
}

// moveBatch carries the pricing settings from one name to another and drops
// the old rows. The new rows must already be written.
func (s *Service) moveBatch(ctx context.Context, from string, to string) error {
	settings, err := s.repo.GetSettings(ctx, from)
	switch {
	case err == nil:
		settings.BatchName = to
		settings.UpdatedAt = time.Now().UTC()
		if err := s.repo.SaveSettings(ctx, *settings); err != nil {
			return store.Wrap("move pricing settings", from, err)
		}
	case !errors.Is(err, store.ErrNotFound):
		return store.Wrap("load pricing settings", from, err)
	}

	if err := s.repo.DeleteBatch(ctx, from); err != nil && !errors.Is(err, store.ErrNotFound) {
		return store.Wrap("delete renamed batch", from, err)
	}
	return nil
}

func (s *Service) DeleteBatch(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &merchandise.ValidationError{Field: "name", Reason: "is required"}
	}
	if err := s.repo.DeleteBatch(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return store.Wrap("delete batch", name, err)
	}
	s.invalidate(ctx, name)
	return nil
}

// CheckCode tells a form whether code may be added to batchName. The
// caller's in-memory codes are authoritative for the batch itself; other
// persisted batches are consulted only when cross-batch codes are enabled.
func (s *Service) CheckCode(ctx context.Context, batchName string, req domain.CodeCheckRequest) (domain.CodeCheckResponse, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.CodeCheckResponse{}, &merchandise.ValidationError{Field: "code", Reason: "is required"}
	}

	existing := append([]string(nil), req.ExistingCodes...)
	if s.crossBatch {
		ledger, err := s.repo.FetchLineItems(ctx, "")
		if err != nil {
			return domain.CodeCheckResponse{}, store.Wrap("load batches", batchName, err)
		}
		for _, row := range ledger {
			if row.BatchName != batchName {
				existing = append(existing, row.Code)
			}
		}
	}

	resp := domain.CodeCheckResponse{Code: code, Available: true}
	var dup *merchandise.DuplicateCodeError
	if err := merchandise.CheckCode(code, existing); errors.As(err, &dup) {
		resp.Available = false
		resp.Collision = dup.Existing
	}
	return resp, nil
}

func (s *Service) batchRows(ctx context.Context, name string) ([]domain.ProductEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &merchandise.ValidationError{Field: "name", Reason: "is required"}
	}
	rows, err := s.repo.FetchLineItems(ctx, name)
	if err != nil {
		return nil, store.Wrap("load batch", name, err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows, nil
}

func (s *Service) invalidate(ctx context.Context, batchName string) {
	if err := s.sheets.Invalidate(ctx, batchName); err != nil {
		logger.Log.Warn().Err(err).Str("batch", batchName).Msg("failed to invalidate pricing cache")
	}
}
