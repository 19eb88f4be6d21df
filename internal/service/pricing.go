package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tandas/backend/internal/domain"
	"tandas/backend/internal/logger"
	"tandas/backend/internal/merchandise"
	"tandas/backend/internal/pricing"
	"tandas/backend/internal/store"
)

const defaultMarginPolicy = domain.MarginPolicyMid

func defaultSettings(batchName string) domain.PricingSettings {
	return domain.PricingSettings{
		BatchName:    batchName,
		MarginPolicy: defaultMarginPolicy,
		Multiplier:   pricing.ResolveMultiplier(defaultMarginPolicy, ""),
		UpdatedAt:    time.Now().UTC(),
	}
}

// GetPricingSettings returns the settings of a batch, creating the default
// record on first access.
func (s *Service) GetPricingSettings(ctx context.Context, batchName string) (domain.PricingSettings, error) {
	if _, err := s.batchRows(ctx, batchName); err != nil {
		return domain.PricingSettings{}, err
	}
	return s.ensureSettings(ctx, strings.TrimSpace(batchName))
}

func (s *Service) ensureSettings(ctx context.Context, batchName string) (domain.PricingSettings, error) {
	settings, err := s.repo.GetSettings(ctx, batchName)
	if err == nil {
		return *settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.PricingSettings{}, store.Wrap("load pricing settings", batchName, err)
	}

	created := defaultSettings(batchName)
	if err := s.repo.SaveSettings(ctx, created); err != nil {
		return domain.PricingSettings{}, store.Wrap("create pricing settings", batchName, err)
	}
	return created, nil
}

func (s *Service) SavePricingSettings(ctx context.Context, batchName string, req domain.PricingSettingsRequest) (domain.PricingSettings, error) {
	if _, err := s.batchRows(ctx, batchName); err != nil {
		return domain.PricingSettings{}, err
	}
	batchName = strings.TrimSpace(batchName)

	if !pricing.IsKnownPolicy(req.MarginPolicy) {
		return domain.PricingSettings{}, &merchandise.ValidationError{Field: "margin_policy", Reason: "unknown margin policy"}
	}
	multiplier := pricing.ResolveMultiplier(req.MarginPolicy, req.CustomMultiplier)
	if !multiplier.Valid {
		return domain.PricingSettings{}, &merchandise.ValidationError{Field: "custom_multiplier", Reason: "must be a positive number"}
	}

	rate := pricing.ParseRate(req.ExchangeRate)
	if strings.TrimSpace(req.ExchangeRate) != "" && !rate.Valid {
		return domain.PricingSettings{}, &merchandise.ValidationError{Field: "exchange_rate", Reason: "must be a positive number"}
	}

	settings := domain.PricingSettings{
		BatchName:    batchName,
		ExchangeRate: rate,
		MarginPolicy: req.MarginPolicy,
		Multiplier:   multiplier,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return domain.PricingSettings{}, store.Wrap("save pricing settings", batchName, err)
	}
	s.invalidate(ctx, batchName)
	return settings, nil
}

// CostEstimate runs the landed-cost pipeline with the raw form inputs.
// A blank expense uses the batch's own; a malformed one counts as 0. A
// malformed rate converts 1:1.
func (s *Service) CostEstimate(ctx context.Context, batchName string, rateRaw string, expenseRaw string) (domain.LandedCostEstimate, error) {
	rows, err := s.batchRows(ctx, batchName)
	if err != nil {
		return domain.LandedCostEstimate{}, err
	}

	input := pricing.CostInput{
		Rate:    pricing.ParseAmount(rateRaw),
		Expense: pricing.ParseAmount(expenseRaw),
	}
	if strings.TrimSpace(expenseRaw) != "" && !input.Expense.Valid {
		input.Expense = decimal.NewNullDecimal(decimal.Zero)
	}
	return pricing.EstimateLandedCost(merchandise.Group(rows), input, s.currencies), nil
}

// PricingSheet runs the suggested-retail pipeline for a batch. A non-empty
// brand narrows both the lines and the proration set to that brand.
func (s *Service) PricingSheet(ctx context.Context, batchName string, brand string) (domain.PricingSheet, error) {
	batchName = strings.TrimSpace(batchName)
	brand = strings.TrimSpace(brand)

	if cached, ok, err := s.sheets.Get(ctx, batchName, brand); err != nil {
		logger.Log.Warn().Err(err).Str("batch", batchName).Msg("pricing cache read failed")
	} else if ok {
		return s.withCatalogState(ctx, *cached), nil
	}

	var (
		rows     []domain.ProductEntry
		settings *domain.PricingSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.batchRows(gctx, batchName)
		return err
	})
	g.Go(func() error {
		found, err := s.repo.GetSettings(gctx, batchName)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return store.Wrap("load pricing settings", batchName, err)
		}
		settings = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.PricingSheet{}, err
	}

	if settings == nil {
		created, err := s.ensureSettings(ctx, batchName)
		if err != nil {
			return domain.PricingSheet{}, err
		}
		settings = &created
	}

	selected := rows
	if brand != "" {
		selected = make([]domain.ProductEntry, 0, len(rows))
		for _, row := range rows {
			if strings.EqualFold(strings.TrimSpace(row.Brand), brand) {
				selected = append(selected, row)
			}
		}
	}

	perRow, lines := pricing.PriceRows(selected, settings.Multiplier, settings.ExchangeRate, s.currencies)
	sheet := domain.PricingSheet{
		BatchName:     batchName,
		Brand:         brand,
		Settings:      *settings,
		ExpensePerRow: perRow,
		Multiplier:    settings.Multiplier,
		LocalRate:     settings.ExchangeRate,
		Lines:         lines,
	}

	if err := s.sheets.Set(ctx, batchName, brand, &sheet, s.ttl); err != nil {
		logger.Log.Warn().Err(err).Str("batch", batchName).Msg("pricing cache write failed")
	}
	return s.withCatalogState(ctx, sheet), nil
}

// withCatalogState marks the lines linked to catalog products. Catalog
// products are keyed by code alone and shared across batches, so the flags
// are read on every request and never cached.
func (s *Service) withCatalogState(ctx context.Context, sheet domain.PricingSheet) domain.PricingSheet {
	lines := make([]domain.PricingLine, len(sheet.Lines))
	copy(lines, sheet.Lines)
	sheet.Lines = lines

	codes := make([]string, 0, len(lines))
	for _, line := range lines {
		codes = append(codes, line.Code)
	}
	links, err := s.catalog.Links(ctx, codes)
	if err != nil {
		logger.Log.Warn().Err(err).Str("batch", sheet.BatchName).Msg("catalog lookup failed, publish state omitted")
		return sheet
	}
	for i := range sheet.Lines {
		product, ok := links[merchandise.NormalizeCode(sheet.Lines[i].Code)]
		sheet.Lines[i].InCatalog = ok
		sheet.Lines[i].Published = ok && product.Published
	}
	return sheet
}

// Publish links one entry of a batch to the catalog. Without an explicit
// retail price the suggested local price of the entry is used.
func (s *Service) Publish(ctx context.Context, req domain.PublishRequest) (domain.PublishResponse, error) {
	rows, err := s.batchRows(ctx, req.BatchName)
	if err != nil {
		return domain.PublishResponse{}, err
	}
	batchName := strings.TrimSpace(req.BatchName)

	var entry *domain.ProductEntry
	key := merchandise.NormalizeCode(req.Code)
	for i := range rows {
		if merchandise.NormalizeCode(rows[i].Code) == key {
			entry = &rows[i]
			break
		}
	}
	if entry == nil {
		return domain.PublishResponse{}, store.ErrNotFound
	}

	price := decimal.Zero
	if req.Publish {
		price, err = s.retailPrice(ctx, batchName, rows, *entry, req.RetailPrice)
		if err != nil {
			return domain.PublishResponse{}, err
		}
	}

	product, err := s.catalog.Publish(ctx, *entry, req.Publish, price)
	if err != nil {
		return domain.PublishResponse{}, store.Wrap("publish", batchName, err)
	}

	resp := domain.PublishResponse{Code: entry.Code, Product: product}
	if product != nil {
		resp.Published = product.Published
	}
	return resp, nil
}

func (s *Service) retailPrice(ctx context.Context, batchName string, rows []domain.ProductEntry, entry domain.ProductEntry, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) != "" {
		price := pricing.ParseAmount(raw)
		if !price.Valid || price.Decimal.IsNegative() {
			return decimal.Zero, &merchandise.ValidationError{Field: "retail_price", Reason: "must be a number not below zero"}
		}
		return price.Decimal, nil
	}

	settings, err := s.ensureSettings(ctx, batchName)
	if err != nil {
		return decimal.Zero, err
	}
	suggested := pricing.SuggestRetail(entry.Dozens, entry.UnitPrice, pricing.ExpensePerRow(rows), settings.Multiplier, settings.ExchangeRate)
	if !suggested.SuggestedLocal.Valid {
		return decimal.Zero, &merchandise.ValidationError{Field: "retail_price", Reason: "no suggested price, set an exchange rate or pass a price"}
	}
	return suggested.SuggestedLocal.Decimal.Round(2), nil
}
