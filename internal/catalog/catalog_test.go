package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"tandas/backend/internal/domain"
	"tandas/backend/internal/store/memory"
)

type failingUpserts struct {
	*memory.Store
}

func (failingUpserts) UpsertCatalogProduct(context.Context, domain.CatalogProduct) (*domain.CatalogProduct, error) {
	return nil, errors.New("catalog offline")
}

func entry(code string) domain.ProductEntry {
	return domain.ProductEntry{BatchName: "Tanda Marzo", Brand: "Levi's", Title: "Jean 505 Regular", Dozens: 2, UnitPrice: decimal.NewFromInt(88), Code: code, Notes: "tiro medio"}
}

func TestPublishTwiceIsIdempotent(t *testing.T) {
	repo := memory.NewSeeded()
	syncer := NewSyncer(repo)
	ctx := context.Background()

	first, err := syncer.Publish(ctx, entry("LV-505"), true, decimal.NewFromInt(45000))
	if err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	second, err := syncer.Publish(ctx, entry("lv-505 "), true, decimal.NewFromInt(45000))
	if err != nil {
		t.Fatalf("second publish failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same catalog product, got %s and %s", first.ID, second.ID)
	}

	found, err := repo.FindCatalogProductsByCode(ctx, []string{"LV-505"})
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(found) != 1 || !found[0].Published || !found[0].Price.Equal(decimal.NewFromInt(45000)) {
		t.Fatalf("expected one published product, got %+v", found)
	}
	if found[0].Name != "Jean 505 Regular" || found[0].Description != "tiro medio" {
		t.Fatalf("expected name and notes to be copied, got %+v", found[0])
	}
}

func TestUnpublishWithoutCatalogProductIsNoop(t *testing.T) {
	repo := memory.NewSeeded()
	syncer := NewSyncer(repo)

	product, err := syncer.Publish(context.Background(), entry("NOPE-1"), false, decimal.Zero)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if product != nil {
		t.Fatalf("expected no product, got %+v", product)
	}
}

func TestUnpublishClearsFlagOnly(t *testing.T) {
	repo := memory.NewSeeded()
	syncer := NewSyncer(repo)

	product, err := syncer.Publish(context.Background(), entry("LV-501"), false, decimal.Zero)
	if err != nil {
		t.Fatalf("unpublish failed: %v", err)
	}
	if product == nil || product.Published {
		t.Fatalf("expected an unpublished product, got %+v", product)
	}
	if !product.Price.Equal(decimal.NewFromInt(52000)) || product.Name != "Jean 501 Original" {
		t.Fatalf("expected price and name to be kept, got %+v", product)
	}
}

func TestRefreshUpdatesLinkedProductsOnly(t *testing.T) {
	repo := memory.NewSeeded()
	syncer := NewSyncer(repo)
	ctx := context.Background()

	rows := []domain.ProductEntry{
		{Code: "lv-501", Title: "Jean 501 Stone", Notes: "lavado"},
		{Code: "WR-CAMP-01", Title: "Campera", Notes: ""},
	}
	failed, err := syncer.Refresh(ctx, rows)
	if err != nil || len(failed) != 0 {
		t.Fatalf("refresh failed: %v %v", failed, err)
	}

	links, err := syncer.Links(ctx, []string{"LV-501", "WR-CAMP-01"})
	if err != nil {
		t.Fatalf("links failed: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected refresh not to create products, got %+v", links)
	}
	linked := links["lv-501"]
	if linked.Name != "Jean 501 Stone" || linked.Description != "lavado" || !linked.Published {
		t.Fatalf("unexpected refreshed product %+v", linked)
	}
}

func TestRefreshReportsFailedCodes(t *testing.T) {
	syncer := NewSyncer(failingUpserts{memory.NewSeeded()})

	failed, err := syncer.Refresh(context.Background(), []domain.ProductEntry{{Code: "LV-501", Title: "Otro nombre"}})
	if err == nil {
		t.Fatalf("expected refresh error")
	}
	if len(failed) != 1 || failed[0] != "LV-501" {
		t.Fatalf("expected LV-501 to be reported, got %v", failed)
	}
}
