package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tandas/backend/internal/domain"
	"tandas/backend/internal/service"
	"tandas/backend/internal/store"
	"tandas/backend/internal/store/memory"
)

// newTestAPI builds a full API over a seeded in-memory store so handler
// tests exercise the complete request path.
func newTestAPI(t *testing.T, repo store.Repository) http.Handler {
	t.Helper()
	if repo == nil {
		repo = memory.NewSeeded()
	}
	svc := service.New(repo, nil, service.Options{})
	return New(svc, "*").Handler()
}

func do(t *testing.T, handler http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

type failingCatalog struct {
	*memory.Store
}

func (failingCatalog) UpsertCatalogProduct(context.Context, domain.CatalogProduct) (*domain.CatalogProduct, error) {
	return nil, errors.New("catalog offline")
}

type failingReads struct {
	*memory.Store
}

func (failingReads) FetchLineItems(context.Context, string) ([]domain.ProductEntry, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestHandleHealth(t *testing.T) {
	rec := do(t, newTestAPI(t, nil), http.MethodGet, "/healthz", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleBatches_List(t *testing.T) {
	rec := do(t, newTestAPI(t, nil), http.MethodGet, "/api/v1/batches", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Batches []domain.BatchSummary `json:"batches"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Batches) != 1 || body.Batches[0].Name != "Tanda Marzo" {
		t.Fatalf("unexpected batches %+v", body.Batches)
	}
}

func TestHandleBatch_GetByEscapedName(t *testing.T) {
	handler := newTestAPI(t, nil)

	rec := do(t, handler, http.MethodGet, "/api/v1/batches/Tanda%20Marzo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Batch domain.Batch `json:"batch"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Batch.Brands) != 2 {
		t.Fatalf("expected two brands, got %+v", body.Batch.Brands)
	}

	rec = do(t, handler, http.MethodGet, "/api/v1/batches/Tanda%20Nada", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleBatches_CreateAndDuplicate(t *testing.T) {
	handler := newTestAPI(t, nil)

	batch := domain.Batch{
		Name: "Tanda Abril",
		Date: time.Date(2024, 4, 9, 0, 0, 0, 0, time.UTC),
		Brands: []domain.BrandGroup{
			{Name: "Lee", Entries: []domain.ProductEntry{
				{Title: "Chomba", Dozens: 1, UnitPrice: decimal.NewFromInt(50), Code: "LE-1"},
			}},
		},
	}
	rec := do(t, handler, http.MethodPost, "/api/v1/batches", batch)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	batch.Name = "Tanda Mayo"
	batch.Brands = append(batch.Brands, domain.BrandGroup{Name: "Levi's", Entries: []domain.ProductEntry{
		{Title: "Jean", Dozens: 1, UnitPrice: decimal.NewFromInt(80), Code: "le-1 "},
	}})
	rec = do(t, handler, http.MethodPost, "/api/v1/batches", batch)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["collision"] != "LE-1" {
		t.Fatalf("expected collision LE-1, got %v", body["collision"])
	}
}

func TestHandleBatch_SaveRejectsZeroDozens(t *testing.T) {
	handler := newTestAPI(t, nil)

	batch := domain.Batch{
		Name: "Tanda Marzo",
		Date: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		Brands: []domain.BrandGroup{
			{Name: "Lee", Entries: []domain.ProductEntry{{Title: "Chomba", Dozens: 0, Code: "LE-1"}}},
		},
	}
	rec := do(t, handler, http.MethodPut, "/api/v1/batches/Tanda%20Marzo", batch)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["field"] != "dozens" {
		t.Fatalf("expected dozens field, got %v", body)
	}
}

func TestHandleBatch_PartialSync(t *testing.T) {
	repo := failingCatalog{memory.NewSeeded()}
	handler := newTestAPI(t, repo)

	batch, err := service.New(repo, nil, service.Options{}).GetBatch(context.Background(), "Tanda Marzo")
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	batch.Brands[0].Entries[0].Title = "Jean 501 Stone"

	rec := do(t, handler, http.MethodPut, "/api/v1/batches/Tanda%20Marzo", batch)
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["sync_error"] == nil || body["batch"] == nil {
		t.Fatalf("expected saved batch and sync error, got %v", body)
	}
}

func TestHandleBatches_StoreFailureIsBadGateway(t *testing.T) {
	rec := do(t, newTestAPI(t, failingReads{memory.NewSeeded()}), http.MethodGet, "/api/v1/batches", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestHandlePricingFlow(t *testing.T) {
	handler := newTestAPI(t, nil)

	rec := do(t, handler, http.MethodPut, "/api/v1/batches/Tanda%20Marzo/pricing-settings", domain.PricingSettingsRequest{
		ExchangeRate: "1000",
		MarginPolicy: domain.MarginPolicyMid,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = do(t, handler, http.MethodGet, "/api/v1/batches/Tanda%20Marzo/pricing?brand=Levi%27s", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var sheet domain.PricingSheet
	if err := json.NewDecoder(rec.Body).Decode(&sheet); err != nil {
		t.Fatalf("decode sheet: %v", err)
	}
	if len(sheet.Lines) != 2 || !sheet.ExpensePerRow.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected two Levi's lines sharing 120/2, got %+v", sheet)
	}

	rec = do(t, handler, http.MethodPost, "/api/v1/catalog/publish", domain.PublishRequest{
		BatchName: "Tanda Marzo",
		Code:      "LV-505",
		Publish:   true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var published domain.PublishResponse
	if err := json.NewDecoder(rec.Body).Decode(&published); err != nil {
		t.Fatalf("decode publish: %v", err)
	}
	if !published.Published || published.Product == nil {
		t.Fatalf("expected a published product, got %+v", published)
	}
}

func TestHandlePricingSettings_ListsPresets(t *testing.T) {
	rec := do(t, newTestAPI(t, nil), http.MethodGet, "/api/v1/batches/Tanda%20Marzo/pricing-settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body struct {
		Settings domain.PricingSettings `json:"settings"`
		Presets  []domain.MarginPreset  `json:"presets"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if body.Settings.MarginPolicy != domain.MarginPolicyMid {
		t.Fatalf("expected default x1.5 settings, got %+v", body.Settings)
	}
	if len(body.Presets) != 4 || !body.Presets[2].Multiplier.Equal(decimal.RequireFromString("1.8")) {
		t.Fatalf("unexpected presets %+v", body.Presets)
	}
}

func TestHandleCostEstimate(t *testing.T) {
	rec := do(t, newTestAPI(t, nil), http.MethodGet, "/api/v1/batches/Tanda%20Marzo/cost-estimate?rate=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var estimate domain.LandedCostEstimate
	if err := json.NewDecoder(rec.Body).Decode(&estimate); err != nil {
		t.Fatalf("decode estimate: %v", err)
	}
	if !estimate.Total.Equal(decimal.NewFromInt(1348)) {
		t.Fatalf("expected total 1348, got %s", estimate.Total)
	}
}

func TestHandleCodeCheck(t *testing.T) {
	rec := do(t, newTestAPI(t, nil), http.MethodPost, "/api/v1/batches/Tanda%20Abril/codes/check", domain.CodeCheckRequest{
		Code:          "ABC-1",
		ExistingCodes: []string{" abc-1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var resp domain.CodeCheckResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Available {
		t.Fatalf("expected code to be taken, got %+v", resp)
	}
}

func TestHandleBatch_Delete(t *testing.T) {
	handler := newTestAPI(t, nil)

	rec := do(t, handler, http.MethodDelete, "/api/v1/batches/Tanda%20Marzo", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = do(t, handler, http.MethodDelete, "/api/v1/batches/Tanda%20Marzo", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRejectsUnknownFieldsAndMethods(t *testing.T) {
	handler := newTestAPI(t, nil)

	rec := do(t, handler, http.MethodPost, "/api/v1/catalog/publish", map[string]any{"sku": "LV-501"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}

	rec = do(t, handler, http.MethodPatch, "/api/v1/batches", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = do(t, handler, http.MethodGet, "/api/v1/batches/Tanda%20Marzo/unknown", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown action, got %d", rec.Code)
	}
}
