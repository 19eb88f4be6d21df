package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductEntry is one persisted line item: a product of one brand received
// in one batch. Batch fields are denormalized onto every row.
type ProductEntry struct {
	ID           string              `json:"id,omitempty" db:"id"`
	BatchName    string              `json:"batch_name" db:"batch_name"`
	BatchDate    time.Time           `json:"batch_date" db:"batch_date"`
	ReceiptCode  string              `json:"receipt_code" db:"receipt_code"`
	BatchExpense decimal.NullDecimal `json:"batch_expense" db:"batch_expense"`
	Brand        string              `json:"brand" db:"brand"`
	Title        string              `json:"title" db:"title"`
	Dozens       int                 `json:"dozens" db:"dozens"`
	UnitPrice    decimal.Decimal     `json:"unit_price" db:"unit_price"`
	Code         string              `json:"code" db:"code"`
	Notes        string              `json:"notes" db:"notes"`
	Position     int                 `json:"-" db:"position"`
}

type BrandGroup struct {
	Name    string         `json:"name"`
	Entries []ProductEntry `json:"entries"`
}

// Batch is the nested editing model of one merchandise intake ("tanda").
type Batch struct {
	Name        string              `json:"name"`
	Date        time.Time           `json:"date"`
	ReceiptCode string              `json:"receipt_code"`
	Expense     decimal.NullDecimal `json:"expense"`
	Brands      []BrandGroup        `json:"brands"`
}

type BatchSummary struct {
	Name        string              `json:"name"`
	Date        time.Time           `json:"date"`
	ReceiptCode string              `json:"receipt_code"`
	Expense     decimal.NullDecimal `json:"expense"`
	BrandCount  int                 `json:"brand_count"`
	EntryCount  int                 `json:"entry_count"`
	TotalDozens int                 `json:"total_dozens"`
}

type MarginPolicy string

const (
	MarginPolicyLow    MarginPolicy = "x1.3"
	MarginPolicyMid    MarginPolicy = "x1.5"
	MarginPolicyHigh   MarginPolicy = "x1.8"
	MarginPolicyDouble MarginPolicy = "x2"
	MarginPolicyCustom MarginPolicy = "custom"
)

type MarginPreset struct {
	Policy     MarginPolicy    `json:"policy"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// PricingSettings is keyed by batch name.
type PricingSettings struct {
	BatchName    string              `json:"batch_name" db:"batch_name"`
	ExchangeRate decimal.NullDecimal `json:"exchange_rate" db:"exchange_rate"`
	MarginPolicy MarginPolicy        `json:"margin_policy" db:"margin_policy"`
	Multiplier   decimal.NullDecimal `json:"multiplier" db:"multiplier"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

type PricingSettingsRequest struct {
	ExchangeRate     string       `json:"exchange_rate"`
	MarginPolicy     MarginPolicy `json:"margin_policy"`
	CustomMultiplier string       `json:"custom_multiplier,omitempty"`
}

// CatalogProduct is the sales-catalog record linked to line items by code.
type CatalogProduct struct {
	ID          string          `json:"id" db:"id"`
	Code        string          `json:"code" db:"code"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Published   bool            `json:"published" db:"published"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

type SaveBatchResponse struct {
	Batch    Batch    `json:"batch"`
	Renamed  bool     `json:"renamed"`
	Warnings []string `json:"warnings,omitempty"`
}

type CodeCheckRequest struct {
	Code          string   `json:"code"`
	ExistingCodes []string `json:"existing_codes"`
}

type CodeCheckResponse struct {
	Code      string `json:"code"`
	Available bool   `json:"available"`
	Collision string `json:"collision,omitempty"`
}

type LandedCostLine struct {
	Code          string          `json:"code"`
	Brand         string          `json:"brand"`
	Title         string          `json:"title"`
	Dozens        int             `json:"dozens"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	BaseCost      decimal.Decimal `json:"base_cost"`
	ConvertedCost decimal.Decimal `json:"converted_cost"`
	Expense       decimal.Decimal `json:"expense"`
	Total         decimal.Decimal `json:"total"`
}

type LandedCostEstimate struct {
	BatchName       string           `json:"batch_name"`
	Rate            decimal.Decimal  `json:"rate"`
	BatchExpense    decimal.Decimal  `json:"batch_expense"`
	ExpensePerEntry decimal.Decimal  `json:"expense_per_entry"`
	Lines           []LandedCostLine `json:"lines"`
	Total           decimal.Decimal  `json:"total"`
	TotalDisplay    string           `json:"total_display"`
}

type PricingLine struct {
	Code               string              `json:"code"`
	Brand              string              `json:"brand"`
	Title              string              `json:"title"`
	Notes              string              `json:"notes"`
	Dozens             int                 `json:"dozens"`
	UnitPrice          decimal.Decimal     `json:"unit_price"`
	BaseCost           decimal.Decimal     `json:"base_cost"`
	CostAtCostPerDozen decimal.Decimal     `json:"cost_at_cost_per_dozen"`
	SuggestedCost      decimal.NullDecimal `json:"suggested_price_cost_currency"`
	SuggestedLocal     decimal.NullDecimal `json:"suggested_price_local_currency"`
	CostDisplay        string              `json:"cost_display"`
	SuggestedDisplay   string              `json:"suggested_cost_display"`
	LocalDisplay       string              `json:"suggested_local_display"`
	InCatalog          bool                `json:"in_catalog"`
	Published          bool                `json:"published"`
}

type PricingSheet struct {
	BatchName     string              `json:"batch_name"`
	Brand         string              `json:"brand,omitempty"`
	Settings      PricingSettings     `json:"settings"`
	ExpensePerRow decimal.Decimal     `json:"expense_per_row"`
	Multiplier    decimal.NullDecimal `json:"multiplier"`
	LocalRate     decimal.NullDecimal `json:"local_rate"`
	Lines         []PricingLine       `json:"lines"`
}

type PublishRequest struct {
	BatchName   string `json:"batch_name"`
	Code        string `json:"code"`
	Publish     bool   `json:"publish"`
	RetailPrice string `json:"retail_price,omitempty"`
}

type PublishResponse struct {
	Code      string          `json:"code"`
	Published bool            `json:"published"`
	Product   *CatalogProduct `json:"product,omitempty"`
}
