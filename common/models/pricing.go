package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus enumerates the availability states.
type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLowStock   StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

// ChangeType classifies a PriceHistory row relative to the price it
// superseded.
type ChangeType string

const (
	ChangeIncrease ChangeType = "increase"
	ChangeDecrease ChangeType = "decrease"
	ChangeNoChange ChangeType = "no_change"
)

// CurrentPrice is the (product, platform) composite-keyed row exclusively
// owned, for writes, by the Price Update Engine (G). Exactly one row exists
// per (product, platform) pair.
//
// Invariants:
//  1. Price > 0 at all times after seeding.
//  2. If OriginalPrice is set, Price <= OriginalPrice, and DiscountPercentage
//     equals (OriginalPrice-Price)/OriginalPrice*100 within 1% tolerance.
//  3. Every update appends exactly one PriceHistory row, strictly ordered
//     after the previous one for the same (product, platform).
//  4. DiscountPercentage, when present, is in [0, 100].
//  5. Platform.IsActive == false implies rows never surface in query results.
type CurrentPrice struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	ProductID          uint            `gorm:"uniqueIndex:idx_product_platform;index" json:"product_id"`
	PlatformID         uint            `gorm:"uniqueIndex:idx_product_platform;index" json:"platform_id"`
	Price              decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	OriginalPrice      *decimal.Decimal `gorm:"type:decimal(10,2)" json:"original_price,omitempty"`
	DiscountPercentage *decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_percentage,omitempty"`
	IsAvailable        bool            `gorm:"default:true;index" json:"is_available"`
	StockStatus        StockStatus     `gorm:"size:20;default:'in_stock'" json:"stock_status"`
	LastUpdated        time.Time       `gorm:"index" json:"last_updated"`

	Product  Product  `gorm:"foreignKey:ProductID" json:"-"`
	Platform Platform `gorm:"foreignKey:PlatformID" json:"-"`
}

func (CurrentPrice) TableName() string { return "current_prices" }

// PriceHistory is an append-only journal of every committed mutation to
// CurrentPrice. Producer: the Price Update Engine, written at the
// application level rather than via a DB trigger.
type PriceHistory struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	ProductID          uint            `gorm:"index:idx_history_product_platform" json:"product_id"`
	PlatformID         uint            `gorm:"index:idx_history_product_platform" json:"platform_id"`
	NewPrice           decimal.Decimal `gorm:"type:decimal(10,2)" json:"new_price"`
	OriginalPrice      *decimal.Decimal `gorm:"type:decimal(10,2)" json:"original_price,omitempty"`
	DiscountPercentage *decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_percentage,omitempty"`
	ChangeType         ChangeType      `gorm:"size:20" json:"change_type"`
	ChangeAmount       decimal.Decimal `gorm:"type:decimal(10,2)" json:"change_amount"`
	ChangePercentage   decimal.Decimal `gorm:"type:decimal(6,3)" json:"change_percentage"`
	StockStatus        StockStatus     `gorm:"size:20" json:"stock_status"`
	RecordedAt         time.Time       `gorm:"index" json:"recorded_at"`
	Source             string          `gorm:"size:50" json:"source"`
}

func (PriceHistory) TableName() string { return "price_history" }

// Discount is read-only from the core; seeded/mutated by admin tooling.
type Discount struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	PlatformID        *uint      `json:"platform_id,omitempty"`
	CategoryID        *uint      `json:"category_id,omitempty"`
	ProductID         *uint      `json:"product_id,omitempty"`
	Percentage        *decimal.Decimal `gorm:"type:decimal(5,2)" json:"percentage,omitempty"`
	FixedValue        *decimal.Decimal `gorm:"type:decimal(10,2)" json:"fixed_value,omitempty"`
	ValidFrom         time.Time  `json:"valid_from"`
	ValidTo           time.Time  `json:"valid_to"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`
}

func (Discount) TableName() string { return "discounts" }

// PromotionalCampaign is read-only from the core.
type PromotionalCampaign struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200" json:"name"`
	ValidFrom time.Time `json:"valid_from"`
	ValidTo   time.Time `json:"valid_to"`
	IsActive  bool      `gorm:"default:true;index" json:"is_active"`
	IsFeatured bool     `gorm:"default:false" json:"is_featured"`
}

func (PromotionalCampaign) TableName() string { return "promotional_campaigns" }

// CampaignProduct scopes a campaign to specific products.
type CampaignProduct struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CampaignID uint `gorm:"index" json:"campaign_id"`
	ProductID  uint `gorm:"index" json:"product_id"`
}

func (CampaignProduct) TableName() string { return "campaign_products" }
