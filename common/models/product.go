package models

import "time"

// ProductCategory groups products (vegetables, dairy, staples, ...). Used by
// the price engine's category-volatility lookup and the result processor's
// chart/summary formats.
type ProductCategory struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"uniqueIndex;size:100" json:"name"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

func (ProductCategory) TableName() string { return "product_categories" }

// Brand is a manufacturer/brand reference. Read-only from the core.
type Brand struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:150" json:"name"`
}

func (Brand) TableName() string { return "brands" }

// Product is immutable from the core's perspective; read-only from the
// query path.
type Product struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;index" json:"name"`
	Slug       string    `gorm:"uniqueIndex;size:255" json:"slug"`
	CategoryID uint      `gorm:"index" json:"category_id"`
	BrandID    *uint     `gorm:"index" json:"brand_id,omitempty"`
	PackSize   string    `gorm:"size:50" json:"pack_size"`
	IsActive   bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Category ProductCategory `gorm:"foreignKey:CategoryID" json:"-"`
}

func (Product) TableName() string { return "products" }
