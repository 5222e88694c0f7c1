package models

import "time"

// Platform is a quick-commerce delivery service (Blinkit, Zepto, Instamart,
// BigBasket). Seeded by admin tooling; the core never mutates it.
type Platform struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ShortName   string    `gorm:"uniqueIndex;size:50" json:"short_name"`
	DisplayName string    `gorm:"size:100" json:"display_name"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Platform) TableName() string { return "platforms" }

// KnownPlatforms is the validated platform set.
var KnownPlatforms = map[string]bool{
	"Blinkit":   true,
	"Zepto":     true,
	"Instamart": true,
	"BigBasket": true,
}
