package shop

import (
	"time"

	"github.com/google/uuid"
)

// Banner is a profile banner offered in the shop.
type Banner struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name     string    `gorm:"size:100;not null" json:"name"`
	ImageURL string    `gorm:"size:500;not null" json:"image_url"`
	Price    int64     `gorm:"not null" json:"price"`
	Active   bool      `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Banner.
func (Banner) TableName() string {
	return "banners"
}

// Purchase records a user's ownership of a banner.
type Purchase struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_purchases_user_banner;index" json:"user_id"`
	BannerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_purchases_user_banner" json:"banner_id"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Purchase.
func (Purchase) TableName() string {
	return "banner_purchases"
}
