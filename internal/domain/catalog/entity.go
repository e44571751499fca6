// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Status represents the listing lifecycle state of a product
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusSold      Status = "sold"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusInactive  Status = "inactive"
)

// IsValid reports whether the status is one of the known lifecycle states
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusSold, StatusShipped, StatusDelivered, StatusInactive:
		return true
	}
	return false
}

// Product represents a second-hand listing
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null;size:255" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"` // Price in cents
	SellerID    uint           `gorm:"not null;index" json:"seller_id"`
	Status      Status         `gorm:"not null;default:'draft';size:20" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Images []ProductImage `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
}

// ProductImage represents product images
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Product) TableName() string      { return "products" }
func (ProductImage) TableName() string { return "product_images" }

// Business methods for Product

// IsAvailable reports whether the listing can currently be purchased
func (p *Product) IsAvailable() bool {
	return p.Status == StatusActive
}

// GetFormattedPrice returns price as float
func (p *Product) GetFormattedPrice() float64 {
	return float64(p.Price) / 100
}

// PrimaryImageURL returns the URL of the primary image, or the first image
func (p *Product) PrimaryImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	return p.Images[0].URL
}
