// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a catalog item that can be put in a cart
type Product struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	Name           string              `gorm:"not null;size:255" json:"name"`
	Description    string              `gorm:"type:text" json:"description"`
	Price          decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountPrice  decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"discount_price"`
	InventoryCount int                 `gorm:"not null;default:0;check:inventory_count >= 0" json:"inventory_count"`
	IsActive       bool                `gorm:"default:true" json:"is_active"`
	Categories     pq.StringArray      `gorm:"type:text[]" json:"categories"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`

	// Relationships
	Images []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
}

// ProductImage represents product images
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	IsMain    bool      `gorm:"default:false" json:"is_main"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Product) TableName() string      { return "products" }
func (ProductImage) TableName() string { return "product_images" }

// DiscountPtr returns the discount price or nil when none is set
func (p *Product) DiscountPtr() *decimal.Decimal {
	if !p.DiscountPrice.Valid {
		return nil
	}
	d := p.DiscountPrice.Decimal
	return &d
}

// MainImageURL returns the image flagged as main, or "" when there is none
func (p *Product) MainImageURL() string {
	for _, img := range p.Images {
		if img.IsMain {
			return img.URL
		}
	}
	return ""
}

// CategoryLabel joins the product's category names for display on order lines
func (p *Product) CategoryLabel() string {
	return strings.Join(p.Categories, ", ")
}

// HasStock reports whether quantity units can be sold right now
func (p *Product) HasStock(quantity int) bool {
	return p.InventoryCount >= quantity
}
