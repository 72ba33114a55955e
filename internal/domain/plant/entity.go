// internal/domain/plant/entity.go
package plant

import (
	"time"

	"gorm.io/gorm"
)

// Plant represents a plant product in the catalog
type Plant struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"not null;size:255" json:"name"`
	Slug           string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	ScientificName string         `gorm:"size:255" json:"scientific_name"`
	Description    string         `gorm:"type:text" json:"description"`
	Price          int64          `gorm:"not null" json:"price"` // Whole rupees
	StockQuantity  int            `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURL       string         `gorm:"size:500" json:"image_url"`
	CareLevel      string         `gorm:"size:50" json:"care_level"` // easy, moderate, expert
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Plant) TableName() string {
	return "plants"
}

// InStock reports whether the requested quantity is available
func (p *Plant) InStock(quantity int) bool {
	return p.StockQuantity >= quantity
}
