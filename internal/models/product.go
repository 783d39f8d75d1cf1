package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dimensions of a physical product
type Dimensions struct {
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// ProductSpecifications holds descriptive attributes stored as JSON
type ProductSpecifications struct {
	Weight     float64     `json:"weight,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Color      string      `json:"color,omitempty"`
	Material   string      `json:"material,omitempty"`
}

// Inventory tracks stock for a product
type Inventory struct {
	InStock      int64 `gorm:"not null;default:0" json:"inStock"`
	Reserved     int64 `gorm:"not null;default:0" json:"reserved"`
	ReorderLevel int64 `gorm:"not null;default:10" json:"reorderLevel"`
}

// Product represents a sellable catalogue item
type Product struct {
	ID             uuid.UUID                                  `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string                                     `gorm:"not null;index" json:"name"`
	Category       string                                     `gorm:"not null;index;index:idx_products_category_price,priority:1" json:"category"`
	Price          float64                                    `gorm:"type:numeric(18,4);not null;index:idx_products_category_price,priority:2" json:"price"`
	Description    string                                     `gorm:"size:1000" json:"description,omitempty"`
	SKU            *string                                    `gorm:"uniqueIndex" json:"sku,omitempty"`
	Specifications datatypes.JSONType[ProductSpecifications] `gorm:"type:jsonb" json:"specifications"`
	Inventory      Inventory                                  `gorm:"embedded;embeddedPrefix:inventory_" json:"inventory"`
	IsActive       bool                                       `gorm:"not null;default:true" json:"isActive"`
	CreatedAt      time.Time                                  `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time                                  `json:"updatedAt"`
}

// BeforeCreate assigns an identity when the caller did not
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AvailableStock is in-stock minus reserved, never negative
func (p *Product) AvailableStock() int64 {
	return max(0, p.Inventory.InStock-p.Inventory.Reserved)
}

// ProductView is the API representation of a product, including derived stock
type ProductView struct {
	*Product
	AvailableStock int64 `json:"availableStock"`
}

// NewProductView wraps p with its derived fields
func NewProductView(p *Product) ProductView {
	return ProductView{Product: p, AvailableStock: p.AvailableStock()}
}

// CreateProductRequest is the payload accepted by POST /api/products
type CreateProductRequest struct {
	Name           string                `json:"name"`
	Category       string                `json:"category"`
	Price          *float64              `json:"price"`
	Description    string                `json:"description"`
	SKU            string                `json:"sku"`
	Specifications ProductSpecifications `json:"specifications"`
	Inventory      *Inventory            `json:"inventory"`
}
