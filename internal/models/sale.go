package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleStatus is the fulfilment state of a sale
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusConfirmed SaleStatus = "confirmed"
	SaleStatusShipped   SaleStatus = "shipped"
	SaleStatusDelivered SaleStatus = "delivered"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// PaymentStatus is the settlement state of a sale
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Sale represents a single order line: one product sold to one customer
type Sale struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID    uuid.UUID     `gorm:"type:uuid;not null;index;index:idx_sales_order_date_customer,priority:2" json:"customerId"`
	Customer      *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProductID     uuid.UUID     `gorm:"type:uuid;not null;index;index:idx_sales_order_date_product,priority:2" json:"productId"`
	Product       *Product      `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SalesRep      string        `gorm:"not null;index" json:"salesRep"`
	Quantity      int64         `gorm:"not null" json:"quantity"`
	UnitPrice     float64       `gorm:"type:numeric(18,4);not null" json:"unitPrice"`
	Revenue       float64       `gorm:"type:numeric(18,4);not null" json:"revenue"`
	Discount      float64       `gorm:"type:numeric(7,4);not null;default:0" json:"discount"`
	TaxAmount     float64       `gorm:"type:numeric(18,4);not null;default:0" json:"taxAmount"`
	TotalAmount   float64       `gorm:"type:numeric(18,4)" json:"totalAmount"`
	OrderDate     time.Time     `gorm:"not null;index;index:idx_sales_order_date_customer,priority:1;index:idx_sales_order_date_product,priority:1" json:"orderDate"`
	Status        SaleStatus    `gorm:"not null;default:confirmed" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:pending" json:"paymentStatus"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// BeforeCreate assigns an identity, fills status defaults and freezes the
// total amount when the writer did not supply one.
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SaleStatusConfirmed
	}
	if s.PaymentStatus == "" {
		s.PaymentStatus = PaymentStatusPending
	}
	if s.TotalAmount == 0 {
		s.TotalAmount = ComputeTotalAmount(s.Revenue, s.Discount, s.TaxAmount)
	}
	return nil
}

// DiscountAmount is the absolute discount taken off revenue
func (s *Sale) DiscountAmount() float64 {
	v, _ := decimal.NewFromFloat(s.Revenue).
		Mul(decimal.NewFromFloat(s.Discount)).
		Div(decimal.NewFromInt(100)).
		Round(4).
		Float64()
	return v
}

// ComputeTotalAmount returns revenue - revenue*discount/100 + tax
func ComputeTotalAmount(revenue, discountPct, tax float64) float64 {
	rev := decimal.NewFromFloat(revenue)
	discount := rev.Mul(decimal.NewFromFloat(discountPct)).Div(decimal.NewFromInt(100))
	total, _ := rev.Sub(discount).Add(decimal.NewFromFloat(tax)).Round(4).Float64()
	return total
}

// ComputeRevenue is the API-side revenue rule: quantity x unit price
func ComputeRevenue(quantity int64, unitPrice float64) float64 {
	v, _ := decimal.NewFromInt(quantity).Mul(decimal.NewFromFloat(unitPrice)).Round(4).Float64()
	return v
}

// CreateSaleRequest is the payload accepted by POST /api/sales
type CreateSaleRequest struct {
	CustomerID string   `json:"customerId"`
	ProductID  string   `json:"productId"`
	SalesRep   string   `json:"salesRep"`
	Quantity   *int64   `json:"quantity"`
	UnitPrice  *float64 `json:"unitPrice"`
	OrderDate  string   `json:"orderDate"`
}

// UpdateSaleRequest is the payload accepted by PUT /api/sales/:id
type UpdateSaleRequest struct {
	Quantity  *int64   `json:"quantity"`
	UnitPrice *float64 `json:"unitPrice"`
	SalesRep  *string  `json:"salesRep"`
}

// SaleFilter narrows a sales listing
type SaleFilter struct {
	DateRange  DateRange
	CustomerID *uuid.UUID
	ProductID  *uuid.UUID
	Region     string
	Category   string
	SalesRep   string
	MinRevenue *float64
	MaxRevenue *float64
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

// SaleListItem is a sale flattened with its customer and product attributes
type SaleListItem struct {
	ID              uuid.UUID `json:"id"`
	OrderDate       time.Time `json:"orderDate"`
	SalesRep        string    `json:"salesRep"`
	Quantity        int64     `json:"quantity"`
	UnitPrice       float64   `json:"unitPrice"`
	Revenue         float64   `json:"revenue"`
	Customer        string    `json:"customer"`
	CustomerRegion  string    `json:"customerRegion"`
	CustomerType    string    `json:"customerType"`
	Product         string    `json:"product"`
	ProductCategory string    `json:"productCategory"`
	ProductPrice    float64   `json:"productPrice"`
}
