package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// sortColumns maps the accepted sortBy values onto columns
var sortColumns = map[string]string{
	"orderDate": "s.order_date",
	"revenue":   "s.revenue",
	"quantity":  "s.quantity",
	"unitPrice": "s.unit_price",
	"salesRep":  "s.sales_rep",
	"createdAt": "s.created_at",
}

// ValidSortField reports whether field may be used as sortBy
func ValidSortField(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// SaleRepository stores sales
type SaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// List returns one page of sales joined with customer and product attributes
func (r *SaleRepository) List(ctx context.Context, filter models.SaleFilter) ([]models.SaleListItem, int64, error) {
	query := r.db.WithContext(ctx).
		Table("sales s").
		Joins("JOIN customers c ON c.id = s.customer_id").
		Joins("JOIN products p ON p.id = s.product_id").
		Where(saleInRange, filter.DateRange.Start, filter.DateRange.Until())

	if filter.CustomerID != nil {
		query = query.Where("s.customer_id = ?", *filter.CustomerID)
	}
	if filter.ProductID != nil {
		query = query.Where("s.product_id = ?", *filter.ProductID)
	}
	if filter.Region != "" {
		query = query.Where("c.region = ?", filter.Region)
	}
	if filter.Category != "" {
		query = query.Where("p.category = ?", filter.Category)
	}
	if filter.SalesRep != "" {
		query = query.Where("s.sales_rep ILIKE ?", "%"+filter.SalesRep+"%")
	}
	if filter.MinRevenue != nil {
		query = query.Where("s.revenue >= ?", *filter.MinRevenue)
	}
	if filter.MaxRevenue != nil {
		query = query.Where("s.revenue <= ?", *filter.MaxRevenue)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = sortColumns["orderDate"]
	}
	direction := "DESC"
	if filter.SortOrder == "asc" {
		direction = "ASC"
	}

	var rows []models.SaleListItem
	err := query.
		Select("s.id, s.order_date, s.sales_rep, s.quantity, s.unit_price, s.revenue, " +
			"c.name as customer, c.region as customer_region, c.type as customer_type, " +
			"p.name as product, p.category as product_category, p.price as product_price").
		Order(fmt.Sprintf("%s %s, s.id", column, direction)).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Scan(&rows).Error

	return rows, total, err
}

// GetByID loads a sale with its customer and product
func (r *SaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Product").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sale, nil
}

// Create inserts a sale
func (r *SaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Omit("Customer", "Product").Create(sale).Error
}

// Update writes the mutable fields of a sale
func (r *SaleRepository) Update(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).
		Model(sale).
		Select("sales_rep", "quantity", "unit_price", "revenue", "updated_at").
		Updates(sale).Error
}

// Delete removes a sale, returning ErrNotFound when nothing matched
func (r *SaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Sale{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateBatch inserts many sales in chunks
func (r *SaleRepository) CreateBatch(ctx context.Context, sales []models.Sale) error {
	return r.db.WithContext(ctx).Omit("Customer", "Product").CreateInBatches(sales, 200).Error
}
