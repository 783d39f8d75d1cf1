package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
	"github.com/tesseract-hub/sales-analytics-service/internal/repository"
)

const defaultCatalogLimit = 10

// CustomerStore persists customers
type CustomerStore interface {
	List(ctx context.Context, page, limit int) ([]models.Customer, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
}

// ProductStore persists products
type ProductStore interface {
	List(ctx context.Context, page, limit int) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SKUExists(ctx context.Context, sku string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
}

// CatalogPusher delivers new catalogue records to realtime subscribers
type CatalogPusher interface {
	PushNewCustomer(customer any) int
	PushNewProduct(product any) int
}

// CatalogService manages customers and products
type CatalogService struct {
	customers CustomerStore
	products  ProductStore
	pusher    CatalogPusher
	logger    *logrus.Logger
}

// NewCatalogService creates a new catalog service. pusher may be nil.
func NewCatalogService(customers CustomerStore, products ProductStore, pusher CatalogPusher, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		customers: customers,
		products:  products,
		pusher:    pusher,
		logger:    logger,
	}
}

// ListCustomers returns one page of customers
func (s *CatalogService) ListCustomers(ctx context.Context, pageParam, limitParam string) ([]models.Customer, models.Pagination, error) {
	page, limit, err := ParsePagination(pageParam, limitParam, defaultCatalogLimit)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	customers, total, err := s.customers.List(ctx, page, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list customers")
		return nil, models.Pagination{}, fmt.Errorf("failed to list customers: %w", err)
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	return customers, models.NewPagination(page, limit, total), nil
}

// GetCustomer loads one customer
func (s *CatalogService) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	customerID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Entity: "Customer", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

// CreateCustomer validates and stores a customer
func (s *CatalogService) CreateCustomer(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error) {
	var errs fieldErrors

	name := strings.TrimSpace(req.Name)
	if name == "" || len([]rune(name)) > 100 {
		errs.add("name", "Name is required and must be at most 100 characters")
	}
	region := strings.TrimSpace(req.Region)
	if region == "" {
		errs.add("region", "Region is required")
	}
	if !req.Type.Valid() {
		errs.add("type", "Type must be one of Enterprise, SMB, Startup")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" && !models.ValidEmail(email) {
		errs.add("email", "Email must be a valid address")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:     name,
		Region:   region,
		Type:     req.Type,
		Email:    email,
		Phone:    strings.TrimSpace(req.Phone),
		Address:  req.Address,
		IsActive: true,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		s.logger.WithError(err).Error("Failed to create customer")
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.WithField("customer_id", customer.ID).Info("Customer created")
	if s.pusher != nil {
		s.pusher.PushNewCustomer(customer)
	}
	return customer, nil
}

// ListProducts returns one page of products with derived stock
func (s *CatalogService) ListProducts(ctx context.Context, pageParam, limitParam string) ([]models.ProductView, models.Pagination, error) {
	page, limit, err := ParsePagination(pageParam, limitParam, defaultCatalogLimit)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	products, total, err := s.products.List(ctx, page, limit)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list products")
		return nil, models.Pagination{}, fmt.Errorf("failed to list products: %w", err)
	}

	views := make([]models.ProductView, 0, len(products))
	for i := range products {
		views = append(views, models.NewProductView(&products[i]))
	}
	return views, models.NewPagination(page, limit, total), nil
}

// GetProduct loads one product
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.ProductView, error) {
	productID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Entity: "Product", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	view := models.NewProductView(product)
	return &view, nil
}

// CreateProduct validates and stores a product
func (s *CatalogService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.ProductView, error) {
	var errs fieldErrors

	name := strings.TrimSpace(req.Name)
	if name == "" || len([]rune(name)) > 200 {
		errs.add("name", "Name is required and must be at most 200 characters")
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		errs.add("category", "Category is required")
	}
	if req.Price == nil || *req.Price < 0 {
		errs.add("price", "Price is required and must be non-negative")
	}
	if len([]rune(req.Description)) > 1000 {
		errs.add("description", "Description must be at most 1000 characters")
	}

	inventory := models.Inventory{ReorderLevel: 10}
	if req.Inventory != nil {
		inventory = *req.Inventory
		if inventory.InStock < 0 || inventory.Reserved < 0 || inventory.ReorderLevel < 0 {
			errs.add("inventory", "Inventory counts must be non-negative")
		}
	}

	var sku *string
	if trimmed := strings.ToUpper(strings.TrimSpace(req.SKU)); trimmed != "" {
		sku = &trimmed
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	if sku != nil {
		exists, err := s.products.SKUExists(ctx, *sku)
		if err != nil {
			return nil, fmt.Errorf("failed to check sku: %w", err)
		}
		if exists {
			return nil, &ValidationError{Errors: []FieldError{{Field: "sku", Message: "SKU already exists"}}}
		}
	}

	product := &models.Product{
		Name:           name,
		Category:       category,
		Price:          *req.Price,
		Description:    strings.TrimSpace(req.Description),
		SKU:            sku,
		Specifications: datatypes.NewJSONType(req.Specifications),
		Inventory:      inventory,
		IsActive:       true,
	}
	if err := s.products.Create(ctx, product); err != nil {
		s.logger.WithError(err).Error("Failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	view := models.NewProductView(product)
	s.logger.WithField("product_id", product.ID).Info("Product created")
	if s.pusher != nil {
		s.pusher.PushNewProduct(view)
	}
	return &view, nil
}
