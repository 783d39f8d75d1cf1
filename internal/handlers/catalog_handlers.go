package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// CatalogService is the customer and product surface used by the handlers
type CatalogService interface {
	ListCustomers(ctx context.Context, page, limit string) ([]models.Customer, models.Pagination, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error)
	ListProducts(ctx context.Context, page, limit string) ([]models.ProductView, models.Pagination, error)
	GetProduct(ctx context.Context, id string) (*models.ProductView, error)
	CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.ProductView, error)
}

// CatalogHandlers handles HTTP requests for customers and products
type CatalogHandlers struct {
	service CatalogService
	logger  *logrus.Logger
}

// NewCatalogHandlers creates a new catalog handlers instance
func NewCatalogHandlers(service CatalogService, logger *logrus.Logger) *CatalogHandlers {
	return &CatalogHandlers{
		service: service,
		logger:  logger,
	}
}

// ListCustomers GET /api/customers
func (h *CatalogHandlers) ListCustomers(c *gin.Context) {
	customers, pagination, err := h.service.ListCustomers(c.Request.Context(), c.Query("page"), c.Query("limit"))
	if err != nil {
		respondError(c, h.logger, err, "list customers")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers":  customers,
		"pagination": pagination,
	})
}

// GetCustomer GET /api/customers/:id
func (h *CatalogHandlers) GetCustomer(c *gin.Context) {
	customer, err := h.service.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "get customer")
		return
	}

	c.JSON(http.StatusOK, customer)
}

// CreateCustomer POST /api/customers
func (h *CatalogHandlers) CreateCustomer(c *gin.Context) {
	var req models.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	customer, err := h.service.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, "create customer")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Customer created successfully",
		"customer": customer,
	})
}

// ListProducts GET /api/products
func (h *CatalogHandlers) ListProducts(c *gin.Context) {
	products, pagination, err := h.service.ListProducts(c.Request.Context(), c.Query("page"), c.Query("limit"))
	if err != nil {
		respondError(c, h.logger, err, "list products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"pagination": pagination,
	})
}

// GetProduct GET /api/products/:id
func (h *CatalogHandlers) GetProduct(c *gin.Context) {
	product, err := h.service.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct POST /api/products
func (h *CatalogHandlers) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, "create product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}
