package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/middleware"
	"github.com/tesseract-hub/sales-analytics-service/internal/models"
	"github.com/tesseract-hub/sales-analytics-service/internal/services"
)

// SalesService is the sales surface used by the handlers
type SalesService interface {
	BuildFilter(q services.SaleQuery) (models.SaleFilter, error)
	ListSales(ctx context.Context, filter models.SaleFilter) ([]models.SaleListItem, models.Pagination, error)
	GetSale(ctx context.Context, id string) (*models.Sale, error)
	CreateSale(ctx context.Context, req models.CreateSaleRequest) (*models.Sale, error)
	UpdateSale(ctx context.Context, id string, req models.UpdateSaleRequest) (*models.Sale, error)
	DeleteSale(ctx context.Context, id string) (*models.Sale, error)
}

// SalesHandlers handles HTTP requests for sales
type SalesHandlers struct {
	service SalesService
	logger  *logrus.Logger
}

// NewSalesHandlers creates a new sales handlers instance
func NewSalesHandlers(service SalesService, logger *logrus.Logger) *SalesHandlers {
	return &SalesHandlers{
		service: service,
		logger:  logger,
	}
}

// ListSales returns joined sale rows with pagination and the applied filters
// GET /api/sales
func (h *SalesHandlers) ListSales(c *gin.Context) {
	q := services.SaleQuery{
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
		Customer:   c.Query("customer"),
		Product:    c.Query("product"),
		Region:     c.Query("region"),
		Category:   c.Query("category"),
		SalesRep:   c.Query("salesRep"),
		MinRevenue: c.Query("minRevenue"),
		MaxRevenue: c.Query("maxRevenue"),
		Page:       c.Query("page"),
		Limit:      c.Query("limit"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}

	filter, err := h.service.BuildFilter(q)
	if err != nil {
		respondError(c, h.logger, err, "parse sales filter")
		return
	}

	sales, pagination, err := h.service.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "list sales")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales":      sales,
		"pagination": pagination,
		"filters": gin.H{
			"dateRange": gin.H{"startDate": filter.DateRange.Start, "endDate": filter.DateRange.End},
			"customer":  q.Customer,
			"product":   q.Product,
			"region":    q.Region,
			"category":  q.Category,
			"salesRep":  q.SalesRep,
			"revenueRange": gin.H{
				"min": filter.MinRevenue,
				"max": filter.MaxRevenue,
			},
		},
		"sorting": gin.H{"sortBy": filter.SortBy, "sortOrder": filter.SortOrder},
	})
}

// GetSale returns one sale with its customer and product
// GET /api/sales/:id
func (h *SalesHandlers) GetSale(c *gin.Context) {
	sale, err := h.service.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "get sale")
		return
	}

	c.JSON(http.StatusOK, sale)
}

// CreateSale records a sale
// POST /api/sales
func (h *SalesHandlers) CreateSale(c *gin.Context) {
	var req models.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	sale, err := h.service.CreateSale(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, "create sale")
		return
	}
	middleware.AddLogField(c, "sale_id", sale.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale created successfully",
		"sale":    sale,
	})
}

// UpdateSale changes quantity, unit price or sales rep
// PUT /api/sales/:id
func (h *SalesHandlers) UpdateSale(c *gin.Context) {
	var req models.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}

	sale, err := h.service.UpdateSale(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err, "update sale")
		return
	}
	middleware.AddLogField(c, "sale_id", sale.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale updated successfully",
		"sale":    sale,
	})
}

// DeleteSale removes a sale
// DELETE /api/sales/:id
func (h *SalesHandlers) DeleteSale(c *gin.Context) {
	sale, err := h.service.DeleteSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "delete sale")
		return
	}
	middleware.AddLogField(c, "sale_id", sale.ID)

	c.JSON(http.StatusOK, gin.H{
		"message":     "Sale deleted successfully",
		"deletedSale": gin.H{"id": sale.ID, "revenue": sale.Revenue},
	})
}
