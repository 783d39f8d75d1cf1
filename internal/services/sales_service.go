package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
	"github.com/tesseract-hub/sales-analytics-service/internal/repository"
)

const (
	maxQuantity      = 10000
	defaultSaleLimit = 50
)

// SaleStore persists sales
type SaleStore interface {
	List(ctx context.Context, filter models.SaleFilter) ([]models.SaleListItem, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	Create(ctx context.Context, sale *models.Sale) error
	Update(ctx context.Context, sale *models.Sale) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerLookup loads customers by id
type CustomerLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// ProductLookup loads products by id
type ProductLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// SalePusher delivers new sales to realtime subscribers
type SalePusher interface {
	PushNewSale(sale any) int
}

// SaleEventPublisher emits sale domain events
type SaleEventPublisher interface {
	PublishSaleRecorded(ctx context.Context, sale *models.Sale) error
	PublishSaleUpdated(ctx context.Context, sale *models.Sale) error
	PublishSaleDeleted(ctx context.Context, id uuid.UUID, revenue float64) error
}

// SaleQuery holds the raw query parameters of a sales listing
type SaleQuery struct {
	StartDate  string
	EndDate    string
	Customer   string
	Product    string
	Region     string
	Category   string
	SalesRep   string
	MinRevenue string
	MaxRevenue string
	Page       string
	Limit      string
	SortBy     string
	SortOrder  string
}

// SalesService handles sale recording and listing
type SalesService struct {
	sales     SaleStore
	customers CustomerLookup
	products  ProductLookup
	pusher    SalePusher
	publisher SaleEventPublisher
	logger    *logrus.Logger
	now       func() time.Time
}

// NewSalesService creates a new sales service. pusher and publisher may be nil.
func NewSalesService(sales SaleStore, customers CustomerLookup, products ProductLookup, pusher SalePusher, publisher SaleEventPublisher, logger *logrus.Logger) *SalesService {
	return &SalesService{
		sales:     sales,
		customers: customers,
		products:  products,
		pusher:    pusher,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// BuildFilter validates a listing query and turns it into a filter
func (s *SalesService) BuildFilter(q SaleQuery) (models.SaleFilter, error) {
	var errs fieldErrors
	filter := models.SaleFilter{
		Region:    q.Region,
		Category:  q.Category,
		SalesRep:  strings.TrimSpace(q.SalesRep),
		SortBy:    q.SortBy,
		SortOrder: strings.ToLower(q.SortOrder),
	}

	rng, err := ResolveDateRange(q.StartDate, q.EndDate, "", s.now())
	if err != nil {
		errs = append(errs, validationFields(err)...)
	}
	filter.DateRange = rng

	if q.Customer != "" {
		if id, err := uuid.Parse(q.Customer); err != nil {
			errs.add("customer", "Customer must be a valid ID")
		} else {
			filter.CustomerID = &id
		}
	}
	if q.Product != "" {
		if id, err := uuid.Parse(q.Product); err != nil {
			errs.add("product", "Product must be a valid ID")
		} else {
			filter.ProductID = &id
		}
	}
	filter.MinRevenue = parseOptionalFloat(&errs, "minRevenue", q.MinRevenue)
	filter.MaxRevenue = parseOptionalFloat(&errs, "maxRevenue", q.MaxRevenue)
	if filter.MinRevenue != nil && filter.MaxRevenue != nil && *filter.MinRevenue > *filter.MaxRevenue {
		errs.add("minRevenue", "Minimum revenue must not exceed maximum revenue")
	}

	if filter.SortBy == "" {
		filter.SortBy = "orderDate"
	} else if !repository.ValidSortField(filter.SortBy) {
		errs.add("sortBy", "Unsupported sort field")
	}
	if filter.SortOrder == "" {
		filter.SortOrder = "desc"
	} else if filter.SortOrder != "asc" && filter.SortOrder != "desc" {
		errs.add("sortOrder", "Sort order must be asc or desc")
	}

	page, limit, err := ParsePagination(q.Page, q.Limit, defaultSaleLimit)
	if err != nil {
		errs = append(errs, validationFields(err)...)
	}
	filter.Page, filter.Limit = page, limit

	return filter, errs.err()
}

// ListSales returns one page of joined sale rows
func (s *SalesService) ListSales(ctx context.Context, filter models.SaleFilter) ([]models.SaleListItem, models.Pagination, error) {
	rows, total, err := s.sales.List(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list sales")
		return nil, models.Pagination{}, fmt.Errorf("failed to list sales: %w", err)
	}
	if rows == nil {
		rows = []models.SaleListItem{}
	}
	return rows, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// GetSale loads one sale with its customer and product
func (s *SalesService) GetSale(ctx context.Context, id string) (*models.Sale, error) {
	saleID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}

	sale, err := s.sales.GetByID(ctx, saleID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Entity: "Sale", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return sale, nil
}

// CreateSale validates req, checks the referenced customer and product and
// records the sale with revenue = quantity x unit price.
func (s *SalesService) CreateSale(ctx context.Context, req models.CreateSaleRequest) (*models.Sale, error) {
	var errs fieldErrors

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		errs.add("customerId", "Valid customer ID is required")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		errs.add("productId", "Valid product ID is required")
	}
	salesRep := strings.TrimSpace(req.SalesRep)
	validateSalesRep(&errs, salesRep)
	if req.Quantity == nil {
		errs.add("quantity", "Quantity is required")
	} else {
		validateQuantity(&errs, *req.Quantity)
	}
	if req.UnitPrice == nil {
		errs.add("unitPrice", "Unit price is required")
	} else {
		validateUnitPrice(&errs, *req.UnitPrice)
	}
	orderDate, ok := parseTimestamp(req.OrderDate)
	if !ok {
		errs.add("orderDate", "Valid order date is required")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	var (
		customer *models.Customer
		product  *models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		customer, err = s.customers.GetByID(gctx, customerID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !customer.IsActive) {
			return &NotFoundError{Entity: "Customer", ID: req.CustomerID}
		}
		return err
	})
	g.Go(func() (err error) {
		product, err = s.products.GetByID(gctx, productID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !product.IsActive) {
			return &NotFoundError{Entity: "Product", ID: req.ProductID}
		}
		return err
	})
	if err := g.Wait(); err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to load sale references: %w", err)
	}

	sale := &models.Sale{
		CustomerID: customerID,
		ProductID:  productID,
		SalesRep:   salesRep,
		Quantity:   *req.Quantity,
		UnitPrice:  *req.UnitPrice,
		Revenue:    models.ComputeRevenue(*req.Quantity, *req.UnitPrice),
		OrderDate:  orderDate,
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to create sale")
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}
	sale.Customer = customer
	sale.Product = product

	s.logger.WithFields(logrus.Fields{
		"sale_id":   sale.ID,
		"sales_rep": sale.SalesRep,
		"revenue":   sale.Revenue,
	}).Info("Sale recorded")

	if s.pusher != nil {
		s.pusher.PushNewSale(sale)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSaleRecorded(ctx, sale); err != nil {
			s.logger.WithError(err).Warn("Failed to publish sale event")
		}
	}

	return sale, nil
}

// UpdateSale changes quantity, unit price or sales rep. Revenue follows
// quantity and unit price.
func (s *SalesService) UpdateSale(ctx context.Context, id string, req models.UpdateSaleRequest) (*models.Sale, error) {
	var errs fieldErrors

	saleID, err := uuid.Parse(id)
	if err != nil {
		errs.add("id", "Invalid sale ID")
	}
	if req.Quantity == nil && req.UnitPrice == nil && req.SalesRep == nil {
		errs.add("body", "At least one of quantity, unitPrice or salesRep is required")
	}
	if req.Quantity != nil {
		validateQuantity(&errs, *req.Quantity)
	}
	if req.UnitPrice != nil {
		validateUnitPrice(&errs, *req.UnitPrice)
	}
	var salesRep string
	if req.SalesRep != nil {
		salesRep = strings.TrimSpace(*req.SalesRep)
		validateSalesRep(&errs, salesRep)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	sale, err := s.sales.GetByID(ctx, saleID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Entity: "Sale", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	if req.Quantity != nil {
		sale.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		sale.UnitPrice = *req.UnitPrice
	}
	if req.SalesRep != nil {
		sale.SalesRep = salesRep
	}
	if req.Quantity != nil || req.UnitPrice != nil {
		sale.Revenue = models.ComputeRevenue(sale.Quantity, sale.UnitPrice)
	}

	if err := s.sales.Update(ctx, sale); err != nil {
		s.logger.WithError(err).Error("Failed to update sale")
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}

	s.logger.WithField("sale_id", sale.ID).Info("Sale updated")
	if s.publisher != nil {
		if err := s.publisher.PublishSaleUpdated(ctx, sale); err != nil {
			s.logger.WithError(err).Warn("Failed to publish sale event")
		}
	}

	return sale, nil
}

// DeleteSale removes a sale and returns what was removed
func (s *SalesService) DeleteSale(ctx context.Context, id string) (*models.Sale, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.sales.Delete(ctx, sale.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Entity: "Sale", ID: id}
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to delete sale")
		return nil, fmt.Errorf("failed to delete sale: %w", err)
	}

	s.logger.WithField("sale_id", sale.ID).Info("Sale deleted")
	if s.publisher != nil {
		if err := s.publisher.PublishSaleDeleted(ctx, sale.ID, sale.Revenue); err != nil {
			s.logger.WithError(err).Warn("Failed to publish sale event")
		}
	}

	return sale, nil
}

func validateSalesRep(errs *fieldErrors, rep string) {
	if n := len([]rune(rep)); n < 2 || n > 100 {
		errs.add("salesRep", "Sales rep name must be 2-100 characters")
	}
}

func validateQuantity(errs *fieldErrors, q int64) {
	if q < 1 || q > maxQuantity {
		errs.add("quantity", "Quantity must be between 1 and 10000")
	}
}

func validateUnitPrice(errs *fieldErrors, p float64) {
	if p < 0 {
		errs.add("unitPrice", "Unit price must be a positive number")
	}
}

// parseTimestamp accepts RFC 3339 timestamps and bare dates
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func parseOptionalFloat(errs *fieldErrors, field, value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		errs.add(field, "Must be a non-negative number")
		return nil
	}
	return &f
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, &ValidationError{Errors: []FieldError{{Field: field, Message: "Invalid ID format"}}}
	}
	return id, nil
}

func validationFields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}
