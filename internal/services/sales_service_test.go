package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

type salesFixture struct {
	svc       *SalesService
	sales     *fakeSales
	customer  *models.Customer
	product   *models.Product
	pusher    *recordingPusher
	publisher *recordingPublisher
}

func newSalesFixture() *salesFixture {
	customer := &models.Customer{ID: uuid.New(), Name: "Acme Corp", Region: "Europe", Type: models.CustomerTypeEnterprise, IsActive: true}
	product := &models.Product{ID: uuid.New(), Name: "Laptop Pro", Category: "Electronics", Price: 1299.99, IsActive: true}

	f := &salesFixture{
		sales:     newFakeSales(),
		customer:  customer,
		product:   product,
		pusher:    &recordingPusher{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewSalesService(f.sales, newFakeCustomers(customer), newFakeProducts(product), f.pusher, f.publisher, quietLogger())
	f.svc.now = fixedClock(testNow)
	return f
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
func stringPtr(v string) *string    { return &v }

func (f *salesFixture) validRequest() models.CreateSaleRequest {
	return models.CreateSaleRequest{
		CustomerID: f.customer.ID.String(),
		ProductID:  f.product.ID.String(),
		SalesRep:   "Jane Smith",
		Quantity:   int64Ptr(3),
		UnitPrice:  float64Ptr(19.99),
		OrderDate:  "2024-03-10T14:30:00Z",
	}
}

func TestCreateSale(t *testing.T) {
	f := newSalesFixture()

	sale, err := f.svc.CreateSale(context.Background(), f.validRequest())
	require.NoError(t, err)

	assert.Equal(t, 59.97, sale.Revenue)
	assert.Equal(t, "Jane Smith", sale.SalesRep)
	assert.Equal(t, time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC), sale.OrderDate)
	assert.Equal(t, f.customer, sale.Customer)
	assert.Equal(t, f.product, sale.Product)
	assert.Contains(t, f.sales.sales, sale.ID)
	assert.Len(t, f.pusher.sales, 1)
	assert.Equal(t, []uuid.UUID{sale.ID}, f.publisher.recorded)
}

func TestCreateSale_ReportsEveryInvalidField(t *testing.T) {
	f := newSalesFixture()

	_, err := f.svc.CreateSale(context.Background(), models.CreateSaleRequest{
		CustomerID: "not-a-uuid",
		SalesRep:   "J",
		Quantity:   int64Ptr(0),
		UnitPrice:  float64Ptr(-1),
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	fields := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"customerId", "productId", "salesRep", "quantity", "unitPrice", "orderDate"}, fields)
	assert.Empty(t, f.sales.sales)
	assert.Empty(t, f.pusher.sales)
}

func TestCreateSale_QuantityUpperBound(t *testing.T) {
	f := newSalesFixture()
	req := f.validRequest()
	req.Quantity = int64Ptr(10001)

	_, err := f.svc.CreateSale(context.Background(), req)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Errors[0].Field)
}

func TestCreateSale_ZeroUnitPriceAllowed(t *testing.T) {
	f := newSalesFixture()
	req := f.validRequest()
	req.UnitPrice = float64Ptr(0)

	sale, err := f.svc.CreateSale(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, sale.Revenue)
}

func TestCreateSale_UnknownReferences(t *testing.T) {
	f := newSalesFixture()

	req := f.validRequest()
	req.CustomerID = uuid.NewString()
	_, err := f.svc.CreateSale(context.Background(), req)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Customer not found", nf.Error())

	req = f.validRequest()
	req.ProductID = uuid.NewString()
	_, err = f.svc.CreateSale(context.Background(), req)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Product", nf.Entity)

	assert.Empty(t, f.sales.sales)
}

func TestCreateSale_InactiveProductIsNotFound(t *testing.T) {
	f := newSalesFixture()
	f.product.IsActive = false

	_, err := f.svc.CreateSale(context.Background(), f.validRequest())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Product", nf.Entity)
}

func TestUpdateSale_RecomputesRevenue(t *testing.T) {
	f := newSalesFixture()
	sale, err := f.svc.CreateSale(context.Background(), f.validRequest())
	require.NoError(t, err)

	updated, err := f.svc.UpdateSale(context.Background(), sale.ID.String(), models.UpdateSaleRequest{
		Quantity: int64Ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated.Quantity)
	assert.Equal(t, 99.95, updated.Revenue)
	assert.Equal(t, []uuid.UUID{sale.ID}, f.publisher.updated)

	renamed, err := f.svc.UpdateSale(context.Background(), sale.ID.String(), models.UpdateSaleRequest{
		SalesRep: stringPtr("  Bob Lee "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob Lee", renamed.SalesRep)
	assert.Equal(t, 99.95, renamed.Revenue)
}

func TestUpdateSale_Errors(t *testing.T) {
	f := newSalesFixture()

	_, err := f.svc.UpdateSale(context.Background(), uuid.NewString(), models.UpdateSaleRequest{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = f.svc.UpdateSale(context.Background(), uuid.NewString(), models.UpdateSaleRequest{Quantity: int64Ptr(2)})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Sale", nf.Entity)
}

func TestDeleteSale(t *testing.T) {
	f := newSalesFixture()
	sale, err := f.svc.CreateSale(context.Background(), f.validRequest())
	require.NoError(t, err)

	deleted, err := f.svc.DeleteSale(context.Background(), sale.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sale.ID, deleted.ID)
	assert.Equal(t, sale.Revenue, deleted.Revenue)
	assert.NotContains(t, f.sales.sales, sale.ID)
	assert.Equal(t, []uuid.UUID{sale.ID}, f.publisher.deleted)

	_, err = f.svc.DeleteSale(context.Background(), sale.ID.String())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = f.svc.GetSale(context.Background(), "bogus")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestBuildFilter_Defaults(t *testing.T) {
	f := newSalesFixture()

	filter, err := f.svc.BuildFilter(SaleQuery{})
	require.NoError(t, err)

	assert.Equal(t, DefaultStartDate, filter.DateRange.Start)
	assert.Equal(t, time.Date(2024, 6, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC), filter.DateRange.End)
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 50, filter.Limit)
	assert.Equal(t, "orderDate", filter.SortBy)
	assert.Equal(t, "desc", filter.SortOrder)
	assert.Nil(t, filter.CustomerID)
	assert.Nil(t, filter.MinRevenue)
}

func TestBuildFilter_AllParameters(t *testing.T) {
	f := newSalesFixture()
	customerID := uuid.New()

	filter, err := f.svc.BuildFilter(SaleQuery{
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-31",
		Customer:   customerID.String(),
		Region:     "Europe",
		SalesRep:   "jane",
		MinRevenue: "100",
		MaxRevenue: "500.5",
		Page:       "2",
		Limit:      "25",
		SortBy:     "revenue",
		SortOrder:  "ASC",
	})
	require.NoError(t, err)

	require.NotNil(t, filter.CustomerID)
	assert.Equal(t, customerID, *filter.CustomerID)
	assert.Equal(t, 100.0, *filter.MinRevenue)
	assert.Equal(t, 500.5, *filter.MaxRevenue)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 25, filter.Limit)
	assert.Equal(t, "revenue", filter.SortBy)
	assert.Equal(t, "asc", filter.SortOrder)
}

func TestBuildFilter_Invalid(t *testing.T) {
	f := newSalesFixture()

	_, err := f.svc.BuildFilter(SaleQuery{
		StartDate:  "2024-02-01",
		EndDate:    "2024-01-01",
		Product:    "xyz",
		MinRevenue: "900",
		MaxRevenue: "100",
		Limit:      "500",
		SortBy:     "password",
		SortOrder:  "sideways",
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	fields := map[string]bool{}
	for _, fe := range ve.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"startDate", "product", "minRevenue", "limit", "sortBy", "sortOrder"} {
		assert.True(t, fields[want], want)
	}
}

func TestListSales(t *testing.T) {
	f := newSalesFixture()
	f.sales.listTotal = 120

	filter, err := f.svc.BuildFilter(SaleQuery{Page: "2"})
	require.NoError(t, err)

	rows, page, err := f.svc.ListSales(context.Background(), filter)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrev)
	assert.Equal(t, filter, f.sales.lastFilter)
}
