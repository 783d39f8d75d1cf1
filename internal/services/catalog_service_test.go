package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

func TestCreateCustomer(t *testing.T) {
	customers := newFakeCustomers()
	pusher := &recordingPusher{}
	svc := NewCatalogService(customers, newFakeProducts(), pusher, quietLogger())

	customer, err := svc.CreateCustomer(context.Background(), models.CreateCustomerRequest{
		Name:   " Acme Corp ",
		Region: "Europe",
		Type:   models.CustomerTypeSMB,
		Email:  "Sales@Acme.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", customer.Name)
	assert.Equal(t, "sales@acme.com", customer.Email)
	assert.True(t, customer.IsActive)
	assert.Len(t, customers.created, 1)
	assert.Len(t, pusher.customers, 1)
}

func TestCreateCustomer_Invalid(t *testing.T) {
	customers := newFakeCustomers()
	svc := NewCatalogService(customers, newFakeProducts(), nil, quietLogger())

	_, err := svc.CreateCustomer(context.Background(), models.CreateCustomerRequest{
		Type:  "Government",
		Email: "nope",
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 4)
	assert.Empty(t, customers.created)
}

func TestGetCustomer(t *testing.T) {
	c := &models.Customer{ID: uuid.New(), Name: "Acme"}
	svc := NewCatalogService(newFakeCustomers(c), newFakeProducts(), nil, quietLogger())

	got, err := svc.GetCustomer(context.Background(), c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = svc.GetCustomer(context.Background(), uuid.NewString())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Customer not found", nf.Error())
}

func TestListCustomers_DefaultLimit(t *testing.T) {
	customers := newFakeCustomers()
	customers.total = 25
	svc := NewCatalogService(customers, newFakeProducts(), nil, quietLogger())

	rows, page, err := svc.ListCustomers(context.Background(), "", "")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 3, page.TotalPages)

	_, _, err = svc.ListCustomers(context.Background(), "0", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCreateProduct(t *testing.T) {
	products := newFakeProducts()
	pusher := &recordingPusher{}
	svc := NewCatalogService(newFakeCustomers(), products, pusher, quietLogger())

	view, err := svc.CreateProduct(context.Background(), models.CreateProductRequest{
		Name:      "Laptop Pro",
		Category:  "Electronics",
		Price:     float64Ptr(1299.99),
		SKU:       "lap-001",
		Inventory: &models.Inventory{InStock: 40, Reserved: 5, ReorderLevel: 10},
	})
	require.NoError(t, err)

	require.NotNil(t, view.SKU)
	assert.Equal(t, "LAP-001", *view.SKU)
	assert.Equal(t, int64(35), view.AvailableStock)
	assert.Len(t, products.created, 1)
	assert.Len(t, pusher.products, 1)
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	products := newFakeProducts()
	products.skus["LAP-001"] = true
	svc := NewCatalogService(newFakeCustomers(), products, nil, quietLogger())

	_, err := svc.CreateProduct(context.Background(), models.CreateProductRequest{
		Name:     "Laptop",
		Category: "Electronics",
		Price:    float64Ptr(10),
		SKU:      "LAP-001",
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "sku", ve.Errors[0].Field)
	assert.Empty(t, products.created)
}

func TestCreateProduct_Invalid(t *testing.T) {
	svc := NewCatalogService(newFakeCustomers(), newFakeProducts(), nil, quietLogger())

	_, err := svc.CreateProduct(context.Background(), models.CreateProductRequest{
		Price:     float64Ptr(-5),
		Inventory: &models.Inventory{InStock: -1},
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 4)
}

func TestGetProduct_DerivesStock(t *testing.T) {
	p := &models.Product{ID: uuid.New(), Inventory: models.Inventory{InStock: 3, Reserved: 7}}
	svc := NewCatalogService(newFakeCustomers(), newFakeProducts(p), nil, quietLogger())

	view, err := svc.GetProduct(context.Background(), p.ID.String())
	require.NoError(t, err)
	assert.Zero(t, view.AvailableStock)
}
