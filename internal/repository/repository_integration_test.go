//go:build integration

package repository

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tesseract-hub/sales-analytics-service/internal/database"
	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// fixture dates sit in 1999 so they never overlap seeded data
var (
	fixtureJan = time.Date(1999, 1, 10, 12, 0, 0, 0, time.UTC)
	fixtureFeb = time.Date(1999, 2, 20, 9, 30, 0, 0, time.UTC)
	fixtureQ1  = models.DateRange{
		Start: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(1999, 3, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC),
	}
)

type fixture struct {
	db        *gorm.DB
	acme      models.Customer
	globex    models.Customer
	laptop    models.Product
	mouse     models.Product
	saleIDs   []uuid.UUID
	reportIDs []uuid.UUID
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	cfg := database.DefaultConfig()
	cfg.MaxRetries = 1
	require.NoError(t, database.NewManager(db, cfg, quiet).Initialize(context.Background()))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupDB(t)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	f := &fixture{
		db:     db,
		acme:   models.Customer{Name: "Acme " + suffix, Region: "Region-" + suffix, Type: models.CustomerTypeEnterprise, IsActive: true},
		globex: models.Customer{Name: "Globex " + suffix, Region: "Other-" + suffix, Type: models.CustomerTypeSMB, IsActive: true},
		laptop: models.Product{Name: "Laptop " + suffix, Category: "Cat-" + suffix, Price: 1000, IsActive: true},
		mouse:  models.Product{Name: "Mouse " + suffix, Category: "Acc-" + suffix, Price: 20, IsActive: true},
	}

	customers := NewCustomerRepository(db)
	products := NewProductRepository(db)
	require.NoError(t, customers.Create(ctx, &f.acme))
	require.NoError(t, customers.Create(ctx, &f.globex))
	require.NoError(t, products.Create(ctx, &f.laptop))
	require.NoError(t, products.Create(ctx, &f.mouse))

	sales := []models.Sale{
		{CustomerID: f.acme.ID, ProductID: f.laptop.ID, SalesRep: "Rep A " + suffix, Quantity: 2, UnitPrice: 1000, Revenue: 2000, OrderDate: fixtureJan},
		{CustomerID: f.acme.ID, ProductID: f.mouse.ID, SalesRep: "Rep A " + suffix, Quantity: 5, UnitPrice: 20, Revenue: 100, OrderDate: fixtureJan},
		{CustomerID: f.globex.ID, ProductID: f.laptop.ID, SalesRep: "Rep B " + suffix, Quantity: 1, UnitPrice: 900, Revenue: 900, OrderDate: fixtureFeb},
	}
	require.NoError(t, NewSaleRepository(db).CreateBatch(ctx, sales))
	for _, s := range sales {
		f.saleIDs = append(f.saleIDs, s.ID)
	}

	t.Cleanup(func() {
		db.Where("date_range_start = ?", fixtureQ1.Start).Delete(&models.AnalyticsReport{})
		db.Where("id IN ?", f.saleIDs).Delete(&models.Sale{})
		db.Where("id IN ?", []uuid.UUID{f.laptop.ID, f.mouse.ID}).Delete(&models.Product{})
		db.Where("id IN ?", []uuid.UUID{f.acme.ID, f.globex.ID}).Delete(&models.Customer{})
	})
	return f
}

func TestAnalyticsRepository_Aggregates(t *testing.T) {
	f := newFixture(t)
	repo := NewAnalyticsRepository(f.db)
	ctx := context.Background()

	totals, err := repo.GetTotals(ctx, fixtureQ1)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, totals.TotalRevenue)
	assert.Equal(t, int64(3), totals.TotalOrders)

	products, err := repo.GetTopProducts(ctx, fixtureQ1)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, f.laptop.ID, products[0].ProductID)
	assert.Equal(t, 2900.0, products[0].Revenue)
	assert.Equal(t, int64(3), products[0].Quantity)
	assert.Equal(t, int64(2), products[0].Orders)

	customers, err := repo.GetTopCustomers(ctx, fixtureQ1)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, f.acme.Name, customers[0].CustomerName)

	months, err := repo.GetMonthlyTrend(ctx, fixtureQ1)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, time.January, months[0].Month.Month())
	assert.Equal(t, 2100.0, months[0].Revenue)

	reps, err := repo.GetSalesRepStats(ctx, fixtureQ1)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, 1050.0, reps[0].AvgOrderValue)

	summary, err := repo.GetSummary(ctx, fixtureQ1)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, summary.MaxOrderValue)
	assert.Equal(t, 100.0, summary.MinOrderValue)

	empty := models.DateRange{Start: fixtureQ1.Start.AddDate(-1, 0, 0), End: fixtureQ1.Start.AddDate(0, 0, -1)}
	totals, err = repo.GetTotals(ctx, empty)
	require.NoError(t, err)
	assert.Zero(t, totals.TotalOrders)
}

func TestAnalyticsRepository_RegionAndCategoryStats(t *testing.T) {
	f := newFixture(t)
	repo := NewAnalyticsRepository(f.db)
	ctx := context.Background()

	regions, err := repo.GetRegionStats(ctx, fixtureQ1)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, models.RegionStat{Region: f.acme.Region, Revenue: 2100, Orders: 2, AvgOrderValue: 1050}, regions[0])
	assert.Equal(t, models.RegionStat{Region: f.globex.Region, Revenue: 900, Orders: 1, AvgOrderValue: 900}, regions[1])

	categories, err := repo.GetCategoryStats(ctx, fixtureQ1)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, models.CategoryStat{Category: f.laptop.Category, Revenue: 2900, Quantity: 3, Orders: 2}, categories[0])
	assert.Equal(t, models.CategoryStat{Category: f.mouse.Category, Revenue: 100, Quantity: 5, Orders: 1}, categories[1])
}

// One Asian customer buys two 100.00 electronics on the last day of the range.
func TestAnalyticsRepository_SingleSaleOnEndDate(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	june := models.DateRange{
		Start: time.Date(1998, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(1998, 6, 30, 23, 59, 59, int(999*time.Millisecond), time.UTC),
	}
	endDay := time.Date(1998, 6, 30, 0, 0, 0, 0, time.UTC)

	customer := models.Customer{Name: "Asia Buyer " + uuid.NewString()[:8], Region: "Asia", Type: models.CustomerTypeSMB, IsActive: true}
	product := models.Product{Name: "Gadget " + uuid.NewString()[:8], Category: "Electronics", Price: 100, IsActive: true}
	require.NoError(t, NewCustomerRepository(db).Create(ctx, &customer))
	require.NoError(t, NewProductRepository(db).Create(ctx, &product))

	sales := NewSaleRepository(db)
	sale := models.Sale{CustomerID: customer.ID, ProductID: product.ID, SalesRep: "Rep", Quantity: 2, UnitPrice: 100, Revenue: 200, OrderDate: endDay}
	require.NoError(t, sales.Create(ctx, &sale))
	saleIDs := []uuid.UUID{sale.ID}

	t.Cleanup(func() {
		db.Where("id IN ?", saleIDs).Delete(&models.Sale{})
		db.Where("id = ?", product.ID).Delete(&models.Product{})
		db.Where("id = ?", customer.ID).Delete(&models.Customer{})
	})

	repo := NewAnalyticsRepository(db)
	totals, err := repo.GetTotals(ctx, june)
	require.NoError(t, err)
	assert.Equal(t, 200.0, totals.TotalRevenue)
	assert.Equal(t, int64(1), totals.TotalOrders)

	regions, err := repo.GetRegionStats(ctx, june)
	require.NoError(t, err)
	assert.Equal(t, []models.RegionStat{{Region: "Asia", Revenue: 200, Orders: 1, AvgOrderValue: 200}}, regions)

	categories, err := repo.GetCategoryStats(ctx, june)
	require.NoError(t, err)
	assert.Equal(t, []models.CategoryStat{{Category: "Electronics", Revenue: 200, Quantity: 2, Orders: 1}}, categories)

	// microsecond precision survives storage; the last day still counts it
	late := models.Sale{CustomerID: customer.ID, ProductID: product.ID, SalesRep: "Rep", Quantity: 1, UnitPrice: 100, Revenue: 100,
		OrderDate: endDay.Add(24*time.Hour - 500*time.Microsecond)}
	require.NoError(t, sales.Create(ctx, &late))
	saleIDs = append(saleIDs, late.ID)

	totals, err = repo.GetTotals(ctx, june)
	require.NoError(t, err)
	assert.Equal(t, 300.0, totals.TotalRevenue)
	assert.Equal(t, int64(2), totals.TotalOrders)

	rows, total, err := sales.List(ctx, models.SaleFilter{DateRange: june, ProductID: &product.ID, Page: 1, Limit: 10, SortBy: "orderDate", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, late.ID, rows[0].ID)
}

func TestSaleRepository_ListFiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	repo := NewSaleRepository(f.db)
	ctx := context.Background()

	rows, total, err := repo.List(ctx, models.SaleFilter{
		DateRange: fixtureQ1,
		Region:    f.acme.Region,
		Page:      1,
		Limit:     10,
		SortBy:    "revenue",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, 100.0, rows[0].Revenue)
	assert.Equal(t, f.mouse.Name, rows[0].Product)
	assert.Equal(t, f.acme.Region, rows[0].CustomerRegion)

	minRevenue := 500.0
	rows, total, err = repo.List(ctx, models.SaleFilter{
		DateRange:  fixtureQ1,
		ProductID:  &f.laptop.ID,
		MinRevenue: &minRevenue,
		Page:       2,
		Limit:      1,
		SortBy:     "orderDate",
		SortOrder:  "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 1)
	assert.Equal(t, fixtureJan, rows[0].OrderDate.UTC())
}

func TestSaleRepository_CRUD(t *testing.T) {
	f := newFixture(t)
	repo := NewSaleRepository(f.db)
	ctx := context.Background()

	sale, err := repo.GetByID(ctx, f.saleIDs[0])
	require.NoError(t, err)
	require.NotNil(t, sale.Customer)
	require.NotNil(t, sale.Product)
	assert.Equal(t, f.acme.Name, sale.Customer.Name)
	assert.Equal(t, 2000.0, sale.TotalAmount)

	sale.Quantity = 3
	sale.Revenue = models.ComputeRevenue(3, sale.UnitPrice)
	require.NoError(t, repo.Update(ctx, sale))

	reloaded, err := repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), reloaded.Quantity)
	assert.Equal(t, 3000.0, reloaded.Revenue)

	require.NoError(t, repo.Delete(ctx, sale.ID))
	assert.ErrorIs(t, repo.Delete(ctx, sale.ID), ErrNotFound)
	_, err = repo.GetByID(ctx, sale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportRepository_FreshnessAndExpiry(t *testing.T) {
	f := newFixture(t)
	repo := NewReportRepository(f.db)
	ctx := context.Background()
	now := time.Now().UTC()

	old := &models.AnalyticsReport{
		ReportDate: now.Add(-2 * time.Hour),
		DateRange:  fixtureQ1,
		CreatedAt:  now.Add(-2 * time.Hour),
		ExpiresAt:  now.Add(-time.Minute),
	}
	old.Normalize()
	require.NoError(t, repo.Create(ctx, old))

	fresh := &models.AnalyticsReport{
		ReportDate:   now,
		DateRange:    fixtureQ1,
		TotalRevenue: 3000,
		TopProducts:  []models.ProductPerformance{{ProductName: "Laptop", Revenue: 2900}},
		CreatedAt:    now,
		ExpiresAt:    now.Add(models.ReportTTL),
	}
	fresh.Normalize()
	require.NoError(t, repo.Create(ctx, fresh))

	found, err := repo.FindFresh(ctx, fixtureQ1, now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, fresh.ID, found.ID)
	require.Len(t, found.TopProducts, 1)
	assert.Equal(t, "Laptop", found.TopProducts[0].ProductName)

	shifted := models.DateRange{Start: fixtureQ1.Start, End: fixtureQ1.End.Add(-time.Millisecond)}
	found, err = repo.FindFresh(ctx, shifted, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, found)

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	found, err = repo.FindFresh(ctx, fixtureQ1, now.Add(-3*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, fresh.ID, found.ID)
}

func TestDocumentRepository_Load(t *testing.T) {
	f := newFixture(t)
	repo := NewDocumentRepository(f.db)
	ctx := context.Background()

	doc, err := repo.Load(ctx, "products", f.laptop.ID)
	require.NoError(t, err)
	view, ok := doc.(models.ProductView)
	require.True(t, ok)
	assert.Equal(t, f.laptop.Name, view.Name)

	doc, err = repo.Load(ctx, "sales", f.saleIDs[2])
	require.NoError(t, err)
	assert.Equal(t, f.globex.Name, doc.(*models.Sale).Customer.Name)

	_, err = repo.Load(ctx, "customers", uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Load(ctx, "orders", uuid.New())
	assert.Error(t, err)
}
