package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
	"github.com/tesseract-hub/sales-analytics-service/internal/repository"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeAgg struct {
	totals     models.SalesTotals
	products   []models.ProductPerformance
	customers  []models.CustomerPerformance
	regions    []models.RegionStat
	categories []models.CategoryStat
	monthly    []models.MonthlyTrendPoint
	reps       []models.SalesRepStat
	summary    *models.SalesSummary
	trends     []models.TrendPoint
	failOn     string

	mu    sync.Mutex
	calls int
}

func (f *fakeAgg) hit(name string) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failOn == name {
		return errors.New("connection reset")
	}
	return nil
}

func (f *fakeAgg) GetTotals(ctx context.Context, rng models.DateRange) (models.SalesTotals, error) {
	return f.totals, f.hit("totals")
}

func (f *fakeAgg) GetTopProducts(ctx context.Context, rng models.DateRange) ([]models.ProductPerformance, error) {
	return f.products, f.hit("products")
}

func (f *fakeAgg) GetTopCustomers(ctx context.Context, rng models.DateRange) ([]models.CustomerPerformance, error) {
	return f.customers, f.hit("customers")
}

func (f *fakeAgg) GetRegionStats(ctx context.Context, rng models.DateRange) ([]models.RegionStat, error) {
	return f.regions, f.hit("regions")
}

func (f *fakeAgg) GetCategoryStats(ctx context.Context, rng models.DateRange) ([]models.CategoryStat, error) {
	return f.categories, f.hit("categories")
}

func (f *fakeAgg) GetMonthlyTrend(ctx context.Context, rng models.DateRange) ([]models.MonthlyTrendPoint, error) {
	return f.monthly, f.hit("monthly")
}

func (f *fakeAgg) GetSalesRepStats(ctx context.Context, rng models.DateRange) ([]models.SalesRepStat, error) {
	return f.reps, f.hit("reps")
}

func (f *fakeAgg) GetSummary(ctx context.Context, rng models.DateRange) (*models.SalesSummary, error) {
	if err := f.hit("summary"); err != nil {
		return nil, err
	}
	s := *f.summary
	return &s, nil
}

func (f *fakeAgg) GetTrends(ctx context.Context, rng models.DateRange, granularity models.TrendGranularity) ([]models.TrendPoint, error) {
	return f.trends, f.hit("trends")
}

type fakeReports struct {
	fresh     *models.AnalyticsReport
	findErr   error
	createErr error
	created   []*models.AnalyticsReport
	since     time.Time
}

func (f *fakeReports) FindFresh(ctx context.Context, rng models.DateRange, since time.Time) (*models.AnalyticsReport, error) {
	f.since = since
	return f.fresh, f.findErr
}

func (f *fakeReports) Create(ctx context.Context, report *models.AnalyticsReport) error {
	if f.createErr != nil {
		return f.createErr
	}
	report.ID = uuid.New()
	f.created = append(f.created, report)
	return nil
}

type recordingPusher struct {
	reports   []any
	sales     []any
	customers []any
	products  []any
}

func (p *recordingPusher) PushReport(report any) int {
	p.reports = append(p.reports, report)
	return 1
}

func (p *recordingPusher) PushNewSale(sale any) int {
	p.sales = append(p.sales, sale)
	return 1
}

func (p *recordingPusher) PushNewCustomer(customer any) int {
	p.customers = append(p.customers, customer)
	return 1
}

func (p *recordingPusher) PushNewProduct(product any) int {
	p.products = append(p.products, product)
	return 1
}

type recordingPublisher struct {
	recorded []uuid.UUID
	updated  []uuid.UUID
	deleted  []uuid.UUID
	reports  []string
}

func (p *recordingPublisher) PublishSaleRecorded(ctx context.Context, sale *models.Sale) error {
	p.recorded = append(p.recorded, sale.ID)
	return nil
}

func (p *recordingPublisher) PublishSaleUpdated(ctx context.Context, sale *models.Sale) error {
	p.updated = append(p.updated, sale.ID)
	return nil
}

func (p *recordingPublisher) PublishSaleDeleted(ctx context.Context, id uuid.UUID, revenue float64) error {
	p.deleted = append(p.deleted, id)
	return nil
}

func (p *recordingPublisher) PublishReportGenerated(ctx context.Context, reportID string, report *models.AnalyticsReport) error {
	p.reports = append(p.reports, reportID)
	return errors.New("broker unavailable")
}

type fakeSales struct {
	sales      map[uuid.UUID]*models.Sale
	lastFilter models.SaleFilter
	listRows   []models.SaleListItem
	listTotal  int64
}

func newFakeSales() *fakeSales {
	return &fakeSales{sales: map[uuid.UUID]*models.Sale{}}
}

func (f *fakeSales) List(ctx context.Context, filter models.SaleFilter) ([]models.SaleListItem, int64, error) {
	f.lastFilter = filter
	return f.listRows, f.listTotal, nil
}

func (f *fakeSales) GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	s, ok := f.sales[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSales) Create(ctx context.Context, sale *models.Sale) error {
	sale.ID = uuid.New()
	cp := *sale
	f.sales[sale.ID] = &cp
	return nil
}

func (f *fakeSales) Update(ctx context.Context, sale *models.Sale) error {
	cp := *sale
	f.sales[sale.ID] = &cp
	return nil
}

func (f *fakeSales) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.sales[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.sales, id)
	return nil
}

type fakeCustomers struct {
	byID    map[uuid.UUID]*models.Customer
	created []*models.Customer
	total   int64
}

func newFakeCustomers(cs ...*models.Customer) *fakeCustomers {
	f := &fakeCustomers{byID: map[uuid.UUID]*models.Customer{}}
	for _, c := range cs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCustomers) List(ctx context.Context, page, limit int) ([]models.Customer, int64, error) {
	return nil, f.total, nil
}

func (f *fakeCustomers) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCustomers) Create(ctx context.Context, customer *models.Customer) error {
	customer.ID = uuid.New()
	f.created = append(f.created, customer)
	return nil
}

type fakeProducts struct {
	byID    map[uuid.UUID]*models.Product
	skus    map[string]bool
	created []*models.Product
	rows    []models.Product
	total   int64
}

func newFakeProducts(ps ...*models.Product) *fakeProducts {
	f := &fakeProducts{byID: map[uuid.UUID]*models.Product{}, skus: map[string]bool{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProducts) List(ctx context.Context, page, limit int) ([]models.Product, int64, error) {
	return f.rows, f.total, nil
}

func (f *fakeProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) SKUExists(ctx context.Context, sku string) (bool, error) {
	return f.skus[sku], nil
}

func (f *fakeProducts) Create(ctx context.Context, product *models.Product) error {
	product.ID = uuid.New()
	f.created = append(f.created, product)
	return nil
}
