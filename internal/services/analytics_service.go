package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tesseract-hub/sales-analytics-service/internal/metrics"
	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// AggregationStore runs the grouped sales queries
type AggregationStore interface {
	GetTotals(ctx context.Context, rng models.DateRange) (models.SalesTotals, error)
	GetTopProducts(ctx context.Context, rng models.DateRange) ([]models.ProductPerformance, error)
	GetTopCustomers(ctx context.Context, rng models.DateRange) ([]models.CustomerPerformance, error)
	GetRegionStats(ctx context.Context, rng models.DateRange) ([]models.RegionStat, error)
	GetCategoryStats(ctx context.Context, rng models.DateRange) ([]models.CategoryStat, error)
	GetMonthlyTrend(ctx context.Context, rng models.DateRange) ([]models.MonthlyTrendPoint, error)
	GetSalesRepStats(ctx context.Context, rng models.DateRange) ([]models.SalesRepStat, error)
	GetSummary(ctx context.Context, rng models.DateRange) (*models.SalesSummary, error)
	GetTrends(ctx context.Context, rng models.DateRange, granularity models.TrendGranularity) ([]models.TrendPoint, error)
}

// ReportStore persists generated reports
type ReportStore interface {
	FindFresh(ctx context.Context, rng models.DateRange, since time.Time) (*models.AnalyticsReport, error)
	Create(ctx context.Context, report *models.AnalyticsReport) error
}

// ReportPusher delivers reports to realtime subscribers
type ReportPusher interface {
	PushReport(report any) int
}

// ReportEventPublisher emits report domain events
type ReportEventPublisher interface {
	PublishReportGenerated(ctx context.Context, reportID string, report *models.AnalyticsReport) error
}

// ExportFormat is a supported export encoding
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// AnalyticsService handles business logic for analytics
type AnalyticsService struct {
	agg       AggregationStore
	reports   ReportStore
	pusher    ReportPusher
	publisher ReportEventPublisher
	freshness time.Duration
	metrics   *metrics.Metrics
	logger    *logrus.Logger
	now       func() time.Time
}

// NewAnalyticsService creates a new analytics service. pusher, publisher and
// m may be nil.
func NewAnalyticsService(
	agg AggregationStore,
	reports ReportStore,
	pusher ReportPusher,
	publisher ReportEventPublisher,
	freshness time.Duration,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		agg:       agg,
		reports:   reports,
		pusher:    pusher,
		publisher: publisher,
		freshness: freshness,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GenerateReport runs all seven aggregations concurrently and assembles the
// report. Any failure fails the whole report.
func (s *AnalyticsService) GenerateReport(ctx context.Context, rng models.DateRange) (*models.AnalyticsReport, error) {
	started := time.Now()

	var (
		totals     models.SalesTotals
		products   []models.ProductPerformance
		customers  []models.CustomerPerformance
		regions    []models.RegionStat
		categories []models.CategoryStat
		monthly    []models.MonthlyTrendPoint
		reps       []models.SalesRepStat
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals, err = s.agg.GetTotals(gctx, rng)
		return wrap("totals", err)
	})
	g.Go(func() (err error) {
		products, err = s.agg.GetTopProducts(gctx, rng)
		return wrap("top products", err)
	})
	g.Go(func() (err error) {
		customers, err = s.agg.GetTopCustomers(gctx, rng)
		return wrap("top customers", err)
	})
	g.Go(func() (err error) {
		regions, err = s.agg.GetRegionStats(gctx, rng)
		return wrap("region stats", err)
	})
	g.Go(func() (err error) {
		categories, err = s.agg.GetCategoryStats(gctx, rng)
		return wrap("category stats", err)
	})
	g.Go(func() (err error) {
		monthly, err = s.agg.GetMonthlyTrend(gctx, rng)
		return wrap("monthly trend", err)
	})
	g.Go(func() (err error) {
		reps, err = s.agg.GetSalesRepStats(gctx, rng)
		return wrap("sales rep stats", err)
	})

	if err := g.Wait(); err != nil {
		s.logger.WithError(err).Error("Failed to generate analytics report")
		return nil, fmt.Errorf("failed to generate analytics report: %w", err)
	}

	now := s.now()
	report := &models.AnalyticsReport{
		ReportDate:    now,
		DateRange:     rng,
		TotalRevenue:  totals.TotalRevenue,
		TotalOrders:   totals.TotalOrders,
		TopProducts:   products,
		TopCustomers:  customers,
		RegionStats:   regions,
		CategoryStats: categories,
		MonthlyTrend:  monthly,
		SalesRepStats: reps,
		CreatedAt:     now,
		ExpiresAt:     now.Add(models.ReportTTL),
	}
	if report.TotalOrders > 0 {
		report.AvgOrderValue = report.TotalRevenue / float64(report.TotalOrders)
	}
	report.Normalize()

	if s.metrics != nil {
		s.metrics.ReportGeneration.Observe(time.Since(started).Seconds())
	}

	s.logger.WithFields(logrus.Fields{
		"start":         rng.Start,
		"end":           rng.End,
		"total_revenue": report.TotalRevenue,
		"total_orders":  report.TotalOrders,
		"duration":      time.Since(started).String(),
	}).Info("Generated analytics report")

	return report, nil
}

// GetReport serves a report for rng through the report cache. With useCache
// a fresh report for exactly rng is returned as is; otherwise a new report is
// generated and persisted.
func (s *AnalyticsService) GetReport(ctx context.Context, rng models.DateRange, useCache bool) (*models.ReportResponse, error) {
	now := s.now()

	if useCache {
		cached, err := s.reports.FindFresh(ctx, rng, now.Add(-s.freshness))
		switch {
		case err != nil:
			s.observeCache("error")
			s.logger.WithError(err).Warn("Report cache lookup failed, regenerating")
		case cached != nil:
			s.observeCache("hit")
			age := int64(now.Sub(cached.CreatedAt) / time.Second)
			if age < 0 {
				age = 0
			}
			cached.Normalize()
			return &models.ReportResponse{
				AnalyticsReport: cached,
				Cached:          true,
				CacheAge:        &age,
				ReportID:        cached.ID.String(),
			}, nil
		default:
			s.observeCache("miss")
		}
	} else {
		s.observeCache("bypass")
	}

	report, err := s.GenerateReport(ctx, rng)
	if err != nil {
		return nil, err
	}

	resp := &models.ReportResponse{AnalyticsReport: report}
	if err := s.reports.Create(ctx, report); err != nil {
		s.logger.WithError(err).Error("Failed to persist analytics report")
	} else {
		resp.ReportID = report.ID.String()
	}

	if s.pusher != nil {
		s.pusher.PushReport(resp)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReportGenerated(ctx, resp.ReportID, report); err != nil {
			s.logger.WithError(err).Warn("Failed to publish report event")
		}
	}

	return resp, nil
}

// GetSummary returns totals with the largest and smallest order
func (s *AnalyticsService) GetSummary(ctx context.Context, rng models.DateRange) (*models.SalesSummary, error) {
	summary, err := s.agg.GetSummary(ctx, rng)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get sales summary")
		return nil, fmt.Errorf("failed to get sales summary: %w", err)
	}
	summary.DateRange = rng
	summary.Timestamp = s.now()
	return summary, nil
}

// GetTrends buckets revenue by granularity
func (s *AnalyticsService) GetTrends(ctx context.Context, rng models.DateRange, granularity models.TrendGranularity) (*models.TrendReport, error) {
	if !granularity.Valid() {
		return nil, &ValidationError{Errors: []FieldError{{
			Field:   "granularity",
			Message: "Granularity must be one of day, week, month",
		}}}
	}

	points, err := s.agg.GetTrends(ctx, rng, granularity)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get sales trends")
		return nil, fmt.Errorf("failed to get sales trends: %w", err)
	}
	if points == nil {
		points = []models.TrendPoint{}
	}

	return &models.TrendReport{
		Trends:       points,
		Granularity:  granularity,
		DateRange:    rng,
		TotalPeriods: len(points),
	}, nil
}

// ExportReport generates a report for rng and encodes it. The exported
// report is not persisted.
func (s *AnalyticsService) ExportReport(ctx context.Context, rng models.DateRange, format ExportFormat) ([]byte, error) {
	if format != ExportCSV && format != ExportJSON {
		return nil, &ValidationError{Errors: []FieldError{{
			Field:   "format",
			Message: "Format must be csv or json",
		}}}
	}

	report, err := s.GenerateReport(ctx, rng)
	if err != nil {
		return nil, err
	}

	var data []byte
	if format == ExportJSON {
		data, err = json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	} else {
		data, err = reportCSV(report)
		if err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"format": format,
		"bytes":  len(data),
	}).Info("Exported analytics report")

	return data, nil
}

func reportCSV(report *models.AnalyticsReport) ([]byte, error) {
	var rows [][]string

	rows = append(rows, []string{"Metric", "Value"})
	rows = append(rows, []string{"Start Date", report.DateRange.Start.Format(dateLayout)})
	rows = append(rows, []string{"End Date", report.DateRange.End.Format(dateLayout)})
	rows = append(rows, []string{"Total Revenue", money(report.TotalRevenue)})
	rows = append(rows, []string{"Total Orders", fmt.Sprintf("%d", report.TotalOrders)})
	rows = append(rows, []string{"Average Order Value", money(report.AvgOrderValue)})

	rows = append(rows, []string{""})
	rows = append(rows, []string{"Top Products"})
	rows = append(rows, []string{"Product", "Category", "Revenue", "Quantity", "Orders"})
	for _, p := range report.TopProducts {
		rows = append(rows, []string{p.ProductName, p.Category, money(p.Revenue), fmt.Sprintf("%d", p.Quantity), fmt.Sprintf("%d", p.Orders)})
	}

	rows = append(rows, []string{""})
	rows = append(rows, []string{"Top Customers"})
	rows = append(rows, []string{"Customer", "Region", "Type", "Revenue", "Orders"})
	for _, c := range report.TopCustomers {
		rows = append(rows, []string{c.CustomerName, c.Region, c.Type, money(c.Revenue), fmt.Sprintf("%d", c.Orders)})
	}

	rows = append(rows, []string{""})
	rows = append(rows, []string{"Revenue by Region"})
	rows = append(rows, []string{"Region", "Revenue", "Orders", "Avg Order Value"})
	for _, r := range report.RegionStats {
		rows = append(rows, []string{r.Region, money(r.Revenue), fmt.Sprintf("%d", r.Orders), money(r.AvgOrderValue)})
	}

	rows = append(rows, []string{""})
	rows = append(rows, []string{"Revenue by Category"})
	rows = append(rows, []string{"Category", "Revenue", "Quantity", "Orders"})
	for _, c := range report.CategoryStats {
		rows = append(rows, []string{c.Category, money(c.Revenue), fmt.Sprintf("%d", c.Quantity), fmt.Sprintf("%d", c.Orders)})
	}

	rows = append(rows, []string{""})
	rows = append(rows, []string{"Monthly Trend"})
	rows = append(rows, []string{"Month", "Revenue", "Orders"})
	for _, m := range report.MonthlyTrend {
		rows = append(rows, []string{m.Month.Format("2006-01"), money(m.Revenue), fmt.Sprintf("%d", m.Orders)})
	}

	rows = append(rows, []string{""})
	rows = append(rows, []string{"Sales Representatives"})
	rows = append(rows, []string{"Sales Rep", "Revenue", "Orders", "Avg Order Value"})
	for _, r := range report.SalesRepStats {
		rows = append(rows, []string{r.SalesRep, money(r.Revenue), fmt.Sprintf("%d", r.Orders), money(r.AvgOrderValue)})
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func (s *AnalyticsService) observeCache(result string) {
	if s.metrics != nil {
		s.metrics.ReportCache.WithLabelValues(result).Inc()
	}
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
