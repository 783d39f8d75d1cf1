package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// half-open so sub-millisecond order dates on the last day still match
const saleInRange = "s.order_date >= ? AND s.order_date < ?"

// AnalyticsRepository handles data aggregation for analytics
type AnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{
		db: db,
	}
}

// GetTotals sums revenue and counts sales in the range. The average is left
// to the caller.
func (r *AnalyticsRepository) GetTotals(ctx context.Context, rng models.DateRange) (models.SalesTotals, error) {
	var totals models.SalesTotals

	err := r.db.WithContext(ctx).
		Table("sales s").
		Select("COALESCE(SUM(s.revenue), 0) as total_revenue, COUNT(*) as total_orders").
		Where(saleInRange, rng.Start, rng.Until()).
		Scan(&totals).Error

	return totals, err
}

// GetTopProducts ranks products by revenue
func (r *AnalyticsRepository) GetTopProducts(ctx context.Context, rng models.DateRange) ([]models.ProductPerformance, error) {
	var rows []models.ProductPerformance

	err := r.db.WithContext(ctx).
		Table("sales s").
		Select("s.product_id, p.name as product_name, p.category, SUM(s.revenue) as revenue, SUM(s.quantity) as quantity, COUNT(*) as orders").
		Joins("JOIN products p ON p.id = s.product_id").
		Where(saleInRange, rng.Start, rng.Until()).
		Group("s.product_id, p.name, p.category").
		Order("revenue DESC, s.product_id").
		Limit(models.TopListLimit).
		Scan(&rows).Error

	return rows, err
}

// GetTopCustomers ranks customers by revenue
func (r *AnalyticsRepository) GetTopCustomers(ctx context.Context, rng models.DateRange) ([]models.CustomerPerformance, error) {
	var rows []models.CustomerPerformance

	err := r.db.WithContext(ctx).
		Table("sales s").
		Select("s.customer_id, c.name as customer_name, c.region, c.type, SUM(s.revenue) as revenue, COUNT(*) as orders").
		Joins("JOIN customers c ON c.id = s.customer_id").
		Where(saleInRange, rng.Start, rng.Until()).
		Group("s.customer_id, c.name, c.region, c.type").
		Order("revenue DESC, s.customer_id").
		Limit(models.TopListLimit).
		Scan(&rows).Error

	return rows, err
}

// GetRegionStats groups sales by customer region
func (r *AnalyticsRepository) GetRegionStats(ctx context.Context, rng models.DateRange) ([]models.RegionStat, error) {
	var rows []models.RegionStat

	err := r.db.WithContext(ctx).
		Table("sales s").
		Select("c.region, SUM(s.revenue) as revenue, COUNT(*) as orders, AVG(s.revenue) as avg_order_value").
		Joins("JOIN customers c ON c.id = s.customer_id").
		Where(saleInRange, rng.Start, rng.Until()).
		Group("c.region").
		Order("revenue DESC, c.region").
		Scan(&rows).Error

	return rows, err
}

// GetCategoryStats groups sales by product category
func (r *AnalyticsRepository) GetCategoryStats(ctx context.Context, rng models.DateRange) ([]models.CategoryStat, error) {
	var rows []models.CategoryStat

	err := r.db.WithContext(ctx).
		Table("sales s").
		Select("p.category, SUM(s.revenue) as revenue, SUM(s.quantity) as quantity, COUNT(*) as orders").
		Joins("JOIN products p ON p.id = s.product_id").
		Where(saleInRange, rng.Start, rng.Until()).
		Group("p.category").
		Order("revenue DESC, p.category").
		Scan(&rows).Error

	return rows, err
}

// GetMonthlyTrend buckets sales by UTC calendar month
func (r *AnalyticsRepository) GetMonthlyTrend(ctx context.Context, rng models.DateRange) ([]models.MonthlyTrendPoint, error) {
	var rows []models.MonthlyTrendPoint

	err := r.db.WithContext(ctx).
		Table("sales s").
		Select("date_trunc('month', s.order_date AT TIME ZONE 'UTC') as month, SUM(s.revenue) as revenue, COUNT(*) as orders").
		Where(saleInRange, rng.Start, rng.Until()).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		m := rows[i].Month
		rows[i].Month = time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return rows, nil
}

// GetSalesRepStats ranks sales representatives by revenue
func (r *AnalyticsRepository) GetSalesRepStats(ctx context.Context, rng models.DateRange) ([]models.SalesRepStat, error) {
	var rows []models.SalesRepStat

	err := r.db.WithContext(ctx).
		Table("sales s").
		Select("s.sales_rep, SUM(s.revenue) as revenue, COUNT(*) as orders, AVG(s.revenue) as avg_order_value").
		Where(saleInRange, rng.Start, rng.Until()).
		Group("s.sales_rep").
		Order("revenue DESC, s.sales_rep").
		Limit(models.TopListLimit).
		Scan(&rows).Error

	return rows, err
}

// GetSummary computes totals plus the largest and smallest order
func (r *AnalyticsRepository) GetSummary(ctx context.Context, rng models.DateRange) (*models.SalesSummary, error) {
	var result struct {
		TotalRevenue  float64
		TotalOrders   int64
		AvgOrderValue float64
		MaxOrderValue float64
		MinOrderValue float64
	}

	err := r.db.WithContext(ctx).
		Table("sales s").
		Select("COALESCE(SUM(s.revenue), 0) as total_revenue, COUNT(*) as total_orders, COALESCE(AVG(s.revenue), 0) as avg_order_value, COALESCE(MAX(s.revenue), 0) as max_order_value, COALESCE(MIN(s.revenue), 0) as min_order_value").
		Where(saleInRange, rng.Start, rng.Until()).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return &models.SalesSummary{
		SalesTotals: models.SalesTotals{
			TotalRevenue:  result.TotalRevenue,
			TotalOrders:   result.TotalOrders,
			AvgOrderValue: result.AvgOrderValue,
		},
		MaxOrderValue: result.MaxOrderValue,
		MinOrderValue: result.MinOrderValue,
		DateRange:     rng,
	}, nil
}

// GetTrends buckets sales by day, week or month
func (r *AnalyticsRepository) GetTrends(ctx context.Context, rng models.DateRange, granularity models.TrendGranularity) ([]models.TrendPoint, error) {
	var rows []models.TrendPoint

	err := r.db.WithContext(ctx).
		Table("sales s").
		Select("date_trunc(?, s.order_date AT TIME ZONE 'UTC') as period, SUM(s.revenue) as revenue, COUNT(*) as orders, AVG(s.revenue) as avg_order_value", string(granularity)).
		Where(saleInRange, rng.Start, rng.Until()).
		Group("period").
		Order("period ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		p := rows[i].Period
		rows[i].Period = time.Date(p.Year(), p.Month(), p.Day(), 0, 0, 0, 0, time.UTC)
	}
	return rows, nil
}
