package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportTTL is how long a persisted report lives before the reaper removes it
const ReportTTL = 30 * 24 * time.Hour

// TopListLimit caps the ranked report collections
const TopListLimit = 10

// DateRange represents an inclusive time period for analytics. End is the
// last instant of the final day and keys the report cache; queries bound the
// range with Until.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Until is the exclusive upper bound: midnight UTC after End's calendar day.
func (r DateRange) Until() time.Time {
	end := r.End.UTC()
	return time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// ProductPerformance is one entry of the top products ranking
type ProductPerformance struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Category    string    `json:"category"`
	Revenue     float64   `json:"revenue"`
	Quantity    int64     `json:"quantity"`
	Orders      int64     `json:"orders"`
}

// CustomerPerformance is one entry of the top customers ranking
type CustomerPerformance struct {
	CustomerID   uuid.UUID `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Region       string    `json:"region"`
	Type         string    `json:"type"`
	Revenue      float64   `json:"revenue"`
	Orders       int64     `json:"orders"`
}

// RegionStat aggregates sales by customer region
type RegionStat struct {
	Region        string  `json:"region"`
	Revenue       float64 `json:"revenue"`
	Orders        int64   `json:"orders"`
	AvgOrderValue float64 `json:"avgOrderValue"`
}

// CategoryStat aggregates sales by product category
type CategoryStat struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
	Quantity int64   `json:"quantity"`
	Orders   int64   `json:"orders"`
}

// MonthlyTrendPoint is revenue for one calendar month
type MonthlyTrendPoint struct {
	Month   time.Time `json:"month"`
	Revenue float64   `json:"revenue"`
	Orders  int64     `json:"orders"`
}

// SalesRepStat aggregates sales by sales representative
type SalesRepStat struct {
	SalesRep      string  `json:"salesRep"`
	Revenue       float64 `json:"revenue"`
	Orders        int64   `json:"orders"`
	AvgOrderValue float64 `json:"avgOrderValue"`
}

// SalesTotals are the scalar metrics of a report
type SalesTotals struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalOrders   int64   `json:"totalOrders"`
	AvgOrderValue float64 `json:"avgOrderValue"`
}

// AnalyticsReport is a point-in-time snapshot of every sales aggregate for a
// date range. It doubles as the persisted cache entry.
type AnalyticsReport struct {
	ID            uuid.UUID                                `gorm:"type:uuid;primaryKey" json:"-"`
	ReportDate    time.Time                                `gorm:"not null" json:"reportDate"`
	DateRange     DateRange                                `gorm:"embedded;embeddedPrefix:date_range_" json:"dateRange"`
	TotalRevenue  float64                                  `gorm:"type:numeric(20,4);not null" json:"totalRevenue"`
	TotalOrders   int64                                    `gorm:"not null" json:"totalOrders"`
	AvgOrderValue float64                                  `gorm:"type:numeric(20,4);not null" json:"avgOrderValue"`
	TopProducts   datatypes.JSONSlice[ProductPerformance]  `gorm:"type:jsonb" json:"topProducts"`
	TopCustomers  datatypes.JSONSlice[CustomerPerformance] `gorm:"type:jsonb" json:"topCustomers"`
	RegionStats   datatypes.JSONSlice[RegionStat]          `gorm:"type:jsonb" json:"regionStats"`
	CategoryStats datatypes.JSONSlice[CategoryStat]        `gorm:"type:jsonb" json:"categoryStats"`
	MonthlyTrend  datatypes.JSONSlice[MonthlyTrendPoint]   `gorm:"type:jsonb" json:"monthlyTrend"`
	SalesRepStats datatypes.JSONSlice[SalesRepStat]        `gorm:"type:jsonb" json:"salesRepStats"`
	CreatedAt     time.Time                                `gorm:"not null" json:"createdAt"`
	ExpiresAt     time.Time                                `gorm:"not null;index" json:"expiresAt"`
}

// BeforeCreate assigns an identity when the caller did not
func (r *AnalyticsReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Normalize replaces nil collections with empty ones so every report has the
// same JSON shape.
func (r *AnalyticsReport) Normalize() {
	if r.TopProducts == nil {
		r.TopProducts = datatypes.JSONSlice[ProductPerformance]{}
	}
	if r.TopCustomers == nil {
		r.TopCustomers = datatypes.JSONSlice[CustomerPerformance]{}
	}
	if r.RegionStats == nil {
		r.RegionStats = datatypes.JSONSlice[RegionStat]{}
	}
	if r.CategoryStats == nil {
		r.CategoryStats = datatypes.JSONSlice[CategoryStat]{}
	}
	if r.MonthlyTrend == nil {
		r.MonthlyTrend = datatypes.JSONSlice[MonthlyTrendPoint]{}
	}
	if r.SalesRepStats == nil {
		r.SalesRepStats = datatypes.JSONSlice[SalesRepStat]{}
	}
}

// ReportResponse is what GET /api/analytics returns
type ReportResponse struct {
	*AnalyticsReport
	Cached   bool   `json:"cached"`
	CacheAge *int64 `json:"cacheAge,omitempty"`
	ReportID string `json:"reportId,omitempty"`
}

// SalesSummary is the quick-look metric set
type SalesSummary struct {
	SalesTotals
	MaxOrderValue float64   `json:"maxOrderValue"`
	MinOrderValue float64   `json:"minOrderValue"`
	DateRange     DateRange `json:"dateRange"`
	Timestamp     time.Time `json:"timestamp"`
}

// TrendGranularity is the bucket size of a trend query
type TrendGranularity string

const (
	GranularityDay   TrendGranularity = "day"
	GranularityWeek  TrendGranularity = "week"
	GranularityMonth TrendGranularity = "month"
)

// Valid reports whether g is a supported bucket size
func (g TrendGranularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// TrendPoint is revenue for one bucket of a trend query
type TrendPoint struct {
	Period        time.Time `json:"period"`
	Revenue       float64   `json:"revenue"`
	Orders        int64     `json:"orders"`
	AvgOrderValue float64   `json:"avgOrderValue"`
}

// TrendReport is what GET /api/analytics/trends returns
type TrendReport struct {
	Trends       []TrendPoint     `json:"trends"`
	Granularity  TrendGranularity `json:"granularity"`
	DateRange    DateRange        `json:"dateRange"`
	TotalPeriods int              `json:"totalPeriods"`
}

// Pagination describes a page of a listing
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPagination computes page counts for total items at page/limit
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		Limit:       limit,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}
