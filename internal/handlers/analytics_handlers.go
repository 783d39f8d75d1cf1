package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/middleware"
	"github.com/tesseract-hub/sales-analytics-service/internal/models"
	"github.com/tesseract-hub/sales-analytics-service/internal/services"
)

// ReportService is the analytics surface used by the handlers
type ReportService interface {
	GetReport(ctx context.Context, rng models.DateRange, useCache bool) (*models.ReportResponse, error)
	GetSummary(ctx context.Context, rng models.DateRange) (*models.SalesSummary, error)
	GetTrends(ctx context.Context, rng models.DateRange, granularity models.TrendGranularity) (*models.TrendReport, error)
	ExportReport(ctx context.Context, rng models.DateRange, format services.ExportFormat) ([]byte, error)
}

// AnalyticsHandlers handles HTTP requests for analytics
type AnalyticsHandlers struct {
	service ReportService
	logger  *logrus.Logger
	now     func() time.Time
}

// NewAnalyticsHandlers creates a new analytics handlers instance
func NewAnalyticsHandlers(service ReportService, logger *logrus.Logger) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		service: service,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetReport returns the full analytics report, served from the report cache
// unless useCache=false.
// GET /api/analytics
func (h *AnalyticsHandlers) GetReport(c *gin.Context) {
	rng, err := h.parseDateRange(c)
	if err != nil {
		respondError(c, h.logger, err, "parse date range")
		return
	}
	useCache := c.Query("useCache") != "false"

	report, err := h.service.GetReport(c.Request.Context(), rng, useCache)
	if err != nil {
		respondError(c, h.logger, err, "get analytics report")
		return
	}

	middleware.AddLogField(c, "cached", report.Cached)
	if report.ReportID != "" {
		middleware.AddLogField(c, "report_id", report.ReportID)
	}
	c.JSON(http.StatusOK, report)
}

// GetSummary retrieves the quick-look sales metrics
// GET /api/analytics/summary
func (h *AnalyticsHandlers) GetSummary(c *gin.Context) {
	rng, err := h.parseDateRange(c)
	if err != nil {
		respondError(c, h.logger, err, "parse date range")
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), rng)
	if err != nil {
		respondError(c, h.logger, err, "get sales summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetTrends retrieves revenue bucketed by day, week or month
// GET /api/analytics/trends
func (h *AnalyticsHandlers) GetTrends(c *gin.Context) {
	rng, err := h.parseDateRange(c)
	if err != nil {
		respondError(c, h.logger, err, "parse date range")
		return
	}
	granularity := models.TrendGranularity(c.DefaultQuery("granularity", string(models.GranularityMonth)))

	trends, err := h.service.GetTrends(c.Request.Context(), rng, granularity)
	if err != nil {
		respondError(c, h.logger, err, "get sales trends")
		return
	}

	c.JSON(http.StatusOK, trends)
}

// ExportReport exports a freshly generated report as an attachment
// GET /api/analytics/export
func (h *AnalyticsHandlers) ExportReport(c *gin.Context) {
	rng, err := h.parseDateRange(c)
	if err != nil {
		respondError(c, h.logger, err, "parse date range")
		return
	}
	format := services.ExportFormat(c.DefaultQuery("format", string(services.ExportCSV)))

	data, err := h.service.ExportReport(c.Request.Context(), rng, format)
	if err != nil {
		respondError(c, h.logger, err, "export analytics report")
		return
	}

	contentType := "text/csv"
	if format == services.ExportJSON {
		contentType = "application/json"
	}
	filename := fmt.Sprintf("sales-report-%s-%s.%s",
		rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"), format)

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// parseDateRange reads startDate, endDate and preset
func (h *AnalyticsHandlers) parseDateRange(c *gin.Context) (models.DateRange, error) {
	return services.ResolveDateRange(c.Query("startDate"), c.Query("endDate"), c.Query("preset"), h.now())
}
