package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// ReportRepository persists generated analytics reports
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindFresh returns the newest report for exactly rng created at or after
// since, or nil when there is none.
func (r *ReportRepository) FindFresh(ctx context.Context, rng models.DateRange, since time.Time) (*models.AnalyticsReport, error) {
	var report models.AnalyticsReport

	err := r.db.WithContext(ctx).
		Where("date_range_start = ? AND date_range_end = ? AND created_at >= ?", rng.Start, rng.End, since).
		Order("created_at DESC").
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Create inserts a new report
func (r *ReportRepository) Create(ctx context.Context, report *models.AnalyticsReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// DeleteExpired removes every report whose expiry is at or before now
func (r *ReportRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.AnalyticsReport{})
	return result.RowsAffected, result.Error
}
