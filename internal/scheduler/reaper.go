package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/metrics"
)

const defaultSchedule = "@every 1h"

// ExpiredReportStore deletes reports past their expiry
type ExpiredReportStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ReportReaper periodically removes expired analytics reports
type ReportReaper struct {
	store    ExpiredReportStore
	schedule string
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	now      func() time.Time
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
}

// NewReportReaper creates a new reaper. schedule is a cron spec or a
// descriptor such as "@every 1h".
func NewReportReaper(store ExpiredReportStore, schedule string, m *metrics.Metrics, logger *logrus.Logger) *ReportReaper {
	if schedule == "" {
		schedule = defaultSchedule
	}
	return &ReportReaper{
		store:    store,
		schedule: schedule,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the reaper job
func (r *ReportReaper) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(r.schedule, func() { r.RunOnce(context.Background()) }); err != nil {
		r.logger.WithError(err).Error("Failed to schedule report reaper")
		return err
	}

	r.cron.Start()
	r.running = true

	r.logger.WithField("schedule", r.schedule).Info("Report reaper started")
	return nil
}

// Stop stops the scheduler and waits for a running job
func (r *ReportReaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running || r.cron == nil {
		return
	}

	ctx := r.cron.Stop()
	<-ctx.Done()
	r.running = false
	r.logger.Info("Report reaper stopped")
}

// RunOnce deletes every report whose expiry has passed
func (r *ReportReaper) RunOnce(ctx context.Context) int64 {
	startTime := time.Now()

	deleted, err := r.store.DeleteExpired(ctx, r.now())
	if err != nil {
		r.logger.WithError(err).Error("Failed to delete expired reports")
		return 0
	}

	if r.metrics != nil {
		r.metrics.ReportsReaped.Add(float64(deleted))
	}

	entry := r.logger.WithFields(logrus.Fields{
		"reports_deleted": deleted,
		"duration_ms":     time.Since(startTime).Milliseconds(),
	})
	if deleted > 0 {
		entry.Info("Expired reports deleted")
	} else {
		entry.Debug("No expired reports")
	}
	return deleted
}
