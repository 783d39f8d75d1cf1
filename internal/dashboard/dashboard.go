package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/clients"
	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// ConnectionStatus is the dashboard's view of the API
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

const (
	msgBackendFailed = "Backend connection failed. Using demo data."
	msgFetchFailed   = "Failed to fetch analytics data"
)

// ReportSource is the slice of the API client the dashboard needs
type ReportSource interface {
	Health(ctx context.Context) error
	GetAnalytics(ctx context.Context, startDate, endDate string) (*models.ReportResponse, error)
	Invalidate()
}

// Snapshot is what a renderer draws
type Snapshot struct {
	Status      ConnectionStatus
	Live        bool
	Report      *models.AnalyticsReport
	Cached      bool
	StartDate   string
	EndDate     string
	LastUpdated time.Time
	Error       string
}

// Mode is "Live" for API data and "Demo" otherwise
func (s Snapshot) Mode() string {
	if s.Live {
		return "Live"
	}
	return "Demo"
}

// Dashboard keeps the current report and connection status. Connectivity
// failures never surface as errors: the dashboard switches to the demo
// dataset and marks itself offline.
type Dashboard struct {
	source ReportSource
	logger *logrus.Entry
	now    func() time.Time

	mu          sync.RWMutex
	status      ConnectionStatus
	report      *models.AnalyticsReport
	live        bool
	cached      bool
	startDate   string
	endDate     string
	lastUpdated time.Time
	errMsg      string
}

// New creates a dashboard for the given date range (YYYY-MM-DD)
func New(source ReportSource, startDate, endDate string, logger *logrus.Logger) *Dashboard {
	return &Dashboard{
		source:    source,
		logger:    logger.WithField("component", "dashboard"),
		now:       time.Now,
		status:    StatusDisconnected,
		report:    emptyReport(),
		startDate: startDate,
		endDate:   endDate,
	}
}

// Connect checks API health and loads the first report
func (d *Dashboard) Connect(ctx context.Context) {
	if err := d.source.Health(ctx); err != nil {
		d.logger.WithError(err).Warn("Failed to connect to backend")
		d.fallBack(msgBackendFailed)
		return
	}

	d.mu.Lock()
	d.status = StatusConnected
	d.errMsg = ""
	d.mu.Unlock()
	d.logger.Info("Backend connection established")

	d.Refresh(ctx)
}

// Refresh reloads the report for the current range. While offline it keeps
// the demo dataset; call Connect to retry.
func (d *Dashboard) Refresh(ctx context.Context) {
	d.mu.RLock()
	status, start, end := d.status, d.startDate, d.endDate
	d.mu.RUnlock()

	if status != StatusConnected {
		return
	}

	resp, err := d.source.GetAnalytics(ctx, start, end)
	if err != nil {
		d.logger.WithError(err).Warn("Analytics fetch error")
		d.fallBack(msgFetchFailed)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.report = resp.AnalyticsReport
	d.cached = resp.Cached
	d.live = true
	d.lastUpdated = d.now()
	d.errMsg = ""
}

// SetDateRange changes the range and reloads
func (d *Dashboard) SetDateRange(ctx context.Context, startDate, endDate string) {
	d.mu.Lock()
	d.startDate, d.endDate = startDate, endDate
	d.mu.Unlock()

	d.Refresh(ctx)
}

// DataChanged is called when the server announces new data. Cached client
// answers are dropped before reloading.
func (d *Dashboard) DataChanged(ctx context.Context) {
	d.source.Invalidate()
	d.Refresh(ctx)
}

// Snapshot returns a copy of the current state
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return Snapshot{
		Status:      d.status,
		Live:        d.live,
		Report:      d.report,
		Cached:      d.cached,
		StartDate:   d.startDate,
		EndDate:     d.endDate,
		LastUpdated: d.lastUpdated,
		Error:       d.errMsg,
	}
}

func (d *Dashboard) fallBack(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = StatusError
	d.errMsg = message
	d.report = DemoReport()
	d.live = false
	d.cached = false
	d.lastUpdated = d.now()
}

func emptyReport() *models.AnalyticsReport {
	report := &models.AnalyticsReport{}
	report.Normalize()
	return report
}

var _ ReportSource = clients.APIClient(nil)
