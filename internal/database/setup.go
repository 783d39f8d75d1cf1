// Package database prepares the PostgreSQL schema used by the service:
// tables, the secondary indexes GORM tags cannot express, and the row
// triggers that feed the change notifier.
//
// Setup is idempotent and runs on every start-up.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tesseract-hub/sales-analytics-service/internal/changefeed"
	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// ErrChangeFeedUnavailable means the notify triggers could not be installed
var ErrChangeFeedUnavailable = errors.New("change feed triggers unavailable")

// WatchedTables are the tables whose mutations reach realtime subscribers
var WatchedTables = []string{"sales", "customers", "products"}

const notifyFunction = "sales_analytics_notify"

// Config controls schema setup
type Config struct {
	ChangeFeedEnabled bool
	MaxRetries        int
	RetryInterval     time.Duration
}

// DefaultConfig returns the start-up defaults
func DefaultConfig() Config {
	return Config{
		ChangeFeedEnabled: true,
		MaxRetries:        3,
		RetryInterval:     5 * time.Second,
	}
}

// Manager runs schema setup and remembers its outcome
type Manager struct {
	db     *gorm.DB
	config Config
	logger *logrus.Logger

	mu              sync.RWMutex
	initialized     bool
	changeFeedReady bool
	lastError       error
	lastCheckTime   time.Time
}

// NewManager creates a new schema manager
func NewManager(db *gorm.DB, config Config, logger *logrus.Logger) *Manager {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	return &Manager{
		db:     db,
		config: config,
		logger: logger,
	}
}

// Initialize migrates the schema with retries. Trigger installation failure
// does not fail Initialize; it only leaves ChangeFeedReady false.
func (m *Manager) Initialize(ctx context.Context) error {
	m.logger.Info("Starting database setup...")

	var lastErr error
	for attempt := 1; attempt <= m.config.MaxRetries; attempt++ {
		if err := m.migrate(ctx); err != nil {
			lastErr = err
			m.logger.WithError(err).WithField("attempt", attempt).Warn("Database setup attempt failed")

			if attempt < m.config.MaxRetries {
				m.logger.WithField("retry_in", m.config.RetryInterval).Info("Retrying database setup...")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(m.config.RetryInterval):
				}
			}
			continue
		}

		feedErr := m.setupChangeFeed(ctx)

		m.mu.Lock()
		m.initialized = true
		m.changeFeedReady = feedErr == nil
		m.lastError = feedErr
		m.lastCheckTime = time.Now()
		m.mu.Unlock()

		m.logger.WithField("change_feed", feedErr == nil).Info("Database setup completed")
		return nil
	}

	m.mu.Lock()
	m.initialized = false
	m.lastError = lastErr
	m.lastCheckTime = time.Now()
	m.mu.Unlock()

	return fmt.Errorf("database setup failed after %d attempts: %w", m.config.MaxRetries, lastErr)
}

func (m *Manager) migrate(ctx context.Context) error {
	db := m.db.WithContext(ctx)

	if err := db.AutoMigrate(&models.Customer{}, &models.Product{}, &models.Sale{}, &models.AnalyticsReport{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	m.logger.Debug("Tables and indexes ready")
	return nil
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_reports_date_range ON analytics_reports (date_range_start, date_range_end)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_report_date ON analytics_reports (report_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_customer_order_date ON sales (customer_id, order_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_product_order_date ON sales (product_id, order_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_rep_order_date ON sales (sales_rep, order_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_status_order_date ON sales (status, order_date DESC)`,
}

func (m *Manager) setupChangeFeed(ctx context.Context) error {
	if !m.config.ChangeFeedEnabled {
		m.logger.Info("Change feed is disabled, skipping trigger setup")
		return fmt.Errorf("%w: disabled by configuration", ErrChangeFeedUnavailable)
	}

	db := m.db.WithContext(ctx)
	if err := db.Exec(notifyFunctionSQL()).Error; err != nil {
		m.logger.WithError(err).Warn("Could not install change notification function")
		return fmt.Errorf("%w: %v", ErrChangeFeedUnavailable, err)
	}

	for _, table := range WatchedTables {
		for _, stmt := range triggerStatements(table) {
			if err := db.Exec(stmt).Error; err != nil {
				m.logger.WithError(err).WithField("table", table).Warn("Could not install change trigger")
				return fmt.Errorf("%w: %s: %v", ErrChangeFeedUnavailable, table, err)
			}
		}
		m.logger.WithField("table", table).Debug("Change trigger installed")
	}
	return nil
}

func notifyFunctionSQL() string {
	return fmt.Sprintf(`
		CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
		DECLARE
			row_id uuid;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				row_id := OLD.id;
			ELSE
				row_id := NEW.id;
			END IF;
			PERFORM pg_notify('%s', json_build_object(
				'collection', TG_TABLE_NAME,
				'operation', lower(TG_OP),
				'id', row_id,
				'occurredAt', now()
			)::text);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql
	`, notifyFunction, changefeed.Channel)
}

func triggerStatements(table string) []string {
	trigger := table + "_change_notify"
	return []string{
		fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, trigger, table),
		fmt.Sprintf(`CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION %s()`,
			trigger, table, notifyFunction),
	}
}

// ChangeFeedReady reports whether the notify triggers are installed
func (m *Manager) ChangeFeedReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.changeFeedReady
}

// Ping checks that the store answers
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Status returns the outcome of the last setup run
func (m *Manager) Status() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := map[string]interface{}{
		"initialized": m.initialized,
		"change_feed": m.changeFeedReady,
		"last_check":  m.lastCheckTime.Format(time.RFC3339),
	}

	if m.lastError != nil {
		status["last_error"] = m.lastError.Error()
	}

	return status
}
