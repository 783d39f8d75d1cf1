package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// Subjects published by the service
const (
	SubjectSaleRecorded    = "sales.recorded"
	SubjectSaleUpdated     = "sales.updated"
	SubjectSaleDeleted     = "sales.deleted"
	SubjectReportGenerated = "analytics.report.generated"
)

// Event is the envelope written to every subject
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// SalePayload describes a sale mutation
type SalePayload struct {
	SaleID     uuid.UUID `json:"saleId"`
	CustomerID uuid.UUID `json:"customerId,omitempty"`
	ProductID  uuid.UUID `json:"productId,omitempty"`
	SalesRep   string    `json:"salesRep,omitempty"`
	Revenue    float64   `json:"revenue"`
}

// ReportPayload describes a freshly generated analytics report
type ReportPayload struct {
	ReportID     string           `json:"reportId,omitempty"`
	DateRange    models.DateRange `json:"dateRange"`
	TotalRevenue float64          `json:"totalRevenue"`
	TotalOrders  int64            `json:"totalOrders"`
}

// Publisher publishes domain events to NATS. A nil *Publisher is valid and
// publishes nothing, which is how the service runs without NATS_URL.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to url. An empty url returns a nil publisher.
func NewPublisher(url string, logger *logrus.Logger) (*Publisher, error) {
	if url == "" {
		logger.Warn("NATS_URL not set, event publishing disabled")
		return nil, nil
	}

	entry := logger.WithField("component", "events.publisher")

	conn, err := nats.Connect(url,
		nats.Name("sales-analytics-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				entry.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			entry.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	entry.WithField("url", url).Info("NATS events publisher initialized")
	return &Publisher{conn: conn, logger: entry}, nil
}

// PublishSaleRecorded publishes a sale creation
func (p *Publisher) PublishSaleRecorded(ctx context.Context, sale *models.Sale) error {
	return p.publish(ctx, SubjectSaleRecorded, salePayload(sale))
}

// PublishSaleUpdated publishes a sale modification
func (p *Publisher) PublishSaleUpdated(ctx context.Context, sale *models.Sale) error {
	return p.publish(ctx, SubjectSaleUpdated, salePayload(sale))
}

// PublishSaleDeleted publishes a sale removal
func (p *Publisher) PublishSaleDeleted(ctx context.Context, id uuid.UUID, revenue float64) error {
	return p.publish(ctx, SubjectSaleDeleted, SalePayload{SaleID: id, Revenue: revenue})
}

// PublishReportGenerated publishes a report produced by the pipeline
func (p *Publisher) PublishReportGenerated(ctx context.Context, reportID string, report *models.AnalyticsReport) error {
	return p.publish(ctx, SubjectReportGenerated, ReportPayload{
		ReportID:     reportID,
		DateRange:    report.DateRange,
		TotalRevenue: report.TotalRevenue,
		TotalOrders:  report.TotalOrders,
	})
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the connection
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	if p == nil || p.conn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(Event{
		ID:        uuid.NewString(),
		Type:      subject,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.WithField("subject", subject).Debug("Event published")
	return nil
}

func salePayload(sale *models.Sale) SalePayload {
	return SalePayload{
		SaleID:     sale.ID,
		CustomerID: sale.CustomerID,
		ProductID:  sale.ProductID,
		SalesRep:   sale.SalesRep,
		Revenue:    sale.Revenue,
	}
}
