package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/sales-analytics-service/internal/clients"
	"github.com/tesseract-hub/sales-analytics-service/internal/models"
	"github.com/tesseract-hub/sales-analytics-service/internal/realtime"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeSource struct {
	mu          sync.Mutex
	healthErr   error
	reportErr   error
	revenue     float64
	calls       int
	invalidated int
	lastStart   string
}

func (f *fakeSource) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeSource) GetAnalytics(ctx context.Context, startDate, endDate string) (*models.ReportResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastStart = startDate
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	report := &models.AnalyticsReport{TotalRevenue: f.revenue, TotalOrders: 2}
	report.Normalize()
	return &models.ReportResponse{AnalyticsReport: report, Cached: true}, nil
}

func (f *fakeSource) Invalidate() {
	f.mu.Lock()
	f.invalidated++
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestConnect_Live(t *testing.T) {
	source := &fakeSource{revenue: 500}
	d := New(source, "2024-01-01", "2024-12-31", quietLogger())

	assert.Equal(t, StatusDisconnected, d.Snapshot().Status)

	d.Connect(context.Background())
	snap := d.Snapshot()
	assert.Equal(t, StatusConnected, snap.Status)
	assert.Equal(t, "Live", snap.Mode())
	assert.True(t, snap.Cached)
	assert.Equal(t, 500.0, snap.Report.TotalRevenue)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.LastUpdated.IsZero())
}

func TestConnect_HealthFailureFallsBackToDemo(t *testing.T) {
	source := &fakeSource{healthErr: clients.ErrUnavailable}
	d := New(source, "2024-01-01", "2024-12-31", quietLogger())

	d.Connect(context.Background())
	snap := d.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "Demo", snap.Mode())
	assert.Equal(t, "Backend connection failed. Using demo data.", snap.Error)
	assert.Equal(t, 2847635.0, snap.Report.TotalRevenue)
	assert.Equal(t, 0, source.callCount())

	// offline refreshes keep the demo data without calling the API
	d.Refresh(context.Background())
	assert.Equal(t, 0, source.callCount())
}

func TestRefresh_FetchFailureFallsBackToDemo(t *testing.T) {
	source := &fakeSource{revenue: 10}
	d := New(source, "2024-01-01", "2024-12-31", quietLogger())
	d.Connect(context.Background())

	source.reportErr = errors.New("boom")
	d.Refresh(context.Background())

	snap := d.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, "Failed to fetch analytics data", snap.Error)
	assert.Equal(t, int64(1247), snap.Report.TotalOrders)
}

func TestSetDateRangeAndDataChanged(t *testing.T) {
	source := &fakeSource{revenue: 10}
	d := New(source, "2024-01-01", "2024-12-31", quietLogger())
	d.Connect(context.Background())

	d.SetDateRange(context.Background(), "2023-01-01", "2023-06-30")
	assert.Equal(t, "2023-01-01", source.lastStart)
	assert.Equal(t, "2023-06-30", d.Snapshot().EndDate)

	d.DataChanged(context.Background())
	assert.Equal(t, 1, source.invalidated)
	assert.Equal(t, 3, source.callCount())
}

func TestDemoReport(t *testing.T) {
	report := DemoReport()
	assert.Len(t, report.TopProducts, 5)
	assert.Len(t, report.MonthlyTrend, 12)
	assert.Equal(t, time.December, report.MonthlyTrend[11].Month.Month())
	assert.Equal(t, "Laptop Pro X1", report.TopProducts[0].ProductName)
}

func TestWebSocketURL(t *testing.T) {
	u, err := WebSocketURL("http://localhost:5000/api", "")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:5000/ws", u)

	u, err = WebSocketURL("https://sales.example.com/api/", "abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://sales.example.com/ws?token=abc", u)
}

func TestWatch_RefreshesOnNewSales(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub realtime.IncomingMessage
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		var data realtime.SubscribeData
		_ = json.Unmarshal(sub.Data, &data)
		conn.WriteJSON(realtime.OutgoingMessage{
			Type: realtime.MessageTypeSubscriptionsUpdated,
			Data: map[string]any{"subscribed": data.Types},
		})
		conn.WriteJSON(realtime.OutgoingMessage{
			Type: realtime.MessageTypeNewSalesData,
			Data: map[string]any{"data": map[string]any{"revenue": 10}},
		})
	}))
	defer server.Close()

	source := &fakeSource{revenue: 10}
	d := New(source, "", "", quietLogger())
	d.Connect(context.Background())

	var events []Event
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := Watch(ctx, wsURL, d, func(e Event) { events = append(events, e) }, quietLogger())
	require.Error(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, realtime.MessageTypeSubscriptionsUpdated, events[0].Type)
	assert.JSONEq(t, `{"subscribed":["sales","analytics"]}`, string(events[0].Raw))
	assert.Equal(t, realtime.MessageTypeNewSalesData, events[1].Type)
	assert.Equal(t, 1, source.invalidated)
	assert.Equal(t, 2, source.callCount())
}
