package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// ErrUnavailable wraps every transport-level failure to reach the API
var ErrUnavailable = errors.New("sales analytics API unavailable")

// StatusError is a non-2xx answer from the API
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// APIClient talks to the sales analytics REST API
type APIClient interface {
	// Health fails when the API or its store is unreachable
	Health(ctx context.Context) error
	// GetAnalytics fetches the report for startDate..endDate (YYYY-MM-DD).
	// Answers are cached per range for the client's cache TTL.
	GetAnalytics(ctx context.Context, startDate, endDate string) (*models.ReportResponse, error)
	ListSales(ctx context.Context, params url.Values) (*SalesPage, error)
	ListCustomers(ctx context.Context, params url.Values) (*CustomersPage, error)
	ListProducts(ctx context.Context, params url.Values) (*ProductsPage, error)
	CreateSale(ctx context.Context, req models.CreateSaleRequest) (*models.Sale, error)
	// Invalidate drops every cached report
	Invalidate()
}

// SalesPage is one page of GET /sales
type SalesPage struct {
	Sales      []models.SaleListItem `json:"sales"`
	Pagination models.Pagination     `json:"pagination"`
}

// CustomersPage is one page of GET /customers
type CustomersPage struct {
	Customers  []models.Customer `json:"customers"`
	Pagination models.Pagination `json:"pagination"`
}

// ProductsPage is one page of GET /products
type ProductsPage struct {
	Products   []models.ProductView `json:"products"`
	Pagination models.Pagination    `json:"pagination"`
}

type cachedReport struct {
	report   *models.ReportResponse
	cachedAt time.Time
}

type apiClient struct {
	baseURL    string
	cache      map[string]*cachedReport
	cacheTTL   time.Duration
	mu         sync.RWMutex
	httpClient *http.Client
}

// NewAPIClient creates a client for baseURL. An empty baseURL falls back to
// DASHBOARD_API_URL and then to the local default.
func NewAPIClient(baseURL string) APIClient {
	if baseURL == "" {
		baseURL = os.Getenv("DASHBOARD_API_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:5000/api"
	}

	return &apiClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		cache:    make(map[string]*cachedReport),
		cacheTTL: time.Minute,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *apiClient) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &body); err != nil {
		return err
	}
	if body.Status != "OK" {
		return fmt.Errorf("health status %q: %w", body.Status, ErrUnavailable)
	}
	return nil
}

func (c *apiClient) GetAnalytics(ctx context.Context, startDate, endDate string) (*models.ReportResponse, error) {
	key := startDate + "|" + endDate

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && time.Since(entry.cachedAt) < c.cacheTTL {
		c.mu.RUnlock()
		return entry.report, nil
	}
	c.mu.RUnlock()

	params := url.Values{}
	if startDate != "" {
		params.Set("startDate", startDate)
	}
	if endDate != "" {
		params.Set("endDate", endDate)
	}

	var report models.ReportResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/analytics", params), nil, &report); err != nil {
		return nil, err
	}
	if report.AnalyticsReport == nil {
		return nil, fmt.Errorf("empty analytics response")
	}
	report.Normalize()

	c.mu.Lock()
	c.cache[key] = &cachedReport{report: &report, cachedAt: time.Now()}
	c.mu.Unlock()

	return &report, nil
}

func (c *apiClient) ListSales(ctx context.Context, params url.Values) (*SalesPage, error) {
	var page SalesPage
	if err := c.do(ctx, http.MethodGet, withQuery("/sales", params), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *apiClient) ListCustomers(ctx context.Context, params url.Values) (*CustomersPage, error) {
	var page CustomersPage
	if err := c.do(ctx, http.MethodGet, withQuery("/customers", params), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *apiClient) ListProducts(ctx context.Context, params url.Values) (*ProductsPage, error) {
	var page ProductsPage
	if err := c.do(ctx, http.MethodGet, withQuery("/products", params), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *apiClient) CreateSale(ctx context.Context, req models.CreateSaleRequest) (*models.Sale, error) {
	var result struct {
		Sale *models.Sale `json:"sale"`
	}
	if err := c.do(ctx, http.MethodPost, "/sales", req, &result); err != nil {
		return nil, err
	}
	// every cached report may now be stale
	c.Invalidate()
	return result.Sale, nil
}

func (c *apiClient) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string]*cachedReport)
	c.mu.Unlock()
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: errBody.Error}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %w", ErrUnavailable, statusErr)
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}
