package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/auth"
	"github.com/tesseract-hub/sales-analytics-service/internal/metrics"
	"github.com/tesseract-hub/sales-analytics-service/internal/middleware"
)

// RouterConfig carries everything the HTTP surface is built from. Optional
// parts (RateLimiter, Metrics, Gatherer) may be nil.
type RouterConfig struct {
	Analytics   *AnalyticsHandlers
	Sales       *SalesHandlers
	Catalog     *CatalogHandlers
	Health      *HealthHandler
	WebSocket   *WebSocketHandler
	Auth        *auth.TokenAuthenticator
	RateLimiter *middleware.RateLimiter
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigin  string
	Logger      *logrus.Logger
}

// SetupRouter wires middleware and routes
func SetupRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(cfg.Logger))
	router.Use(middleware.CORS(cfg.CORSOrigin))
	router.Use(middleware.OptionalAuth(cfg.Auth))
	router.Use(middleware.LoggerMiddleware(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.WebSocket != nil {
		router.GET("/ws", cfg.WebSocket.Handle)
	}

	// health stays outside the limiter so pollers never see a 429
	router.GET("/api/health", cfg.Health.Health)

	api := router.Group("/api")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Middleware())
	}
	{
		customers := api.Group("/customers")
		{
			customers.GET("", cfg.Catalog.ListCustomers)
			customers.POST("", cfg.Catalog.CreateCustomer)
			customers.GET("/:id", cfg.Catalog.GetCustomer)
		}

		products := api.Group("/products")
		{
			products.GET("", cfg.Catalog.ListProducts)
			products.POST("", cfg.Catalog.CreateProduct)
			products.GET("/:id", cfg.Catalog.GetProduct)
		}

		sales := api.Group("/sales")
		{
			sales.GET("", cfg.Sales.ListSales)
			sales.POST("", cfg.Sales.CreateSale)
			sales.GET("/:id", cfg.Sales.GetSale)
			sales.PUT("/:id", cfg.Sales.UpdateSale)
			sales.DELETE("/:id", cfg.Sales.DeleteSale)
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("", cfg.Analytics.GetReport)
			analytics.GET("/summary", cfg.Analytics.GetSummary)
			analytics.GET("/trends", cfg.Analytics.GetTrends)
			analytics.GET("/export", cfg.Analytics.ExportReport)
		}

		if cfg.WebSocket != nil {
			api.GET("/realtime/stats", cfg.WebSocket.Stats)
		}
	}

	router.NoRoute(NotFound)

	return router
}
