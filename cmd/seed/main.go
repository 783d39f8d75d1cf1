package main

import (
	"context"
	"log"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tesseract-hub/sales-analytics-service/internal/config"
	"github.com/tesseract-hub/sales-analytics-service/internal/database"
	"github.com/tesseract-hub/sales-analytics-service/internal/models"
	"github.com/tesseract-hub/sales-analytics-service/internal/repository"
)

const saleCount = 1000

var (
	seedStart = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	seedEnd   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

var sampleCustomers = []models.Customer{
	{Name: "Acme Corporation", Region: "North America", Type: models.CustomerTypeEnterprise, Email: "contact@acme.com", Phone: "+1-555-0101"},
	{Name: "TechStart Inc", Region: "North America", Type: models.CustomerTypeStartup, Email: "hello@techstart.com", Phone: "+1-555-0102"},
	{Name: "Global Solutions Ltd", Region: "Europe", Type: models.CustomerTypeEnterprise, Email: "info@globalsolutions.eu", Phone: "+44-20-7946-0958"},
	{Name: "Digital Dynamics", Region: "Asia", Type: models.CustomerTypeSMB, Email: "support@digitaldynamics.asia", Phone: "+65-6789-1234"},
	{Name: "Innovation Labs Pte", Region: "Asia", Type: models.CustomerTypeSMB, Email: "contact@innovationlabs.sg", Phone: "+65-9876-5432"},
	{Name: "Future Systems GmbH", Region: "Europe", Type: models.CustomerTypeEnterprise, Email: "sales@futuresystems.de", Phone: "+49-89-123456"},
	{Name: "Smart Enterprises LLC", Region: "North America", Type: models.CustomerTypeEnterprise, Email: "business@smartenterprises.com", Phone: "+1-555-0103"},
	{Name: "NextGen Solutions", Region: "Europe", Type: models.CustomerTypeStartup, Email: "team@nextgensolutions.fr", Phone: "+33-1-23-45-67-89"},
	{Name: "Pacific Tech Co", Region: "Asia", Type: models.CustomerTypeSMB, Email: "info@pacifictech.jp", Phone: "+81-3-1234-5678"},
	{Name: "Atlantic Industries", Region: "North America", Type: models.CustomerTypeEnterprise, Email: "sales@atlanticindustries.ca", Phone: "+1-416-555-0104"},
	{Name: "European Dynamics", Region: "Europe", Type: models.CustomerTypeSMB, Email: "contact@europeandynamics.it", Phone: "+39-02-1234567"},
	{Name: "Asian Ventures Ltd", Region: "Asia", Type: models.CustomerTypeStartup, Email: "hello@asianventures.hk", Phone: "+852-1234-5678"},
}

type sampleProduct struct {
	name, category, description, sku string
	price                            float64
}

var sampleProducts = []sampleProduct{
	{"Laptop Pro X1", "Electronics", "High-performance laptop for professionals", "LPX1-001", 1299.99},
	{"Smartphone Ultra 5G", "Electronics", "Latest 5G smartphone with advanced features", "SU5G-002", 899.99},
	{"Wireless Headphones Pro", "Accessories", "Premium wireless headphones with noise cancellation", "WHP-003", 199.99},
	{`Tablet Air 12"`, "Electronics", "Lightweight tablet for productivity and entertainment", "TA12-004", 599.99},
	{"Smart Watch Series 7", "Wearables", "Advanced fitness and health tracking smartwatch", "SWS7-005", 399.99},
	{"Digital Camera 4K", "Electronics", "Professional 4K digital camera", "DC4K-006", 799.99},
	{"Gaming Console Pro", "Gaming", "Next-generation gaming console", "GCP-007", 499.99},
	{`4K Monitor 32"`, "Electronics", "Ultra-wide 4K professional monitor", "MON32-008", 449.99},
	{"Bluetooth Speaker", "Accessories", "Portable wireless Bluetooth speaker", "BTS-009", 89.99},
	{"Fitness Tracker Band", "Wearables", "Advanced fitness tracking wristband", "FTB-010", 149.99},
	{"Wireless Mouse Pro", "Accessories", "Ergonomic wireless mouse for professionals", "WMP-011", 59.99},
	{"Mechanical Keyboard RGB", "Accessories", "RGB backlit mechanical gaming keyboard", "MKR-012", 129.99},
	{"USB-C Hub 8-in-1", "Accessories", "8-port USB-C hub with multiple connections", "UCH8-013", 79.99},
	{"Portable SSD 1TB", "Electronics", "High-speed portable SSD storage", "PSSD1-014", 159.99},
	{"Wireless Charger Pad", "Accessories", "Fast wireless charging pad for smartphones", "WCP-015", 39.99},
}

var salesReps = []string{
	"John Smith", "Sarah Johnson", "Mike Wilson", "Lisa Chen", "David Brown",
	"Emma Davis", "Alex Rodriguez", "Jennifer Taylor", "Michael Chang", "Rachel Green",
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	ctx := context.Background()
	dbConfig := database.DefaultConfig()
	dbConfig.ChangeFeedEnabled = cfg.ChangeFeedEnabled
	if err := database.NewManager(db, dbConfig, logger).Initialize(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	if err := clearData(ctx, db); err != nil {
		logger.WithError(err).Fatal("Failed to clear existing data")
	}
	logger.Info("Cleared existing data")

	customerRepo := repository.NewCustomerRepository(db)
	customers := make([]models.Customer, len(sampleCustomers))
	for i, c := range sampleCustomers {
		c.IsActive = true
		if err := customerRepo.Create(ctx, &c); err != nil {
			logger.WithError(err).WithField("customer", c.Name).Fatal("Failed to insert customer")
		}
		customers[i] = c
	}
	logger.WithField("count", len(customers)).Info("Inserted customers")

	productRepo := repository.NewProductRepository(db)
	products := make([]models.Product, len(sampleProducts))
	for i, p := range sampleProducts {
		sku := p.sku
		product := models.Product{
			Name:        p.name,
			Category:    p.category,
			Price:       p.price,
			Description: p.description,
			SKU:         &sku,
			Inventory:   models.Inventory{InStock: 100 + rand.Int64N(400), ReorderLevel: 10},
			IsActive:    true,
		}
		if err := productRepo.Create(ctx, &product); err != nil {
			logger.WithError(err).WithField("product", p.name).Fatal("Failed to insert product")
		}
		products[i] = product
	}
	logger.WithField("count", len(products)).Info("Inserted products")

	sales := generateSales(customers, products, saleCount)
	if err := repository.NewSaleRepository(db).CreateBatch(ctx, sales); err != nil {
		logger.WithError(err).Fatal("Failed to insert sales")
	}

	var total decimal.Decimal
	for _, s := range sales {
		total = total.Add(decimal.NewFromFloat(s.Revenue))
	}
	logger.WithFields(logrus.Fields{
		"sales":         len(sales),
		"total_revenue": total.StringFixed(2),
	}).Info("Inserted sales")

	if len(sales) > 0 {
		logger.WithFields(logrus.Fields{
			"first_order": sales[0].OrderDate.Format("2006-01-02"),
			"last_order":  sales[len(sales)-1].OrderDate.Format("2006-01-02"),
		}).Info("Seeding complete")
	}
}

func clearData(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Sale{}, &models.Customer{}, &models.Product{}, &models.AnalyticsReport{}} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// generateSales draws up to count sales between 2022 and 2024. Roughly 30%
// of draws outside Q4 are skipped so the fourth quarter peaks.
func generateSales(customers []models.Customer, products []models.Product, count int) []models.Sale {
	sales := make([]models.Sale, 0, count)
	span := seedEnd.Sub(seedStart)

	for range count {
		customer := customers[rand.IntN(len(customers))]
		product := products[rand.IntN(len(products))]

		var quantity int64
		switch product.Category {
		case "Electronics":
			quantity = rand.Int64N(5) + 1
		case "Accessories":
			quantity = rand.Int64N(10) + 1
		default:
			quantity = rand.Int64N(3) + 1
		}

		// +/- 20% around list price
		variation := 0.8 + rand.Float64()*0.4
		unitPrice, _ := decimal.NewFromFloat(product.Price * variation).Round(2).Float64()

		orderDate := seedStart.Add(time.Duration(rand.Int64N(int64(span))))
		if orderDate.Month() < time.October && rand.Float64() < 0.3 {
			continue
		}

		sales = append(sales, models.Sale{
			CustomerID: customer.ID,
			ProductID:  product.ID,
			SalesRep:   salesReps[rand.IntN(len(salesReps))],
			Quantity:   quantity,
			UnitPrice:  unitPrice,
			Revenue:    models.ComputeRevenue(quantity, unitPrice),
			OrderDate:  orderDate,
		})
	}

	sort.Slice(sales, func(i, j int) bool { return sales[i].OrderDate.Before(sales[j].OrderDate) })
	return sales
}
