package dashboard

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tesseract-hub/sales-analytics-service/internal/models"
)

// DemoReport is the fixed dataset shown while the API is unreachable
func DemoReport() *models.AnalyticsReport {
	report := &models.AnalyticsReport{
		ReportDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		DateRange: models.DateRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 12, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC),
		},
		TotalRevenue:  2847635,
		TotalOrders:   1247,
		AvgOrderValue: 2284.50,
		TopProducts: datatypes.JSONSlice[models.ProductPerformance]{
			{ProductName: "Laptop Pro X1", Category: "Electronics", Revenue: 425000, Orders: 127, Quantity: 189},
			{ProductName: "Smartphone Ultra", Category: "Electronics", Revenue: 387000, Orders: 245, Quantity: 298},
			{ProductName: "Digital Camera 4K", Category: "Electronics", Revenue: 298000, Orders: 89, Quantity: 134},
			{ProductName: "Gaming Console Pro", Category: "Gaming", Revenue: 267000, Orders: 156, Quantity: 203},
			{ProductName: `4K Monitor 32"`, Category: "Electronics", Revenue: 234000, Orders: 98, Quantity: 147},
		},
		TopCustomers: datatypes.JSONSlice[models.CustomerPerformance]{
			{CustomerName: "Acme Corporation", Region: "North America", Type: "Enterprise", Revenue: 156000, Orders: 23},
			{CustomerName: "Global Solutions Ltd", Region: "Europe", Type: "Enterprise", Revenue: 134000, Orders: 19},
			{CustomerName: "Smart Enterprises LLC", Region: "North America", Type: "SMB", Revenue: 128000, Orders: 17},
			{CustomerName: "Future Systems GmbH", Region: "Europe", Type: "Enterprise", Revenue: 119000, Orders: 21},
			{CustomerName: "Digital Dynamics", Region: "Asia", Type: "Startup", Revenue: 98000, Orders: 14},
		},
		RegionStats: datatypes.JSONSlice[models.RegionStat]{
			{Region: "North America", Revenue: 1234567, Orders: 456, AvgOrderValue: 2707.38},
			{Region: "Europe", Revenue: 987654, Orders: 389, AvgOrderValue: 2538.96},
			{Region: "Asia", Revenue: 625414, Orders: 402, AvgOrderValue: 1555.76},
		},
		CategoryStats: datatypes.JSONSlice[models.CategoryStat]{
			{Category: "Electronics", Revenue: 1456789, Quantity: 523},
			{Category: "Accessories", Revenue: 789456, Quantity: 892},
			{Category: "Gaming", Revenue: 345678, Quantity: 234},
			{Category: "Wearables", Revenue: 255712, Quantity: 445},
		},
		SalesRepStats: datatypes.JSONSlice[models.SalesRepStat]{
			{SalesRep: "John Smith", Revenue: 345000, Orders: 87, AvgOrderValue: 3966},
			{SalesRep: "Sarah Johnson", Revenue: 298000, Orders: 76, AvgOrderValue: 3921},
			{SalesRep: "Mike Wilson", Revenue: 267000, Orders: 69, AvgOrderValue: 3870},
			{SalesRep: "Lisa Chen", Revenue: 234000, Orders: 62, AvgOrderValue: 3774},
			{SalesRep: "David Brown", Revenue: 189000, Orders: 54, AvgOrderValue: 3500},
		},
	}

	monthly := []struct {
		revenue float64
		orders  int64
	}{
		{245000, 98}, {267000, 112}, {289000, 125}, {234000, 94},
		{298000, 134}, {325000, 145}, {342000, 156}, {298000, 134},
		{267000, 119}, {389000, 167}, {421000, 189}, {372000, 174},
	}
	report.MonthlyTrend = make(datatypes.JSONSlice[models.MonthlyTrendPoint], 0, len(monthly))
	for i, m := range monthly {
		report.MonthlyTrend = append(report.MonthlyTrend, models.MonthlyTrendPoint{
			Month:   time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
			Revenue: m.revenue,
			Orders:  m.orders,
		})
	}

	return report
}
