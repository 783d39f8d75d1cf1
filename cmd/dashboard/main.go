package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/clients"
	"github.com/tesseract-hub/sales-analytics-service/internal/dashboard"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	apiURL := flag.String("api", os.Getenv("DASHBOARD_API_URL"), "sales analytics API base URL")
	startDate := flag.String("start", "2024-01-01", "report start date (YYYY-MM-DD)")
	endDate := flag.String("end", "2024-12-31", "report end date (YYYY-MM-DD)")
	watch := flag.Bool("watch", false, "stay connected and redraw on realtime updates")
	token := flag.String("token", os.Getenv("DASHBOARD_TOKEN"), "optional bearer token for the realtime socket")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	if *apiURL == "" {
		*apiURL = "http://localhost:5000/api"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	board := dashboard.New(clients.NewAPIClient(*apiURL), *startDate, *endDate, logger)
	board.Connect(ctx)
	render(os.Stdout, board.Snapshot())

	if !*watch || board.Snapshot().Status != dashboard.StatusConnected {
		return
	}

	wsURL, err := dashboard.WebSocketURL(*apiURL, *token)
	if err != nil {
		logger.WithError(err).Fatal("Invalid API URL")
	}
	err = dashboard.Watch(ctx, wsURL, board, func(e dashboard.Event) {
		if e.Type == "new_sales_data" || e.Type == "analytics_updated" ||
			e.Type == "sales_data_changed" || e.Type == "data_update_notification" {
			render(os.Stdout, board.Snapshot())
		}
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Realtime updates stopped")
		os.Exit(1)
	}
}

func render(out io.Writer, snap dashboard.Snapshot) {
	report := snap.Report

	fmt.Fprintf(out, "\nSales Analytics Dashboard  %s .. %s\n", snap.StartDate, snap.EndDate)
	status := "Connected"
	if snap.Status != dashboard.StatusConnected {
		status = "Offline Mode"
	}
	fmt.Fprintf(out, "Status: %s  Data Mode: %s", status, snap.Mode())
	if snap.Cached {
		fmt.Fprint(out, "  (cached)")
	}
	if !snap.LastUpdated.IsZero() {
		fmt.Fprintf(out, "  Last updated: %s", snap.LastUpdated.Format(time.Kitchen))
	}
	fmt.Fprintln(out)
	if snap.Error != "" {
		fmt.Fprintf(out, "! %s\n", snap.Error)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Total Revenue\t%s\t\n", currency(report.TotalRevenue))
	fmt.Fprintf(w, "Total Orders\t%d\t\n", report.TotalOrders)
	fmt.Fprintf(w, "Avg Order Value\t%s\t\n", currency(report.AvgOrderValue))
	w.Flush()

	section(out, "Top Products", "Product\tCategory\tRevenue\tOrders\tQty", func(w io.Writer) {
		for _, p := range report.TopProducts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", p.ProductName, p.Category, currency(p.Revenue), p.Orders, p.Quantity)
		}
	})
	section(out, "Top Customers", "Customer\tRegion\tRevenue\tOrders", func(w io.Writer) {
		for _, c := range report.TopCustomers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.CustomerName, c.Region, currency(c.Revenue), c.Orders)
		}
	})
	section(out, "Regions", "Region\tRevenue\tOrders", func(w io.Writer) {
		for _, r := range report.RegionStats {
			fmt.Fprintf(w, "%s\t%s\t%d\n", r.Region, currency(r.Revenue), r.Orders)
		}
	})
	section(out, "Categories", "Category\tRevenue\tQty", func(w io.Writer) {
		for _, c := range report.CategoryStats {
			fmt.Fprintf(w, "%s\t%s\t%d\n", c.Category, currency(c.Revenue), c.Quantity)
		}
	})
	section(out, "Monthly Trend", "Month\tRevenue\tOrders", func(w io.Writer) {
		for _, m := range report.MonthlyTrend {
			fmt.Fprintf(w, "%s\t%s\t%d\n", m.Month.Format("2006-01"), currency(m.Revenue), m.Orders)
		}
	})
	section(out, "Sales Reps", "Rep\tRevenue\tOrders\tAvg", func(w io.Writer) {
		for _, r := range report.SalesRepStats {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.SalesRep, currency(r.Revenue), r.Orders, currency(r.AvgOrderValue))
		}
	})
}

func section(out io.Writer, title, header string, rows func(io.Writer)) {
	fmt.Fprintf(out, "\n%s\n", title)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	w.Flush()
}

func currency(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
