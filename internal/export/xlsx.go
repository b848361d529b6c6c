// Package export writes a computed snapshot to report files. It consumes the
// pipeline's outputs and never feeds back into them.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"dataco-dashboard/internal/services"
)

const (
	sheetMetrics    = "Metrics"
	sheetCategories = "Categories"
	sheetCountries  = "Countries"
)

type metricRow struct {
	label string
	value any
}

func metricRows(s *services.Snapshot) []metricRow {
	r := s.Report
	return []metricRow{
		{"Total Orders", r.TotalOrders},
		{"Completed Orders", r.CompletedOrders},
		{"Cancelled Orders", r.CancelledOrders},
		{"Pending Orders", r.PendingOrders},
		{"Suspected Fraud Orders", r.FraudOrders},
		{"Unique Customers", r.UniqueCustomers},
		{"Total Revenue", r.TotalRevenue},
		{"Total Profit", r.TotalProfit},
		{"Profit Margin", r.ProfitMargin},
		{"Repeat Customers (>1)", r.RepeatCustomers},
		{"Repeat Customers (>3)", r.RepeatCustomersOver3},
		{"Regular Customers (>5)", r.RegularCustomers},
		{"Repeat Purchase Rate", r.RepeatPurchaseRate},
		{"First-Time Buyer Rate", r.FirstTimeBuyerRate},
		{"Avg Sales per Customer", r.AvgSalesPerCustomer},
		{"Avg Quantity per Order", r.AvgQtyPerOrder},
		{"Paid Customer Rate", r.PaidCustomerRate},
		{"Avg Order Value", r.AvgOrderValue},
		{"Avg Revenue per Customer", r.AvgRevenuePerCustomer},
		{"Churn Rate (240-day)", r.ChurnRate},
		{"Avg Customer Lifespan (days)", r.AvgLifespanDays},
		{"Customer Lifetime Value", r.LTV},
		{"Avg Time Between Orders (days)", r.AvgGapDays},
		{"Discount Penetration Rate", r.DiscountPenetrationRate},
		{"Avg Discount per Line Item", r.AvgDiscountGiven},
		{"Avg Shipping Delay (days)", r.AvgShippingDelay},
		{"Late Delivery Rate", r.LateDeliveryRate},
		{"SLA Compliance Rate", r.SLAComplianceRate},
		{"Top Category Revenue Contribution (%)", r.TopCategoryRevenueShare},
		{"Top Category Profit Contribution (%)", r.TopCategoryProfitShare},
	}
}

// WriteXLSX renders the snapshot as a three-sheet workbook: labeled metrics,
// category revenue/profit, country stats.
func WriteXLSX(s *services.Snapshot, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetMetrics); err != nil {
		return err
	}

	set := func(sheet string, col, row int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, value)
	}

	set(sheetMetrics, 1, 1, "Metric")
	set(sheetMetrics, 2, 1, "Value")
	for i, m := range metricRows(s) {
		set(sheetMetrics, 1, i+2, m.label)
		set(sheetMetrics, 2, i+2, m.value)
	}

	if _, err := f.NewSheet(sheetCategories); err != nil {
		return err
	}
	set(sheetCategories, 1, 1, "Category")
	set(sheetCategories, 2, 1, "Revenue")
	set(sheetCategories, 3, 1, "Profit")
	profit := make(map[string]float64, len(s.ProfitByCategory))
	for _, ct := range s.ProfitByCategory {
		profit[ct.Category] = ct.Total
	}
	for i, ct := range s.RevenueByCategory {
		set(sheetCategories, 1, i+2, ct.Category)
		set(sheetCategories, 2, i+2, ct.Total)
		set(sheetCategories, 3, i+2, profit[ct.Category])
	}

	if _, err := f.NewSheet(sheetCountries); err != nil {
		return err
	}
	set(sheetCountries, 1, 1, "Country")
	set(sheetCountries, 2, 1, "Orders")
	set(sheetCountries, 3, 1, "Revenue")
	for i, cs := range s.CountryStats {
		set(sheetCountries, 1, i+2, cs.Country)
		set(sheetCountries, 2, i+2, cs.Orders)
		set(sheetCountries, 3, i+2, cs.Revenue)
	}

	return f.Write(w)
}

// SaveXLSX writes the workbook to outputPath, creating parent directories.
func SaveXLSX(s *services.Snapshot, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()
	return WriteXLSX(s, file)
}
