package services

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"dataco-dashboard/internal/dataset"
	"dataco-dashboard/internal/models"
)

const (
	topCustomerLimit  = 10
	fraudProductLimit = 10
)

// Snapshot is everything the dashboard needs for one filter selection: the
// metric record plus the chart-ready tables. It is recomputed from scratch on
// every request and never stored.
type Snapshot struct {
	Report            models.MetricReport        `json:"report"`
	RevenueByCategory []models.CategoryTotal     `json:"revenue_by_category"`
	ProfitByCategory  []models.CategoryTotal     `json:"profit_by_category"`
	CountryStats      []models.CountryStat       `json:"country_stats"`
	Yearly            []models.YearlyFinancials  `json:"yearly"`
	MonthlyShipped    []models.MonthlyOrders     `json:"monthly_shipped"`
	TopCustomers      []models.CustomerSales     `json:"top_customers"`
	FraudByRegion     []models.FraudCount        `json:"fraud_by_region"`
	FraudProducts     []models.FraudCount        `json:"fraud_products"`
	ShippingModes     []models.ShippingModeDelay `json:"shipping_modes"`
	Rows              int                        `json:"rows"`
}

// Analytics owns the cleaned order table. The table is read-only after
// ingestion; every query takes an RLock and computes fresh aggregates.
type Analytics struct {
	mu     sync.RWMutex
	table  []models.OrderRecord
	source string
	loaded time.Time
	loader *dataset.Loader
	logger *slog.Logger
}

func NewAnalytics(logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		loader: dataset.NewLoader(logger),
		logger: logger,
	}
}

// LoadFromCSV ingests the dataset. Loading the same path again is a no-op
// thanks to the loader's per-process memoization.
func (a *Analytics) LoadFromCSV(ctx context.Context, path, encoding string) error {
	table, err := a.loader.Load(ctx, path, encoding)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.table = table
	a.source = path
	a.loaded = time.Now()
	a.mu.Unlock()
	return nil
}

// SetData installs an in-memory table directly, bypassing ingestion.
func (a *Analytics) SetData(table []models.OrderRecord) {
	a.mu.Lock()
	a.table = table
	a.loaded = time.Now()
	a.mu.Unlock()
}

// Snapshot filters the table and derives the full metric set in dependency
// order: filter, completed subset, metric formulas, chart tables.
func (a *Analytics) Snapshot(sel models.Selection) *Snapshot {
	a.mu.RLock()
	table := a.table
	a.mu.RUnlock()

	filtered := Filter(table, sel)
	completed := StatusSubset(filtered, models.GroupCompleted)
	fraud := StatusSubset(filtered, models.GroupFraud)

	return &Snapshot{
		Report:            ComputeReport(filtered, completed),
		RevenueByCategory: RevenueByCategory(completed),
		ProfitByCategory:  ProfitByCategory(completed),
		CountryStats:      CountryStats(completed),
		Yearly:            YearlyStats(completed),
		MonthlyShipped:    MonthlyShippedOrders(filtered),
		TopCustomers:      TopCustomers(completed, topCustomerLimit),
		FraudByRegion:     FraudByRegion(fraud),
		FraudProducts:     TopFraudProducts(fraud, fraudProductLimit),
		ShippingModes:     ShippingModeDelays(completed),
		Rows:              len(filtered),
	}
}

// Options lists the distinct filter values observed in the dataset, sorted.
// Empty values are dropped, matching the sidebar's dropna behavior.
func (a *Analytics) Options() models.FilterOptions {
	a.mu.RLock()
	defer a.mu.RUnlock()

	regions := make(map[string]struct{})
	categories := make(map[string]struct{})
	markets := make(map[string]struct{})
	for _, r := range a.table {
		if r.Region != "" {
			regions[r.Region] = struct{}{}
		}
		if r.Category != "" {
			categories[r.Category] = struct{}{}
		}
		if r.Market != "" {
			markets[r.Market] = struct{}{}
		}
	}
	return models.FilterOptions{
		Regions:    sortedKeys(regions),
		Categories: sortedKeys(categories),
		Markets:    sortedKeys(markets),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Stats reports ingestion state for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"source":    a.source,
		"rows":      len(a.table),
		"loaded_at": a.loaded,
	}
}
