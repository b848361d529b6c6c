package services

import (
	"slices"
	"sync"
	"testing"

	"dataco-dashboard/internal/models"
)

func testTable() []models.OrderRecord {
	return []models.OrderRecord{
		{OrderID: "1", CustomerID: "C1", Status: "COMPLETE", Region: "Western Europe", Category: "Fitness", Market: "Europe", Country: "Francia", ItemTotal: 100, ProfitPerOrder: 10},
		{OrderID: "2", CustomerID: "C2", Status: "COMPLETE", Region: "Caribbean", Category: "Golf", Market: "LATAM", Country: "Cuba", ItemTotal: 50, ProfitPerOrder: 5},
		{OrderID: "3", CustomerID: "C3", Status: "CANCELED", Region: "Caribbean", Category: "Golf", Market: "LATAM", Country: "Cuba", ItemTotal: 70},
		{OrderID: "4", CustomerID: "C4", Status: "SUSPECTED_FRAUD", Region: "Caribbean", Category: "Fitness", Market: "LATAM", Country: "Cuba", Product: "Smart watch"},
	}
}

func TestAnalyticsSnapshot(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testTable())

	snap := a.Snapshot(models.All())
	if snap.Report.TotalOrders != 4 {
		t.Errorf("TotalOrders = %d, want 4", snap.Report.TotalOrders)
	}
	if snap.Report.CompletedOrders != 2 {
		t.Errorf("CompletedOrders = %d, want 2", snap.Report.CompletedOrders)
	}
	if snap.Rows != 4 {
		t.Errorf("Rows = %d, want 4", snap.Rows)
	}
	if len(snap.FraudByRegion) != 1 || snap.FraudByRegion[0].Label != "Caribbean" {
		t.Errorf("FraudByRegion = %+v, want Caribbean only", snap.FraudByRegion)
	}
}

func TestAnalyticsSnapshotWithSelection(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testTable())

	snap := a.Snapshot(models.Selection{Regions: []string{"Caribbean"}})
	if snap.Rows != 3 {
		t.Errorf("Rows = %d, want 3", snap.Rows)
	}
	if snap.Report.CompletedOrders != 1 {
		t.Errorf("CompletedOrders = %d, want 1", snap.Report.CompletedOrders)
	}

	empty := a.Snapshot(models.Selection{Regions: []string{}})
	if empty.Rows != 0 || empty.Report.TotalRevenue != 0 {
		t.Errorf("empty selection produced rows=%d revenue=%v, want zeros", empty.Rows, empty.Report.TotalRevenue)
	}
}

func TestAnalyticsOptions(t *testing.T) {
	a := NewAnalytics(nil)
	table := testTable()
	table = append(table, models.OrderRecord{OrderID: "5", Status: "COMPLETE"}) // blank axes dropped
	a.SetData(table)

	opts := a.Options()
	if !slices.Equal(opts.Regions, []string{"Caribbean", "Western Europe"}) {
		t.Errorf("Regions = %v", opts.Regions)
	}
	if !slices.Equal(opts.Categories, []string{"Fitness", "Golf"}) {
		t.Errorf("Categories = %v", opts.Categories)
	}
	if !slices.Equal(opts.Markets, []string{"Europe", "LATAM"}) {
		t.Errorf("Markets = %v", opts.Markets)
	}
}

func TestAnalyticsEmpty(t *testing.T) {
	a := NewAnalytics(nil)

	snap := a.Snapshot(models.All())
	if snap.Rows != 0 || snap.Report.TotalOrders != 0 {
		t.Errorf("fresh service should report zeros, got %+v", snap.Report)
	}

	opts := a.Options()
	if len(opts.Regions)+len(opts.Categories)+len(opts.Markets) != 0 {
		t.Errorf("fresh service should have no filter options, got %+v", opts)
	}
}

func TestAnalyticsConcurrentReads(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testTable())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap := a.Snapshot(models.All())
			if snap.Report.TotalOrders != 4 {
				t.Errorf("TotalOrders = %d under concurrency, want 4", snap.Report.TotalOrders)
			}
		}()
	}
	wg.Wait()
}

func TestAnalyticsStats(t *testing.T) {
	a := NewAnalytics(nil)
	a.SetData(testTable())

	stats := a.Stats()
	if stats["rows"] != 4 {
		t.Errorf("rows = %v, want 4", stats["rows"])
	}
}
