package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"

	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/services"
)

func newTestHandlers() *APIHandlers {
	analytics := services.NewAnalytics(slog.Default())
	analytics.SetData([]models.OrderRecord{
		{OrderID: "1", CustomerID: "C1", Status: "COMPLETE", Region: "Western Europe", Category: "Fitness", Market: "Europe", Country: "France", ItemTotal: 100, ProfitPerOrder: 10},
		{OrderID: "2", CustomerID: "C2", Status: "COMPLETE", Region: "Caribbean", Category: "Golf", Market: "LATAM", Country: "Cuba", ItemTotal: 50, ProfitPerOrder: 5},
		{OrderID: "3", CustomerID: "C3", Status: "CANCELED", Region: "Caribbean", Category: "Golf", Market: "LATAM", Country: "Cuba", ItemTotal: 70},
	})
	return NewAPIHandlers(analytics, slog.Default())
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type = %q", ct)
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.Success {
		t.Fatal("success = false, want true")
	}
	return env
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"absent parameter is nil", "", nil},
		{"present empty parameter is non-nil empty", "regions=", []string{}},
		{"comma separated values", "regions=Caribbean,Oceania", []string{"Caribbean", "Oceania"}},
		{"repeated parameter", "regions=Caribbean&regions=Oceania", []string{"Caribbean", "Oceania"}},
		{"blank entries dropped", "regions=Caribbean,,%20", []string{"Caribbean"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got := ParseSelection(values).Regions
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("nil-ness mismatch: got %#v, want %#v", got, tt.want)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Regions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleReport(t *testing.T) {
	h := newTestHandlers()

	rec := httptest.NewRecorder()
	h.HandleReport(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	env := decodeEnvelope(t, rec)
	var rep models.MetricReport
	if err := json.Unmarshal(env.Data, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.TotalOrders != 3 || rep.CompletedOrders != 2 {
		t.Errorf("orders = %d/%d, want 3/2", rep.TotalOrders, rep.CompletedOrders)
	}
	if rec.Header().Get("Cache-Control") != "public, max-age=300" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}

func TestHandleReport_Filtered(t *testing.T) {
	h := newTestHandlers()

	rec := httptest.NewRecorder()
	h.HandleReport(rec, httptest.NewRequest(http.MethodGet, "/api/report?regions=Caribbean", nil))

	var rep models.MetricReport
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.TotalOrders != 2 || rep.CompletedOrders != 1 {
		t.Errorf("orders = %d/%d, want 2/1", rep.TotalOrders, rep.CompletedOrders)
	}
}

func TestHandleReport_ExplicitEmptySelection(t *testing.T) {
	h := newTestHandlers()

	rec := httptest.NewRecorder()
	h.HandleReport(rec, httptest.NewRequest(http.MethodGet, "/api/report?regions=", nil))

	var rep models.MetricReport
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.TotalOrders != 0 || rep.TotalRevenue != 0 {
		t.Errorf("empty selection must zero out, got %d orders revenue %v", rep.TotalOrders, rep.TotalRevenue)
	}
}

func TestHandleCategories(t *testing.T) {
	h := newTestHandlers()

	rec := httptest.NewRecorder()
	h.HandleCategories(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	var data struct {
		Revenue []models.CategoryTotal `json:"revenue"`
		Profit  []models.CategoryTotal `json:"profit"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Revenue) != 2 || data.Revenue[0].Category != "Fitness" {
		t.Errorf("revenue table = %+v, want Fitness first", data.Revenue)
	}
}

func TestHandleCountries(t *testing.T) {
	h := newTestHandlers()

	rec := httptest.NewRecorder()
	h.HandleCountries(rec, httptest.NewRequest(http.MethodGet, "/api/countries", nil))

	var data struct {
		Countries []models.CountryStat `json:"countries"`
		Map       []models.CountryStat `json:"map"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Countries) != 2 {
		t.Errorf("countries = %+v, want 2 rows", data.Countries)
	}
	for _, cs := range data.Map {
		if cs.Canonical == "" {
			t.Errorf("map row %q missing canonical name", cs.Country)
		}
	}
}

func TestHandleFilters(t *testing.T) {
	h := newTestHandlers()

	rec := httptest.NewRecorder()
	h.HandleFilters(rec, httptest.NewRequest(http.MethodGet, "/api/filters", nil))

	var opts models.FilterOptions
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &opts); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(opts.Regions, []string{"Caribbean", "Western Europe"}) {
		t.Errorf("Regions = %v", opts.Regions)
	}
}

func TestHandleExport(t *testing.T) {
	h := newTestHandlers()

	rec := httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/api/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	// xlsx files are zip archives
	if body := rec.Body.Bytes(); len(body) < 4 || body[0] != 'P' || body[1] != 'K' {
		t.Error("export body is not a zip archive")
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestHandlers()

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var data map[string]string
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["status"] != "healthy" {
		t.Errorf("status = %q", data["status"])
	}
}

func TestHandleStats(t *testing.T) {
	h := newTestHandlers()

	rec := httptest.NewRecorder()
	h.HandleStats(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var data map[string]any
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["rows"] != float64(3) {
		t.Errorf("rows = %v, want 3", data["rows"])
	}
}
