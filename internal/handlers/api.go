package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dataco-dashboard/internal/errors"
	"dataco-dashboard/internal/export"
	"dataco-dashboard/internal/geo"
	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/observability"
	"dataco-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

var cacheHeaders = map[string]string{"Cache-Control": cacheControl}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// ParseSelection reads the three filter parameters. An absent parameter
// means "all observed values" (nil); a present but empty one is an explicit
// empty selection and yields an empty table.
func ParseSelection(values url.Values) models.Selection {
	return models.Selection{
		Regions:    parseList(values, "regions"),
		Categories: parseList(values, "categories"),
		Markets:    parseList(values, "markets"),
	}
}

func parseList(values url.Values, key string) []string {
	if !values.Has(key) {
		return nil
	}
	out := []string{}
	for _, raw := range values[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func (h *APIHandlers) snapshot(r *http.Request) *services.Snapshot {
	return h.analytics.Snapshot(ParseSelection(r.URL.Query()))
}

func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.snapshot(r).Report, cacheHeaders)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"revenue": snap.RevenueByCategory,
		"profit":  snap.ProfitByCategory,
	}, cacheHeaders)
}

func (h *APIHandlers) HandleCountries(w http.ResponseWriter, r *http.Request) {
	stats := h.snapshot(r).CountryStats
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"countries": stats,
		"map":       geo.MapReady(stats),
	}, cacheHeaders)
}

func (h *APIHandlers) HandleYearly(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.snapshot(r).Yearly, cacheHeaders)
}

func (h *APIHandlers) HandleMonthlyShipped(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.snapshot(r).MonthlyShipped, cacheHeaders)
}

func (h *APIHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.snapshot(r).TopCustomers, cacheHeaders)
}

func (h *APIHandlers) HandleFraud(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"by_region": snap.FraudByRegion,
		"products":  snap.FraudProducts,
	}, cacheHeaders)
}

func (h *APIHandlers) HandleShippingModes(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.snapshot(r).ShippingModes, cacheHeaders)
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Options(), cacheHeaders)
}

func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)

	filename := fmt.Sprintf("dataco_report_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteXLSX(snap, w); err != nil {
		h.logger.Error("xlsx export failed", "error", err,
			"request_id", observability.GetRequestID(r.Context()))
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
