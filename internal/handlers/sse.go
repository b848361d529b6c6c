package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"dataco-dashboard/internal/services"
)

var summaryCardsTemplate = template.Must(template.New("summaryCards").Parse(`
<div id="summary-cards">
<div class="card-grid">
{{range .Cards}}<div class="metric-card">
<div class="metric-label">{{.Label}}</div>
<div class="metric-value">{{.Value}}</div>
{{if .Subtext}}<div class="metric-subtext">{{.Subtext}}</div>{{end}}
</div>
{{end}}</div>
</div>`))

type summaryCard struct {
	Label   string
	Value   string
	Subtext string
}

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

func percent(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }
func money(v float64) string   { return fmt.Sprintf("$%.2f", v) }

func summaryCards(s *services.Snapshot) []summaryCard {
	r := s.Report
	return []summaryCard{
		{Label: "Total Orders", Value: fmt.Sprintf("%d", r.TotalOrders)},
		{Label: "Completed Orders", Value: fmt.Sprintf("%d", r.CompletedOrders)},
		{Label: "Unique Customers", Value: fmt.Sprintf("%d", r.UniqueCustomers)},
		{Label: "Repeat Purchase Rate", Value: percent(r.RepeatPurchaseRate)},
		{Label: "Total Revenue", Value: money(r.TotalRevenue)},
		{Label: "Total Profit", Value: money(r.TotalProfit)},
		{Label: "Profit Margin", Value: percent(r.ProfitMargin)},
		{Label: "Average Order Value", Value: money(r.AvgOrderValue)},
		{Label: "Churn Rate (240-day)", Value: percent(r.ChurnRate)},
		{Label: "Customer Lifespan", Value: fmt.Sprintf("%.1f days", r.AvgLifespanDays),
			Subtext: fmt.Sprintf("~%.1f months", r.AvgLifespanDays/30)},
		{Label: "Lifetime Value", Value: fmt.Sprintf("%.2f", r.LTV)},
		{Label: "Avg Shipping Delay", Value: fmt.Sprintf("%.2f days", r.AvgShippingDelay)},
		{Label: "Late Delivery Rate", Value: percent(r.LateDeliveryRate)},
		{Label: "SLA Compliance", Value: percent(r.SLAComplianceRate)},
	}
}

func (h *SSEHandlers) renderSummaryCards(s *services.Snapshot) (string, error) {
	var buf strings.Builder
	err := summaryCardsTemplate.Execute(&buf, struct{ Cards []summaryCard }{summaryCards(s)})
	return buf.String(), err
}

// HandleReport recomputes the snapshot for the requested filter selection
// and patches the summary cards plus the chart signals.
func (h *SSEHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	snap := h.analytics.Snapshot(ParseSelection(r.URL.Query()))

	html, err := h.renderSummaryCards(snap)
	if err != nil {
		h.logger.Error("render summary cards", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{
		"categoryRevenue": snap.RevenueByCategory,
		"categoryProfit":  snap.ProfitByCategory,
		"monthlyShipped":  snap.MonthlyShipped,
		"yearly":          snap.Yearly,
	})
	if err != nil {
		h.logger.Error("marshal report signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll pushes every dashboard fragment and signal in one stream.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	snap := h.analytics.Snapshot(ParseSelection(r.URL.Query()))

	html, err := h.renderSummaryCards(snap)
	if err != nil {
		h.logger.Error("render summary cards", "error", err)
		return
	}
	sse.PatchElements(html)

	signals, err := json.Marshal(map[string]any{
		"categoryRevenue": snap.RevenueByCategory,
		"categoryProfit":  snap.ProfitByCategory,
		"monthlyShipped":  snap.MonthlyShipped,
		"yearly":          snap.Yearly,
		"topCustomers":    snap.TopCustomers,
		"fraudByRegion":   snap.FraudByRegion,
		"fraudProducts":   snap.FraudProducts,
		"shippingModes":   snap.ShippingModes,
	})
	if err != nil {
		h.logger.Error("marshal refresh signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
