// Package ui renders the dashboard shell. Data arrives through the SSE
// endpoints after load; this page only lays out the tabs, the sidebar
// filters and the patch targets.
package ui

import (
	"html/template"
	"io"

	"dataco-dashboard/internal/models"
)

type PageData struct {
	Title   string
	Filters models.FilterOptions
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@latest/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; display: flex; }
aside { width: 240px; padding: 1rem; border-right: 1px solid #ddd; min-height: 100vh; }
main { flex: 1; padding: 1rem; }
.card-grid { display: grid; grid-template-columns: repeat(4, 1fr); gap: 1rem; }
.metric-card { border: 1px solid #e2e2e2; border-radius: 8px; padding: 1rem; }
.metric-label { color: #666; font-size: 0.8rem; }
.metric-value { font-size: 1.4rem; font-weight: 600; }
.metric-subtext { color: #999; font-size: 0.75rem; }
.tab-nav button { margin-right: 0.5rem; }
fieldset { border: none; padding: 0; margin: 0 0 1rem 0; }
</style>
</head>
<body data-signals="{regions: [], categories: [], markets: []}">
<aside>
<h3>Filters</h3>
<form data-on-change="@get('/sse/report?regions='+$regions.join(',')+'&categories='+$categories.join(',')+'&markets='+$markets.join(','))">
<fieldset>
<legend>Order Region</legend>
{{range .Filters.Regions}}<label><input type="checkbox" name="regions" value="{{.}}" checked> {{.}}</label><br>
{{end}}</fieldset>
<fieldset>
<legend>Category Name</legend>
{{range .Filters.Categories}}<label><input type="checkbox" name="categories" value="{{.}}" checked> {{.}}</label><br>
{{end}}</fieldset>
<fieldset>
<legend>Market</legend>
{{range .Filters.Markets}}<label><input type="checkbox" name="markets" value="{{.}}" checked> {{.}}</label><br>
{{end}}</fieldset>
</form>
<a href="/api/export">Download XLSX report</a>
</aside>
<main data-on-load="@get('/sse/refresh-all')">
<h1>{{.Title}}</h1>
<nav class="tab-nav">
<button>Overview</button><button>Customers</button><button>Financials</button>
<button>Logistics</button><button>Risk &amp; Fraud</button>
</nav>
<section id="summary-cards"><p>Loading metrics…</p></section>
<section id="category-charts" data-text="JSON.stringify($categoryRevenue ?? [])"></section>
<section id="monthly-chart" data-text="JSON.stringify($monthlyShipped ?? [])"></section>
<section id="fraud-tables" data-text="JSON.stringify($fraudByRegion ?? [])"></section>
</main>
</body>
</html>`))

// Render writes the dashboard shell.
func Render(w io.Writer, data PageData) error {
	if data.Title == "" {
		data.Title = "DataCo Dashboard"
	}
	return pageTemplate.Execute(w, data)
}
