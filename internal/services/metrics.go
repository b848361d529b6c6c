package services

import (
	"slices"
	"strings"
	"time"

	"dataco-dashboard/internal/models"
)

// churnWindowDays is the retention window: a customer whose last completed
// purchase is older than this, relative to the newest completed purchase in
// the dataset, counts as churned.
const churnWindowDays = 240

// Filter returns the rows whose region, category and market all fall in the
// respective selections. A nil selection keeps every observed value; an
// explicit empty selection keeps nothing.
func Filter(table []models.OrderRecord, sel models.Selection) []models.OrderRecord {
	regions := toSet(sel.Regions)
	categories := toSet(sel.Categories)
	markets := toSet(sel.Markets)

	out := make([]models.OrderRecord, 0, len(table))
	for _, r := range table {
		if !allowed(r.Region, regions) || !allowed(r.Category, categories) || !allowed(r.Market, markets) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if values == nil {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func allowed(value string, set map[string]struct{}) bool {
	if set == nil {
		return true
	}
	_, ok := set[value]
	return ok
}

// StatusSubset returns the rows whose status belongs to the given group.
func StatusSubset(table []models.OrderRecord, group models.StatusGroup) []models.OrderRecord {
	out := make([]models.OrderRecord, 0, len(table))
	for _, r := range table {
		if models.ClassifyStatus(r.Status) == group {
			out = append(out, r)
		}
	}
	return out
}

// ComputeReport derives the full metric record from a filtered table and its
// completed subset. Pure: no I/O, no stored state. Every division whose
// denominator can be zero under an empty filter selection is guarded and
// reports 0.
func ComputeReport(filtered, completed []models.OrderRecord) models.MetricReport {
	var rep models.MetricReport

	rep.TotalOrders = distinctOrders(filtered)
	rep.CompletedOrders = distinctOrders(completed)
	rep.CancelledOrders = distinctOrders(StatusSubset(filtered, models.GroupCancelled))
	rep.PendingOrders = distinctOrders(StatusSubset(filtered, models.GroupPending))
	rep.FraudOrders = distinctOrders(StatusSubset(filtered, models.GroupFraud))
	rep.UniqueCustomers = distinctCustomers(completed)

	for _, r := range completed {
		rep.TotalRevenue += r.ItemTotal
		rep.TotalProfit += r.ProfitPerOrder
	}
	rep.ProfitMargin = safeDiv(rep.TotalProfit, rep.TotalRevenue)

	orderCounts := ordersPerCustomer(completed)
	firstTime := 0
	for _, n := range orderCounts {
		switch {
		case n > 5:
			rep.RegularCustomers++
			fallthrough
		case n > 3:
			rep.RepeatCustomersOver3++
			fallthrough
		case n > 1:
			rep.RepeatCustomers++
		case n == 1:
			firstTime++
		}
	}
	customers := float64(rep.UniqueCustomers)
	rep.RepeatPurchaseRate = safeDiv(float64(rep.RepeatCustomers), customers)
	rep.FirstTimeBuyerRate = safeDiv(float64(firstTime), customers)

	rep.AvgSalesPerCustomer = safeDiv(float64(rep.CompletedOrders), customers)
	rep.AvgQtyPerOrder = meanInt(completed, func(r models.OrderRecord) int { return r.Quantity })
	rep.PaidCustomerRate = safeDiv(customers, float64(distinctCustomers(filtered)))
	rep.AvgOrderValue = safeDiv(rep.TotalRevenue, float64(rep.CompletedOrders))
	rep.AvgRevenuePerCustomer = safeDiv(rep.TotalRevenue, customers)

	rep.ChurnRate = churnRate(completed)
	rep.AvgLifespanDays = avgLifespan(completed)
	rep.LTV = rep.AvgRevenuePerCustomer * rep.AvgSalesPerCustomer * rep.AvgLifespanDays / 365
	rep.AvgGapDays = avgGapDays(completed)

	discounted := make(map[string]struct{})
	var discountSum float64
	for _, r := range completed {
		if r.ItemDiscount > 0 {
			discounted[r.OrderID] = struct{}{}
		}
		discountSum += r.ItemDiscount
	}
	rep.DiscountPenetrationRate = safeDiv(float64(len(discounted)), float64(rep.CompletedOrders))
	rep.AvgDiscountGiven = safeDiv(discountSum, float64(len(completed)))

	rep.AvgShippingDelay = meanInt(completed, func(r models.OrderRecord) int { return r.ShippingDelay })
	late := make(map[string]struct{})
	for _, r := range completed {
		if r.LateDelivery {
			late[r.OrderID] = struct{}{}
		}
	}
	rep.LateDeliveryRate = safeDiv(float64(len(late)), float64(rep.CompletedOrders))
	rep.SLAComplianceRate = 1 - rep.LateDeliveryRate

	total := float64(rep.TotalOrders)
	rep.CancelledRate = safeDiv(float64(rep.CancelledOrders), total)
	rep.PendingRate = safeDiv(float64(rep.PendingOrders), total)
	rep.FraudRate = safeDiv(float64(rep.FraudOrders), total)

	if byRev := RevenueByCategory(completed); len(byRev) > 0 && rep.TotalRevenue > 0 {
		rep.TopCategoryRevenueShare = byRev[0].Total / rep.TotalRevenue * 100
	}
	if byProfit := ProfitByCategory(completed); len(byProfit) > 0 && rep.TotalProfit > 0 {
		rep.TopCategoryProfitShare = byProfit[0].Total / rep.TotalProfit * 100
	}

	return rep
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func distinctOrders(rows []models.OrderRecord) int {
	ids := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		ids[r.OrderID] = struct{}{}
	}
	return len(ids)
}

func distinctCustomers(rows []models.OrderRecord) int {
	ids := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		ids[r.CustomerID] = struct{}{}
	}
	return len(ids)
}

func ordersPerCustomer(rows []models.OrderRecord) map[string]int {
	orders := make(map[string]map[string]struct{})
	for _, r := range rows {
		if orders[r.CustomerID] == nil {
			orders[r.CustomerID] = make(map[string]struct{})
		}
		orders[r.CustomerID][r.OrderID] = struct{}{}
	}
	counts := make(map[string]int, len(orders))
	for cust, ids := range orders {
		counts[cust] = len(ids)
	}
	return counts
}

func meanInt(rows []models.OrderRecord, value func(models.OrderRecord) int) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0
	for _, r := range rows {
		sum += value(r)
	}
	return float64(sum) / float64(len(rows))
}

// wholeDays truncates a duration to whole days, matching how the source
// metrics were defined on day-resolution timestamps.
func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}

// churnRate is the fraction of customers whose last completed purchase is
// more than churnWindowDays before the newest completed purchase overall. A
// customer with a single purchase measures against themselves (0 days).
// Customers with no parseable purchase date stay in the denominator as not
// churned.
func churnRate(completed []models.OrderRecord) float64 {
	lastPurchase := make(map[string]models.Date)
	var ref time.Time
	var refValid bool

	for _, r := range completed {
		if _, seen := lastPurchase[r.CustomerID]; !seen {
			lastPurchase[r.CustomerID] = models.Date{}
		}
		if !r.OrderDate.Valid {
			continue
		}
		if last := lastPurchase[r.CustomerID]; !last.Valid || r.OrderDate.Time.After(last.Time) {
			lastPurchase[r.CustomerID] = r.OrderDate
		}
		if !refValid || r.OrderDate.Time.After(ref) {
			ref = r.OrderDate.Time
			refValid = true
		}
	}

	if len(lastPurchase) == 0 {
		return 0
	}

	churned := 0
	for _, last := range lastPurchase {
		if last.Valid && refValid && wholeDays(ref.Sub(last.Time)) > churnWindowDays {
			churned++
		}
	}
	return float64(churned) / float64(len(lastPurchase))
}

// avgLifespan averages (last − first) purchase date in whole days across
// customers with at least one dated purchase. Single-order customers
// contribute 0.
func avgLifespan(completed []models.OrderRecord) float64 {
	type span struct {
		first, last time.Time
		valid       bool
	}
	spans := make(map[string]*span)
	for _, r := range completed {
		if !r.OrderDate.Valid {
			continue
		}
		s := spans[r.CustomerID]
		if s == nil {
			s = &span{first: r.OrderDate.Time, last: r.OrderDate.Time, valid: true}
			spans[r.CustomerID] = s
			continue
		}
		if r.OrderDate.Time.Before(s.first) {
			s.first = r.OrderDate.Time
		}
		if r.OrderDate.Time.After(s.last) {
			s.last = r.OrderDate.Time
		}
	}
	if len(spans) == 0 {
		return 0
	}
	sum := 0
	for _, s := range spans {
		sum += wholeDays(s.last.Sub(s.first))
	}
	return float64(sum) / float64(len(spans))
}

// avgGapDays averages, across customers with at least two dated purchases,
// the mean gap between consecutive purchases (sorted ascending, truncated to
// whole days). Customers with fewer than two dates are excluded from the
// average, not treated as 0.
func avgGapDays(completed []models.OrderRecord) float64 {
	dates := make(map[string][]time.Time)
	for _, r := range completed {
		if !r.OrderDate.Valid {
			continue
		}
		dates[r.CustomerID] = append(dates[r.CustomerID], r.OrderDate.Time)
	}

	sum := 0.0
	n := 0
	for _, ds := range dates {
		if len(ds) < 2 {
			continue
		}
		slices.SortFunc(ds, func(a, b time.Time) int { return a.Compare(b) })
		var total time.Duration
		for i := 1; i < len(ds); i++ {
			total += ds[i].Sub(ds[i-1])
		}
		mean := total / time.Duration(len(ds)-1)
		sum += float64(wholeDays(mean))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RevenueByCategory sums item totals per category over the completed subset,
// descending.
func RevenueByCategory(completed []models.OrderRecord) []models.CategoryTotal {
	return categoryTotals(completed, func(r models.OrderRecord) float64 { return r.ItemTotal })
}

// ProfitByCategory sums per-order profit per category over the completed
// subset, descending.
func ProfitByCategory(completed []models.OrderRecord) []models.CategoryTotal {
	return categoryTotals(completed, func(r models.OrderRecord) float64 { return r.ProfitPerOrder })
}

func categoryTotals(rows []models.OrderRecord, value func(models.OrderRecord) float64) []models.CategoryTotal {
	totals := make(map[string]float64)
	for _, r := range rows {
		totals[r.Category] += value(r)
	}
	out := make([]models.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, models.CategoryTotal{Category: category, Total: total})
	}
	slices.SortFunc(out, func(a, b models.CategoryTotal) int {
		if a.Total != b.Total {
			if a.Total > b.Total {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

// CountryStats aggregates per country over rows deduplicated by OrderID: the
// first line item stands in for the whole order, so Orders counts orders and
// Revenue sums only the representative line items.
func CountryStats(completed []models.OrderRecord) []models.CountryStat {
	seen := make(map[string]struct{}, len(completed))
	totals := make(map[string]*models.CountryStat)
	for _, r := range completed {
		if _, dup := seen[r.OrderID]; dup {
			continue
		}
		seen[r.OrderID] = struct{}{}

		cs := totals[r.Country]
		if cs == nil {
			cs = &models.CountryStat{Country: r.Country}
			totals[r.Country] = cs
		}
		cs.Orders++
		cs.Revenue += r.ItemTotal
	}
	out := make([]models.CountryStat, 0, len(totals))
	for _, cs := range totals {
		out = append(out, *cs)
	}
	slices.SortFunc(out, func(a, b models.CountryStat) int {
		if a.Revenue != b.Revenue {
			if a.Revenue > b.Revenue {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Country, b.Country)
	})
	return out
}

// YearlyStats sums revenue and profit per order year over the completed
// subset and derives year-over-year growth. Rows without a parseable order
// date are excluded; the first year carries no growth figure.
func YearlyStats(completed []models.OrderRecord) []models.YearlyFinancials {
	type agg struct{ revenue, profit float64 }
	years := make(map[int]*agg)
	for _, r := range completed {
		if !r.OrderDate.Valid {
			continue
		}
		y := r.OrderDate.Time.Year()
		if years[y] == nil {
			years[y] = &agg{}
		}
		years[y].revenue += r.ItemTotal
		years[y].profit += r.ProfitPerOrder
	}

	sorted := make([]int, 0, len(years))
	for y := range years {
		sorted = append(sorted, y)
	}
	slices.Sort(sorted)

	out := make([]models.YearlyFinancials, 0, len(sorted))
	for i, y := range sorted {
		yf := models.YearlyFinancials{Year: y, Revenue: years[y].revenue, Profit: years[y].profit}
		if i > 0 {
			prev := years[sorted[i-1]]
			if prev.revenue != 0 {
				yf.RevenueGrowth = (yf.Revenue - prev.revenue) / prev.revenue * 100
				yf.HasGrowth = true
			}
			if prev.profit != 0 {
				yf.ProfitGrowth = (yf.Profit - prev.profit) / prev.profit * 100
			}
		}
		out = append(out, yf)
	}
	return out
}

// MonthlyShippedOrders counts distinct orders per ship month over the whole
// filtered table. Rows without a parseable ship date are excluded. Months
// between the first and last ship month with no orders appear with a zero
// count so the trend line has no gaps.
func MonthlyShippedOrders(filtered []models.OrderRecord) []models.MonthlyOrders {
	seen := make(map[string]struct{}, len(filtered))
	months := make(map[string]int)
	var first, last time.Time
	found := false
	for _, r := range filtered {
		if !r.ShipDate.Valid {
			continue
		}
		if _, dup := seen[r.OrderID]; dup {
			continue
		}
		seen[r.OrderID] = struct{}{}

		m := time.Date(r.ShipDate.Time.Year(), r.ShipDate.Time.Month(), 1, 0, 0, 0, 0, time.UTC)
		months[m.Format("2006-01")]++
		if !found || m.Before(first) {
			first = m
		}
		if !found || m.After(last) {
			last = m
		}
		found = true
	}
	if !found {
		return nil
	}
	var out []models.MonthlyOrders
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		out = append(out, models.MonthlyOrders{Month: key, Orders: months[key]})
	}
	return out
}

// TopCustomers ranks customers by completed line-item sales, descending.
func TopCustomers(completed []models.OrderRecord, limit int) []models.CustomerSales {
	sales := make(map[string]*models.CustomerSales)
	for _, r := range completed {
		cs := sales[r.CustomerID]
		if cs == nil {
			cs = &models.CustomerSales{CustomerID: r.CustomerID, CustomerName: r.CustomerName}
			sales[r.CustomerID] = cs
		}
		cs.Sales += r.ItemTotal
	}
	out := make([]models.CustomerSales, 0, len(sales))
	for _, cs := range sales {
		out = append(out, *cs)
	}
	slices.SortFunc(out, func(a, b models.CustomerSales) int {
		if a.Sales != b.Sales {
			if a.Sales > b.Sales {
				return -1
			}
			return 1
		}
		return strings.Compare(a.CustomerID, b.CustomerID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FraudByRegion counts distinct suspected-fraud orders per region, descending.
func FraudByRegion(fraud []models.OrderRecord) []models.FraudCount {
	return fraudCounts(fraud, func(r models.OrderRecord) string { return r.Region }, 0)
}

// TopFraudProducts counts distinct suspected-fraud orders per product,
// descending, capped at limit.
func TopFraudProducts(fraud []models.OrderRecord, limit int) []models.FraudCount {
	return fraudCounts(fraud, func(r models.OrderRecord) string { return r.Product }, limit)
}

func fraudCounts(rows []models.OrderRecord, key func(models.OrderRecord) string, limit int) []models.FraudCount {
	orders := make(map[string]map[string]struct{})
	for _, r := range rows {
		k := key(r)
		if orders[k] == nil {
			orders[k] = make(map[string]struct{})
		}
		orders[k][r.OrderID] = struct{}{}
	}
	out := make([]models.FraudCount, 0, len(orders))
	for label, ids := range orders {
		out = append(out, models.FraudCount{Label: label, Orders: len(ids)})
	}
	slices.SortFunc(out, func(a, b models.FraudCount) int {
		if a.Orders != b.Orders {
			return b.Orders - a.Orders
		}
		return strings.Compare(a.Label, b.Label)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ShippingModeDelays aggregates delivery performance per shipping mode over
// the completed subset.
func ShippingModeDelays(completed []models.OrderRecord) []models.ShippingModeDelay {
	type agg struct {
		orders, late map[string]struct{}
		delaySum     int
		rows         int
	}
	modes := make(map[string]*agg)
	for _, r := range completed {
		m := modes[r.ShippingMode]
		if m == nil {
			m = &agg{orders: make(map[string]struct{}), late: make(map[string]struct{})}
			modes[r.ShippingMode] = m
		}
		m.orders[r.OrderID] = struct{}{}
		if r.LateDelivery {
			m.late[r.OrderID] = struct{}{}
		}
		m.delaySum += r.ShippingDelay
		m.rows++
	}
	out := make([]models.ShippingModeDelay, 0, len(modes))
	for mode, m := range modes {
		out = append(out, models.ShippingModeDelay{
			Mode:     mode,
			Orders:   len(m.orders),
			AvgDelay: safeDiv(float64(m.delaySum), float64(m.rows)),
			LateRate: safeDiv(float64(len(m.late)), float64(len(m.orders))),
		})
	}
	slices.SortFunc(out, func(a, b models.ShippingModeDelay) int {
		if a.Orders != b.Orders {
			return b.Orders - a.Orders
		}
		return strings.Compare(a.Mode, b.Mode)
	})
	return out
}
