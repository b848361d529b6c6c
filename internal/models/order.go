package models

import "time"

// Date is an order timestamp that may be missing. Unparseable values in the
// source file end up with Valid=false instead of a zero-time sentinel, so
// aggregations can tell "absent" apart from an actual epoch value.
type Date struct {
	Time  time.Time `json:"time"`
	Valid bool      `json:"valid"`
}

func NewDate(t time.Time) Date {
	return Date{Time: t, Valid: true}
}

// OrderRecord is one line item of an order. An OrderID may span several
// records; counts of "orders" must deduplicate by OrderID while revenue,
// profit and quantity sums run over every line item.
type OrderRecord struct {
	OrderID        string
	CustomerID     string
	CustomerName   string
	OrderDate      Date
	ShipDate       Date
	ScheduledDays  int
	ActualDays     int
	ShippingDelay  int
	Status         string
	Region         string
	Country        string
	Market         string
	Category       string
	Product        string
	ItemTotal      float64
	ItemDiscount   float64
	ProfitPerOrder float64
	Quantity       int
	LateDelivery   bool
	ShippingMode   string
	DeliveryStatus string
}

// StatusGroup is the fixed classification of order statuses. It is static
// configuration, not derived from data, and the groups never overlap.
type StatusGroup string

const (
	GroupCompleted StatusGroup = "completed"
	GroupCancelled StatusGroup = "cancelled"
	GroupFraud     StatusGroup = "fraud"
	GroupPending   StatusGroup = "pending"
	GroupOther     StatusGroup = "other"
)

var statusGroups = map[string]StatusGroup{
	"COMPLETE":         GroupCompleted,
	"CLOSED":           GroupCompleted,
	"PROCESSING":       GroupCompleted,
	"PAYMENT_RECEIVED": GroupCompleted,
	"FINISHED":         GroupCompleted,
	"CANCELED":         GroupCancelled,
	"SUSPECTED_FRAUD":  GroupFraud,
	"PENDING":          GroupPending,
	"PENDING_PAYMENT":  GroupPending,
	"ON_HOLD":          GroupPending,
	"PAYMENT_REVIEW":   GroupPending,
}

// ClassifyStatus returns the status group for an order status. Statuses
// outside the configured partition map to GroupOther.
func ClassifyStatus(status string) StatusGroup {
	if g, ok := statusGroups[status]; ok {
		return g
	}
	return GroupOther
}

// Selection holds the sidebar filter state. A nil slice means "all observed
// values"; a non-nil empty slice is an explicit empty selection and yields an
// empty table.
type Selection struct {
	Regions    []string
	Categories []string
	Markets    []string
}

// All is the selection that keeps every row.
func All() Selection {
	return Selection{}
}

// FilterOptions lists the distinct values the sidebar can offer.
type FilterOptions struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	Markets    []string `json:"markets"`
}

// MetricReport is the fixed record of named metrics derived from one filter
// selection. Every rate whose denominator can be zero reports 0 in that case
// so the dashboard stays renderable for empty selections.
type MetricReport struct {
	TotalOrders     int `json:"total_orders"`
	CompletedOrders int `json:"completed_orders"`
	CancelledOrders int `json:"cancelled_orders"`
	PendingOrders   int `json:"pending_orders"`
	FraudOrders     int `json:"fraud_orders"`

	UniqueCustomers int     `json:"unique_customers"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalProfit     float64 `json:"total_profit"`
	ProfitMargin    float64 `json:"profit_margin"`

	RepeatCustomers      int     `json:"repeat_customers"`
	RepeatCustomersOver3 int     `json:"repeat_customers_over_3"`
	RegularCustomers     int     `json:"regular_customers"`
	RepeatPurchaseRate   float64 `json:"repeat_purchase_rate"`
	FirstTimeBuyerRate   float64 `json:"first_time_buyer_rate"`

	AvgSalesPerCustomer   float64 `json:"avg_sales_per_customer"`
	AvgQtyPerOrder        float64 `json:"avg_qty_per_order"`
	PaidCustomerRate      float64 `json:"paid_customer_rate"`
	AvgOrderValue         float64 `json:"avg_order_value"`
	AvgRevenuePerCustomer float64 `json:"avg_revenue_per_customer"`

	ChurnRate       float64 `json:"churn_rate"`
	AvgLifespanDays float64 `json:"avg_lifespan_days"`
	LTV             float64 `json:"ltv"`
	AvgGapDays      float64 `json:"avg_gap_days"`

	DiscountPenetrationRate float64 `json:"discount_penetration_rate"`
	AvgDiscountGiven        float64 `json:"avg_discount_given"`

	AvgShippingDelay  float64 `json:"avg_shipping_delay"`
	LateDeliveryRate  float64 `json:"late_delivery_rate"`
	SLAComplianceRate float64 `json:"sla_compliance_rate"`

	CancelledRate float64 `json:"cancelled_rate"`
	PendingRate   float64 `json:"pending_rate"`
	FraudRate     float64 `json:"fraud_rate"`

	TopCategoryRevenueShare float64 `json:"top_category_revenue_contribution"`
	TopCategoryProfitShare  float64 `json:"top_category_profit_contribution"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// CountryStat is computed over rows deduplicated by OrderID: one line item
// represents each order, so Orders counts orders and Revenue sums only the
// representative line items.
type CountryStat struct {
	Country   string  `json:"country"`
	Canonical string  `json:"canonical,omitempty"`
	Orders    int     `json:"orders"`
	Revenue   float64 `json:"revenue"`
}

type YearlyFinancials struct {
	Year          int     `json:"year"`
	Revenue       float64 `json:"revenue"`
	Profit        float64 `json:"profit"`
	RevenueGrowth float64 `json:"yoy_revenue_growth"`
	ProfitGrowth  float64 `json:"yoy_profit_growth"`
	HasGrowth     bool    `json:"has_growth"`
}

type MonthlyOrders struct {
	Month  string `json:"month"`
	Orders int    `json:"orders"`
}

type CustomerSales struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Sales        float64 `json:"sales"`
}

type FraudCount struct {
	Label  string `json:"label"`
	Orders int    `json:"orders"`
}

type ShippingModeDelay struct {
	Mode     string  `json:"mode"`
	Orders   int     `json:"orders"`
	AvgDelay float64 `json:"avg_delay"`
	LateRate float64 `json:"late_rate"`
}
