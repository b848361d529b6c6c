package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"dataco-dashboard/internal/models"
)

const (
	batchSize  = 5000
	maxWorkers = 8
)

// Source columns. The file is header-addressed, so column order does not
// matter. PII and blob columns (email, password, description, image) are
// simply never read; their absence is not an error either.
const (
	colOrderID       = "Order Id"
	colCustomerID    = "Customer Id"
	colFirstName     = "Customer Fname"
	colLastName      = "Customer Lname"
	colOrderDate     = "order date (DateOrders)"
	colShipDate      = "shipping date (DateOrders)"
	colActualDays    = "Days for shipping (real)"
	colScheduledDays = "Days for shipment (scheduled)"
	colStatus        = "Order Status"
	colRegion        = "Order Region"
	colCountry       = "Order Country"
	colMarket        = "Market"
	colCategory      = "Category Name"
	colProduct       = "Product Name"
	colItemTotal     = "Order Item Total"
	colItemDiscount  = "Order Item Discount"
	colProfit        = "Order Profit Per Order"
	colQuantity      = "Order Item Quantity"
	colLateRisk      = "Late_delivery_risk"
	colShippingMode  = "Shipping Mode"
	colDeliveryState = "Delivery Status"
)

var requiredColumns = []string{
	colOrderID, colCustomerID, colOrderDate, colShipDate,
	colActualDays, colScheduledDays, colStatus, colRegion, colCountry,
	colMarket, colCategory, colProduct, colItemTotal, colItemDiscount,
	colProfit, colQuantity, colLateRisk, colShippingMode,
}

// retainedColumns are every column that survives cleaning. Deduplication is
// defined over these and nothing else: two rows that differ only in a dropped
// column are the same row.
var retainedColumns = append([]string{
	colFirstName, colLastName, colDeliveryState,
}, requiredColumns...)

var dateLayouts = []string{
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006",
}

// Loader reads and cleans the order table. Results are memoized per source
// path for the process lifetime, so repeated loads of the same file never
// touch the disk again.
type Loader struct {
	mu     sync.Mutex
	tables map[string][]models.OrderRecord
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		tables: make(map[string][]models.OrderRecord),
		logger: logger,
	}
}

// Load returns the cleaned table for path, reading the file at most once per
// process.
func (l *Loader) Load(ctx context.Context, path, encoding string) ([]models.OrderRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if table, ok := l.tables[path]; ok {
		l.logger.Debug("dataset served from memory", "path", path, "rows", len(table))
		return table, nil
	}

	start := time.Now()
	table, err := ReadCSV(ctx, path, encoding)
	if err != nil {
		return nil, err
	}

	l.tables[path] = table
	l.logger.Info("dataset loaded",
		"path", path,
		"rows", len(table),
		"duration", time.Since(start))
	return table, nil
}

// ReadCSV reads, decodes and cleans the order table in one pass: rows that
// duplicate an earlier row across the retained columns are removed (ignored
// columns do not count), the two date columns are parsed leniently
// (unparseable values become invalid Dates, never an error), CustomerName is
// derived from the name parts and ShippingDelay from the day columns.
func ReadCSV(ctx context.Context, path, encoding string) ([]models.OrderRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	reader, err := decodeReader(file, encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var (
		table   []models.OrderRecord
		seen    = make(map[string]struct{})
		batch   = make([][]string, 0, batchSize)
		skipped int
	)

	keyCols := make([]int, 0, len(retainedColumns))
	for _, name := range retainedColumns {
		if idx, ok := cols[name]; ok {
			keyCols = append(keyCols, idx)
		}
	}

	recordKey := func(record []string) string {
		parts := make([]string, len(keyCols))
		for i, idx := range keyCols {
			if idx < len(record) {
				parts[i] = record[idx]
			}
		}
		return strings.Join(parts, "\x1f")
	}

	flush := func() error {
		records, bad, err := convertBatch(ctx, batch, cols)
		if err != nil {
			return err
		}
		table = append(table, records...)
		skipped += bad
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		// Exact-duplicate rows are dropped on the retained columns, before
		// any derivation. PII and blob columns never reach the key, so a
		// difference there cannot keep a row alive.
		key := recordKey(record)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("no valid records in %s", path)
	}
	if skipped > 0 {
		slog.Warn("skipped malformed rows", "path", path, "rows", skipped)
	}
	return table, nil
}

// convertBatch turns raw records into OrderRecords on a bounded worker pool.
// Rows whose numeric fields do not parse are dropped and counted; row order
// within the batch is preserved.
func convertBatch(ctx context.Context, batch [][]string, cols map[string]int) ([]models.OrderRecord, int, error) {
	results := make([]*models.OrderRecord, len(batch))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for i, record := range batch {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			rec, err := convertRecord(record, cols)
			if err != nil {
				return nil // malformed row, counted below
			}
			results[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	records := make([]models.OrderRecord, 0, len(batch))
	skipped := 0
	for _, r := range results {
		if r == nil {
			skipped++
			continue
		}
		records = append(records, *r)
	}
	return records, skipped, nil
}

func convertRecord(record []string, cols map[string]int) (models.OrderRecord, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	actualDays, err := parseInt(field(colActualDays))
	if err != nil {
		return models.OrderRecord{}, fmt.Errorf("%s: %w", colActualDays, err)
	}
	scheduledDays, err := parseInt(field(colScheduledDays))
	if err != nil {
		return models.OrderRecord{}, fmt.Errorf("%s: %w", colScheduledDays, err)
	}
	itemTotal, err := strconv.ParseFloat(field(colItemTotal), 64)
	if err != nil {
		return models.OrderRecord{}, fmt.Errorf("%s: %w", colItemTotal, err)
	}
	itemDiscount, err := strconv.ParseFloat(field(colItemDiscount), 64)
	if err != nil {
		return models.OrderRecord{}, fmt.Errorf("%s: %w", colItemDiscount, err)
	}
	profit, err := strconv.ParseFloat(field(colProfit), 64)
	if err != nil {
		return models.OrderRecord{}, fmt.Errorf("%s: %w", colProfit, err)
	}
	quantity, err := parseInt(field(colQuantity))
	if err != nil {
		return models.OrderRecord{}, fmt.Errorf("%s: %w", colQuantity, err)
	}

	lateRisk, _ := parseInt(field(colLateRisk))

	// Missing name parts become empty strings rather than failing.
	name := strings.TrimSpace(field(colFirstName) + " " + field(colLastName))

	return models.OrderRecord{
		OrderID:        field(colOrderID),
		CustomerID:     field(colCustomerID),
		CustomerName:   name,
		OrderDate:      parseDate(field(colOrderDate)),
		ShipDate:       parseDate(field(colShipDate)),
		ScheduledDays:  scheduledDays,
		ActualDays:     actualDays,
		ShippingDelay:  actualDays - scheduledDays,
		Status:         field(colStatus),
		Region:         field(colRegion),
		Country:        field(colCountry),
		Market:         field(colMarket),
		Category:       field(colCategory),
		Product:        field(colProduct),
		ItemTotal:      itemTotal,
		ItemDiscount:   itemDiscount,
		ProfitPerOrder: profit,
		Quantity:       quantity,
		LateDelivery:   lateRisk != 0,
		ShippingMode:   field(colShippingMode),
		DeliveryStatus: field(colDeliveryState),
	}, nil
}

// parseDate is deliberately lossy: a value matching none of the known
// layouts yields an invalid Date instead of an error.
func parseDate(value string) models.Date {
	if value == "" {
		return models.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return models.NewDate(t)
		}
	}
	return models.Date{}
}

func parseInt(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("dataset missing required column %q", name)
		}
	}
	return cols, nil
}

func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "latin-1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}
