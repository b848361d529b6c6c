// Command report computes the full metric snapshot for a filter selection
// and writes it to an XLSX workbook or a JSON file.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"dataco-dashboard/internal/config"
	"dataco-dashboard/internal/export"
	"dataco-dashboard/internal/models"
	"dataco-dashboard/internal/observability"
	"dataco-dashboard/internal/services"
)

func main() {
	format := flag.String("format", "xlsx", "Output format (xlsx or json)")
	output := flag.String("output", "reports/", "Output folder path")
	regions := flag.String("regions", "", "Comma-separated region filter (empty = all)")
	categories := flag.String("categories", "", "Comma-separated category filter (empty = all)")
	markets := flag.String("markets", "", "Comma-separated market filter (empty = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	start := time.Now()

	analytics := services.NewAnalytics(logger)
	if err := analytics.LoadFromCSV(context.Background(), cfg.Dataset.CSVFile, cfg.Dataset.Encoding); err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	snap := analytics.Snapshot(models.Selection{
		Regions:    splitFlag(*regions),
		Categories: splitFlag(*categories),
		Markets:    splitFlag(*markets),
	})

	var filename string
	switch *format {
	case "xlsx":
		filename = export.TimestampedFilename(*output, "dataco_report", "xlsx")
		err = export.SaveXLSX(snap, filename)
	case "json":
		filename = export.TimestampedFilename(*output, "dataco_report", "json")
		err = export.SaveJSON(snap, filename)
	default:
		logger.Error("unknown format", "format", *format)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}

	logger.Info("report completed",
		"file", filename,
		"rows", snap.Rows,
		"duration", time.Since(start))
}

// splitFlag keeps CLI semantics aligned with the HTTP API: an empty flag
// means "all observed values".
func splitFlag(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
