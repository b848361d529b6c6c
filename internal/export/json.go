package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dataco-dashboard/internal/services"
)

// SaveJSON writes the snapshot as indented JSON, creating parent directories.
func SaveJSON(s *services.Snapshot, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create report folder: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// TimestampedFilename builds an output path like dir/name_20240131_153000.ext.
func TimestampedFilename(baseDir, name, ext string) string {
	t := time.Now().Format("20060102_150405")
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, t, ext))
}
