package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"proposaland/internal/domain"
	"proposaland/internal/ports"
	"proposaland/internal/scoring"
)

const datePlaceholder = "{date}"

// FileExporter writes the daily batch as JSON and CSV files.
type FileExporter struct {
	dir      string
	jsonName string
	csvName  string
	now      func() time.Time
}

var _ ports.ReportExporter = (*FileExporter)(nil)

// NewFileExporter configures the output directory and filename templates.
// An empty template disables that format.
func NewFileExporter(dir, jsonName, csvName string) *FileExporter {
	return &FileExporter{dir: dir, jsonName: jsonName, csvName: csvName, now: time.Now}
}

type document struct {
	GeneratedAt   time.Time                  `json:"generated_at"`
	Date          string                     `json:"date"`
	Report        scoring.Report             `json:"report"`
	Opportunities []domain.ScoredOpportunity `json:"opportunities"`
}

// Export writes the enabled formats and returns the created paths.
func (e *FileExporter) Export(ctx context.Context, day time.Time, scored []domain.ScoredOpportunity, report scoring.Report) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.jsonName == "" && e.csvName == "" {
		return nil, nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	date := day.Format("2006-01-02")

	if e.jsonName != "" {
		path := filepath.Join(e.dir, Filename(e.jsonName, day))
		doc := document{GeneratedAt: e.now().UTC(), Date: date, Report: report, Opportunities: scored}
		raw, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("encode json report: %w", err)
		}
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return paths, fmt.Errorf("write json report: %w", err)
		}
		paths = append(paths, path)
	}

	if e.csvName != "" {
		path := filepath.Join(e.dir, Filename(e.csvName, day))
		if err := os.WriteFile(path, []byte(CSV(scored)+"\n"), 0o644); err != nil {
			return paths, fmt.Errorf("write csv report: %w", err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// Filename substitutes the {date} placeholder.
func Filename(template string, day time.Time) string {
	return strings.ReplaceAll(template, datePlaceholder, day.Format("2006-01-02"))
}
