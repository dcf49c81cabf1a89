// Package export produces XLSX workbooks from the prediction audit log so
// the positional trace assignments can be reviewed outside the service.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/navodyayashodani/oilgrade/internal/audit"
)

// Service is a tiny façade over the audit store that produces XLSX bytes.
type Service struct {
	audits *audit.Store
	logger *slog.Logger
}

func NewService(audits *audit.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{audits: audits, logger: logger}
}

// ExportAuditXLSX returns an XLSX workbook (as bytes) of audit records in
// the given date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> every record.
func (s *Service) ExportAuditXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.audits.List(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Predictions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Graded At",
		"Source File",
		"Format",
		"Method",
		"Page",
		"Decision Path",
		"Grade",
		"Score",
		"Confidence",
		"OCR Confidence",
		"Trace Candidates",
		"Padded Slots",
		"Failure",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		write(2, r.SourcePath)
		write(3, r.Format)
		write(4, r.Method)
		write(5, r.Page)
		write(6, r.DecisionPath)
		write(7, r.Grade)
		write(8, r.Score)
		write(9, r.Confidence)
		write(10, float64(r.OCRConfidence))
		write(11, joinFloats(r.Traces))
		write(12, strings.Join(r.PaddedSlots, ", "))
		write(13, truncate(r.Failure, 140))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 20) // timestamp
	_ = f.SetColWidth(sheet, "B", "B", 60) // path
	_ = f.SetColWidth(sheet, "K", "L", 36) // traces, padded slots
	_ = f.SetColWidth(sheet, "M", "M", 48) // failure

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func joinFloats(vals []float64) string {
	if len(vals) == 0 {
		return ""
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), "[]")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
