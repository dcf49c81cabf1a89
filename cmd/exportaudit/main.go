package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/navodyayashodani/oilgrade/internal/audit"
	"github.com/navodyayashodani/oilgrade/internal/common"
	"github.com/navodyayashodani/oilgrade/internal/export"
)

// exportaudit writes the prediction audit log to an XLSX workbook for
// manual review of positional trace assignments.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	var (
		out      = flag.String("out", "audit.xlsx", "output workbook path")
		fromFlag = flag.String("from", "", "start date (2006-01-02), inclusive")
		toFlag   = flag.String("to", "", "end date (2006-01-02), inclusive")
	)
	flag.Parse()

	cfg := common.LoadConfig()
	if cfg.Audit.DBPath == "" {
		logger.Error("AUDIT_DB_PATH required")
		os.Exit(1)
	}

	var from, to *time.Time
	if *fromFlag != "" {
		t, err := time.Parse("2006-01-02", *fromFlag)
		if err != nil {
			logger.Error("invalid -from date", "value", *fromFlag, "error", err)
			os.Exit(2)
		}
		from = &t
	}
	if *toFlag != "" {
		t, err := time.Parse("2006-01-02", *toFlag)
		if err != nil {
			logger.Error("invalid -to date", "value", *toFlag, "error", err)
			os.Exit(2)
		}
		to = &t
	}

	audits, err := audit.Open(cfg.Audit.DBPath, logger)
	if err != nil {
		logger.Error("open audit store", "path", cfg.Audit.DBPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := audits.Close(); cerr != nil {
			logger.Error("close audit store", "error", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	data, err := export.NewService(audits, logger).ExportAuditXLSX(ctx, from, to)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("write workbook", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("workbook written", "path", *out, "bytes", len(data))
}
