package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/navodyayashodani/oilgrade/internal/audit"
	"github.com/navodyayashodani/oilgrade/internal/common"
	"github.com/navodyayashodani/oilgrade/internal/grader"
	"github.com/navodyayashodani/oilgrade/internal/imgproc"
	"github.com/navodyayashodani/oilgrade/internal/ingest"
	"github.com/navodyayashodani/oilgrade/internal/metrics"
	"github.com/navodyayashodani/oilgrade/internal/model"
	"github.com/navodyayashodani/oilgrade/internal/ocr"
)

// graderd watches inbox directories for quality reports, grades each new
// file, and writes the prediction to <file>.grade.json beside it. Prometheus
// metrics are served on METRICS_ADDR.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if len(cfg.Watch.Roots) == 0 {
		logger.Error("WATCH_ROOTS required (comma-separated inbox directories)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var audits *audit.Store
	if cfg.Audit.DBPath != "" {
		var err error
		audits, err = audit.Open(cfg.Audit.DBPath, logger)
		if err != nil {
			logger.Error("open audit store", "path", cfg.Audit.DBPath, "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := audits.Close(); cerr != nil {
				logger.Error("close audit store", "error", cerr)
			}
		}()
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		Pdftoppm:            cfg.OCR.Pdftoppm,
		TesseractLang:       cfg.OCR.TesseractLang,
		TessdataDir:         cfg.OCR.TessdataDir,
		DPI:                 cfg.OCR.DPI,
		MaxPages:            cfg.OCR.MaxPages,
		EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
		HealthCheckTimeout:  cfg.OCR.HealthCheckTimeout,
	}, imgproc.NewCleaner(logger), logger)

	var qualityModel grader.QualityModel
	if mdl, err := model.Load(cfg.Model.Dir, logger); err != nil {
		logger.Warn("model unavailable, grading on rules only", "dir", cfg.Model.Dir, "error", err)
	} else {
		qualityModel = mdl
	}

	g := grader.New(grader.Config{}, extractor, qualityModel, audits, m, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}
	go func() {
		logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	events, werrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       cfg.Watch.Roots,
		InitialScan: cfg.Watch.InitialScan,
		Debounce:    cfg.Watch.Debounce,
	}, logger)
	if err != nil {
		logger.Error("start watcher", "error", err)
		os.Exit(1)
	}

	logger.Info("graderd started", "roots", cfg.Watch.Roots)
	for {
		select {
		case <-ctx.Done():
			logger.Info("graderd stopping")
			return
		case err, ok := <-werrs:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)
		case path, ok := <-events:
			if !ok {
				return
			}
			gradeOne(ctx, g, path, logger)
		}
	}
}

func gradeOne(ctx context.Context, g *grader.Grader, path string, logger *slog.Logger) {
	pred := g.PredictQuality(ctx, path)

	out, err := json.MarshalIndent(pred, "", "  ")
	if err != nil {
		logger.Error("encode prediction", "path", path, "error", err)
		return
	}
	resultPath := path + ".grade.json"
	if err := os.WriteFile(resultPath, out, 0o644); err != nil {
		logger.Error("write prediction", "path", resultPath, "error", err)
		return
	}
	logger.Info("prediction written", "path", resultPath, "grade", pred.Grade)
}
