package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/navodyayashodani/oilgrade/internal/common"
	"github.com/navodyayashodani/oilgrade/internal/grader"
	"github.com/navodyayashodani/oilgrade/internal/imgproc"
	"github.com/navodyayashodani/oilgrade/internal/model"
	"github.com/navodyayashodani/oilgrade/internal/ocr"
)

// gradefile grades a single quality report and prints the prediction as
// JSON on stdout. Logs go to stderr so the output stays machine-readable.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "gradefile <report-path>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
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
	if m, err := model.Load(cfg.Model.Dir, logger); err != nil {
		logger.Warn("model unavailable, grading on rules only", "dir", cfg.Model.Dir, "error", err)
	} else {
		qualityModel = m
	}

	g := grader.New(grader.Config{}, extractor, qualityModel, nil, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pred := g.PredictQuality(ctx, path)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pred); err != nil {
		logger.Error("encode prediction", "error", err)
		os.Exit(1)
	}
}
