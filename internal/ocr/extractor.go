package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"

	"github.com/navodyayashodani/oilgrade/constants"
	"github.com/navodyayashodani/oilgrade/internal/common"
	"github.com/navodyayashodani/oilgrade/internal/features"
	"github.com/navodyayashodani/oilgrade/internal/imgproc"
)

// contrastBoostPct is applied after cleaning, before recognition. Counterpart
// of the 2.5x enhancement factor the training pipeline used on lab scans.
const contrastBoostPct = 60

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> auto-detect
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for PDF reports, default 300
	MaxPages      int // 0 = no limit

	PSM int // page segmentation mode; 6 (uniform block) suits sparse tabular reports
	OEM int // engine mode; 3 = default selection

	EnableTSVConfidence bool
	HealthCheckTimeout  time.Duration
}

// Extractor turns a report file into a composition feature set by way of the
// external tesseract binary. It owns format dispatch: PDFs are rasterized a
// page at a time and recognition stops at the first page that yields a
// usable reading.
type Extractor struct {
	cfg    Config
	runner Runner
	norm   imgproc.Normalizer
	logger *slog.Logger
}

func NewExtractor(cfg Config, norm imgproc.Normalizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = LocateTesseract()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.OEM <= 0 {
		cfg.OEM = 3
	}
	if cfg.HealthCheckTimeout <= 0 {
		cfg.HealthCheckTimeout = 3 * time.Second
	}
	if norm == nil {
		norm = imgproc.NewCleaner(logger)
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, norm: norm, logger: logger}
}

// Extract runs the OCR pipeline for a report file. The error is one of the
// sentinel values in internal/common (tool unavailable, unsupported format,
// no signal) or a wrapped I/O failure; the caller maps all of them to the
// default prediction.
func (e *Extractor) Extract(ctx context.Context, path string) (features.Extraction, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	if format == "" {
		e.logger.Warn("ocr.extract.unsupported", "path", path, "ext", ext)
		return features.Extraction{}, common.ErrUnsupportedFormat
	}

	if !e.HealthCheck(ctx) {
		return features.Extraction{}, common.ErrToolUnavailable
	}

	if format == constants.PDF {
		return e.extractPDF(ctx, path)
	}
	ex, ok := e.extractPage(ctx, path)
	if !ok {
		return features.Extraction{}, common.ErrNoSignal
	}
	ex.Method = "image-ocr"
	ex.Page = 1
	return ex, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (features.Extraction, error) {
	pages, cleanup, err := e.rasterizePDF(ctx, path)
	defer cleanup()
	if err != nil {
		return features.Extraction{}, fmt.Errorf("rasterize pdf: %w", err)
	}

	// Later pages are not processed once one yields a reading.
	for i, page := range pages {
		ex, ok := e.extractPage(ctx, page)
		if !ok {
			continue
		}
		ex.Method = "pdf-ocr"
		ex.Page = i + 1
		e.logger.Info("ocr.extract.page_ok", "path", path, "page", ex.Page)
		return ex, nil
	}
	return features.Extraction{}, common.ErrNoSignal
}

// extractPage runs a single image through clean -> contrast boost ->
// recognize -> parse. A false return means this page produced no usable
// reading; the page is skipped, never the whole document.
func (e *Extractor) extractPage(ctx context.Context, imagePath string) (features.Extraction, bool) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		e.logger.Warn("ocr.page.open_failed", "path", imagePath, "error", err)
		return features.Extraction{}, false
	}

	cleaned := e.norm.Clean(img)
	boosted := imaging.AdjustContrast(cleaned, contrastBoostPct)

	tmpDir, err := os.MkdirTemp("", "og-ocr-*")
	if err != nil {
		e.logger.Warn("ocr.page.tmpdir_failed", "error", err)
		return features.Extraction{}, false
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("ocr.page.cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prepared := filepath.Join(tmpDir, "page.png")
	if err := imaging.Save(boosted, prepared); err != nil {
		e.logger.Warn("ocr.page.save_failed", "error", err)
		return features.Extraction{}, false
	}

	text, err := e.recognize(ctx, prepared)
	if err != nil {
		e.logger.Warn("ocr.page.recognize_failed", "path", imagePath, "error", err)
		return features.Extraction{}, false
	}
	if features.LooksGarbled(text) {
		e.logger.Warn("ocr.page.garbled", "path", imagePath, "bytes", len(text))
		return features.Extraction{}, false
	}

	ex, ok := features.Parse(text)
	if !ok {
		return features.Extraction{}, false
	}

	if e.cfg.EnableTSVConfidence {
		if conf, err := e.tsvConfidence(ctx, prepared); err == nil {
			ex.OCRConfidence = conf
		} else {
			e.logger.Warn("ocr.page.tsv_failed", "error", err)
		}
	}
	return ex, true
}

// recognize runs tesseract over a prepared image and returns the raw text.
func (e *Extractor) recognize(ctx context.Context, path string) (string, error) {
	args := []string{
		path, "stdout",
		"-l", e.cfg.TesseractLang,
		"--oem", strconv.Itoa(e.cfg.OEM),
		"--psm", strconv.Itoa(e.cfg.PSM),
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(errb), 1<<10))
	}
	return string(out), nil
}
