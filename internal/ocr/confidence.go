package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// tsvConfidence runs tesseract in TSV mode and returns mean word confidence
// in 0..1. This is an audit signal only; prediction confidence comes from
// the grading path, never from here.
func (e *Extractor) tsvConfidence(ctx context.Context, path string) (float32, error) {
	args := []string{
		path, "stdout",
		"-l", e.cfg.TesseractLang,
		"--oem", strconv.Itoa(e.cfg.OEM),
		"--psm", strconv.Itoa(e.cfg.PSM),
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w (stderr: %s)", err, truncate(string(errb), 1<<10))
	}

	// conf is column 11 of 12; -1 marks non-word rows
	var sum, n float64
	for i, line := range strings.Split(string(out), "\n") {
		if i == 0 || line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float32(sum / n / 100.0), nil
}
