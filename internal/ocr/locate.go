package ocr

import (
	"context"
	"os"
	"os/exec"
	"runtime"
)

// lookPath is the exec.LookPath implementation used by LocateTesseract, kept
// as a variable so tests can simulate a missing binary.
var lookPath = exec.LookPath

// statFile is the os.Stat implementation used when probing install
// candidates, kept as a variable for the same reason.
var statFile = os.Stat

// tesseractCandidates returns the standard install locations probed before
// falling back to the system search path.
func tesseractCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/opt/homebrew/bin/tesseract",
			"/usr/local/bin/tesseract",
		}
	case "windows":
		return []string{
			`C:\Program Files\Tesseract-OCR\tesseract.exe`,
			`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
		}
	default:
		return []string{
			"/usr/bin/tesseract",
			"/usr/local/bin/tesseract",
		}
	}
}

// LocateTesseract resolves the tesseract binary: known install directories
// first, then the system PATH. When nothing matches it returns the bare
// command name so the failure surfaces at invocation time instead of here.
func LocateTesseract() string {
	for _, candidate := range tesseractCandidates() {
		if isInvocable(candidate) {
			return candidate
		}
	}
	if path, err := lookPath("tesseract"); err == nil {
		return path
	}
	return "tesseract"
}

func isInvocable(path string) bool {
	info, err := statFile(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// HealthCheck invokes the resolved binary with a trivial flag under the
// configured deadline. A false return means callers should skip OCR rather
// than let a broken install hang or crash the pipeline.
func (e *Extractor) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.HealthCheckTimeout)
	defer cancel()

	_, _, err := e.runner.Run(ctx, e.cfg.Tesseract, "--version")
	if err != nil {
		e.logger.Warn("ocr.healthcheck.failed", "tesseract", e.cfg.Tesseract, "error", err)
		return false
	}
	return true
}
