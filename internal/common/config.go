package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	OCR    OCRConfig
	Model  ModelConfig
	Audit  AuditConfig
	Watch  WatchConfig
}

// ServerConfig holds daemon-related configuration.
type ServerConfig struct {
	MetricsAddr string
}

// OCRConfig holds OCR tool configuration.
type OCRConfig struct {
	Tesseract           string // binary name or absolute path; empty -> auto-detect
	Pdftoppm            string // binary name or absolute path; empty -> "pdftoppm"
	TesseractLang       string
	TessdataDir         string
	DPI                 int
	MaxPages            int
	EnableTSVConfidence bool
	HealthCheckTimeout  time.Duration
}

// ModelConfig holds classifier artifact configuration.
type ModelConfig struct {
	Dir string // directory holding cinnamon_model.json and labels.json
}

// AuditConfig holds audit store configuration.
type AuditConfig struct {
	DBPath string // sqlite file; empty disables the audit store
}

// WatchConfig holds inbox watcher configuration.
type WatchConfig struct {
	Roots       []string
	InitialScan bool
	Debounce    time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		OCR: OCRConfig{
			Tesseract:           getEnv("TESSERACT_CMD", ""),
			Pdftoppm:            getEnv("PDFTOPPM_CMD", ""),
			TesseractLang:       getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:         getEnv("TESSDATA_PREFIX", ""),
			DPI:                 getEnvAsInt("OCR_DPI", 300),
			MaxPages:            getEnvAsInt("OCR_MAX_PAGES", 0),
			EnableTSVConfidence: getEnvAsBool("OCR_TSV_CONFIDENCE", false),
			HealthCheckTimeout:  getEnvAsDuration("OCR_HEALTHCHECK_TIMEOUT", 3*time.Second),
		},
		Model: ModelConfig{
			Dir: getEnv("MODEL_DIR", "./ml_model"),
		},
		Audit: AuditConfig{
			DBPath: getEnv("AUDIT_DB_PATH", "./grading_audit.db"),
		},
		Watch: WatchConfig{
			Roots:       splitList(getEnv("WATCH_ROOTS", "")),
			InitialScan: getEnvAsBool("WATCH_INITIAL_SCAN", true),
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.OCR.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be positive", ErrInvalidInput)
	}
	if c.OCR.MaxPages < 0 {
		return NewAppError("CONFIG_ERROR", "OCR_MAX_PAGES must not be negative", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
