// Package audit persists one record per prediction so the positional
// trace-element assignment and the chosen decision path can be reviewed
// later. The grading pipeline itself never reads from here.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS prediction_audit (
	id             TEXT PRIMARY KEY,
	created_at     TIMESTAMP NOT NULL,
	source_path    TEXT NOT NULL,
	format         TEXT NOT NULL,
	method         TEXT NOT NULL DEFAULT '',
	page           INTEGER NOT NULL DEFAULT 0,
	ocr_confidence REAL NOT NULL DEFAULT 0,
	tokens         TEXT NOT NULL DEFAULT '[]',
	traces         TEXT NOT NULL DEFAULT '[]',
	padded_slots   TEXT NOT NULL DEFAULT '[]',
	decision_path  TEXT NOT NULL,
	grade          TEXT NOT NULL,
	score          REAL NOT NULL,
	confidence     REAL NOT NULL,
	duration_ms    INTEGER NOT NULL DEFAULT 0,
	failure        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_prediction_audit_created_at
	ON prediction_audit (created_at);
`

// Record is one graded document: what was read, how the traces were
// assigned, and which path produced the grade.
type Record struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	SourcePath    string
	Format        string
	Method        string
	Page          int
	OCRConfidence float32
	Tokens        []float64
	Traces        []float64
	PaddedSlots   []string
	DecisionPath  string // "model" | "rules" | "default"
	Grade         string
	Score         float64
	Confidence    float64
	DurationMS    int64
	Failure       string // sentinel reason when the default was returned
}

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the sqlite audit database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	logger.Info("audit.store.opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts one audit record. An ID and timestamp are assigned when the
// caller left them zero.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tokens, err := json.Marshal(orEmpty(rec.Tokens))
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	traces, err := json.Marshal(orEmpty(rec.Traces))
	if err != nil {
		return fmt.Errorf("marshal traces: %w", err)
	}
	padded, err := json.Marshal(orEmptyStrings(rec.PaddedSlots))
	if err != nil {
		return fmt.Errorf("marshal padded slots: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO prediction_audit (
			id, created_at, source_path, format, method, page,
			ocr_confidence, tokens, traces, padded_slots,
			decision_path, grade, score, confidence, duration_ms, failure
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.CreatedAt, rec.SourcePath, rec.Format, rec.Method, rec.Page,
		rec.OCRConfidence, string(tokens), string(traces), string(padded),
		rec.DecisionPath, rec.Grade, rec.Score, rec.Confidence, rec.DurationMS, rec.Failure,
	)
	if err != nil {
		s.logger.Error("audit.save.failed", "id", rec.ID, "err", err)
		return fmt.Errorf("insert audit record: %w", err)
	}
	s.logger.Debug("audit.save.ok", "id", rec.ID, "path", rec.DecisionPath, "grade", rec.Grade)
	return nil
}

// List returns records in the [from, to] window ordered by creation time.
// Nil bounds are open.
func (s *Store) List(ctx context.Context, from, to *time.Time) ([]Record, error) {
	query := `
		SELECT id, created_at, source_path, format, method, page,
		       ocr_confidence, tokens, traces, padded_slots,
		       decision_path, grade, score, confidence, duration_ms, failure
		FROM prediction_audit`
	var args []any
	var conds []string
	if from != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *from)
	}
	if to != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, *to)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var id, tokens, traces, padded string
		if err := rows.Scan(
			&id, &rec.CreatedAt, &rec.SourcePath, &rec.Format, &rec.Method, &rec.Page,
			&rec.OCRConfidence, &tokens, &traces, &padded,
			&rec.DecisionPath, &rec.Grade, &rec.Score, &rec.Confidence, &rec.DurationMS, &rec.Failure,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse audit id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(tokens), &rec.Tokens); err != nil {
			return nil, fmt.Errorf("decode tokens: %w", err)
		}
		if err := json.Unmarshal([]byte(traces), &rec.Traces); err != nil {
			return nil, fmt.Errorf("decode traces: %w", err)
		}
		if err := json.Unmarshal([]byte(padded), &rec.PaddedSlots); err != nil {
			return nil, fmt.Errorf("decode padded slots: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func orEmpty(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}

func orEmptyStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
