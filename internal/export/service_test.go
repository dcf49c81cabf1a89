package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/navodyayashodani/oilgrade/internal/audit"
)

func openStoreWith(t *testing.T, recs ...audit.Record) *audit.Store {
	t.Helper()
	s, err := audit.Open(filepath.Join(t.TempDir(), "audit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	for i := range recs {
		require.NoError(t, s.Save(context.Background(), &recs[i]))
	}
	return s
}

func TestExportAuditXLSX(t *testing.T) {
	store := openStoreWith(t,
		audit.Record{
			CreatedAt:    time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
			SourcePath:   "/in/report.pdf",
			Format:       "PDF",
			Method:       "pdf-ocr",
			Page:         1,
			Traces:       []float64{1.2, 2.3},
			PaddedSlots:  []string{"Safrole_Percentage"},
			DecisionPath: "model",
			Grade:        "A",
			Score:        87.42,
			Confidence:   0.93,
		},
		audit.Record{
			CreatedAt:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			SourcePath:   "/in/broken.png",
			Format:       "IMAGE",
			DecisionPath: "default",
			Grade:        "C",
			Score:        75,
			Confidence:   0.3,
			Failure:      "no_signal",
		},
	)
	svc := NewService(store, nil)

	out, err := svc.ExportAuditXLSX(context.Background(), nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Predictions")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Graded At", rows[0][0])
	assert.Equal(t, "Grade", rows[0][6])
	assert.Equal(t, "/in/report.pdf", rows[1][1])
	assert.Equal(t, "A", rows[1][6])
	assert.Equal(t, "model", rows[1][5])
	assert.Equal(t, "no_signal", rows[2][12])
}

func TestExportAuditXLSXDateWindow(t *testing.T) {
	store := openStoreWith(t,
		audit.Record{
			CreatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			SourcePath:   "/in/early.png",
			Format:       "IMAGE",
			DecisionPath: "rules",
			Grade:        "B",
			Score:        80,
			Confidence:   0.85,
		},
		audit.Record{
			CreatedAt:    time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
			SourcePath:   "/in/late.png",
			Format:       "IMAGE",
			DecisionPath: "rules",
			Grade:        "B",
			Score:        80,
			Confidence:   0.85,
		},
	)
	svc := NewService(store, nil)

	to := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	out, err := svc.ExportAuditXLSX(context.Background(), nil, &to)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Predictions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "/in/early.png", rows[1][1])
}

func TestExportAuditXLSXEmptyStore(t *testing.T) {
	svc := NewService(openStoreWith(t), nil)

	out, err := svc.ExportAuditXLSX(context.Background(), nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Predictions")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestJoinFloats(t *testing.T) {
	assert.Equal(t, "", joinFloats(nil))
	assert.Equal(t, "1.2,2.3", joinFloats([]float64{1.2, 2.3}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	long := truncate("abcdefghij", 5)
	assert.Equal(t, "abcd…", long)
}
