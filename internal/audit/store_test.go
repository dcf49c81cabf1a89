package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAssignsIDAndTimestamp(t *testing.T) {
	s := openTestStore(t)

	rec := Record{SourcePath: "/in/report.png", Format: "IMAGE", DecisionPath: "rules", Grade: "A", Score: 87.42, Confidence: 0.85}
	require.NoError(t, s.Save(context.Background(), &rec))

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestSaveListRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rec := Record{
		SourcePath:    "/in/report.pdf",
		Format:        "PDF",
		Method:        "pdf-ocr",
		Page:          2,
		OCRConfidence: 0.91,
		Tokens:        []float64{87.42, 1.2, 2.3},
		Traces:        []float64{1.2, 2.3},
		PaddedSlots:   []string{"Cinnamaldehyde_Percentage", "Safrole_Percentage"},
		DecisionPath:  "model",
		Grade:         "A",
		Score:         87.42,
		Confidence:    0.93,
		DurationMS:    412,
	}
	require.NoError(t, s.Save(context.Background(), &rec))

	got, err := s.List(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, "/in/report.pdf", got[0].SourcePath)
	assert.Equal(t, "pdf-ocr", got[0].Method)
	assert.Equal(t, 2, got[0].Page)
	assert.Equal(t, []float64{87.42, 1.2, 2.3}, got[0].Tokens)
	assert.Equal(t, []float64{1.2, 2.3}, got[0].Traces)
	assert.Equal(t, []string{"Cinnamaldehyde_Percentage", "Safrole_Percentage"}, got[0].PaddedSlots)
	assert.Equal(t, "model", got[0].DecisionPath)
	assert.Equal(t, 87.42, got[0].Score)
	assert.Equal(t, int64(412), got[0].DurationMS)
}

func TestListWindow(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := Record{
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
			SourcePath:   "/in/report.png",
			Format:       "IMAGE",
			DecisionPath: "default",
			Grade:        "C",
			Score:        75,
			Confidence:   0.3,
		}
		require.NoError(t, s.Save(context.Background(), &rec))
	}

	all, err := s.List(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	windowed, err := s.List(context.Background(), &from, &to)
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.WithinDuration(t, base.Add(time.Hour), windowed[0].CreatedAt, time.Second)

	after, err := s.List(context.Background(), &from, nil)
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

func TestListOrderedByCreation(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		rec := Record{
			CreatedAt:    base.Add(offset),
			SourcePath:   "/in/report.png",
			Format:       "IMAGE",
			DecisionPath: "rules",
			Grade:        "B",
			Score:        80,
			Confidence:   0.85,
		}
		require.NoError(t, s.Save(context.Background(), &rec))
	}

	got, err := s.List(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, !got[i].CreatedAt.Before(got[i-1].CreatedAt))
	}
}

func TestSaveEmptySlicesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rec := Record{SourcePath: "/in/report.png", Format: "IMAGE", DecisionPath: "default", Grade: "C", Score: 75, Confidence: 0.3, Failure: "tool_unavailable"}
	require.NoError(t, s.Save(context.Background(), &rec))

	got, err := s.List(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Empty(t, got[0].Tokens)
	assert.Empty(t, got[0].Traces)
	assert.Empty(t, got[0].PaddedSlots)
	assert.Equal(t, "tool_unavailable", got[0].Failure)
}
