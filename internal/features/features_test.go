package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleEugenolToken(t *testing.T) {
	ex, ok := Parse("Eugenol content: 87.42")
	require.True(t, ok)

	assert.Equal(t, 87.42, ex.Features.Eugenol)
	assert.Equal(t, 0.54, ex.Features.EugenylAcetate)
	assert.Equal(t, 1.76, ex.Features.Linalool)
	assert.Equal(t, 0.78, ex.Features.Cinnamaldehyde)
	assert.Equal(t, 0.76, ex.Features.Safrole)
	assert.Len(t, ex.PaddedSlots, 4)
}

func TestParsePositionalTraceAssignment(t *testing.T) {
	ex, ok := Parse("65.10 1.20 2.30 0.90 0.50")
	require.True(t, ok)

	assert.Equal(t, 65.10, ex.Features.Eugenol)
	assert.Equal(t, 1.20, ex.Features.EugenylAcetate)
	assert.Equal(t, 2.30, ex.Features.Linalool)
	assert.Equal(t, 0.90, ex.Features.Cinnamaldehyde)
	assert.Equal(t, 0.50, ex.Features.Safrole)
	assert.Empty(t, ex.PaddedSlots)
	assert.Equal(t, []float64{1.20, 2.30, 0.90, 0.50}, ex.Traces)
}

func TestParseSeparators(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"dot", "purity 87.42 pct", 87.42},
		{"comma", "purity 87,42 pct", 87.42},
		{"whitespace", "purity 87 42 pct", 87.42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, ok := Parse(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, ex.Features.Eugenol)
		})
	}
}

func TestParseMaxEugenolCandidateWins(t *testing.T) {
	// several plausible purity readings: the largest is taken
	ex, ok := Parse("62.00 88.50 75.25")
	require.True(t, ok)
	assert.Equal(t, 88.50, ex.Features.Eugenol)
}

func TestParsePartialTracesPadded(t *testing.T) {
	ex, ok := Parse("82.11 0.33 1.05")
	require.True(t, ok)

	assert.Equal(t, 0.33, ex.Features.EugenylAcetate)
	assert.Equal(t, 1.05, ex.Features.Linalool)
	assert.Equal(t, 0.78, ex.Features.Cinnamaldehyde)
	assert.Equal(t, 0.76, ex.Features.Safrole)
	assert.Equal(t, []string{"Cinnamaldehyde_Percentage", "Safrole_Percentage"}, ex.PaddedSlots)
}

func TestParseNoEugenolCandidate(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no numbers", "clove leaf oil report"},
		{"only traces", "1.20 2.30 0.90"},
		{"out of range high", "99.99"},
		{"out of range low", "59.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Parse(tt.text)
			assert.False(t, ok)
		})
	}
}

func TestVectorAndMapOrder(t *testing.T) {
	fs := FeatureSet{Eugenol: 90, EugenylAcetate: 1, Linalool: 2, Cinnamaldehyde: 3, Safrole: 4}

	assert.Equal(t, []float64{90, 1, 2, 3, 4}, fs.Vector())

	m := fs.Map()
	assert.Equal(t, 90.0, m["Eugenol_Percentage"])
	assert.Equal(t, 4.0, m["Safrole_Percentage"])
	assert.Len(t, m, 5)
}

func TestLooksGarbled(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", true},
		{"whitespace only", "  \n\t ", true},
		{"normal report", "Eugenol 87.42\nLinalool 1.20", false},
		{"replacement heavy", "��� abc", true},
		{"short fragment", "a b c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksGarbled(tt.text))
		})
	}
}

func TestLooksGarbledSingleCharSpam(t *testing.T) {
	spam := ""
	for i := 0; i < 40; i++ {
		spam += "l . | i "
	}
	assert.True(t, LooksGarbled(spam))
}
