package features

import "strings"

// maxReplacementRatio is the share of U+FFFD runes above which OCR output is
// treated as garbage rather than parsed.
const maxReplacementRatio = 0.05

// LooksGarbled reports whether OCR output is too corrupted to trust: mostly
// replacement characters, or long output made of near-only single-character
// words, which tesseract produces on failed segmentation.
func LooksGarbled(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	runes := 0
	replacements := 0
	for _, r := range trimmed {
		runes++
		if r == '�' {
			replacements++
		}
	}
	if float64(replacements)/float64(runes) > maxReplacementRatio {
		return true
	}

	words := strings.Fields(trimmed)
	if len(words) < 20 {
		return false
	}
	single := 0
	for _, w := range words {
		if len(w) == 1 && w != "0" && w != "1" && w != "%" {
			single++
		}
	}
	return float64(single)/float64(len(words)) > 0.6
}
