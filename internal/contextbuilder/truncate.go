package contextbuilder

import "strings"

// truncateSentenceAware cuts s to at most maxChars, preferring to land on
// a sentence or line boundary (spec.md §4.4 "Tiered truncation"): prefer
// the last '.' or newline at or after 70% of budget, else the last space
// at or after 80%, else a hard cut.
func truncateSentenceAware(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}

	window := s[:maxChars]

	sentenceFloor := int(float64(maxChars) * 0.70)
	if idx := lastIndexAfter(window, []byte{'.', '\n'}, sentenceFloor); idx >= 0 {
		return s[:idx+1]
	}

	spaceFloor := int(float64(maxChars) * 0.80)
	if idx := strings.LastIndexByte(window, ' '); idx >= spaceFloor {
		return s[:idx]
	}

	return window
}

func lastIndexAfter(s string, cutset []byte, floor int) int {
	for i := len(s) - 1; i >= floor; i-- {
		for _, c := range cutset {
			if s[i] == c {
				return i
			}
		}
	}
	return -1
}
