package ocr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Variant names which preprocessed image a token set came from.
type Variant string

const (
	VariantThreshold Variant = "threshold"
	VariantGray      Variant = "gray"
)

// DefaultMinConfidence is the engine confidence a word must exceed to count.
const DefaultMinConfidence = 20

// CountConfident returns how many words have non-blank text and a
// confidence above minConfidence.
func CountConfident(words []Word, minConfidence float64) int {
	n := 0
	for _, w := range words {
		if strings.TrimSpace(w.Text) != "" && w.Confidence > minConfidence {
			n++
		}
	}
	return n
}

// SelectVariant returns the word set with more confident words. Ties go to
// the thresholded variant.
func SelectVariant(thresh, gray []Word, minConfidence float64) ([]Word, Variant) {
	if CountConfident(thresh, minConfidence) >= CountConfident(gray, minConfidence) {
		return thresh, VariantThreshold
	}
	return gray, VariantGray
}

// KeepToken reports whether a recognized token is worth returning: its
// confidence exceeds minConfidence, it has at least two characters, and it
// contains at least one ASCII letter or digit.
func KeepToken(text string, confidence, minConfidence float64) bool {
	text = strings.TrimSpace(text)
	if text == "" || confidence <= minConfidence {
		return false
	}
	if utf8.RuneCountInString(text) < 2 {
		return false
	}
	hasAlnum, hasASCIIAlnum := false, false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasAlnum = true
		}
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			hasASCIIAlnum = true
		}
	}
	return hasAlnum && hasASCIIAlnum
}
