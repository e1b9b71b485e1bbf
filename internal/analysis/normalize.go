// Package analysis turns extracted PDF text into an extractive summary and a keyword list.
//
// Everything here is pure and safe for concurrent use: each call builds its own
// frequency tables and discards them on return.
package analysis

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	typographic = regexp.MustCompile("[“”—…]+")
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

	stripper = strings.NewReplacer("\n", " ", "\\", "", ";", "", ":", "")
)

const minSignificantRunes = 5

// stopWords is the fixed set of function words ignored by both scorers.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "is": {}, "in": {}, "to": {}, "of": {}, "a": {},
	"that": {}, "it": {}, "on": {}, "for": {}, "with": {}, "as": {}, "by": {},
	"this": {}, "an": {}, "be": {}, "at": {}, "which": {}, "or": {}, "from": {},
	"was": {}, "were": {}, "their": {}, "there": {}, "can": {}, "will": {}, "would": {},
}

// Normalize cleans raw extracted text into a single whitespace-collapsed line.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := html.UnescapeString(raw)
	text = stripper.Replace(text)
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	text = typographic.ReplaceAllString(text, "")
	text = wordPattern.ReplaceAllStringFunc(text, dropNumeral)
	// removing numerals can leave double spaces behind
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// dropNumeral removes a word token made only of decimal digits, in any script.
// Digits attached to letters, as in "café5" or "v2", are part of a word and stay.
func dropNumeral(tok string) string {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return tok
		}
	}
	return ""
}

// IsStopWord reports whether w (already lowercased) is in the stop-word set.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// IsSignificant reports whether a lowercased token takes part in scoring.
func IsSignificant(w string) bool {
	return utf8.RuneCountInString(w) >= minSignificantRunes && !IsStopWord(w)
}

// significantWords tokenizes text and keeps the lowercased significant words in order.
func significantWords(text string) []string {
	tokens := wordPattern.FindAllString(text, -1)
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		w := strings.ToLower(tok)
		if IsSignificant(w) {
			words = append(words, w)
		}
	}
	return words
}
