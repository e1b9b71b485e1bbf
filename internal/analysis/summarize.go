package analysis

import (
	"sort"
	"strings"
)

// shortDocumentSentences is the largest sentence count returned verbatim.
const shortDocumentSentences = 4

// Summarizer builds extractive summaries by significant-word frequency.
type Summarizer struct {
	segmenter Segmenter
}

// NewSummarizer returns a Summarizer that splits sentences with seg.
// A nil seg falls back to RegexSegmenter.
func NewSummarizer(seg Segmenter) *Summarizer {
	if seg == nil {
		seg = RegexSegmenter{}
	}
	return &Summarizer{segmenter: seg}
}

// Summarize selects the highest-scoring sentences of text and returns them in
// document order. Documents of at most four sentences come back whole.
func (s *Summarizer) Summarize(text string) string {
	normalized := Normalize(text)
	if normalized == "" {
		return ""
	}

	sentences := s.segmenter.Segment(normalized)
	if len(sentences) <= shortDocumentSentences {
		return normalized
	}

	freq := make(map[string]int)
	for _, w := range significantWords(normalized) {
		freq[w]++
	}

	scores := make([]int, len(sentences))
	for i, sentence := range sentences {
		for _, tok := range wordPattern.FindAllString(sentence, -1) {
			scores[i] += freq[strings.ToLower(tok)]
		}
	}

	ranked := make([]int, len(sentences))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return scores[ranked[a]] > scores[ranked[b]]
	})

	n := TargetSentences(len(sentences))
	picked := append([]int(nil), ranked[:n]...)
	sort.Ints(picked)

	selected := make([]string, len(picked))
	for i, idx := range picked {
		selected[i] = sentences[idx]
	}
	return strings.TrimSpace(strings.Join(selected, " "))
}

// TargetSentences maps a document's sentence count to the summary length.
func TargetSentences(total int) int {
	switch {
	case total <= 10:
		return 2
	case total <= 30:
		return 3
	default:
		return 5
	}
}
