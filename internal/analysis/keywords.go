package analysis

import (
	"math"
	"sort"
)

const (
	// assumedCorpusSize stands in for a real corpus when computing IDF.
	assumedCorpusSize = 20
	maxApproxDF       = 5
	defaultKeywords   = 10
)

// KeywordExtractor ranks significant words with a TF-IDF style score.
//
// Document frequency is approximated from the word's own count in the document
// (count/2 clamped to [1, 5]) against a synthetic corpus of 20 documents.
type KeywordExtractor struct {
	limit int
}

// NewKeywordExtractor returns an extractor producing at most limit keywords.
// A non-positive limit means 10.
func NewKeywordExtractor(limit int) *KeywordExtractor {
	if limit <= 0 {
		limit = defaultKeywords
	}
	return &KeywordExtractor{limit: limit}
}

type termScore struct {
	word  string
	score float64
}

// Extract returns the highest-scoring significant words of text, best first.
// Ties keep the order in which the words first appear.
func (k *KeywordExtractor) Extract(text string) []string {
	words := significantWords(Normalize(text))
	if len(words) == 0 {
		return []string{}
	}

	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	total := float64(len(words))
	scored := make([]termScore, 0, len(order))
	for _, w := range order {
		c := counts[w]
		tf := float64(c) / total
		df := min(maxApproxDF, max(1, c/2))
		idf := math.Log(float64(assumedCorpusSize) / float64(1+df))
		scored = append(scored, termScore{word: w, score: tf * idf})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > k.limit {
		scored = scored[:k.limit]
	}

	keywords := make([]string, 0, len(scored))
	for _, ts := range scored {
		if IsSignificant(ts.word) {
			keywords = append(keywords, ts.word)
		}
	}
	return keywords
}
