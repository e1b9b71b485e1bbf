package analysis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfdigest/internal/analysis"
)

// segmenters returns every strategy, the configured default included.
func segmenters(t *testing.T) map[string]analysis.Segmenter {
	t.Helper()
	punkt, err := analysis.NewSegmenter("")
	require.NoError(t, err)
	return map[string]analysis.Segmenter{
		"regex":   analysis.RegexSegmenter{},
		"default": punkt,
	}
}

func TestSummarizeShortDocumentReturnsWholeText(t *testing.T) {
	texts := []string{
		"First line here.\nSecond   line follows. Third and final line 3.",
		"Only one sentence without a terminator",
		"Workers fetch files. Parsers read every page. Nothing else happens. The end.",
	}
	for name, seg := range segmenters(t) {
		t.Run(name, func(t *testing.T) {
			s := analysis.NewSummarizer(seg)
			for _, text := range texts {
				require.Equal(t, analysis.Normalize(text), s.Summarize(text))
			}
		})
	}

	got := analysis.NewSummarizer(analysis.RegexSegmenter{}).Summarize(texts[0])
	require.Equal(t, "First line here. Second line follows. Third and final line .", got)
}

func TestSummarizeEmpty(t *testing.T) {
	s := analysis.NewSummarizer(nil)
	require.Equal(t, "", s.Summarize(""))
	require.Equal(t, "", s.Summarize("  \n 12 "))
}

func TestSummarizeDominantWord(t *testing.T) {
	sentences := make([]string, 15)
	for i := range sentences {
		sentences[i] = "The cat sat on a mat."
	}
	sentences[2] = "Pipeline stages share one pipeline queue."
	sentences[7] = "The pipeline retries failed work."
	sentences[12] = "Every pipeline reports its status."

	s := analysis.NewSummarizer(analysis.RegexSegmenter{})
	got := s.Summarize(strings.Join(sentences, " "))

	want := strings.Join([]string{sentences[2], sentences[7], sentences[12]}, " ")
	require.Equal(t, want, got)
	require.Len(t, analysis.RegexSegmenter{}.Segment(got), 3)
	require.Contains(t, got, "pipeline")
}

func TestSummarizeAllStopWordsKeepsLeadingSentences(t *testing.T) {
	text := "A cat sat. A dog ran. It was hot. The sun set. We ate. All done."
	s := analysis.NewSummarizer(analysis.RegexSegmenter{})
	require.Equal(t, "A cat sat. A dog ran.", s.Summarize(text))
}

func TestSummarizePreservesSourceOrder(t *testing.T) {
	texts := []string{
		"Storage matters. Network latency hurts. Storage engines compact data. Compaction reclaims storage. " +
			"Latency budgets vary. Network partitions happen. Storage replicas diverge.",
		strings.Repeat("Quick brown foxes jumped. Lazy dogs slept soundly. ", 8) + "Foxes outran dogs again.",
	}
	for name, seg := range segmenters(t) {
		t.Run(name, func(t *testing.T) {
			s := analysis.NewSummarizer(seg)
			for _, text := range texts {
				source := seg.Segment(analysis.Normalize(text))
				summary := seg.Segment(s.Summarize(text))
				require.NotEmpty(t, summary)

				pos := -1
				for _, sentence := range summary {
					next := indexFrom(source, sentence, pos+1)
					require.Greater(t, next, pos, "sentence %q out of order", sentence)
					pos = next
				}
			}
		})
	}
}

func TestSummarizeIsPure(t *testing.T) {
	text := strings.Repeat("Concurrent workers process documents. Retries back off slowly. ", 6)
	s := analysis.NewSummarizer(analysis.RegexSegmenter{})
	require.Equal(t, s.Summarize(text), s.Summarize(text))
}

func TestTargetSentences(t *testing.T) {
	require.Equal(t, 2, analysis.TargetSentences(5))
	require.Equal(t, 2, analysis.TargetSentences(10))
	require.Equal(t, 3, analysis.TargetSentences(11))
	require.Equal(t, 3, analysis.TargetSentences(30))
	require.Equal(t, 5, analysis.TargetSentences(31))
}

func indexFrom(list []string, s string, from int) int {
	for i := from; i < len(list); i++ {
		if list[i] == s {
			return i
		}
	}
	return -1
}
