package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfdigest/internal/analysis"
)

func TestRegexSegmenterGuardsAbbreviations(t *testing.T) {
	text := "The U.S. economy grew. Mr. Smith agreed! Did it work? Yes."
	got := analysis.RegexSegmenter{}.Segment(text)
	require.Equal(t, []string{
		"The U.S. economy grew.",
		"Mr. Smith agreed!",
		"Did it work?",
		"Yes.",
	}, got)
}

func TestRegexSegmenterEdgeCases(t *testing.T) {
	seg := analysis.RegexSegmenter{}
	require.Empty(t, seg.Segment(""))
	require.Equal(t, []string{"no terminator here"}, seg.Segment("no terminator here"))
	require.Equal(t, []string{"One.", "Two."}, seg.Segment("One.   Two."))
}

func TestPunktSegmenter(t *testing.T) {
	seg, err := analysis.NewPunktSegmenter()
	require.NoError(t, err)

	got := seg.Segment("This is the first sentence. This is the second one.")
	require.Len(t, got, 2)
	require.Equal(t, "This is the first sentence.", got[0])
}

func TestNewSegmenter(t *testing.T) {
	seg, err := analysis.NewSegmenter("regex")
	require.NoError(t, err)
	require.IsType(t, analysis.RegexSegmenter{}, seg)

	seg, err = analysis.NewSegmenter("")
	require.NoError(t, err)
	require.IsType(t, &analysis.PunktSegmenter{}, seg)

	_, err = analysis.NewSegmenter("spacy")
	require.Error(t, err)
}
