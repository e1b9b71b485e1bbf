package analysis

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Segmenter splits normalized text into an ordered list of sentences.
type Segmenter interface {
	Segment(text string) []string
}

// Segmenter names accepted by NewSegmenter.
const (
	SegmenterRegex = "regex"
	SegmenterPunkt = "punkt"
)

// NewSegmenter returns the strategy registered under name.
func NewSegmenter(name string) (Segmenter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SegmenterRegex:
		return RegexSegmenter{}, nil
	case SegmenterPunkt, "":
		seg, err := NewPunktSegmenter()
		if err != nil {
			return nil, err
		}
		return seg, nil
	default:
		return nil, fmt.Errorf("unknown sentence segmenter %q", name)
	}
}

// RegexSegmenter splits on whitespace that follows '.', '?' or '!', unless the
// terminator closes an abbreviation such as "U.S." or "Mr.".
type RegexSegmenter struct{}

// Segment implements Segmenter.
func (RegexSegmenter) Segment(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i, r := range runes {
		if !unicode.IsSpace(r) || i == 0 {
			continue
		}
		switch runes[i-1] {
		case '.', '?', '!':
		default:
			continue
		}
		if isDottedInitials(runes, i) || isTitleAbbreviation(runes, i) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start:i])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// isDottedInitials matches "w.w." right before position i, as in "U.S. economy".
func isDottedInitials(runes []rune, i int) bool {
	if i < 4 {
		return false
	}
	return isWordRune(runes[i-4]) && runes[i-3] == '.' && isWordRune(runes[i-2])
}

// isTitleAbbreviation matches "Aa." right before position i, as in "Mr. Smith".
func isTitleAbbreviation(runes []rune, i int) bool {
	if i < 3 {
		return false
	}
	return unicode.IsUpper(runes[i-3]) && unicode.IsLower(runes[i-2]) && runes[i-1] == '.'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// PunktSegmenter uses the pre-trained English Punkt model.
type PunktSegmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSegmenter loads the embedded English training data.
func NewPunktSegmenter() (*PunktSegmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load punkt model: %w", err)
	}
	return &PunktSegmenter{tokenizer: tok}, nil
}

// Segment implements Segmenter.
func (p *PunktSegmenter) Segment(text string) []string {
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
