package analysis

import (
	"errors"
	"fmt"
)

// LengthClass buckets a document by page count.
type LengthClass string

const (
	ClassShort  LengthClass = "short"
	ClassMedium LengthClass = "medium"
	ClassLong   LengthClass = "long"
)

// ErrUnclassifiable is returned for page counts that cannot place a document in a bucket.
var ErrUnclassifiable = errors.New("page count undeterminable")

// Classify maps a page count to its length class: 1-10 short, 11-30 medium, 31+ long.
func Classify(pageCount int) (LengthClass, error) {
	switch {
	case pageCount <= 0:
		return "", fmt.Errorf("%w: %d pages", ErrUnclassifiable, pageCount)
	case pageCount <= 10:
		return ClassShort, nil
	case pageCount <= 30:
		return ClassMedium, nil
	default:
		return ClassLong, nil
	}
}
