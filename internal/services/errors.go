package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed document for callers and for the stored record.
type ErrorKind string

const (
	KindAcquisition    ErrorKind = "acquisition"
	KindExtraction     ErrorKind = "extraction"
	KindClassification ErrorKind = "classification"
	KindPersistence    ErrorKind = "persistence"
	// KindInternal marks a broken stage sequence; it is never expected in practice.
	KindInternal ErrorKind = "internal"
)

// StageError is the failure of one pipeline stage.
type StageError struct {
	Kind  ErrorKind
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s error during %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// KindOf returns the kind of the first StageError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
