package services

import "fmt"

// Stage is a state of the per-document pipeline.
type Stage string

const (
	StageNew         Stage = "new"
	StageAcquiring   Stage = "acquiring"
	StageClassifying Stage = "classifying"
	StageAnalyzing   Stage = "analyzing"
	StageDone        Stage = "done"
	StageFailed      Stage = "error"
)

var transitions = map[Stage]Stage{
	StageNew:         StageAcquiring,
	StageAcquiring:   StageClassifying,
	StageClassifying: StageAnalyzing,
	StageAnalyzing:   StageDone,
}

// Terminal reports whether no further transition is allowed from s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// CanAdvance reports whether the pipeline may move from s to next.
// Error is reachable from every non-terminal stage.
func (s Stage) CanAdvance(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	return transitions[s] == next
}

// tracker holds the current stage of one document.
type tracker struct {
	stage Stage
}

func newTracker() *tracker {
	return &tracker{stage: StageNew}
}

func (t *tracker) advance(next Stage) error {
	if !t.stage.CanAdvance(next) {
		return fmt.Errorf("illegal stage transition %s -> %s", t.stage, next)
	}
	t.stage = next
	return nil
}
