package submissions

import (
	"errors"
	"fmt"
)

// Stage names one step of the submission pipeline. A submission moves
// Received -> Stored -> TextExtracted -> Structured -> Recorded ->
// Notified -> Completed; a stage failure aborts everything after it.
type Stage string

const (
	StageValidation   Stage = "validation"
	StageStorage      Stage = "storage"
	StageExtraction   Stage = "extraction"
	StageStructuring  Stage = "structuring"
	StageRecord       Stage = "record"
	StageNotification Stage = "notification"
)

// StageError carries the pipeline stage that produced a failure so the
// handler can map it to an HTTP status.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageFailed(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// FailedStage extracts the stage from err, or "" when err carries none.
func FailedStage(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
