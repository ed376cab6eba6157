package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrNoText           = errors.New("no text could be extracted from the image")
	ErrEmptyTranslation = errors.New("translation produced no text")
	ErrEmptyAudio       = errors.New("speech synthesis returned no audio")
)

// StageError is an external-dependency failure attributed to a stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage an error is attributed to, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
