package tailoring

import (
	"errors"
	"fmt"

	"github.com/jonathan/resume-builder/internal/apperror"
)

// ErrEmptyResponse is returned when the model answers with nothing
var ErrEmptyResponse = errors.New("model returned an empty response")

// ModelError reports a failed model exchange for one task.
// Output is set when the call succeeded but its answer could not be used.
type ModelError struct {
	Task   string
	Output bool
	Err    error
}

func (e *ModelError) Error() string {
	if e.Output {
		return fmt.Sprintf("%s: unusable model output: %v", e.Task, e.Err)
	}
	return fmt.Sprintf("%s: model call failed: %v", e.Task, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func callFailed(task string, err error) error {
	return apperror.NewAIFailed(&ModelError{Task: task, Err: err})
}

func badOutput(task string, err error) error {
	return apperror.NewAIFailed(&ModelError{Task: task, Output: true, Err: err})
}
