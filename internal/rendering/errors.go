// Package rendering turns a ResumeRecord into a LaTeX document, either with the built-in layout or
// through a custom text/template file.
package rendering

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrNilRecord is returned when asked to render a nil record
var ErrNilRecord = errors.New("resume record is nil")

// TemplateStage names the step at which a custom template failed
type TemplateStage string

const (
	StageRead    TemplateStage = "read"
	StageParse   TemplateStage = "parse"
	StageExecute TemplateStage = "execute"
)

// TemplateError reports a custom template that could not be loaded or executed.
// Path is empty for templates held in memory.
type TemplateError struct {
	Stage TemplateStage
	Path  string
	Err   error
}

func (e *TemplateError) Error() string {
	if e.Stage == StageRead && errors.Is(e.Err, fs.ErrNotExist) {
		return "template file not found: " + e.Path
	}
	name := "template"
	if e.Path != "" {
		name += " " + e.Path
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Stage, name, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }
