package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInstalled means the compiler binary is missing from PATH
	ErrNotInstalled = errors.New("LaTeX compiler not installed")
	// ErrNoPDF matches any CompilationError
	ErrNoPDF = errors.New("PDF was not generated")
)

// CompilationError is returned when a run finishes without writing the PDF.
// LogOutput holds the combined stdout and stderr of the run.
type CompilationError struct {
	Binary    string
	LogOutput string
	Err       error
}

func (e *CompilationError) Error() string {
	msg := e.Binary + " produced no PDF"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompilationError) Unwrap() error { return e.Err }

func (e *CompilationError) Is(target error) bool { return target == ErrNoPDF }

// WorkDirError reports a filesystem failure while staging or collecting a run
type WorkDirError struct {
	Op   string
	Path string
	Err  error
}

func (e *WorkDirError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("compiler workspace: %s %q", e.Op, e.Path)
	}
	return fmt.Sprintf("compiler workspace: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *WorkDirError) Unwrap() error { return e.Err }
