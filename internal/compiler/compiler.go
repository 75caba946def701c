// Package compiler runs pdflatex over rendered resume documents.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/resume-builder/internal/logger"
	"go.uber.org/zap"
)

const (
	// DefaultBinary is the compiler executable looked up on PATH
	DefaultBinary = "pdflatex"
	// DefaultTimeout bounds a single compiler run
	DefaultTimeout = 60 * time.Second

	workDirPattern = "latex-compile-*"
)

// Config controls how the compiler is invoked
type Config struct {
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Result describes a compiler run that produced a PDF
type Result struct {
	PDFPath   string
	LogOutput string
	// ExitErr is the subprocess error, if any. A PDF was still produced.
	ExitErr error
}

// Compiler invokes the LaTeX compiler as a subprocess
type Compiler struct {
	binary  string
	timeout time.Duration
	log     logger.Logger
}

// New creates a Compiler, filling unset config with defaults
func New(cfg Config, log logger.Logger) *Compiler {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Compiler{binary: cfg.Binary, timeout: cfg.Timeout, log: log}
}

// Available reports whether the compiler binary can be found
func (c *Compiler) Available() error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("%w: %s not found in PATH, install TeX Live or MiKTeX: %w", ErrNotInstalled, c.binary, err)
	}
	return nil
}

// CompileSource writes source to <workDir>/<name>.tex and compiles it.
// An empty workDir gets a fresh temporary directory, which the caller removes with Cleanup.
func (c *Compiler) CompileSource(ctx context.Context, name, source, workDir string) (*Result, string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, "", &WorkDirError{Op: "reject document name", Path: name}
	}

	dir, err := prepareWorkDir(workDir)
	if err != nil {
		return nil, "", err
	}

	texPath := filepath.Join(dir, name+".tex")
	if err := os.WriteFile(texPath, []byte(source), 0o644); err != nil {
		return nil, dir, &WorkDirError{Op: "write", Path: texPath, Err: err}
	}

	result, err := c.Compile(ctx, texPath, dir)
	return result, dir, err
}

// Compile compiles texPath into workDir.
//
// Success is decided by the presence of <workDir>/<base>.pdf after the run, not by the
// exit status: pdflatex exits non-zero on recoverable errors while still writing a usable PDF.
// A non-zero exit with a PDF present is logged as a warning and reported in Result.ExitErr.
func (c *Compiler) Compile(ctx context.Context, texPath, workDir string) (*Result, error) {
	if err := c.Available(); err != nil {
		return nil, err
	}

	dir, err := prepareWorkDir(workDir)
	if err != nil {
		return nil, err
	}

	texBaseName := filepath.Base(texPath)
	workTexPath := filepath.Join(dir, texBaseName)
	if texPath != workTexPath {
		content, err := os.ReadFile(texPath)
		if err != nil {
			return nil, &WorkDirError{Op: "read", Path: texPath, Err: err}
		}
		if err := os.WriteFile(workTexPath, content, 0o644); err != nil {
			return nil, &WorkDirError{Op: "copy into", Path: dir, Err: err}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.binary, "-interaction=nonstopmode", "-output-directory", dir, workTexPath)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that keep the output pipes open must not hold Wait past the deadline
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	runErr := cmd.Run()
	logOutput := stdout.String() + stderr.String()

	pdfPath := filepath.Join(dir, strings.TrimSuffix(texBaseName, ".tex")+".pdf")
	if _, statErr := os.Stat(pdfPath); statErr != nil {
		cause := runErr
		if cause == nil {
			cause = statErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			cause = fmt.Errorf("compiler timed out after %s: %w", c.timeout, runCtx.Err())
		}
		return nil, &CompilationError{Binary: c.binary, LogOutput: logOutput, Err: cause}
	}

	if runErr != nil {
		c.log.Warn("compiler exited with errors but produced a PDF",
			zap.String("tex", workTexPath),
			zap.Error(runErr),
		)
	}
	c.log.Info("compiled document",
		zap.String("pdf", pdfPath),
		zap.Duration("duration", time.Since(start)),
	)

	return &Result{PDFPath: pdfPath, LogOutput: logOutput, ExitErr: runErr}, nil
}

// Cleanup removes a temporary work directory created by this package.
// For any other directory it removes only the auxiliary files of name.
func Cleanup(workDir, name string) error {
	if workDir == "" {
		return nil
	}

	if strings.HasPrefix(filepath.Base(workDir), strings.TrimSuffix(workDirPattern, "*")) {
		return os.RemoveAll(workDir)
	}

	for _, ext := range []string{".tex", ".pdf", ".aux", ".log", ".out", ".toc"} {
		if err := os.Remove(filepath.Join(workDir, name+ext)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s%s: %w", name, ext, err)
		}
	}
	return nil
}

func prepareWorkDir(workDir string) (string, error) {
	if workDir == "" {
		dir, err := os.MkdirTemp("", workDirPattern)
		if err != nil {
			return "", &WorkDirError{Op: "create", Path: os.TempDir(), Err: err}
		}
		return dir, nil
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", &WorkDirError{Op: "create", Path: workDir, Err: err}
	}
	return workDir, nil
}
