// Package pipeline generates resume documents: render, compile, upload and record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/compiler"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/locks"
	"github.com/jonathan/resume-builder/internal/logger"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/storage"
)

// contentAttempts bounds how often a document is rebuilt because the resume changed underneath it
const contentAttempts = 3

// Progress steps
const (
	StepLoad    = "load"
	StepRender  = "render"
	StepCompile = "compile"
	StepUpload  = "upload"
	StepRecord  = "record"
	StepCached  = "cached"
)

// ProgressEvent represents a progress update during PDF generation
type ProgressEvent struct {
	Step     string `json:"step"`
	Message  string `json:"message"`
	ResumeID string `json:"resume_id"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Store is the persistence the pipeline needs
type Store interface {
	GetResume(ctx context.Context, id uuid.UUID) (*db.Resume, error)
	SaveLatex(ctx context.Context, id uuid.UUID, version int64, latex string) error
	SetPDFURL(ctx context.Context, id uuid.UUID, version int64, url string) (string, bool, error)
}

// Compiler turns LaTeX source into a PDF on disk
type Compiler interface {
	CompileSource(ctx context.Context, name, source, workDir string) (*compiler.Result, string, error)
}

// PDFResult is the outcome of GeneratePDF
type PDFResult struct {
	ResumeID string `json:"resume_id"`
	PDFURL   string `json:"pdf_url"`
	Cached   bool   `json:"cached"`
}

// Service renders, compiles, uploads and records resume documents
type Service struct {
	store    Store
	compiler Compiler
	uploader storage.Uploader
	locker   locks.Locker
	log      logger.Logger
}

// New creates a Service. A nil locker gets an in-process KeyedMutex.
func New(store Store, comp Compiler, uploader storage.Uploader, locker locks.Locker, log logger.Logger) *Service {
	if locker == nil {
		locker = locks.NewKeyedMutex()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{store: store, compiler: comp, uploader: uploader, locker: locker, log: log}
}

// ParseResumeID validates a resume identity supplied by a caller
func ParseResumeID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, apperror.NewInvalidInput("resume_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.ErrInvalidInput, "resume_id must be a valid UUID", err)
	}
	return id, nil
}

func (s *Service) loadResume(ctx context.Context, id uuid.UUID) (*db.Resume, error) {
	resume, err := s.store.GetResume(ctx, id)
	if err != nil {
		return nil, apperror.NewStorage("failed to load resume", err)
	}
	if resume == nil {
		return nil, apperror.NewResumeNotFound(id.String())
	}
	return resume, nil
}

// GenerateLatex renders the resume and stores the document on its row
func (s *Service) GenerateLatex(ctx context.Context, rawID string) (string, error) {
	id, err := ParseResumeID(rawID)
	if err != nil {
		return "", err
	}

	for range contentAttempts {
		resume, err := s.loadResume(ctx, id)
		if err != nil {
			return "", err
		}

		latex := rendering.RenderDocument(resume.Record)
		err = s.store.SaveLatex(ctx, id, resume.ContentVersion, latex)
		if errors.Is(err, db.ErrContentChanged) {
			continue
		}
		if err != nil {
			return "", apperror.NewStorage("failed to save rendered document", err)
		}
		return latex, nil
	}
	return "", errContentChurn(id)
}

// Latex returns the stored document, rendering it when none is stored yet
func (s *Service) Latex(ctx context.Context, rawID string) (string, error) {
	id, err := ParseResumeID(rawID)
	if err != nil {
		return "", err
	}
	resume, err := s.loadResume(ctx, id)
	if err != nil {
		return "", err
	}
	if resume.Latex != nil && *resume.Latex != "" {
		return *resume.Latex, nil
	}
	return rendering.RenderDocument(resume.Record), nil
}

// GeneratePDF returns the resume's PDF URL, compiling and uploading it first if none is recorded.
//
// Concurrent calls for the same resume serialize on the locker; the first compiles and
// records the URL, later ones find it recorded and return it as cached. The recording
// itself only succeeds while no URL is stored, so processes that do not share a locker
// still agree on a single URL. It is also tied to the content version the PDF was built
// from: if the resume is edited mid-build the PDF is dropped and rebuilt from the new content.
func (s *Service) GeneratePDF(ctx context.Context, rawID string, onProgress ProgressCallback) (*PDFResult, error) {
	id, err := ParseResumeID(rawID)
	if err != nil {
		return nil, err
	}
	resumeID := id.String()
	emit := func(step, msg string) {
		if onProgress != nil {
			onProgress(ProgressEvent{Step: step, Message: msg, ResumeID: resumeID})
		}
	}
	log := s.log.With(zap.String("resume_id", resumeID))

	emit(StepLoad, "loading resume")
	resume, err := s.loadResume(ctx, id)
	if err != nil {
		return nil, err
	}
	if cached := cachedResult(resume); cached != nil {
		emit(StepCached, "PDF already generated")
		return cached, nil
	}

	unlock, err := s.locker.Lock(ctx, resumeID)
	if err != nil {
		return nil, apperror.New(apperror.ErrUnavailable, "could not acquire the resume lock", err)
	}
	defer unlock()

	for range contentAttempts {
		// Another caller may have finished while we waited
		resume, err = s.loadResume(ctx, id)
		if err != nil {
			return nil, err
		}
		if cached := cachedResult(resume); cached != nil {
			emit(StepCached, "PDF already generated")
			return cached, nil
		}

		result, err := s.buildPDF(ctx, resume, emit, log)
		if errors.Is(err, db.ErrContentChanged) {
			log.Info("resume changed during PDF generation; rebuilding")
			continue
		}
		return result, err
	}
	return nil, errContentChurn(id)
}

// buildPDF renders, compiles, uploads and records the PDF for one content version of resume.
// It returns db.ErrContentChanged when the resume was updated before the URL could be recorded;
// the outdated PDF is then discarded.
func (s *Service) buildPDF(ctx context.Context, resume *db.Resume, emit func(step, msg string), log logger.Logger) (*PDFResult, error) {
	id, version := resume.ID, resume.ContentVersion
	resumeID := id.String()

	emit(StepRender, "rendering LaTeX")
	latex := ""
	if resume.Latex != nil {
		latex = *resume.Latex
	}
	if latex == "" {
		latex = rendering.RenderDocument(resume.Record)
		err := s.store.SaveLatex(ctx, id, version, latex)
		if errors.Is(err, db.ErrContentChanged) {
			return nil, err
		}
		if err != nil {
			return nil, apperror.NewStorage("failed to save rendered document", err)
		}
	}

	emit(StepCompile, "compiling PDF")
	result, workDir, err := s.compiler.CompileSource(ctx, resumeID, latex, "")
	if err != nil {
		var compErr *compiler.CompilationError
		if errors.As(err, &compErr) {
			log.Error("compilation produced no PDF", err, zap.String("compiler_log", tail(compErr.LogOutput, 2000)))
		} else {
			log.Error("compilation failed", err)
		}
		s.cleanup(workDir, resumeID, log)
		return nil, apperror.NewCompilation(err)
	}

	emit(StepUpload, "uploading PDF")
	url, err := s.uploader.Upload(ctx, storage.Object{
		Key:         storage.ResumePDFKey(resumeID),
		Path:        result.PDFPath,
		ContentType: "application/pdf",
	})
	if err != nil {
		// The compiled artifact is left in place
		log.Error("upload failed", err, zap.String("pdf", result.PDFPath))
		return nil, apperror.NewUpload(err)
	}

	emit(StepRecord, "recording PDF URL")
	stored, won, err := s.store.SetPDFURL(ctx, id, version, url)
	if errors.Is(err, db.ErrContentChanged) {
		// Not recorded; the next build for the new content overwrites the object under the same key
		s.cleanup(workDir, resumeID, log)
		return nil, err
	}
	if err != nil {
		return nil, apperror.NewStorage("failed to record PDF URL", err)
	}
	if !won && stored != "" {
		log.Info("PDF URL already recorded by another worker", zap.String("pdf_url", stored))
		url = stored
	}

	s.cleanup(workDir, resumeID, log)

	log.Info("generated PDF", zap.String("pdf_url", url))
	return &PDFResult{ResumeID: resumeID, PDFURL: url, Cached: !won && stored != ""}, nil
}

func (s *Service) cleanup(workDir, resumeID string, log logger.Logger) {
	if err := compiler.Cleanup(workDir, resumeID); err != nil {
		log.Warn("failed to clean up work directory", zap.String("dir", workDir), zap.Error(err))
	}
}

func errContentChurn(id uuid.UUID) error {
	return apperror.New(apperror.ErrConflict, "resume "+id.String()+" kept changing while its document was generated", db.ErrContentChanged)
}

func cachedResult(resume *db.Resume) *PDFResult {
	if resume.PDFURL == nil || *resume.PDFURL == "" {
		return nil
	}
	return &PDFResult{ResumeID: resume.ID.String(), PDFURL: *resume.PDFURL, Cached: true}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// String implements fmt.Stringer for log fields
func (r *PDFResult) String() string {
	return fmt.Sprintf("%s -> %s (cached=%t)", r.ResumeID, r.PDFURL, r.Cached)
}
