package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/pipeline"
)

// DocumentRequest is the body of the body-addressed document endpoints
type DocumentRequest struct {
	ResumeID string `json:"resume_id" validate:"required"`
}

// LatexResponse is returned by the generate-latex endpoints
type LatexResponse struct {
	Success  bool   `json:"success"`
	ResumeID string `json:"resume_id"`
}

// JobResponse is returned when a compile job is queued
type JobResponse struct {
	ResumeID string `json:"resume_id"`
	Status   string `json:"status"`
}

// resumeFromBody resolves the resume named by a DocumentRequest body
func (s *Server) resumeFromBody(w http.ResponseWriter, r *http.Request) (*db.Resume, error) {
	var req DocumentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	return s.ownedResumeByID(r, req.ResumeID)
}

func (s *Server) handleGenerateLatex(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.generateLatex(w, r, resume)
}

func (s *Server) handleGenerateLatexByBody(w http.ResponseWriter, r *http.Request) {
	resume, err := s.resumeFromBody(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.generateLatex(w, r, resume)
}

func (s *Server) generateLatex(w http.ResponseWriter, r *http.Request, resume *db.Resume) {
	resumeID := resume.ID.String()
	if _, err := s.documents.GenerateLatex(r.Context(), resumeID); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, LatexResponse{Success: true, ResumeID: resumeID})
}

// handleResumeTex returns the LaTeX source as a download
func (s *Server) handleResumeTex(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	latex, err := s.documents.Latex(r.Context(), resume.ID.String())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-tex; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="resume.tex"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(latex)) //nolint:errcheck
}

func (s *Server) handleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.generatePDF(w, r, resume)
}

func (s *Server) handleGeneratePDFByBody(w http.ResponseWriter, r *http.Request) {
	resume, err := s.resumeFromBody(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.generatePDF(w, r, resume)
}

func (s *Server) generatePDF(w http.ResponseWriter, r *http.Request, resume *db.Resume) {
	result, err := s.documents.GeneratePDF(r.Context(), resume.ID.String(), nil)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleResumePDF redirects to the PDF, compiling it first when none is recorded
func (s *Server) handleResumePDF(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if resume.PDFURL != nil && *resume.PDFURL != "" {
		http.Redirect(w, r, *resume.PDFURL, http.StatusFound)
		return
	}
	result, err := s.documents.GeneratePDF(r.Context(), resume.ID.String(), nil)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	http.Redirect(w, r, result.PDFURL, http.StatusFound)
}

// handleGeneratePDFStream runs PDF generation and reports each step as a Server-Sent Event
func (s *Server) handleGeneratePDFStream(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, apperror.NewInternal("streaming not supported", err))
		return
	}

	onProgress := func(event pipeline.ProgressEvent) {
		if err := sse.WriteProgress(event); err != nil {
			s.log.Warn("failed to write progress event", zap.Error(err), zap.String("resume_id", event.ResumeID))
		}
	}

	result, err := s.documents.GeneratePDF(r.Context(), resume.ID.String(), onProgress)
	if err != nil {
		if apperror.ToHTTPStatus(err) >= http.StatusInternalServerError {
			s.log.Error("streamed PDF generation failed", err, zap.String("resume_id", resume.ID.String()))
		}
		sse.WriteError(err)
		return
	}
	sse.WriteComplete(result)
}

// handleEnqueuePDF queues PDF generation for a background worker
func (s *Server) handleEnqueuePDF(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		s.errorResponse(w, r, apperror.New(apperror.ErrUnavailable, "background compilation is not configured", nil))
		return
	}
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resumeID := resume.ID.String()
	job := events.CompileJob{
		ResumeID:    resumeID,
		RequestedBy: resume.UserID.String(),
		RequestedAt: time.Now().UTC(),
	}
	if err := s.jobs.PublishCompileJob(r.Context(), job); err != nil {
		s.errorResponse(w, r, apperror.New(apperror.ErrUnavailable, "failed to queue PDF generation", err))
		return
	}
	s.log.Info("queued PDF generation", zap.String("resume_id", resumeID))
	s.jsonResponse(w, http.StatusAccepted, JobResponse{ResumeID: resumeID, Status: "queued"})
}
