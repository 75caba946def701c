package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/tailoring"
)

// TailorRequest is the body of POST /resumes/{id}/tailor.
// The job description is given inline or by the id of a stored one.
type TailorRequest struct {
	JobDescriptionID string `json:"job_description_id" validate:"omitempty,uuid"`
	JobDescription   string `json:"job_description" validate:"required_without=JobDescriptionID,max=50000"`
	Role             string `json:"role" validate:"max=200"`
	Company          string `json:"company" validate:"max=200"`
}

// JobDescriptionRequest is the body of POST /resumes/{id}/job-descriptions
type JobDescriptionRequest struct {
	Title       string `json:"title" validate:"max=300"`
	Company     string `json:"company" validate:"max=300"`
	Location    string `json:"location" validate:"max=300"`
	Description string `json:"description" validate:"required_without=URL,max=50000"`
	URL         string `json:"url" validate:"omitempty,url"`
}

// JobDescriptionListResponse is returned by GET /resumes/{id}/job-descriptions
type JobDescriptionListResponse struct {
	JobDescriptions []db.JobDescription `json:"job_descriptions"`
	Count           int                 `json:"count"`
}

func (s *Server) requireLLM(w http.ResponseWriter, r *http.Request) bool {
	if s.llm == nil {
		s.errorResponse(w, r, apperror.New(apperror.ErrUnavailable, "AI features are not configured", nil))
		return false
	}
	return true
}

// handleTailorResume rewrites the resume for a job and stores the result in place
func (s *Server) handleTailorResume(w http.ResponseWriter, r *http.Request) {
	if !s.requireLLM(w, r) {
		return
	}
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var req TailorRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	target := tailoring.Target{JobDescription: req.JobDescription, Role: req.Role, Company: req.Company}
	if req.JobDescriptionID != "" {
		jd, err := s.ownedJobDescription(r, req.JobDescriptionID)
		if err != nil {
			s.errorResponse(w, r, err)
			return
		}
		target.JobDescription = jd.Description
		if target.Role == "" {
			target.Role = jd.Title
		}
		if target.Company == "" {
			target.Company = jd.Company
		}
	}

	tailored, err := tailoring.Tailor(r.Context(), s.llm, resume.Record, target)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	updated, err := s.store.UpdateResumeContent(r.Context(), resume.ID, resume.Title, tailored)
	if err != nil {
		s.errorResponse(w, r, apperror.NewStorage("failed to save tailored resume", err))
		return
	}
	if !updated {
		s.errorResponse(w, r, apperror.NewResumeNotFound(resume.ID.String()))
		return
	}

	s.log.Info("resume tailored", zap.String("resume_id", resume.ID.String()), zap.String("company", target.Company))
	resume.Record = tailored
	resume.Latex = nil
	resume.PDFURL = nil
	resume.ContentVersion++
	s.jsonResponse(w, http.StatusOK, resume)
}

// ownedJobDescription loads a job description that belongs to the caller
func (s *Server) ownedJobDescription(r *http.Request, raw string) (*db.JobDescription, error) {
	userID, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.NewInvalidInput("job_description_id must be a valid UUID")
	}
	jd, err := s.store.GetJobDescription(r.Context(), id)
	if err != nil {
		return nil, apperror.NewStorage("failed to load job description", err)
	}
	if jd == nil || jd.UserID != userID {
		return nil, apperror.NewNotFound("job description", raw)
	}
	return jd, nil
}

// handleCreateJobDescription stores a job description for the resume.
// With a url and no description the posting is fetched; a missing title or company is
// filled from the posting text when an LLM is configured.
func (s *Server) handleCreateJobDescription(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var req JobDescriptionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	in := &db.JobDescriptionInput{
		UserID:      resume.UserID,
		ResumeID:    &resume.ID,
		Title:       strings.TrimSpace(req.Title),
		Company:     strings.TrimSpace(req.Company),
		Location:    strings.TrimSpace(req.Location),
		Description: strings.TrimSpace(req.Description),
		SourceURL:   strings.TrimSpace(req.URL),
	}

	if in.Description == "" {
		if s.ingester == nil {
			s.errorResponse(w, r, apperror.New(apperror.ErrUnavailable, "fetching job postings is not configured", nil))
			return
		}
		page, err := s.ingester.IngestURL(r.Context(), in.SourceURL)
		if err != nil {
			s.errorResponse(w, r, apperror.New(apperror.ErrInvalidInput, "failed to fetch job posting from url", err))
			return
		}
		in.Description = page.Text
		if page.Posting != nil {
			fillEmpty(&in.Title, page.Posting.Title)
			fillEmpty(&in.Company, page.Posting.Company)
			fillEmpty(&in.Location, page.Posting.Location)
		}
		s.log.Info("fetched job posting",
			zap.String("url", in.SourceURL),
			zap.Bool("from_cache", page.FromCache),
			zap.Bool("rendered", page.Rendered),
		)
	}

	if (in.Title == "" || in.Company == "") && s.llm != nil {
		posting, err := tailoring.ExtractPosting(r.Context(), s.llm, in.Description)
		if err != nil {
			// The description is still worth storing without a headline
			s.log.Warn("failed to extract job posting headline", zap.Error(err))
		} else {
			fillEmpty(&in.Title, posting.Title)
			fillEmpty(&in.Company, posting.Company)
			fillEmpty(&in.Location, posting.Location)
		}
	}
	fillEmpty(&in.Title, "Untitled Position")

	jd, err := s.store.CreateJobDescription(r.Context(), in)
	if err != nil {
		s.errorResponse(w, r, apperror.NewStorage("failed to save job description", err))
		return
	}
	s.jsonResponse(w, http.StatusCreated, jd)
}

func (s *Server) handleListJobDescriptions(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	jds, err := s.store.ListJobDescriptions(r.Context(), resume.ID)
	if err != nil {
		s.errorResponse(w, r, apperror.NewStorage("failed to list job descriptions", err))
		return
	}
	if jds == nil {
		jds = []db.JobDescription{}
	}
	s.jsonResponse(w, http.StatusOK, JobDescriptionListResponse{JobDescriptions: jds, Count: len(jds)})
}

func fillEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
