package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/tailoring"
	"github.com/jonathan/resume-builder/internal/types"
)

// maxUploadBytes bounds uploaded resume files
const maxUploadBytes = 10 << 20

// ResumeRequest is the body of POST /resumes and PUT /resumes/{id}
type ResumeRequest struct {
	Title  string          `json:"title" validate:"max=200"`
	Record json.RawMessage `json:"record" validate:"required"`
}

// ExtractRequest is the JSON body of POST /resumes/extract
type ExtractRequest struct {
	Text  string `json:"text" validate:"required"`
	Title string `json:"title" validate:"max=200"`
	// Save stores the extracted record as a new resume
	Save bool `json:"save"`
}

// ExtractResponse is returned by POST /resumes/extract
type ExtractResponse struct {
	Record *types.ResumeRecord `json:"record"`
	Resume *db.Resume          `json:"resume,omitempty"`
}

// ResumeListResponse is returned by GET /resumes
type ResumeListResponse struct {
	Resumes []db.Resume `json:"resumes"`
	Count   int         `json:"count"`
}

// decodeResumeRequest decodes and validates a resume body, returning its title and record
func (s *Server) decodeResumeRequest(w http.ResponseWriter, r *http.Request) (string, *types.ResumeRecord, error) {
	var req ResumeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return "", nil, err
	}
	var record types.ResumeRecord
	if err := json.Unmarshal(req.Record, &record); err != nil {
		return "", nil, apperror.NewInvalidInput("record is not a valid resume: " + err.Error())
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle(&record)
	}
	return title, &record, nil
}

// defaultTitle names an untitled resume after its owner
func defaultTitle(record *types.ResumeRecord) string {
	if name := strings.TrimSpace(string(record.PersonalInfo.FullName)); name != "" {
		return name + " Resume"
	}
	return "Untitled Resume"
}

// currentUser returns the authenticated user id; the auth middleware guarantees it is set
func currentUser(r *http.Request) (uuid.UUID, error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		return uuid.Nil, apperror.NewUnauthorized("authentication required", nil)
	}
	return userID, nil
}

// ownedResume loads the resume named by the {id} path value and checks it belongs to the caller
func (s *Server) ownedResume(r *http.Request) (*db.Resume, error) {
	return s.ownedResumeByID(r, r.PathValue("id"))
}

// ownedResumeByID loads a resume for the caller. Resumes owned by someone else are reported as missing.
func (s *Server) ownedResumeByID(r *http.Request, raw string) (*db.Resume, error) {
	userID, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	id, err := pipeline.ParseResumeID(raw)
	if err != nil {
		return nil, err
	}
	resume, err := s.store.GetResume(r.Context(), id)
	if err != nil {
		return nil, apperror.NewStorage("failed to load resume", err)
	}
	if resume == nil || resume.UserID != userID {
		return nil, apperror.NewResumeNotFound(raw)
	}
	return resume, nil
}

// handleCreateResume stores a new resume for the caller
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	title, record, err := s.decodeResumeRequest(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resume, err := s.store.CreateResume(r.Context(), &db.ResumeInput{UserID: userID, Title: title, Record: record})
	if err != nil {
		s.errorResponse(w, r, apperror.NewStorage("failed to create resume", err))
		return
	}
	s.log.Info("resume created", zap.String("resume_id", resume.ID.String()), zap.String("user_id", userID.String()))
	s.jsonResponse(w, http.StatusCreated, resume)
}

// handleListResumes lists the caller's resumes. Query: q, limit, offset.
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	filter := db.ResumeFilter{UserID: userID, Search: strings.TrimSpace(r.URL.Query().Get("q"))}
	if filter.Limit, err = queryInt(r, "limit", 0, 100); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0, -1); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resumes, err := s.store.ListResumes(r.Context(), filter)
	if err != nil {
		s.errorResponse(w, r, apperror.NewStorage("failed to list resumes", err))
		return
	}
	if resumes == nil {
		resumes = []db.Resume{}
	}
	s.jsonResponse(w, http.StatusOK, ResumeListResponse{Resumes: resumes, Count: len(resumes)})
}

// queryInt parses a non-negative integer query parameter; max < 0 means unbounded
func queryInt(r *http.Request, name string, fallback, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.NewInvalidInput(name + " must be a non-negative integer")
	}
	if max >= 0 && n > max {
		return 0, apperror.NewInvalidInput(name + " must be at most " + strconv.Itoa(max))
	}
	return n, nil
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

// handleUpdateResume replaces the title and record; stored documents are invalidated
func (s *Server) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	title, record, err := s.decodeResumeRequest(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	updated, err := s.store.UpdateResumeContent(r.Context(), resume.ID, title, record)
	if err != nil {
		s.errorResponse(w, r, apperror.NewStorage("failed to update resume", err))
		return
	}
	if !updated {
		s.errorResponse(w, r, apperror.NewResumeNotFound(resume.ID.String()))
		return
	}

	resume.Title = title
	resume.Record = record
	resume.Latex = nil
	resume.PDFURL = nil
	resume.ContentVersion++
	s.jsonResponse(w, http.StatusOK, resume)
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	resume, err := s.ownedResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	deleted, err := s.store.DeleteResume(r.Context(), resume.ID)
	if err != nil {
		s.errorResponse(w, r, apperror.NewStorage("failed to delete resume", err))
		return
	}
	if !deleted {
		s.errorResponse(w, r, apperror.NewResumeNotFound(resume.ID.String()))
		return
	}
	s.log.Info("resume deleted", zap.String("resume_id", resume.ID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// handleExtractResume turns pasted text or an uploaded document into a resume record.
// Multipart requests carry the document in "file"; an optional "save" field stores the result.
func (s *Server) handleExtractResume(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		s.errorResponse(w, r, apperror.New(apperror.ErrUnavailable, "resume extraction is not configured", nil))
		return
	}
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var req ExtractRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, err = readUploadedResume(w, r)
	} else {
		err = s.decodeJSON(w, r, &req)
	}
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	record, err := tailoring.Extract(r.Context(), s.llm, req.Text)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp := ExtractResponse{Record: record}
	if req.Save {
		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = defaultTitle(record)
		}
		resume, err := s.store.CreateResume(r.Context(), &db.ResumeInput{UserID: userID, Title: title, Record: record})
		if err != nil {
			s.errorResponse(w, r, apperror.NewStorage("failed to save extracted resume", err))
			return
		}
		resp.Resume = resume
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func readUploadedResume(w http.ResponseWriter, r *http.Request) (ExtractRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return ExtractRequest{}, apperror.NewInvalidInput("invalid multipart upload: " + err.Error())
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return ExtractRequest{}, apperror.NewInvalidInput("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return ExtractRequest{}, apperror.NewInvalidInput("failed to read uploaded file")
	}
	text, err := ingestion.ExtractText(header.Filename, data)
	if err != nil {
		if errors.Is(err, ingestion.ErrUnsupportedFormat) {
			return ExtractRequest{}, apperror.New(apperror.ErrInvalidInput, err.Error(), err)
		}
		return ExtractRequest{}, apperror.New(apperror.ErrInvalidInput, "could not read text from "+header.Filename, err)
	}

	save, _ := strconv.ParseBool(r.FormValue("save"))
	return ExtractRequest{Text: text, Title: r.FormValue("title"), Save: save}, nil
}
