// Package server provides the HTTP REST API for the resume builder.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/logger"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/tailoring"
	"github.com/jonathan/resume-builder/internal/types"
)

// Store is the persistence the API needs
type Store interface {
	Ping(ctx context.Context) error
	CreateResume(ctx context.Context, in *db.ResumeInput) (*db.Resume, error)
	GetResume(ctx context.Context, id uuid.UUID) (*db.Resume, error)
	ListResumes(ctx context.Context, filter db.ResumeFilter) ([]db.Resume, error)
	UpdateResumeContent(ctx context.Context, id uuid.UUID, title string, record *types.ResumeRecord) (bool, error)
	DeleteResume(ctx context.Context, id uuid.UUID) (bool, error)
	CreateJobDescription(ctx context.Context, in *db.JobDescriptionInput) (*db.JobDescription, error)
	GetJobDescription(ctx context.Context, id uuid.UUID) (*db.JobDescription, error)
	ListJobDescriptions(ctx context.Context, resumeID uuid.UUID) ([]db.JobDescription, error)
}

// Documents renders and compiles resumes; pipeline.Service implements it
type Documents interface {
	GenerateLatex(ctx context.Context, rawID string) (string, error)
	Latex(ctx context.Context, rawID string) (string, error)
	GeneratePDF(ctx context.Context, rawID string, onProgress pipeline.ProgressCallback) (*pipeline.PDFResult, error)
}

// PageIngester fetches job postings from URLs
type PageIngester interface {
	IngestURL(ctx context.Context, url string) (*ingestion.Page, error)
}

// JobPublisher enqueues background compile jobs
type JobPublisher interface {
	PublishCompileJob(ctx context.Context, job events.CompileJob) error
}

// Config holds server configuration
type Config struct {
	Port string
	// AllowedOrigins lists CORS origins; empty allows any origin
	AllowedOrigins []string
	// FilesDir is served under /files/ when set (local storage driver)
	FilesDir string
}

// Deps are the collaborators the handlers call. LLM, Ingester, Jobs and Limiter are optional.
type Deps struct {
	Store     Store
	Documents Documents
	LLM       tailoring.Generator
	Ingester  PageIngester
	Jobs      JobPublisher
	Verifier  middleware.TokenValidator
	Limiter   *ratelimit.Limiter
	Log       logger.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg        Config
	store      Store
	documents  Documents
	llm        tailoring.Generator
	ingester   PageIngester
	jobs       JobPublisher
	verifier   middleware.TokenValidator
	limiter    *ratelimit.Limiter
	log        logger.Logger
	validate   *validator.Validate
	handler    http.Handler
	httpServer *http.Server
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Documents == nil || deps.Verifier == nil {
		return nil, fmt.Errorf("server requires a store, a document service and a token verifier")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		store:     deps.Store,
		documents: deps.Documents,
		llm:       deps.LLM,
		ingester:  deps.Ingester,
		jobs:      deps.Jobs,
		verifier:  deps.Verifier,
		limiter:   deps.Limiter,
		log:       log,
		validate:  newValidator(),
	}
	s.handler = s.routes()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      300 * time.Second, // Long timeout for compiles and LLM calls
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(s.verifier)
	authed := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux.HandleFunc("GET /health", s.handleHealth)

	// Resume CRUD
	mux.Handle("POST /resumes", authed(s.handleCreateResume))
	mux.Handle("GET /resumes", authed(s.handleListResumes))
	mux.Handle("GET /resumes/{id}", authed(s.handleGetResume))
	mux.Handle("PUT /resumes/{id}", authed(s.handleUpdateResume))
	mux.Handle("DELETE /resumes/{id}", authed(s.handleDeleteResume))

	// AI features
	mux.Handle("POST /resumes/extract", authed(s.handleExtractResume))
	mux.Handle("POST /resumes/{id}/tailor", authed(s.handleTailorResume))
	mux.Handle("POST /resumes/{id}/job-descriptions", authed(s.handleCreateJobDescription))
	mux.Handle("GET /resumes/{id}/job-descriptions", authed(s.handleListJobDescriptions))

	// Documents
	mux.Handle("POST /resumes/{id}/generate-latex", authed(s.handleGenerateLatex))
	mux.Handle("GET /resumes/{id}/resume.tex", authed(s.handleResumeTex))
	mux.Handle("POST /resumes/{id}/generate-pdf", authed(s.handleGeneratePDF))
	mux.Handle("GET /resumes/{id}/pdf", authed(s.handleResumePDF))
	mux.Handle("POST /resumes/{id}/pdf/stream", authed(s.handleGeneratePDFStream))
	mux.Handle("POST /resumes/{id}/pdf/jobs", authed(s.handleEnqueuePDF))

	// Body-addressed forms of the document endpoints
	mux.Handle("POST /generate-latex", authed(s.handleGenerateLatexByBody))
	mux.Handle("POST /generate-pdf", authed(s.handleGeneratePDFByBody))

	if s.cfg.FilesDir != "" {
		mux.Handle("GET /files/", http.StripPrefix("/files/", http.FileServer(http.Dir(s.cfg.FilesDir))))
	}

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.withRateLimit(h)
	}
	h = s.withCORS(h)
	return s.withLogging(h)
}

// Start listens until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: len(s.cfg.AllowedOrigins) > 0,
		MaxAge:           600,
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		opts.AllowedOrigins = s.cfg.AllowedOrigins
	} else {
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.New(opts).Handler(next)
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.limiter.Allow(clientIP(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging writes one access log line per request
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Int64("bytes", m.Written),
			zap.Duration("duration", m.Duration),
			zap.String("remote", clientIP(r)),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clientIP uses the connection address; forwarded headers are not trusted
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Round(time.Second).Seconds())))
	}
	s.log.Warn("rate limit exceeded",
		zap.String("client", clientIP(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit),
	)
	s.errorResponse(w, r, apperror.New(apperror.ErrRateLimited, "Rate limit exceeded. Please try again later.", nil))
}
