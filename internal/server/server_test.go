package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/logger"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/types"
)

const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
)

var (
	aliceID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bobID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// staticValidator accepts a fixed set of tokens
type staticValidator map[string]uuid.UUID

func (v staticValidator) ValidateToken(token string) (uuid.UUID, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return uuid.Nil, errors.New("unknown token")
}

// fakeStore keeps resumes and job descriptions in memory
type fakeStore struct {
	mu      sync.Mutex
	resumes map[uuid.UUID]*db.Resume
	jds     map[uuid.UUID]*db.JobDescription
	pingErr error
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{resumes: map[uuid.UUID]*db.Resume{}, jds: map[uuid.UUID]*db.JobDescription{}}
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) CreateResume(ctx context.Context, in *db.ResumeInput) (*db.Resume, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	resume := &db.Resume{ID: uuid.New(), UserID: in.UserID, Title: in.Title, Record: in.Record, ContentVersion: 1, CreatedAt: now, UpdatedAt: now}
	f.resumes[resume.ID] = resume
	copied := *resume
	return &copied, nil
}

func (f *fakeStore) GetResume(ctx context.Context, id uuid.UUID) (*db.Resume, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	resume, ok := f.resumes[id]
	if !ok {
		return nil, nil
	}
	copied := *resume
	return &copied, nil
}

func (f *fakeStore) ListResumes(ctx context.Context, filter db.ResumeFilter) ([]db.Resume, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Resume
	for _, resume := range f.resumes {
		if resume.UserID == filter.UserID && strings.Contains(resume.Title, filter.Search) {
			out = append(out, *resume)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateResumeContent(ctx context.Context, id uuid.UUID, title string, record *types.ResumeRecord) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	resume, ok := f.resumes[id]
	if !ok {
		return false, nil
	}
	resume.Title = title
	resume.Record = record
	resume.Latex = nil
	resume.PDFURL = nil
	resume.ContentVersion++
	return true, nil
}

func (f *fakeStore) DeleteResume(ctx context.Context, id uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.resumes[id]
	delete(f.resumes, id)
	return ok, nil
}

func (f *fakeStore) CreateJobDescription(ctx context.Context, in *db.JobDescriptionInput) (*db.JobDescription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	jd := &db.JobDescription{
		ID:          uuid.New(),
		UserID:      in.UserID,
		ResumeID:    in.ResumeID,
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		Description: in.Description,
		SourceURL:   in.SourceURL,
		CreatedAt:   time.Now(),
	}
	f.jds[jd.ID] = jd
	return jd, nil
}

func (f *fakeStore) GetJobDescription(ctx context.Context, id uuid.UUID) (*db.JobDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jds[id], nil
}

func (f *fakeStore) ListJobDescriptions(ctx context.Context, resumeID uuid.UUID) ([]db.JobDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.JobDescription
	for _, jd := range f.jds {
		if jd.ResumeID != nil && *jd.ResumeID == resumeID {
			out = append(out, *jd)
		}
	}
	return out, nil
}

func (f *fakeStore) seed(userID uuid.UUID, title string) *db.Resume {
	resume, _ := f.CreateResume(context.Background(), &db.ResumeInput{
		UserID: userID,
		Title:  title,
		Record: &types.ResumeRecord{PersonalInfo: types.PersonalInfo{FullName: "Jane Doe"}},
	})
	return resume
}

// fakeDocuments records calls and returns canned results
type fakeDocuments struct {
	mu        sync.Mutex
	latexIDs  []string
	pdfIDs    []string
	latex     string
	result    *pipeline.PDFResult
	err       error
	progress  []pipeline.ProgressEvent
	texCalled bool
}

func (f *fakeDocuments) GenerateLatex(ctx context.Context, rawID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latexIDs = append(f.latexIDs, rawID)
	return f.latex, f.err
}

func (f *fakeDocuments) Latex(ctx context.Context, rawID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texCalled = true
	return f.latex, f.err
}

func (f *fakeDocuments) GeneratePDF(ctx context.Context, rawID string, onProgress pipeline.ProgressCallback) (*pipeline.PDFResult, error) {
	f.mu.Lock()
	f.pdfIDs = append(f.pdfIDs, rawID)
	f.mu.Unlock()
	if onProgress != nil {
		for _, event := range f.progress {
			onProgress(event)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	result := *f.result
	result.ResumeID = rawID
	return &result, nil
}

// fakeGenerator returns a fixed model response
type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

type fakeIngester struct {
	page *ingestion.Page
	err  error
	urls []string
}

func (f *fakeIngester) IngestURL(ctx context.Context, url string) (*ingestion.Page, error) {
	f.urls = append(f.urls, url)
	return f.page, f.err
}

type fakePublisher struct {
	jobs []events.CompileJob
	err  error
}

func (f *fakePublisher) PublishCompileJob(ctx context.Context, job events.CompileJob) error {
	f.jobs = append(f.jobs, job)
	return f.err
}

type testEnv struct {
	server   *Server
	store    *fakeStore
	docs     *fakeDocuments
	llm      *fakeGenerator
	ingester *fakeIngester
	jobs     *fakePublisher
	logs     *observer.ObservedLogs
}

func newTestEnv(t *testing.T, opts ...func(*Deps, *Config)) *testEnv {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	env := &testEnv{
		store:    newFakeStore(),
		docs:     &fakeDocuments{latex: `\documentclass{article}`, result: &pipeline.PDFResult{PDFURL: "https://cdn.example.com/resumes/x.pdf"}},
		llm:      &fakeGenerator{},
		ingester: &fakeIngester{},
		jobs:     &fakePublisher{},
		logs:     logs,
	}
	deps := Deps{
		Store:     env.store,
		Documents: env.docs,
		LLM:       env.llm,
		Ingester:  env.ingester,
		Jobs:      env.jobs,
		Verifier:  staticValidator{aliceToken: aliceID, bobToken: bobID},
		Log:       logger.FromZap(zap.New(core)),
	}
	cfg := Config{Port: "0"}
	for _, opt := range opts {
		opt(&deps, &cfg)
	}
	s, err := New(cfg, deps)
	require.NoError(t, err)
	env.server = s
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, w)["status"])

	env.store.pingErr = errors.New("connection refused")
	w = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAccessLog(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health", "", nil)

	entries := env.logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/health", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestResumeRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, tt := range []struct{ method, path string }{
		{http.MethodGet, "/resumes"},
		{http.MethodPost, "/resumes"},
		{http.MethodGet, "/resumes/" + uuid.NewString()},
		{http.MethodPost, "/generate-pdf"},
		{http.MethodPost, "/generate-latex"},
	} {
		w := env.do(t, tt.method, tt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tt.path)

		w = env.do(t, tt.method, tt.path, "forged", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tt.path)
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t, func(_ *Deps, cfg *Config) {
		cfg.AllowedOrigins = []string{"https://app.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/resumes", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit_RejectsWithRetryAfter(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:         true,
		DefaultLimit:    2,
		DefaultWindow:   time.Minute,
		CleanupInterval: time.Minute,
		IdleTTL:         time.Hour,
	})
	t.Cleanup(limiter.Stop)
	env := newTestEnv(t, func(deps *Deps, _ *Config) { deps.Limiter = limiter })

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodGet, "/resumes", aliceToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := env.do(t, http.MethodGet, "/resumes", aliceToken, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, apperror.ErrRateLimited.Error(), decodeBody[apperror.Body](t, w).Error)
}

func TestFilesServedFromLocalStorage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resume.pdf"), []byte("%PDF-1.5"), 0o644))
	env := newTestEnv(t, func(_ *Deps, cfg *Config) { cfg.FilesDir = dir })

	w := env.do(t, http.MethodGet, "/files/resume.pdf", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.5", w.Body.String())
}
