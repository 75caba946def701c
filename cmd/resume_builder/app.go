package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/compiler"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/ingestion"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/locks"
	"github.com/jonathan/resume-builder/internal/logger"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/storage"
)

// lockTTL must exceed the longest compile plus upload
const lockTTL = 3 * time.Minute

// app holds the collaborators shared by serve and worker. Optional parts are nil when unconfigured.
type app struct {
	cfg       *config.Config
	log       logger.Logger
	db        *db.DB
	redis     *redis.Client
	documents *pipeline.Service
	llm       llm.Client
}

// loadApp reads configuration and builds the logger
func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

// connect opens the database and, when configured, Redis
func (a *app) connect(ctx context.Context) error {
	if err := a.cfg.RequireDatabase(); err != nil {
		return err
	}
	database, err := db.Connect(ctx, a.cfg.DB.URL)
	if err != nil {
		return err
	}
	a.db = database

	if a.cfg.Redis.Addr != "" {
		rdb, err := locks.NewRedisClient(ctx, a.cfg.Redis)
		if err != nil {
			return err
		}
		a.redis = rdb
		a.log.Info("connected to redis", zap.String("addr", a.cfg.Redis.Addr))
	}
	return nil
}

// buildDocuments wires the render, compile, upload and record pipeline
func (a *app) buildDocuments(ctx context.Context) error {
	uploader, err := storage.New(ctx, a.cfg.StorageConfig())
	if err != nil {
		return fmt.Errorf("failed to configure storage: %w", err)
	}

	comp := compiler.New(a.cfg.Compiler, a.log)
	if err := comp.Available(); err != nil {
		a.log.Warn("LaTeX compiler not available; PDF generation will fail", zap.Error(err))
	}

	var locker locks.Locker
	if a.redis != nil {
		locker = locks.NewRedisLocker(a.redis, "resume-pdf:", lockTTL)
	} else {
		locker = locks.NewKeyedMutex()
	}

	a.documents = pipeline.New(a.db, comp, uploader, locker, a.log)
	return nil
}

// buildLLM creates the model client; it is optional for serve
func (a *app) buildLLM(ctx context.Context) error {
	if err := a.cfg.RequireLLM(); err != nil {
		return err
	}
	modelCfg, err := a.cfg.ModelConfig()
	if err != nil {
		return err
	}
	client, err := llm.NewClient(ctx, modelCfg, a.cfg.LLM.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.llm = client
	return nil
}

// newIngester fetches job postings, caching extracted text in Redis when available
func (a *app) newIngester(useBrowser bool) *ingestion.URLIngester {
	in := &ingestion.URLIngester{Options: fetch.DefaultOptions(), Log: a.log}
	if useBrowser {
		in.Renderer = fetch.NewChromeRenderer()
	}
	if a.redis != nil {
		in.Cache = fetch.NewRedisPageCache(a.redis, fetch.DefaultPageCacheTTL)
	}
	return in
}

func (a *app) close() {
	if a.llm != nil {
		_ = a.llm.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.log.Sync()
}
