package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/storage"
)

var (
	serveConfigFile string
	servePort       int
	serveBrowser    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes resume storage, tailoring and document generation.

Requires a database and an auth secret. The LLM, Redis and Kafka are optional; the endpoints
that need a missing collaborator answer 503.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigFile, "config", "c", "", "Path to YAML config file (default ./config.yaml if present)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides app.port)")
	serveCmd.Flags().BoolVar(&serveBrowser, "browser", false, "Render job posting pages in headless Chrome when plain fetching yields too little text")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := loadApp(serveConfigFile)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.Auth.RequireAuth(); err != nil {
		return err
	}
	if err := a.connect(ctx); err != nil {
		return err
	}
	if err := a.buildDocuments(ctx); err != nil {
		return err
	}

	deps := server.Deps{
		Store:     a.db,
		Documents: a.documents,
		Ingester:  a.newIngester(serveBrowser),
		Verifier:  server.NewTokenVerifier(a.cfg.Auth),
		Log:       a.log,
	}

	if err := a.buildLLM(ctx); err != nil {
		a.log.Warn("AI features disabled", zap.Error(err))
	} else {
		deps.LLM = a.llm
	}

	if a.cfg.Kafka.Enabled() {
		producer, err := events.NewProducer(a.cfg.Kafka)
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
		defer producer.Close()
		deps.Jobs = producer
	}

	if a.cfg.RateLimit.Enabled {
		deps.Limiter = ratelimit.NewLimiter(a.cfg.RateLimit.Config())
	}

	cfg := server.Config{
		Port:           a.cfg.App.Port,
		AllowedOrigins: a.cfg.App.AllowedOrigins,
	}
	if servePort > 0 {
		cfg.Port = strconv.Itoa(servePort)
	}
	if sc := a.cfg.StorageConfig(); sc.Driver == storage.DriverLocal || sc.Driver == "" {
		cfg.FilesDir = sc.LocalDir
	}

	srv, err := server.New(cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
