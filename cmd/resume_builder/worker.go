package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/apperror"
	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/logger"
	"github.com/jonathan/resume-builder/internal/pipeline"
)

var workerConfigFile string

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume PDF compile jobs from Kafka",
	Long:  "Run the compile worker: each job queued by POST /resumes/{id}/pdf/jobs generates and records the resume's PDF.",
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().StringVarP(&workerConfigFile, "config", "c", "", "Path to YAML config file (default ./config.yaml if present)")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(workerConfigFile)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.cfg.Kafka.Enabled() {
		return fmt.Errorf("config error: 'kafka.brokers' (KAFKA_BROKERS) is required for the worker")
	}
	if err := a.connect(ctx); err != nil {
		return err
	}
	if err := a.buildDocuments(ctx); err != nil {
		return err
	}

	worker, err := events.NewWorker(a.cfg.Kafka, compileHandler(a.documents, a.log), a.log)
	if err != nil {
		return err
	}
	defer worker.Close()

	a.log.Info("compile worker started",
		zap.Strings("brokers", a.cfg.Kafka.Brokers),
		zap.String("topic", a.cfg.Kafka.Topic),
		zap.Int("concurrency", a.cfg.Kafka.Concurrency),
		zap.Int("max_attempts", a.cfg.Kafka.MaxAttempts),
	)
	if err := worker.Run(ctx); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	a.log.Info("compile worker stopped")
	return nil
}

// pdfGenerator is the part of pipeline.Service the worker calls
type pdfGenerator interface {
	GeneratePDF(ctx context.Context, rawID string, onProgress pipeline.ProgressCallback) (*pipeline.PDFResult, error)
}

// compileHandler generates the PDF for a job. Jobs that can never succeed are dropped so they
// are committed instead of retried.
func compileHandler(docs pdfGenerator, log logger.Logger) events.Handler {
	return func(ctx context.Context, job events.CompileJob) error {
		result, err := docs.GeneratePDF(ctx, job.ResumeID, nil)
		if err != nil {
			if errors.Is(err, apperror.ErrInvalidInput) || errors.Is(err, apperror.ErrResumeNotFound) {
				log.Warn("dropping compile job", zap.String("resume_id", job.ResumeID), zap.Error(err))
				return nil
			}
			return err
		}
		log.Info("compiled resume", zap.String("resume_id", result.ResumeID), zap.String("pdf_url", result.PDFURL), zap.Bool("cached", result.Cached))
		return nil
	}
}
