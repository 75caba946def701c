// Package events carries compile jobs over Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jonathan/resume-builder/internal/logger"
)

const (
	// TopicCompileJobs is the default topic for PDF compile requests
	TopicCompileJobs = "resume.compile"
	// DeadLetterSuffix names the default dead-letter topic: <topic><suffix>
	DeadLetterSuffix = ".dead-letter"

	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = 2 * time.Second
)

// Config holds Kafka settings
type Config struct {
	Brokers         []string      `mapstructure:"brokers"`
	Topic           string        `mapstructure:"topic"`
	GroupID         string        `mapstructure:"group_id"`
	Concurrency     int           `mapstructure:"concurrency"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
}

// Enabled reports whether any broker is configured
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c Config) topic() string {
	if c.Topic == "" {
		return TopicCompileJobs
	}
	return c.Topic
}

func (c Config) deadLetterTopic() string {
	if c.DeadLetterTopic == "" {
		return c.topic() + DeadLetterSuffix
	}
	return c.DeadLetterTopic
}

// retryPolicy bounds how a failed job is retried before it is dead-lettered
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func (c Config) retryPolicy() retryPolicy {
	p := retryPolicy{attempts: c.MaxAttempts, backoff: c.RetryBackoff}
	if p.attempts <= 0 {
		p.attempts = DefaultMaxAttempts
	}
	if p.backoff <= 0 {
		p.backoff = DefaultRetryBackoff
	}
	return p
}

// CompileJob asks a worker to generate the PDF for one resume
type CompileJob struct {
	ResumeID    string    `json:"resume_id"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes compile jobs
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a Producer. Jobs are keyed by resume so one resume's jobs share a partition.
func NewProducer(cfg Config) (*Producer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka brokers not configured")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.topic(),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, topic: cfg.topic()}, nil
}

// PublishCompileJob enqueues a job
func (p *Producer) PublishCompileJob(ctx context.Context, job CompileJob) error {
	if job.ResumeID == "" {
		return errors.New("compile job has no resume_id")
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode compile job: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(job.ResumeID), Value: payload}); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one compile job
type Handler func(ctx context.Context, job CompileJob) error

// Worker consumes compile jobs with bounded concurrency.
// A job that keeps failing is published to the dead-letter topic before its offset is
// committed, because a commit of any later offset on the partition also covers it.
type Worker struct {
	reader      messageReader
	deadLetter  messageWriter
	handler     Handler
	concurrency int
	retry       retryPolicy
	log         logger.Logger
}

// NewWorker creates a consumer-group Worker
func NewWorker(cfg Config, handler Handler, log logger.Logger) (*Worker, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka brokers not configured")
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "resume-compile-workers"
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.topic(),
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	deadLetter := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.deadLetterTopic(),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	w := newWorker(reader, handler, cfg.Concurrency, log)
	w.deadLetter = deadLetter
	w.retry = cfg.retryPolicy()
	return w, nil
}

func newWorker(reader messageReader, handler Handler, concurrency int, log logger.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{
		reader:      reader,
		handler:     handler,
		concurrency: concurrency,
		retry:       Config{}.retryPolicy(),
		log:         log,
	}
}
