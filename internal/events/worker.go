package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-builder/internal/logger"
)

// Run consumes until ctx is cancelled. A message is committed once its job succeeded or was
// dead-lettered after its retries; undecodable messages are committed and skipped.
func (w *Worker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	var fetchErr error
	for {
		msg, err := w.reader.FetchMessage(gctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				fetchErr = err
			}
			break
		}

		g.Go(func() error {
			w.process(gctx, msg)
			return nil
		})
	}

	_ = g.Wait()
	return fetchErr
}

func (w *Worker) process(ctx context.Context, msg kafka.Message) {
	log := w.log.With(zap.String("topic", msg.Topic), zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))

	var job CompileJob
	if err := json.Unmarshal(msg.Value, &job); err != nil || job.ResumeID == "" {
		log.Warn("skipping malformed compile job", zap.ByteString("key", msg.Key), zap.Error(err))
		w.commit(ctx, msg, log)
		return
	}

	log = log.With(zap.String("resume_id", job.ResumeID))
	attempts, err := w.handle(ctx, job, log)
	if err == nil {
		log.Info("compile job done", zap.Int("attempts", attempts))
		w.commit(ctx, msg, log)
		return
	}

	if dlErr := w.publishDeadLetter(ctx, msg, attempts, err); dlErr != nil {
		log.Error("failed to dead-letter compile job; offset left uncommitted", dlErr,
			zap.NamedError("job_error", err), zap.ByteString("payload", msg.Value))
		return
	}
	log.Warn("compile job dead-lettered", zap.Int("attempts", attempts), zap.Error(err))
	w.commit(ctx, msg, log)
}

// handle runs job until it succeeds, the attempts run out or ctx ends, doubling the
// backoff between attempts. It returns the number of attempts made.
func (w *Worker) handle(ctx context.Context, job CompileJob, log logger.Logger) (int, error) {
	backoff := w.retry.backoff
	for attempt := 1; ; attempt++ {
		err := w.handler(ctx, job)
		if err == nil {
			return attempt, nil
		}
		if attempt >= w.retry.attempts || ctx.Err() != nil {
			return attempt, err
		}

		log.Warn("compile job failed; retrying", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, err
		case <-timer.C:
		}
		backoff *= 2
	}
}

// publishDeadLetter copies msg to the dead-letter topic with the failure attached as headers
func (w *Worker) publishDeadLetter(ctx context.Context, msg kafka.Message, attempts int, cause error) error {
	if w.deadLetter == nil {
		return errors.New("no dead-letter topic configured")
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	return w.deadLetter.WriteMessages(ctx, kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: []kafka.Header{
			{Key: "x-error", Value: []byte(cause.Error())},
			{Key: "x-attempts", Value: []byte(strconv.Itoa(attempts))},
			{Key: "x-source-topic", Value: []byte(msg.Topic)},
			{Key: "x-source-partition", Value: []byte(strconv.Itoa(msg.Partition))},
			{Key: "x-source-offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		},
	})
}

func (w *Worker) commit(ctx context.Context, msg kafka.Message, log logger.Logger) {
	// Finished work is still committed during shutdown
	if err := w.reader.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
		log.Error("failed to commit message", err)
	}
}

// Close closes the reader and the dead-letter writer
func (w *Worker) Close() error {
	err := w.reader.Close()
	if w.deadLetter != nil {
		err = errors.Join(err, w.deadLetter.Close())
	}
	return err
}
