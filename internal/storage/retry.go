package storage

import (
	"context"
	"fmt"
	"time"
)

type retryingUploader struct {
	Uploader
	attempts int
	backoff  time.Duration
}

// WithRetry retries failed uploads with a linear backoff
func WithRetry(u Uploader, attempts int, backoff time.Duration) Uploader {
	if attempts < 1 {
		attempts = 1
	}
	return &retryingUploader{Uploader: u, attempts: attempts, backoff: backoff}
}

func (r *retryingUploader) Upload(ctx context.Context, obj Object) (string, error) {
	var lastErr error
	for i := 0; i < r.attempts; i++ {
		url, err := r.Uploader.Upload(ctx, obj)
		if err == nil {
			return url, nil
		}
		lastErr = err

		if i == r.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", &UploadError{Key: obj.Key, Cause: ctx.Err()}
		case <-time.After(r.backoff * time.Duration(i+1)):
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", r.attempts, lastErr)
}
