package storage

import "fmt"

// UploadError represents a failed upload
type UploadError struct {
	Key   string
	Cause error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload error: %s: %v", e.Key, e.Cause)
}

func (e *UploadError) Unwrap() error {
	return e.Cause
}
