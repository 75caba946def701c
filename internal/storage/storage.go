// Package storage uploads compiled documents to object storage and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Drivers
const (
	DriverS3         = "s3"
	DriverCloudinary = "cloudinary"
	DriverLocal      = "local"
)

// Object is a local file to upload under Key
type Object struct {
	Key         string
	Path        string
	ContentType string
}

// Uploader stores objects and returns a public URL for them
type Uploader interface {
	Upload(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, key string) error
}

// Config selects and configures an uploader
type Config struct {
	Driver string `mapstructure:"driver"`

	// S3 and S3-compatible (R2) storage
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccountID string `mapstructure:"account_id"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`

	// Cloudinary
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`

	// Local filesystem
	LocalDir string `mapstructure:"local_dir"`

	// PublicBaseURL prefixes object keys to build the returned URL (S3 and local)
	PublicBaseURL string `mapstructure:"public_base_url"`

	// UploadAttempts is the number of tries per upload; values below 1 mean 1
	UploadAttempts int `mapstructure:"upload_attempts"`
}

// New builds the uploader named by cfg.Driver, wrapped with retries when configured
func New(ctx context.Context, cfg Config) (Uploader, error) {
	var (
		u   Uploader
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case DriverS3, "r2":
		u, err = NewS3Uploader(ctx, cfg)
	case DriverCloudinary:
		u, err = NewCloudinaryUploader(cfg)
	case DriverLocal, "":
		u, err = NewLocalUploader(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.UploadAttempts > 1 {
		u = WithRetry(u, cfg.UploadAttempts, 500*time.Millisecond)
	}
	return u, nil
}

// ResumePDFKey is the object key of a resume's compiled PDF
func ResumePDFKey(resumeID string) string {
	return path.Join("resumes", resumeID+".pdf")
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
