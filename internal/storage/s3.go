package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of the S3 client used here
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Uploader stores objects in S3 or an S3-compatible store such as Cloudflare R2
type S3Uploader struct {
	client        s3API
	bucket        string
	publicBaseURL string
}

// NewS3Uploader builds an S3 client from static credentials.
// When AccountID is set and Endpoint is not, the Cloudflare R2 endpoint for that account is used.
func NewS3Uploader(ctx context.Context, cfg Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required for the s3 driver")
	}

	region := cfg.Region
	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	if region == "" {
		region = "auto"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		if endpoint != "" {
			publicBase = joinURL(endpoint, cfg.Bucket)
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
		}
	}

	return newS3Uploader(client, cfg.Bucket, publicBase), nil
}

func newS3Uploader(client s3API, bucket, publicBaseURL string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, publicBaseURL: publicBaseURL}
}

// Upload puts the file at obj.Path under obj.Key
func (u *S3Uploader) Upload(ctx context.Context, obj Object) (string, error) {
	file, err := os.Open(obj.Path)
	if err != nil {
		return "", &UploadError{Key: obj.Key, Cause: err}
	}
	defer file.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(obj.Key),
		Body:   file,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", &UploadError{Key: obj.Key, Cause: fmt.Errorf("failed to put object: %w", err)}
	}
	return joinURL(u.publicBaseURL, obj.Key), nil
}

// Delete removes the object stored under key
func (u *S3Uploader) Delete(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
