package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// cloudinaryAPI is the subset of the Cloudinary upload API used here
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryUploader stores objects as Cloudinary assets
type CloudinaryUploader struct {
	api cloudinaryAPI
}

// NewCloudinaryUploader connects with the cloud name and API credentials
func NewCloudinaryUploader(cfg Config) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name is not configured")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}
	return &CloudinaryUploader{api: &cld.Upload}, nil
}

// splitKey turns "resumes/abc.pdf" into folder "resumes" and public ID "abc"
func splitKey(key string) (folder, publicID string) {
	folder, file := path.Split(key)
	return strings.TrimSuffix(folder, "/"), strings.TrimSuffix(file, path.Ext(file))
}

// Upload sends the file and returns its secure URL
func (u *CloudinaryUploader) Upload(ctx context.Context, obj Object) (string, error) {
	file, err := os.Open(obj.Path)
	if err != nil {
		return "", &UploadError{Key: obj.Key, Cause: err}
	}
	defer file.Close()

	folder, publicID := splitKey(obj.Key)
	result, err := u.api.Upload(ctx, file, uploader.UploadParams{
		PublicID: publicID,
		Folder:   folder,
	})
	if err != nil {
		return "", &UploadError{Key: obj.Key, Cause: fmt.Errorf("failed to upload cloudinary: %w", err)}
	}
	if result.Error.Message != "" {
		return "", &UploadError{Key: obj.Key, Cause: fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)}
	}
	return result.SecureURL, nil
}

// Delete destroys the asset stored under key
func (u *CloudinaryUploader) Delete(ctx context.Context, key string) error {
	folder, publicID := splitKey(key)
	if folder != "" {
		publicID = folder + "/" + publicID
	}
	if _, err := u.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("failed to delete cloudinary asset %s: %w", publicID, err)
	}
	return nil
}
