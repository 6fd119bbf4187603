package publish

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader implements Uploader for Cloudinary.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// CloudinaryConfig holds Cloudinary credentials. URL takes precedence over
// the individual fields.
type CloudinaryConfig struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// NewCloudinaryUploader creates an uploader from cfg.
func NewCloudinaryUploader(cfg CloudinaryConfig) (*CloudinaryUploader, error) {
	const op = "NewCloudinaryUploader"

	var cld *cloudinary.Cloudinary
	var err error
	switch {
	case cfg.URL != "":
		cld, err = cloudinary.NewFromURL(cfg.URL)
	case cfg.CloudName != "" && cfg.APIKey != "" && cfg.APISecret != "":
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	default:
		return nil, wrap(op, ErrMissingCredentials, "set CLOUDINARY_URL or the cloud name, API key and secret")
	}
	if err != nil {
		return nil, wrap(op, err, "failed to create Cloudinary client")
	}

	return &CloudinaryUploader{cld: cld, folder: cfg.Folder}, nil
}

// Upload sends the file at path and returns its secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, path, name string) (string, error) {
	const op = "Upload"

	resp, err := u.cld.Upload.Upload(ctx, path, uploader.UploadParams{
		PublicID: name,
		Folder:   u.folder,
	})
	if err != nil {
		return "", wrap(op, ErrUploadFailed, err.Error())
	}
	if resp.Error.Message != "" {
		return "", wrap(op, ErrUploadFailed, fmt.Sprintf("Cloudinary error: %s", resp.Error.Message))
	}
	if resp.SecureURL == "" {
		return "", wrap(op, ErrUploadFailed, "empty secure_url in response")
	}
	return resp.SecureURL, nil
}
