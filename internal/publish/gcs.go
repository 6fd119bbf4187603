package publish

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSUploader implements Uploader for a Google Cloud Storage bucket whose
// objects are publicly readable.
type GCSUploader struct {
	client *storage.Client
	bucket string
	folder string
}

// NewGCSUploader creates an uploader with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGCSUploader(ctx context.Context, bucket, folder string) (*GCSUploader, error) {
	const op = "NewGCSUploader"

	var opts []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, wrap(op, ErrMissingCredentials, err.Error())
	}
	return &GCSUploader{client: client, bucket: bucket, folder: folder}, nil
}

// Upload copies the file at path into the bucket and returns the public
// object URL.
func (u *GCSUploader) Upload(ctx context.Context, filePath, name string) (string, error) {
	const op = "Upload"

	f, err := os.Open(filePath)
	if err != nil {
		return "", wrap(op, err, "open "+filePath)
	}
	defer f.Close()

	object := objectName(u.folder, name)
	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "image/jpeg"

	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", wrap(op, ErrUploadFailed, fmt.Sprintf("write gs://%s/%s: %v", u.bucket, object, err))
	}
	if err := w.Close(); err != nil {
		return "", wrap(op, ErrUploadFailed, fmt.Sprintf("finalize gs://%s/%s: %v", u.bucket, object, err))
	}

	return publicURL(u.bucket, object), nil
}

// Close closes the storage client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

func objectName(folder, name string) string {
	return path.Join(folder, name+".jpg")
}

func publicURL(bucket, object string) string {
	return (&url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + bucket + "/" + object}).String()
}
