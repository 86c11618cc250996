// Package storage keeps uploaded catalog and reward images, either on local
// disk behind the static file route or in an Aliyun OSS bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"coffeeshop/internal/config"
)

const (
	DriverLocal = "local"
	DriverOSS   = "oss"

	maxImageSize = 5 << 20
)

var (
	ErrMissingExtension = errors.New("image file extension is required")
	ErrUnsupportedType  = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image file too large (max 5MB)")
	// ErrForeignObject is returned when asked to delete something this
	// uploader did not store.
	ErrForeignObject = errors.New("not an uploaded object")
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Uploader stores an image and hands back the URL clients load it from.
type Uploader interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, url string) error
}

// New picks the uploader named by cfg.Driver.
func New(cfg config.StorageConfig) (Uploader, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverLocal:
		return NewLocalUploader(cfg.UploadDir, cfg.PublicBaseURL), nil
	case DriverOSS:
		return NewOSSUploader(cfg.OSSEndpoint, cfg.OSSAccessKeyID, cfg.OSSAccessSecret, cfg.OSSBucket)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// ValidateImage checks the extension and size and returns the lowercased
// extension.
func ValidateImage(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", ErrMissingExtension
	}
	if _, ok := allowedExtensions[extension]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, extension)
	}
	if file.Size > maxImageSize {
		return "", ErrImageTooLarge
	}
	return extension, nil
}

// objectKey is images/YYYYMMDD/<uuid><ext>.
func objectKey(now time.Time, extension string) string {
	return fmt.Sprintf("images/%s/%s%s", now.Format("20060102"), uuid.NewString(), extension)
}
