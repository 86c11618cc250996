package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"go.uber.org/zap"

	"coffeeshop/internal/logger"
)

// bucket is the part of *oss.Bucket the uploader needs.
type bucket interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
	DeleteObject(objectKey string, options ...oss.Option) error
}

// OSSUploader puts images in a public-read Aliyun OSS bucket.
type OSSUploader struct {
	bucket  bucket
	baseURL string
	now     func() time.Time
	log     *zap.Logger
}

func NewOSSUploader(endpoint, accessKeyID, accessKeySecret, bucketName string) (*OSSUploader, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss client: %w", err)
	}
	b, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", bucketName, err)
	}
	return newOSSUploader(b, fmt.Sprintf("https://%s.%s", bucketName, hostOf(endpoint))), nil
}

func newOSSUploader(b bucket, baseURL string) *OSSUploader {
	return &OSSUploader{
		bucket:  b,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		log:     logger.Named("storage"),
	}
}

func (u *OSSUploader) Upload(_ context.Context, file *multipart.FileHeader) (string, error) {
	extension, err := ValidateImage(file)
	if err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := objectKey(u.now(), extension)
	options := []oss.Option{}
	if contentType := mime.TypeByExtension(extension); contentType != "" {
		options = append(options, oss.ContentType(contentType))
	}
	if err := u.bucket.PutObject(key, src, options...); err != nil {
		u.log.Error("oss put failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	u.log.Info("image stored", zap.String("key", key), zap.Int64("size", file.Size))
	return u.baseURL + "/" + key, nil
}

func (u *OSSUploader) Delete(_ context.Context, url string) error {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil
	}
	key := strings.TrimPrefix(trimmed, u.baseURL+"/")
	if key == trimmed || !strings.HasPrefix(key, "images/") {
		return fmt.Errorf("%w: %s", ErrForeignObject, url)
	}
	return u.bucket.DeleteObject(key)
}

func hostOf(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimRight(endpoint, "/")
}
